package achievement

import "github.com/julianstephens/daystreak/internal/models"

// Definition is a catalog entry seeded for every user.
type Definition struct {
	Type        models.AchievementType
	Title       string
	Description string
	Icon        string
	Requirement int
}

// DefaultCatalog is the achievement set seeded at registration.
var DefaultCatalog = []Definition{
	{models.AchievementTotalHabits, "First Step", "Complete your first habit", "👣", 1},
	{models.AchievementTotalHabits, "Getting Started", "Complete 10 habits", "🌱", 10},
	{models.AchievementTotalHabits, "Habit Builder", "Complete 50 habits", "🧱", 50},
	{models.AchievementTotalHabits, "Centurion", "Complete 100 habits", "💯", 100},
	{models.AchievementTotalHabits, "Unstoppable", "Complete 500 habits", "🚀", 500},

	{models.AchievementStreak, "On a Roll", "Reach a 3 day streak", "🔥", 3},
	{models.AchievementStreak, "Week Warrior", "Reach a 7 day streak", "⚔️", 7},
	{models.AchievementStreak, "Monthly Master", "Reach a 30 day streak", "🗓️", 30},
	{models.AchievementStreak, "Streak Legend", "Reach a 100 day streak", "🏆", 100},
	{models.AchievementStreak, "Year of Habits", "Reach a 365 day streak", "👑", 365},

	{models.AchievementLevel, "Rising Star", "Reach level 5", "⭐", 5},
	{models.AchievementLevel, "Seasoned", "Reach level 10", "🌟", 10},
	{models.AchievementLevel, "Elite", "Reach level 25", "💎", 25},

	{models.AchievementSocial, "Friendly", "Add your first friend", "🤝", 1},
	{models.AchievementSocial, "Social Circle", "Have 5 friends", "👥", 5},
	{models.AchievementSocial, "Community", "Have 10 friends", "🌍", 10},

	{models.AchievementPerfectWeek, "Perfect Week", "Complete every habit for a week", "✨", 1},
}

package models

import "time"

type AchievementType string

const (
	AchievementStreak      AchievementType = "streak"
	AchievementTotalHabits AchievementType = "total_habits"
	AchievementLevel       AchievementType = "level"
	AchievementPerfectWeek AchievementType = "perfect_week"
	AchievementSocial      AchievementType = "social"
)

type Achievement struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Type        AchievementType `json:"achievement_type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Requirement int             `json:"requirement"`
	UnlockedAt  *time.Time      `json:"unlocked_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (a Achievement) Unlocked() bool {
	return a.UnlockedAt != nil
}

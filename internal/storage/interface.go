package storage

import (
	"context"
	"time"

	"github.com/julianstephens/daystreak/internal/models"
)

// Provider is the durable ledger behind every engine. Each method is atomic on
// its own; there are no cross-method transactions. Lookups of missing rows
// return an error wrapping ErrNotFound, failed conditional writes one wrapping
// ErrConflict.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Profiles
	AddProfile(ctx context.Context, p models.Profile) error
	GetProfile(ctx context.Context, id string) (models.Profile, error)
	GetProfileByUsername(ctx context.Context, username string) (models.Profile, error)
	// UpdateProfile writes the username, display name and avatar.
	UpdateProfile(ctx context.Context, p models.Profile) error
	SearchProfiles(ctx context.Context, query, excludeID string, limit int) ([]models.Profile, error)
	GetAllProfileIDs(ctx context.Context) ([]string, error)

	// Streaks
	GetStreakProfile(ctx context.Context, userID string) (models.StreakProfile, error)
	// UpdateStreakProfile succeeds only if sp.Version still matches the stored row.
	UpdateStreakProfile(ctx context.Context, sp models.StreakProfile) error

	// Habits
	AddHabit(ctx context.Context, h models.Habit) error
	GetHabit(ctx context.Context, id string) (models.Habit, error)
	GetActiveHabits(ctx context.Context, userID string) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, h models.Habit) error
	SetHabitStreak(ctx context.Context, id string, streak int) error
	// DeleteHabit clears the active flag; habits are never removed.
	DeleteHabit(ctx context.Context, id string) error

	// Completions
	// UpsertCompletion inserts or flips the row for (HabitID, Date). It
	// reports false when the stored flag already equals c.Completed.
	UpsertCompletion(ctx context.Context, c models.Completion) (bool, error)
	GetCompletion(ctx context.Context, habitID, day string) (models.Completion, error)
	GetCompletionsForDay(ctx context.Context, userID, day string) ([]models.Completion, error)
	GetCompletionsInRange(ctx context.Context, userID, startDay, endDay string) ([]models.Completion, error)
	// GetCompletedDays returns the days on or before endDay the habit was
	// completed, newest first.
	GetCompletedDays(ctx context.Context, habitID, endDay string) ([]string, error)
	// GetDayProgress counts the user's active habits started on or before day
	// and how many of them are completed on day.
	GetDayProgress(ctx context.Context, userID, day string) (models.DayProgress, error)

	// Stats
	AddUserStats(ctx context.Context, s models.UserStats) error
	GetUserStats(ctx context.Context, userID string) (models.UserStats, error)
	// UpdateUserStats succeeds only if s.Version still matches the stored row.
	UpdateUserStats(ctx context.Context, s models.UserStats) error

	// Achievements
	// AddAchievement reports false when the (user, type, requirement) row already exists.
	AddAchievement(ctx context.Context, a models.Achievement) (bool, error)
	// GetAchievements returns the user's achievements ordered by requirement.
	GetAchievements(ctx context.Context, userID string) ([]models.Achievement, error)
	// UnlockAchievement sets unlocked_at only if it is still unset.
	UnlockAchievement(ctx context.Context, id string, at time.Time) (bool, error)

	// Friendships
	AddFriendship(ctx context.Context, f models.Friendship) error
	GetFriendship(ctx context.Context, id string) (models.Friendship, error)
	GetFriendshipBetween(ctx context.Context, userA, userB string) (models.Friendship, error)
	GetFriendships(ctx context.Context, userID string, status models.FriendshipStatus) ([]models.Friendship, error)
	UpdateFriendshipStatus(ctx context.Context, id string, from, to models.FriendshipStatus) (bool, error)
	DeleteFriendship(ctx context.Context, id string) error
	CountFriends(ctx context.Context, userID string) (int, error)

	// Partnerships
	AddPartnership(ctx context.Context, p models.StreakPartnership) error
	GetPartnership(ctx context.Context, id string) (models.StreakPartnership, error)
	GetOpenPartnershipBetween(ctx context.Context, userA, userB string) (models.StreakPartnership, error)
	GetPartnershipsForUser(ctx context.Context, userID string, statuses ...models.PartnershipStatus) ([]models.StreakPartnership, error)
	// UpdatePartnership succeeds only if p.Version still matches the stored row.
	UpdatePartnership(ctx context.Context, p models.StreakPartnership) error
	// RecordPartnershipDay writes p's streak, status and end date and sets
	// last_activity_date to day, but only while the stored row is active, at
	// p.Version, and has not already counted day. It reports whether the
	// write happened.
	RecordPartnershipDay(ctx context.Context, p models.StreakPartnership, day string) (bool, error)

	// Utils
	GetConfigPath() string
}

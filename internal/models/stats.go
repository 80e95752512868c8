package models

import (
	"time"

	"github.com/julianstephens/daystreak/internal/constants"
)

// UserStats is the per-user XP and level ledger. Version is bumped on every
// write and guards conditional updates.
type UserStats struct {
	UserID               string    `json:"user_id"`
	Level                int       `json:"level"`
	XP                   int       `json:"xp"`
	XPToNextLevel        int       `json:"xp_to_next_level"`
	TotalPoints          int       `json:"total_points"`
	TotalHabitsCompleted int       `json:"total_habits_completed"`
	Version              int64     `json:"version"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// NewUserStats returns the registration defaults for a user.
func NewUserStats(userID string) UserStats {
	return UserStats{
		UserID:        userID,
		Level:         constants.StartingLevel,
		XPToNextLevel: constants.BaseXPToNextLevel,
	}
}

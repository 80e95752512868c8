// Package xp converts earned points into levels.
//
// Level N costs 100*N XP: the threshold starts at constants.BaseXPToNextLevel
// and grows by constants.XPLevelIncrement on every level-up. Removing XP
// floors at zero and never lowers the level.
package xp

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/daystreak/internal/constants"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/logger"
	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/storage"
)

// LevelResult is the outcome of AddXP.
type LevelResult struct {
	LevelUp       bool `json:"level_up"`
	LevelsGained  int  `json:"levels_gained"`
	Level         int  `json:"level"`
	XP            int  `json:"xp"`
	XPToNextLevel int  `json:"xp_to_next_level"`
	TotalPoints   int  `json:"total_points"`
}

type Engine struct {
	store storage.Provider
	log   *log.Logger
}

// New creates a new Engine
func New(store storage.Provider) *Engine {
	return &Engine{store: store, log: logger.Component("xp")}
}

// Normalize applies every pending level-up so that 0 <= XP < XPToNextLevel
// and returns the number of levels gained. A threshold below the base is
// treated as corrupt and reset to the base first.
func Normalize(stats models.UserStats) (models.UserStats, int) {
	if stats.Level < constants.StartingLevel {
		stats.Level = constants.StartingLevel
	}
	if stats.XPToNextLevel < constants.BaseXPToNextLevel {
		stats.XPToNextLevel = constants.BaseXPToNextLevel
	}
	if stats.XP < 0 {
		stats.XP = 0
	}

	gained := 0
	for stats.XP >= stats.XPToNextLevel {
		stats.XP -= stats.XPToNextLevel
		stats.Level++
		stats.XPToNextLevel += constants.XPLevelIncrement
		gained++
	}
	return stats, gained
}

// Get returns the user's stats.
func (e *Engine) Get(ctx context.Context, userID string) (models.UserStats, error) {
	stats, err := e.store.GetUserStats(ctx, userID)
	if err != nil {
		return models.UserStats{}, apperrors.FromStore("get user stats", "user stats", userID, err)
	}
	return stats, nil
}

// AddXP credits one completion worth points and applies level-ups.
func (e *Engine) AddXP(ctx context.Context, userID string, points int) (LevelResult, error) {
	if points < 0 {
		return LevelResult{}, apperrors.Validation("points must not be negative, got %d", points)
	}

	var result LevelResult
	err := e.update(ctx, userID, func(stats models.UserStats) models.UserStats {
		stats.XP += points
		stats.TotalPoints += points
		stats.TotalHabitsCompleted++

		var gained int
		stats, gained = Normalize(stats)
		result = LevelResult{
			LevelUp:       gained > 0,
			LevelsGained:  gained,
			Level:         stats.Level,
			XP:            stats.XP,
			XPToNextLevel: stats.XPToNextLevel,
			TotalPoints:   stats.TotalPoints,
		}
		return stats
	})
	if err != nil {
		return LevelResult{}, err
	}

	if result.LevelUp {
		e.log.Info("Level up", "user", userID, "level", result.Level, "gained", result.LevelsGained)
	}
	return result, nil
}

// RemoveXP reverses one completion worth points. XP, total points and the
// completion count are floored at zero; the level is left alone.
func (e *Engine) RemoveXP(ctx context.Context, userID string, points int) (models.UserStats, error) {
	if points < 0 {
		return models.UserStats{}, apperrors.Validation("points must not be negative, got %d", points)
	}

	var updated models.UserStats
	err := e.update(ctx, userID, func(stats models.UserStats) models.UserStats {
		stats.XP = floor(stats.XP - points)
		stats.TotalPoints = floor(stats.TotalPoints - points)
		stats.TotalHabitsCompleted = floor(stats.TotalHabitsCompleted - 1)
		if stats.XPToNextLevel < constants.BaseXPToNextLevel {
			stats.XPToNextLevel = constants.BaseXPToNextLevel
		}
		updated = stats
		return stats
	})
	if err != nil {
		return models.UserStats{}, err
	}
	return updated, nil
}

// update runs a versioned read-modify-write, retrying when another writer
// got there first.
func (e *Engine) update(ctx context.Context, userID string, apply func(models.UserStats) models.UserStats) error {
	for attempt := 0; attempt < constants.MaxConflictRetries; attempt++ {
		stats, err := e.store.GetUserStats(ctx, userID)
		if err != nil {
			return apperrors.FromStore("get user stats", "user stats", userID, err)
		}

		next := apply(stats)
		next.Version = stats.Version
		err = e.store.UpdateUserStats(ctx, next)
		if err == nil {
			return nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return apperrors.FromStore("update user stats", "user stats", userID, err)
		}
		e.log.Debug("User stats changed concurrently, retrying", "user", userID, "attempt", attempt+1)
	}
	return apperrors.Conflict("user stats", userID)
}

func floor(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// Package achievement evaluates and unlocks one-time achievements.
package achievement

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/julianstephens/daystreak/internal/clock"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/logger"
	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/storage"
)

// Snapshot is the state achievements are evaluated against.
type Snapshot struct {
	Stats         models.UserStats
	CurrentStreak int
	FriendCount   int
}

// Progress summarizes how many achievements a user has unlocked.
type Progress struct {
	Unlocked int `json:"unlocked"`
	Total    int `json:"total"`
}

type Engine struct {
	store   storage.Provider
	clock   clock.Clock
	catalog []Definition
	log     *log.Logger
}

// New creates a new Engine seeding DefaultCatalog
func New(store storage.Provider, clk clock.Clock) *Engine {
	return &Engine{
		store:   store,
		clock:   clk,
		catalog: DefaultCatalog,
		log:     logger.Component("achievement"),
	}
}

// Seed inserts the catalog rows the user does not have yet and returns how
// many were added.
func (e *Engine) Seed(ctx context.Context, userID string) (int, error) {
	added := 0
	now := e.clock.Now().UTC()
	for _, def := range e.catalog {
		ok, err := e.store.AddAchievement(ctx, models.Achievement{
			ID:          uuid.New().String(),
			UserID:      userID,
			Type:        def.Type,
			Title:       def.Title,
			Description: def.Description,
			Icon:        def.Icon,
			Requirement: def.Requirement,
			CreatedAt:   now,
		})
		if err != nil {
			return added, apperrors.FromStore("seed achievements", "user", userID, err)
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// GetAll returns the user's achievements ordered by requirement. On a store
// failure it returns an empty list along with the error.
func (e *Engine) GetAll(ctx context.Context, userID string) ([]models.Achievement, error) {
	achievements, err := e.store.GetAchievements(ctx, userID)
	if err != nil {
		e.log.Warn("Failed to load achievements", "user", userID, "error", err)
		return []models.Achievement{}, apperrors.Store("get achievements", err)
	}
	return achievements, nil
}

// Progress counts unlocked achievements.
func (e *Engine) Progress(ctx context.Context, userID string) (Progress, error) {
	achievements, err := e.GetAll(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	p := Progress{Total: len(achievements)}
	for _, a := range achievements {
		if a.Unlocked() {
			p.Unlocked++
		}
	}
	return p, nil
}

// Satisfied reports whether snap meets a's requirement. perfect_week has no
// rule and is never satisfied.
func Satisfied(a models.Achievement, snap Snapshot) bool {
	switch a.Type {
	case models.AchievementTotalHabits:
		return snap.Stats.TotalHabitsCompleted >= a.Requirement
	case models.AchievementStreak:
		return snap.CurrentStreak >= a.Requirement
	case models.AchievementLevel:
		return snap.Stats.Level >= a.Requirement
	case models.AchievementSocial:
		return snap.FriendCount >= a.Requirement
	default:
		return false
	}
}

// CheckAndUnlock unlocks every locked achievement whose condition holds for
// snap and returns the newly unlocked ones in requirement order. Rows that
// are already unlocked are never touched.
func (e *Engine) CheckAndUnlock(ctx context.Context, userID string, snap Snapshot) ([]models.Achievement, error) {
	achievements, err := e.store.GetAchievements(ctx, userID)
	if err != nil {
		return nil, apperrors.Store("get achievements", err)
	}

	unlocked := []models.Achievement{}
	for _, a := range achievements {
		if a.Unlocked() || !Satisfied(a, snap) {
			continue
		}

		at := e.clock.Now().UTC()
		ok, err := e.store.UnlockAchievement(ctx, a.ID, at)
		if err != nil {
			return unlocked, apperrors.Store("unlock achievement", err)
		}
		if !ok {
			// Another caller unlocked it first
			continue
		}
		a.UnlockedAt = &at
		unlocked = append(unlocked, a)
		e.log.Info("Achievement unlocked", "user", userID, "title", a.Title)
	}
	return unlocked, nil
}

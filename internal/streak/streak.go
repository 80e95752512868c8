// Package streak maintains each user's day streak: the number of
// consecutive calendar days on which every eligible habit was completed.
package streak

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/daystreak/internal/clock"
	"github.com/julianstephens/daystreak/internal/constants"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/logger"
	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/storage"
	"github.com/julianstephens/daystreak/internal/utils"
)

// DayChecker answers whether a user satisfied a day. The ledger implements it.
type DayChecker interface {
	AllHabitsCompletedOnDate(ctx context.Context, userID, day string) (bool, error)
}

// CheckResult is the outcome of Check. OldStreak is the streak before the
// call, or the value that was lost when StreakBroken is set. Extended is set
// when today was newly credited.
type CheckResult struct {
	StreakBroken     bool   `json:"streak_broken"`
	OldStreak        int    `json:"old_streak"`
	CurrentStreak    int    `json:"current_streak"`
	LongestStreak    int    `json:"longest_streak"`
	LastActivityDate string `json:"last_activity_date,omitempty"`
	Extended         bool   `json:"extended"`
}

type Engine struct {
	store storage.Provider
	days  DayChecker
	clock clock.Clock
	log   *log.Logger
}

// New creates a new Engine
func New(store storage.Provider, days DayChecker, clk clock.Clock) *Engine {
	return &Engine{
		store: store,
		days:  days,
		clock: clk,
		log:   logger.Component("streak"),
	}
}

// GetProfile returns the stored streak state.
func (e *Engine) GetProfile(ctx context.Context, userID string) (models.StreakProfile, error) {
	sp, err := e.store.GetStreakProfile(ctx, userID)
	if err != nil {
		return models.StreakProfile{}, apperrors.FromStore("get streak", "profile", userID, err)
	}
	return sp, nil
}

// Check brings the user's streak up to date with the completion ledger. It
// must run after completions are persisted. Repeated calls on the same day
// with no new completions change nothing.
func (e *Engine) Check(ctx context.Context, userID string) (CheckResult, error) {
	return e.check(ctx, userID, "")
}

// Recheck is Check after a completion on a past day was toggled. When day
// falls inside the credited run, or just before it, the run is recounted
// from the ledger so it only spans satisfied days.
func (e *Engine) Recheck(ctx context.Context, userID, day string) (CheckResult, error) {
	return e.check(ctx, userID, day)
}

func (e *Engine) check(ctx context.Context, userID, touched string) (CheckResult, error) {
	today := e.clock.Today()

	for attempt := 0; attempt < constants.MaxConflictRetries; attempt++ {
		sp, err := e.store.GetStreakProfile(ctx, userID)
		if err != nil {
			return CheckResult{}, apperrors.FromStore("get streak", "profile", userID, err)
		}

		next, result, err := advance(ctx, sp, today, touched, func(day string) (bool, error) {
			return e.days.AllHabitsCompletedOnDate(ctx, userID, day)
		})
		if err != nil {
			return CheckResult{}, err
		}

		if next == sp {
			return result, nil
		}

		err = e.store.UpdateStreakProfile(ctx, next)
		if err == nil {
			if result.StreakBroken {
				e.log.Info("Streak broken", "user", userID, "lost", result.OldStreak)
			}
			if result.Extended {
				e.log.Debug("Streak extended", "user", userID, "streak", result.CurrentStreak)
			}
			return result, nil
		}
		if !errors.Is(err, storage.ErrConflict) {
			return CheckResult{}, apperrors.FromStore("update streak", "profile", userID, err)
		}
		e.log.Debug("Streak changed concurrently, retrying", "user", userID, "attempt", attempt+1)
	}
	return CheckResult{}, apperrors.Conflict("streak", userID)
}

// advance computes the streak state for today from sp. satisfied reports
// whether a past or present day had all habits done. touched is a past day
// whose completions changed, or empty.
func advance(ctx context.Context, sp models.StreakProfile, today, touched string, satisfied func(string) (bool, error)) (models.StreakProfile, CheckResult, error) {
	next := sp
	result := CheckResult{OldStreak: sp.CurrentStreak}

	yesterday, err := utils.AddDays(today, -1)
	if err != nil {
		return sp, CheckResult{}, err
	}

	// A last activity date in the future means the clock moved back; leave
	// the row alone until the calendar catches up.
	if next.LastActivityDate > today {
		return sp, finish(sp, result), nil
	}

	if touched != "" && touched < today {
		if err := recount(ctx, &next, touched, satisfied); err != nil {
			return sp, CheckResult{}, err
		}
	}

	if next.LastActivityDate != "" && next.LastActivityDate < yesterday {
		if err := backfill(ctx, &next, &result, yesterday, satisfied); err != nil {
			return sp, CheckResult{}, err
		}
	}

	done, err := satisfied(today)
	if err != nil {
		return sp, CheckResult{}, err
	}

	switch {
	case done && next.LastActivityDate == today:
		// already credited
	case done:
		if next.LastActivityDate == yesterday {
			next.CurrentStreak++
		} else {
			next.CurrentStreak = 1
		}
		next.LastActivityDate = today
		result.Extended = true
	case next.LastActivityDate == today:
		// A completion was undone after today was credited
		next.CurrentStreak--
		if next.CurrentStreak <= 0 {
			next.CurrentStreak = 0
			next.LastActivityDate = ""
		} else {
			next.LastActivityDate = yesterday
		}
	}

	if next.LongestStreak < next.CurrentStreak {
		next.LongestStreak = next.CurrentStreak
	}
	return next, finish(next, result), nil
}

// backfill walks the days between the last credited day and yesterday,
// oldest first, extending the streak on satisfied days. The first missed day
// while a streak is running breaks it.
func backfill(ctx context.Context, sp *models.StreakProfile, result *CheckResult, yesterday string, satisfied func(string) (bool, error)) error {
	start, err := utils.AddDays(sp.LastActivityDate, 1)
	if err != nil {
		return err
	}
	windowStart, err := utils.AddDays(yesterday, -(constants.MaxStreakBackfillDays - 1))
	if err != nil {
		return err
	}
	if start < windowStart {
		// Days before the window are treated as missed
		breakStreak(sp, result)
		start = windowStart
	}

	days, err := utils.DateRange(start, yesterday)
	if err != nil {
		return err
	}
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := satisfied(day)
		if err != nil {
			return err
		}
		if !done {
			breakStreak(sp, result)
			continue
		}

		prev, _ := utils.AddDays(day, -1)
		if sp.LastActivityDate == prev && sp.CurrentStreak > 0 {
			sp.CurrentStreak++
		} else {
			sp.CurrentStreak = 1
		}
		sp.LastActivityDate = day
		if sp.LongestStreak < sp.CurrentStreak {
			sp.LongestStreak = sp.CurrentStreak
		}
	}
	return nil
}

// recount rebuilds the credited run ending at the last activity date when
// touched lies within it or on the day before it. An unsatisfied last
// activity date moves the run's end back a day.
func recount(ctx context.Context, sp *models.StreakProfile, touched string, satisfied func(string) (bool, error)) error {
	if sp.LastActivityDate == "" || sp.CurrentStreak == 0 || touched > sp.LastActivityDate {
		return nil
	}
	before, err := utils.AddDays(sp.LastActivityDate, -sp.CurrentStreak)
	if err != nil {
		return err
	}
	if touched < before {
		return nil
	}

	end := sp.LastActivityDate
	done, err := satisfied(end)
	if err != nil {
		return err
	}
	if !done {
		if end, err = utils.AddDays(end, -1); err != nil {
			return err
		}
	}

	limit := sp.CurrentStreak + constants.MaxStreakBackfillDays
	count := 0
	for day := end; count < limit; count++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := satisfied(day)
		if err != nil {
			return err
		}
		if !done {
			break
		}
		if day, err = utils.AddDays(day, -1); err != nil {
			return err
		}
	}

	if sp.LongestStreak < count {
		sp.LongestStreak = count
	}
	sp.CurrentStreak = count
	sp.LastActivityDate = end
	if count == 0 {
		sp.LastActivityDate = ""
	}
	return nil
}

func breakStreak(sp *models.StreakProfile, result *CheckResult) {
	if sp.CurrentStreak == 0 {
		return
	}
	if !result.StreakBroken {
		result.StreakBroken = true
		result.OldStreak = sp.CurrentStreak
	}
	if sp.LongestStreak < sp.CurrentStreak {
		sp.LongestStreak = sp.CurrentStreak
	}
	sp.CurrentStreak = 0
}

func finish(sp models.StreakProfile, result CheckResult) CheckResult {
	result.CurrentStreak = sp.CurrentStreak
	result.LongestStreak = sp.LongestStreak
	result.LastActivityDate = sp.LastActivityDate
	return result
}

// Package tracker sequences the engines for a user action: record the
// completion, award XP, recompute streaks, unlock achievements and advance
// partnerships. Only the completion write is required to succeed. Later
// steps that fail are collected in the outcome and reported; streaks,
// achievements and partnerships are recomputed from the ledger, so the next
// action or Refresh catches them up.
package tracker

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/julianstephens/daystreak/internal/achievement"
	"github.com/julianstephens/daystreak/internal/clock"
	"github.com/julianstephens/daystreak/internal/constants"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/events"
	"github.com/julianstephens/daystreak/internal/ledger"
	"github.com/julianstephens/daystreak/internal/logger"
	"github.com/julianstephens/daystreak/internal/metrics"
	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/partnership"
	"github.com/julianstephens/daystreak/internal/social"
	"github.com/julianstephens/daystreak/internal/storage"
	"github.com/julianstephens/daystreak/internal/streak"
	"github.com/julianstephens/daystreak/internal/xp"
)

// Step names used in StepError and metrics.
const (
	StepXP           = "xp"
	StepHabitStreak  = "habit_streak"
	StepStreak       = "streak"
	StepAchievements = "achievements"
	StepPartnerships = "partnerships"
)

// Options configures a Tracker. Zero values fall back to no-op collaborators.
type Options struct {
	// CountEmptyDays makes a day with no active habits count toward streaks.
	CountEmptyDays bool
	Publisher      events.Publisher
	Metrics        *metrics.Metrics
	Reporter       apperrors.Reporter
}

// StepError is a failed step of an otherwise applied action.
type StepError struct {
	Step    string `json:"step"`
	Message string `json:"error"`
	err     error
}

func (e StepError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Message)
}

func (e StepError) Unwrap() error {
	return e.err
}

// Outcome is everything a completion or undo changed.
type Outcome struct {
	Completion   models.Completion            `json:"completion"`
	Changed      bool                         `json:"changed"`
	Points       int                          `json:"points"`
	Level        *xp.LevelResult              `json:"level,omitempty"`
	Stats        *models.UserStats            `json:"stats,omitempty"`
	HabitStreak  int                          `json:"habit_streak"`
	Streak       *streak.CheckResult          `json:"streak,omitempty"`
	Milestone    int                          `json:"milestone,omitempty"`
	Unlocked     []models.Achievement         `json:"unlocked"`
	Partnerships []partnership.ProgressResult `json:"partnerships"`
	Failures     []StepError                  `json:"failures,omitempty"`
}

// Partial reports whether any step after the completion write failed.
func (o Outcome) Partial() bool {
	return len(o.Failures) > 0
}

type Tracker struct {
	store        storage.Provider
	clock        clock.Clock
	ledger       *ledger.Ledger
	xp           *xp.Engine
	streaks      *streak.Engine
	achievements *achievement.Engine
	social       *social.Service
	partnerships *partnership.Engine
	events       events.Publisher
	metrics      *metrics.Metrics
	reporter     apperrors.Reporter
	log          *log.Logger
}

// New creates a new Tracker and the engines it drives
func New(store storage.Provider, clk clock.Clock, opts Options) *Tracker {
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Reporter == nil {
		opts.Reporter = apperrors.NopReporter{}
	}

	l := ledger.New(store, clk, ledger.Options{CountEmptyDays: opts.CountEmptyDays})
	s := social.New(store, clk)
	return &Tracker{
		store:        store,
		clock:        clk,
		ledger:       l,
		xp:           xp.New(store),
		streaks:      streak.New(store, l, clk),
		achievements: achievement.New(store, clk),
		social:       s,
		partnerships: partnership.New(store, l, s, clk),
		events:       opts.Publisher,
		metrics:      opts.Metrics,
		reporter:     opts.Reporter,
		log:          logger.Component("tracker"),
	}
}

func (t *Tracker) Clock() clock.Clock { return t.clock }
func (t *Tracker) Ledger() *ledger.Ledger { return t.ledger }
func (t *Tracker) XP() *xp.Engine { return t.xp }
func (t *Tracker) Streaks() *streak.Engine { return t.streaks }
func (t *Tracker) Achievements() *achievement.Engine { return t.achievements }
func (t *Tracker) Social() *social.Service { return t.social }
func (t *Tracker) Partnerships() *partnership.Engine { return t.partnerships }
func (t *Tracker) Metrics() *metrics.Metrics { return t.metrics }
func (t *Tracker) Publisher() events.Publisher { return t.events }

// Register creates a profile with default stats and the achievement catalog.
func (t *Tracker) Register(ctx context.Context, username, displayName string) (models.Profile, error) {
	p, err := t.social.CreateProfile(ctx, username, displayName)
	if err != nil {
		return models.Profile{}, err
	}
	if err := t.EnsureUser(ctx, p.ID); err != nil {
		return p, err
	}
	t.log.Info("User registered", "user", p.ID, "username", p.Username)
	return p, nil
}

// EnsureUser creates whatever registration rows the user is missing. It is
// safe to call any number of times.
func (t *Tracker) EnsureUser(ctx context.Context, userID string) error {
	if _, err := t.social.GetProfile(ctx, userID); err != nil {
		return err
	}
	if err := t.store.AddUserStats(ctx, models.NewUserStats(userID)); err != nil {
		return apperrors.Store("add user stats", err)
	}
	if _, err := t.achievements.Seed(ctx, userID); err != nil {
		return err
	}
	return nil
}

func (t *Tracker) fail(ctx context.Context, out *Outcome, step, userID string, err error) {
	out.Failures = append(out.Failures, StepError{Step: step, Message: apperrors.Reason(err), err: err})
	t.metrics.StepFailed(step)
	t.reporter.Report(ctx, err, "step", step, "user", userID)
}

func (t *Tracker) publish(ctx context.Context, typ events.Type, userID string, data map[string]interface{}) {
	e := events.New(typ, userID, t.clock.Now(), data)
	if err := t.events.Publish(ctx, e); err != nil {
		t.log.Warn("Failed to publish event", "type", typ, "user", userID, "error", err)
	}
}

// CompleteHabit marks habitID done on day (today when empty) and runs the
// rest of the chain. Completing an already completed habit awards no XP but
// still re-runs the idempotent steps.
func (t *Tracker) CompleteHabit(ctx context.Context, userID, habitID, day string) (Outcome, error) {
	if day == "" {
		day = t.clock.Today()
	}
	habit, err := t.ledger.GetHabit(ctx, userID, habitID)
	if err != nil {
		return Outcome{}, err
	}
	toggled, err := t.ledger.Toggle(ctx, userID, habitID, day, true)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Completion:   toggled.Completion,
		Changed:      toggled.Changed,
		Unlocked:     []models.Achievement{},
		Partnerships: []partnership.ProgressResult{},
	}

	if toggled.Changed {
		t.metrics.Completion("counted")
		t.publish(ctx, events.HabitCompleted, userID, map[string]interface{}{
			"habit_id": habitID, "day": day, "points": habit.Points,
		})
		level, err := t.xp.AddXP(ctx, userID, habit.Points)
		if err != nil {
			t.fail(ctx, &out, StepXP, userID, err)
		} else {
			out.Points = habit.Points
			out.Level = &level
			t.metrics.XP(habit.Points, level.LevelsGained)
			if level.LevelUp {
				t.publish(ctx, events.LevelUp, userID, map[string]interface{}{
					"level": level.Level, "levels_gained": level.LevelsGained,
				})
			}
		}
	} else {
		t.metrics.Completion("duplicate")
	}

	t.updateHabitStreak(ctx, &out, userID, habitID)
	t.checkStreak(ctx, &out, userID, day)
	t.unlock(ctx, &out, userID)

	results, err := t.partnerships.CheckAllForUser(ctx, userID)
	if err != nil {
		t.fail(ctx, &out, StepPartnerships, userID, err)
	}
	for _, res := range results {
		t.metrics.PartnershipCheck(string(res.Outcome))
		switch res.Outcome {
		case partnership.OutcomeCounted:
			t.publishPartnership(ctx, events.PartnershipCounted, res)
		case partnership.OutcomeTargetReached:
			t.publishPartnership(ctx, events.PartnershipCompleted, res)
		}
	}
	out.Partnerships = append(out.Partnerships, results...)

	t.log.Debug("Habit completed", "user", userID, "habit", habitID, "day", day, "changed", out.Changed, "failures", len(out.Failures))
	return out, nil
}

// UncompleteHabit clears habitID on day (today when empty), takes back the
// points and revokes the streak credit for day if it depended on the habit.
// Levels and unlocked achievements are kept.
func (t *Tracker) UncompleteHabit(ctx context.Context, userID, habitID, day string) (Outcome, error) {
	if day == "" {
		day = t.clock.Today()
	}
	habit, err := t.ledger.GetHabit(ctx, userID, habitID)
	if err != nil {
		return Outcome{}, err
	}
	toggled, err := t.ledger.Toggle(ctx, userID, habitID, day, false)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Completion:   toggled.Completion,
		Changed:      toggled.Changed,
		Unlocked:     []models.Achievement{},
		Partnerships: []partnership.ProgressResult{},
	}

	if toggled.Changed {
		t.metrics.Completion("undone")
		stats, err := t.xp.RemoveXP(ctx, userID, habit.Points)
		if err != nil {
			t.fail(ctx, &out, StepXP, userID, err)
		} else {
			out.Points = -habit.Points
			out.Stats = &stats
		}
		t.publish(ctx, events.HabitUncompleted, userID, map[string]interface{}{
			"habit_id": habitID, "day": day, "points": habit.Points,
		})
	}

	t.updateHabitStreak(ctx, &out, userID, habitID)
	t.checkStreak(ctx, &out, userID, day)
	return out, nil
}

// Refresh brings streak and achievements up to date without a new
// completion, as when a user opens the app on a new day.
func (t *Tracker) Refresh(ctx context.Context, userID string) (Outcome, error) {
	if _, err := t.social.GetProfile(ctx, userID); err != nil {
		return Outcome{}, err
	}
	out := Outcome{Unlocked: []models.Achievement{}, Partnerships: []partnership.ProgressResult{}}
	t.checkStreak(ctx, &out, userID, "")
	t.unlock(ctx, &out, userID)
	return out, nil
}

// AcceptFriend accepts a friend request and re-evaluates social achievements
// for both users.
func (t *Tracker) AcceptFriend(ctx context.Context, friendshipID, userID string) (models.Friendship, []models.Achievement, error) {
	f, err := t.social.AcceptRequest(ctx, friendshipID, userID)
	if err != nil {
		return models.Friendship{}, nil, err
	}

	unlocked := []models.Achievement{}
	for _, id := range []string{f.RequesterID, f.AddresseeID} {
		out := Outcome{}
		t.unlock(ctx, &out, id)
		if id == userID {
			unlocked = append(unlocked, out.Unlocked...)
		}
	}
	return f, unlocked, nil
}

func (t *Tracker) updateHabitStreak(ctx context.Context, out *Outcome, userID, habitID string) {
	n, err := t.ledger.HabitStreak(ctx, habitID, t.clock.Today())
	if err == nil {
		err = t.ledger.SetHabitStreak(ctx, habitID, n)
	}
	if err != nil {
		t.fail(ctx, out, StepHabitStreak, userID, err)
		return
	}
	out.HabitStreak = n
}

// checkStreak runs the streak check. A non-empty day is the day whose
// completions just changed.
func (t *Tracker) checkStreak(ctx context.Context, out *Outcome, userID, day string) {
	res, err := t.streaks.Recheck(ctx, userID, day)
	if err != nil {
		t.fail(ctx, out, StepStreak, userID, err)
		return
	}
	out.Streak = &res

	switch {
	case res.StreakBroken:
		t.metrics.StreakCheck("broken")
		t.publish(ctx, events.StreakBroken, userID, map[string]interface{}{"lost": res.OldStreak})
	case res.Extended:
		t.metrics.StreakCheck("extended")
		t.publish(ctx, events.StreakExtended, userID, map[string]interface{}{"streak": res.CurrentStreak})
	default:
		t.metrics.StreakCheck("held")
	}

	if res.Extended && constants.IsStreakMilestone(res.CurrentStreak) {
		out.Milestone = res.CurrentStreak
		t.publish(ctx, events.StreakMilestone, userID, map[string]interface{}{"days": res.CurrentStreak})
	}
}

func (t *Tracker) unlock(ctx context.Context, out *Outcome, userID string) {
	snap, err := t.snapshot(ctx, userID, out.Streak)
	if err != nil {
		t.fail(ctx, out, StepAchievements, userID, err)
		return
	}
	unlocked, err := t.achievements.CheckAndUnlock(ctx, userID, snap)
	for _, a := range unlocked {
		t.metrics.Unlocked(string(a.Type))
		t.publish(ctx, events.AchievementUnlocked, userID, map[string]interface{}{
			"achievement_id": a.ID, "title": a.Title, "type": a.Type, "requirement": a.Requirement,
		})
	}
	out.Unlocked = append(out.Unlocked, unlocked...)
	if err != nil {
		t.fail(ctx, out, StepAchievements, userID, err)
	}
}

// snapshot gathers the state achievements are evaluated against. A known
// streak result is preferred over re-reading the profile.
func (t *Tracker) snapshot(ctx context.Context, userID string, res *streak.CheckResult) (achievement.Snapshot, error) {
	stats, err := t.xp.Get(ctx, userID)
	if err != nil {
		return achievement.Snapshot{}, err
	}
	snap := achievement.Snapshot{Stats: stats}
	if res != nil {
		snap.CurrentStreak = res.CurrentStreak
	} else {
		sp, err := t.streaks.GetProfile(ctx, userID)
		if err != nil {
			return achievement.Snapshot{}, err
		}
		snap.CurrentStreak = sp.CurrentStreak
	}
	if snap.FriendCount, err = t.social.GetFriendCount(ctx, userID); err != nil {
		return achievement.Snapshot{}, err
	}
	return snap, nil
}

func (t *Tracker) publishPartnership(ctx context.Context, typ events.Type, res partnership.ProgressResult) {
	p := res.Partnership
	data := map[string]interface{}{
		"partnership_id": p.ID, "streak": res.CurrentStreak, "target": res.TargetDays,
	}
	t.publish(ctx, typ, p.User1ID, data)
	t.publish(ctx, typ, p.User2ID, data)
}

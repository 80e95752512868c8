package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/daystreak/internal/achievement"
	"github.com/julianstephens/daystreak/internal/clock"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/events"
	"github.com/julianstephens/daystreak/internal/ledger"
	"github.com/julianstephens/daystreak/internal/metrics"
	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/partnership"
	"github.com/julianstephens/daystreak/internal/storage"
	"github.com/julianstephens/daystreak/internal/testutil"
)

type recordingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingReporter) Report(_ context.Context, err error, _ ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// brokenStats fails every stats write.
type brokenStats struct {
	storage.Provider
}

func (brokenStats) UpdateUserStats(context.Context, models.UserStats) error {
	return errors.New("disk full")
}

type harness struct {
	tracker  *Tracker
	store    storage.Provider
	clock    *clock.Fixed
	events   *events.Recorder
	metrics  *metrics.Metrics
	reporter *recordingReporter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:    testutil.NewStore(t),
		clock:    clock.NewFixedDay("2024-03-10"),
		events:   &events.Recorder{},
		metrics:  metrics.New(),
		reporter: &recordingReporter{},
	}
	h.tracker = New(h.store, h.clock, Options{
		Publisher: h.events,
		Metrics:   h.metrics,
		Reporter:  h.reporter,
	})
	return h
}

func (h *harness) user(t *testing.T, username string) (models.Profile, models.Habit) {
	t.Helper()
	ctx := context.Background()
	p, err := h.tracker.Register(ctx, username, "")
	require.NoError(t, err)
	habit, err := h.tracker.Ledger().CreateHabit(ctx, p.ID, ledger.HabitInput{Name: "Read"})
	require.NoError(t, err)
	return p, habit
}

func titles(as []models.Achievement) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.Title)
	}
	return out
}

func TestRegister(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	p, err := h.tracker.Register(ctx, "alice", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.DisplayName)

	stats, err := h.tracker.XP().Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NewUserStats(p.ID).Level, stats.Level)
	assert.Equal(t, 100, stats.XPToNextLevel)

	all, err := h.tracker.Achievements().GetAll(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, all, len(achievement.DefaultCatalog))

	require.NoError(t, h.tracker.EnsureUser(ctx, p.ID))
	all, err = h.tracker.Achievements().GetAll(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, all, len(achievement.DefaultCatalog), "EnsureUser is idempotent")

	_, err = h.tracker.Register(ctx, "alice", "")
	assert.True(t, apperrors.IsValidation(err))

	err = h.tracker.EnsureUser(ctx, "nobody")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCompleteHabitAwardsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, habit := h.user(t, "alice")

	out, err := h.tracker.CompleteHabit(ctx, user.ID, habit.ID, "")
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.False(t, out.Partial())
	assert.Equal(t, 10, out.Points)
	require.NotNil(t, out.Level)
	assert.Equal(t, 10, out.Level.XP)
	assert.Equal(t, 1, out.HabitStreak)
	require.NotNil(t, out.Streak)
	assert.True(t, out.Streak.Extended)
	assert.Equal(t, 1, out.Streak.CurrentStreak)
	assert.Equal(t, []string{"First Step"}, titles(out.Unlocked))

	again, err := h.tracker.CompleteHabit(ctx, user.ID, habit.ID, "2024-03-10")
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Equal(t, 0, again.Points)
	assert.Nil(t, again.Level)
	assert.Empty(t, again.Unlocked)
	assert.Equal(t, 1, again.Streak.CurrentStreak)

	stats, err := h.tracker.XP().Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.XP)
	assert.Equal(t, 1, stats.TotalHabitsCompleted)

	assert.Equal(t, 1.0, prom.ToFloat64(h.metrics.Completions.WithLabelValues("counted")))
	assert.Equal(t, 1.0, prom.ToFloat64(h.metrics.Completions.WithLabelValues("duplicate")))
	assert.Equal(t, 10.0, prom.ToFloat64(h.metrics.XPAwarded))
	assert.Len(t, h.events.OfType(events.HabitCompleted), 1)
	assert.Len(t, h.events.OfType(events.AchievementUnlocked), 1)
}

func TestUncompleteHabit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, habit := h.user(t, "alice")

	_, err := h.tracker.CompleteHabit(ctx, user.ID, habit.ID, "")
	require.NoError(t, err)

	out, err := h.tracker.UncompleteHabit(ctx, user.ID, habit.ID, "")
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, -10, out.Points)
	require.NotNil(t, out.Stats)
	assert.Equal(t, 0, out.Stats.XP)
	assert.Equal(t, 0, out.Stats.TotalHabitsCompleted)
	assert.Equal(t, 0, out.HabitStreak)
	assert.Equal(t, 0, out.Streak.CurrentStreak)
	assert.False(t, out.Streak.StreakBroken)
	assert.Equal(t, 1, out.Streak.LongestStreak)

	// First Step stays unlocked
	all, err := h.tracker.Achievements().GetAll(ctx, user.ID)
	require.NoError(t, err)
	for _, a := range all {
		if a.Title == "First Step" {
			assert.True(t, a.Unlocked())
		}
	}

	again, err := h.tracker.UncompleteHabit(ctx, user.ID, habit.ID, "")
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Equal(t, 0, again.Points)
}

func TestCompleteHabitRejectsFutureDay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, habit := h.user(t, "alice")

	for _, day := range []string{"2024-03-11", "2030-01-01"} {
		_, err := h.tracker.CompleteHabit(ctx, user.ID, habit.ID, day)
		assert.True(t, apperrors.IsValidation(err), "%s: got %v", day, err)
	}

	stats, err := h.tracker.XP().Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.XP)
	assert.Equal(t, 0, stats.TotalHabitsCompleted)
	assert.Empty(t, h.events.OfType(events.HabitCompleted))
}

func TestUncompletePastDayRevokesStreak(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, habit := h.user(t, "alice")

	_, err := h.tracker.CompleteHabit(ctx, user.ID, habit.ID, "")
	require.NoError(t, err)
	h.clock.AdvanceDays(1)
	out, err := h.tracker.CompleteHabit(ctx, user.ID, habit.ID, "")
	require.NoError(t, err)
	require.Equal(t, 2, out.Streak.CurrentStreak)

	out, err = h.tracker.UncompleteHabit(ctx, user.ID, habit.ID, "2024-03-10")
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, -10, out.Points)
	require.NotNil(t, out.Streak)
	assert.Equal(t, 1, out.Streak.CurrentStreak)
	assert.Equal(t, "2024-03-11", out.Streak.LastActivityDate)
	assert.Equal(t, 2, out.Streak.LongestStreak)

	sp, err := h.tracker.Streaks().GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, sp.CurrentStreak)

	out, err = h.tracker.CompleteHabit(ctx, user.ID, habit.ID, "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, 2, out.Streak.CurrentStreak)
}

func TestCompleteHabitMilestone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, habit := h.user(t, "alice")

	sp, err := h.store.GetStreakProfile(ctx, user.ID)
	require.NoError(t, err)
	sp.CurrentStreak = 6
	sp.LongestStreak = 6
	sp.LastActivityDate = "2024-03-09"
	require.NoError(t, h.store.UpdateStreakProfile(ctx, sp))

	out, err := h.tracker.CompleteHabit(ctx, user.ID, habit.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 7, out.Streak.CurrentStreak)
	assert.Equal(t, 7, out.Milestone)
	assert.Contains(t, titles(out.Unlocked), "Week Warrior")

	milestones := h.events.OfType(events.StreakMilestone)
	require.Len(t, milestones, 1)
	assert.Equal(t, 7, milestones[0].Data["days"])
}

func TestCompleteHabitPartialFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, habit := h.user(t, "alice")

	broken := New(brokenStats{h.store}, h.clock, Options{Metrics: h.metrics, Reporter: h.reporter})
	out, err := broken.CompleteHabit(ctx, user.ID, habit.ID, "")
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.True(t, out.Partial())
	require.Len(t, out.Failures, 1)
	assert.Equal(t, StepXP, out.Failures[0].Step)
	assert.Nil(t, out.Level)

	// Later steps still ran
	require.NotNil(t, out.Streak)
	assert.Equal(t, 1, out.Streak.CurrentStreak)
	assert.Equal(t, 1, out.HabitStreak)

	c, err := h.store.GetCompletion(ctx, habit.ID, "2024-03-10")
	require.NoError(t, err)
	assert.True(t, c.Completed)

	assert.Len(t, h.reporter.errs, 1)
	assert.Equal(t, 1.0, prom.ToFloat64(h.metrics.StepFailures.WithLabelValues(StepXP)))
}

func TestCompleteHabitAdvancesPartnership(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice, aliceHabit := h.user(t, "alice")
	bob, bobHabit := h.user(t, "bob")

	req, err := h.tracker.Social().SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, unlocked, err := h.tracker.AcceptFriend(ctx, req.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Friendly"}, titles(unlocked))

	p, err := h.tracker.Partnerships().CreateInvite(ctx, alice.ID, bob.ID, 7)
	require.NoError(t, err)
	ok, err := h.tracker.Partnerships().AcceptInvite(ctx, p.ID, bob.ID)
	require.NoError(t, err)
	require.True(t, ok)

	out, err := h.tracker.CompleteHabit(ctx, alice.ID, aliceHabit.ID, "")
	require.NoError(t, err)
	require.Len(t, out.Partnerships, 1)
	assert.Equal(t, partnership.OutcomeWaiting, out.Partnerships[0].Outcome)

	out, err = h.tracker.CompleteHabit(ctx, bob.ID, bobHabit.ID, "")
	require.NoError(t, err)
	require.Len(t, out.Partnerships, 1)
	assert.Equal(t, partnership.OutcomeCounted, out.Partnerships[0].Outcome)
	assert.Equal(t, 1, out.Partnerships[0].CurrentStreak)

	// Both members hear about the counted day
	assert.Len(t, h.events.OfType(events.PartnershipCounted), 2)
}

func TestRefreshBreaksStaleStreak(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, _ := h.user(t, "alice")

	sp, err := h.store.GetStreakProfile(ctx, user.ID)
	require.NoError(t, err)
	sp.CurrentStreak = 5
	sp.LongestStreak = 5
	sp.LastActivityDate = "2024-03-07"
	require.NoError(t, h.store.UpdateStreakProfile(ctx, sp))

	out, err := h.tracker.Refresh(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, out.Streak)
	assert.True(t, out.Streak.StreakBroken)
	assert.Equal(t, 5, out.Streak.OldStreak)
	assert.Equal(t, 0, out.Streak.CurrentStreak)
	assert.Equal(t, 5, out.Streak.LongestStreak)
	assert.Len(t, h.events.OfType(events.StreakBroken), 1)

	again, err := h.tracker.Refresh(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, again.Streak.StreakBroken)

	_, err = h.tracker.Refresh(ctx, "nobody")
	assert.True(t, apperrors.IsNotFound(err))
}

package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/daystreak/internal/clock"
	apperrors "github.com/julianstephens/daystreak/internal/errors"
	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/storage/sqlite"
	"github.com/julianstephens/daystreak/internal/testutil"
)

func setup(t *testing.T, opts Options) (*Ledger, *sqlite.Store, *clock.Fixed, models.Profile) {
	t.Helper()
	store := testutil.NewStore(t)
	clk := clock.NewFixedDay("2024-03-10")
	user := testutil.AddUser(t, store, "alice")
	return New(store, clk, opts), store, clk, user
}

func TestCreateHabitDefaults(t *testing.T) {
	l, _, _, user := setup(t, Options{})
	ctx := context.Background()

	daily, err := l.CreateHabit(ctx, user.ID, HabitInput{Name: "  Read  "})
	require.NoError(t, err)
	assert.Equal(t, "Read", daily.Name)
	assert.Equal(t, models.FrequencyDaily, daily.Frequency)
	assert.Equal(t, 10, daily.Points)
	assert.Equal(t, "2024-03-10", daily.StartDate)
	assert.True(t, daily.IsActive)

	weekly, err := l.CreateHabit(ctx, user.ID, HabitInput{Name: "Long run", Frequency: models.FrequencyWeekly})
	require.NoError(t, err)
	assert.Equal(t, 30, weekly.Points)

	custom, err := l.CreateHabit(ctx, user.ID, HabitInput{Name: "Meditate", Points: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, custom.Points)

	habits, err := l.GetAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, habits, 3)
}

func TestCreateHabitValidation(t *testing.T) {
	l, _, _, user := setup(t, Options{})
	ctx := context.Background()

	tests := []struct {
		name string
		in   HabitInput
	}{
		{"empty name", HabitInput{Name: " "}},
		{"negative points", HabitInput{Name: "Read", Points: -5}},
		{"unknown frequency", HabitInput{Name: "Read", Frequency: "hourly"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.CreateHabit(ctx, user.ID, tt.in)
			assert.True(t, apperrors.IsValidation(err), "got %v", err)
		})
	}
}

func TestUpdateAndDeleteHabit(t *testing.T) {
	l, _, _, user := setup(t, Options{})
	ctx := context.Background()

	habit, err := l.CreateHabit(ctx, user.ID, HabitInput{Name: "Read"})
	require.NoError(t, err)

	_, err = l.UpdateHabit(ctx, user.ID, habit.ID, HabitInput{Name: "Read more", Points: 99})
	assert.True(t, apperrors.IsValidation(err), "got %v", err)

	updated, err := l.UpdateHabit(ctx, user.ID, habit.ID, HabitInput{Name: "Read more", Points: 10})
	require.NoError(t, err)
	assert.Equal(t, "Read more", updated.Name)
	assert.Equal(t, 10, updated.Points)

	_, err = l.UpdateHabit(ctx, "someone-else", habit.ID, HabitInput{Name: "x"})
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, l.DeleteHabit(ctx, user.ID, habit.ID))
	habits, err := l.GetAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, habits)

	err = l.DeleteHabit(ctx, user.ID, habit.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = l.Toggle(ctx, user.ID, habit.ID, "2024-03-10", true)
	assert.True(t, apperrors.IsValidation(err))
}

func TestToggleUpsertIdempotence(t *testing.T) {
	l, _, _, user := setup(t, Options{})
	ctx := context.Background()
	habit, err := l.CreateHabit(ctx, user.ID, HabitInput{Name: "Read"})
	require.NoError(t, err)

	first, err := l.Toggle(ctx, user.ID, habit.ID, "2024-03-10", true)
	require.NoError(t, err)
	assert.True(t, first.Changed)

	second, err := l.Toggle(ctx, user.ID, habit.ID, "2024-03-10", true)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Completion.ID, second.Completion.ID)

	rows, err := l.GetByDate(ctx, user.ID, "2024-03-10")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Completed)

	undo, err := l.Toggle(ctx, user.ID, habit.ID, "2024-03-10", false)
	require.NoError(t, err)
	assert.True(t, undo.Changed)
	assert.False(t, undo.Completion.Completed)

	rows, err = l.GetByDate(ctx, user.ID, "2024-03-10")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Completed)
}

func TestToggleUncompleteWithoutRow(t *testing.T) {
	l, _, _, user := setup(t, Options{})
	ctx := context.Background()
	habit, err := l.CreateHabit(ctx, user.ID, HabitInput{Name: "Read"})
	require.NoError(t, err)

	res, err := l.Toggle(ctx, user.ID, habit.ID, "2024-03-10", false)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.False(t, res.Completion.Completed)
}

func TestToggleRejectsBadInput(t *testing.T) {
	l, _, _, user := setup(t, Options{})
	ctx := context.Background()
	habit, err := l.CreateHabit(ctx, user.ID, HabitInput{Name: "Read"})
	require.NoError(t, err)

	_, err = l.Toggle(ctx, user.ID, habit.ID, "03/10/2024", true)
	assert.True(t, apperrors.IsValidation(err))

	_, err = l.Toggle(ctx, "mallory", habit.ID, "2024-03-10", true)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = l.Toggle(ctx, user.ID, "missing", "2024-03-10", true)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestToggleRejectsFutureDays(t *testing.T) {
	l, _, clk, user := setup(t, Options{})
	ctx := context.Background()
	habit, err := l.CreateHabit(ctx, user.ID, HabitInput{Name: "Read"})
	require.NoError(t, err)

	for _, day := range []string{"2024-03-11", "2030-01-01"} {
		_, err := l.Toggle(ctx, user.ID, habit.ID, day, true)
		assert.True(t, apperrors.IsValidation(err), "%s: got %v", day, err)
	}
	rows, err := l.GetByDate(ctx, user.ID, "2024-03-11")
	require.NoError(t, err)
	assert.Empty(t, rows)

	clk.AdvanceDays(1)
	res, err := l.Toggle(ctx, user.ID, habit.ID, "2024-03-11", true)
	require.NoError(t, err)
	assert.True(t, res.Changed)
}

func TestAllHabitsCompletedOnDate(t *testing.T) {
	l, store, _, user := setup(t, Options{})
	ctx := context.Background()

	done, err := l.CheckAllCompletedToday(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, done, "a day without habits is not streak-eligible by default")

	read := testutil.AddHabit(t, store, user.ID, "Read", "2024-03-01")
	run := testutil.AddHabit(t, store, user.ID, "Run", "2024-03-01")
	testutil.AddHabit(t, store, user.ID, "Stretch", "2024-03-12")

	testutil.Complete(t, store, read, "2024-03-10", true)
	done, err = l.CheckAllCompletedToday(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, done)

	testutil.Complete(t, store, run, "2024-03-10", true)
	done, err = l.CheckAllCompletedToday(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, done, "habits started after the day do not count")

	testutil.Complete(t, store, run, "2024-03-10", false)
	done, err = l.AllHabitsCompletedOnDate(ctx, user.ID, "2024-03-10")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestCountEmptyDays(t *testing.T) {
	l, _, _, user := setup(t, Options{CountEmptyDays: true})

	done, err := l.CheckAllCompletedToday(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestGetLast7DaysAndWeeklySummary(t *testing.T) {
	l, store, _, user := setup(t, Options{})
	ctx := context.Background()
	read := testutil.AddHabit(t, store, user.ID, "Read", "2024-03-01")

	testutil.Complete(t, store, read, "2024-03-03", true) // outside the window
	testutil.Complete(t, store, read, "2024-03-04", true)
	testutil.Complete(t, store, read, "2024-03-10", true)

	recent, err := l.GetLast7Days(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "2024-03-04", recent[0].Date)

	summary, err := l.WeeklySummary(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, summary, 7)
	assert.Equal(t, "2024-03-04", summary[0].Day)
	assert.Equal(t, "2024-03-10", summary[6].Day)
	assert.True(t, summary[0].AllDone())
	assert.False(t, summary[1].AllDone())
	assert.Equal(t, 1, summary[1].Total)
}

func TestHabitStreak(t *testing.T) {
	l, store, _, user := setup(t, Options{})
	ctx := context.Background()
	read := testutil.AddHabit(t, store, user.ID, "Read", "2024-03-01")

	for _, day := range []string{"2024-03-05", "2024-03-07", "2024-03-08", "2024-03-09"} {
		testutil.Complete(t, store, read, day, true)
	}

	tests := []struct {
		day  string
		want int
	}{
		{"2024-03-09", 3},
		{"2024-03-10", 3}, // today not done yet
		{"2024-03-11", 0},
		{"2024-03-06", 1},
		{"2024-03-04", 0},
	}
	for _, tt := range tests {
		got, err := l.HabitStreak(ctx, read.ID, tt.day)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "streak ending %s", tt.day)
	}
}

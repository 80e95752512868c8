// Package storetest holds the behavioral suite every storage.Provider must
// pass. Backends call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/storage"
)

// Factory returns a freshly initialized, empty provider. The suite closes it.
type Factory func(t *testing.T) storage.Provider

func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s storage.Provider)
	}{
		{"Profiles", testProfiles},
		{"StreakProfileCAS", testStreakProfileCAS},
		{"Habits", testHabits},
		{"Completions", testCompletions},
		{"DayProgress", testDayProgress},
		{"UserStats", testUserStats},
		{"Achievements", testAchievements},
		{"Friendships", testFriendships},
		{"Partnerships", testPartnerships},
		{"RecordPartnershipDay", testRecordPartnershipDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

// AddUser inserts a profile and its stats row.
func AddUser(t *testing.T, s storage.Provider, username string) models.Profile {
	t.Helper()
	now := time.Now().UTC()
	p := models.Profile{
		ID:          uuid.New().String(),
		Username:    username,
		DisplayName: username,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.AddProfile(context.Background(), p))
	require.NoError(t, s.AddUserStats(context.Background(), models.NewUserStats(p.ID)))
	return p
}

// AddHabit inserts an active daily habit for userID starting on startDate.
func AddHabit(t *testing.T, s storage.Provider, userID, name, startDate string) models.Habit {
	t.Helper()
	now := time.Now().UTC()
	h := models.Habit{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Frequency: models.FrequencyDaily,
		Points:    10,
		IsActive:  true,
		StartDate: startDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.AddHabit(context.Background(), h))
	return h
}

// Complete records h as done (or not) on day and reports whether the stored
// flag changed.
func Complete(t *testing.T, s storage.Provider, h models.Habit, day string, done bool) bool {
	t.Helper()
	changed, err := s.UpsertCompletion(context.Background(), models.Completion{
		ID:        uuid.New().String(),
		HabitID:   h.ID,
		UserID:    h.UserID,
		Date:      day,
		Completed: done,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return changed
}

func testProfiles(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	alice := AddUser(t, s, "Alice")
	AddUser(t, s, "alicia")
	AddUser(t, s, "bob_100%")

	got, err := s.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Username)
	assert.Equal(t, 0, got.CurrentStreak)
	assert.Empty(t, got.LastActivityDate)

	byName, err := s.GetProfileByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	dup := alice
	dup.ID = uuid.New().String()
	dup.Username = "ALICE"
	err = s.AddProfile(ctx, dup)
	assert.ErrorIs(t, err, storage.ErrConflict)

	_, err = s.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	results, err := s.SearchProfiles(ctx, "ali", alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "alicia", results[0].Username)

	results, err = s.SearchProfiles(ctx, "100%", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "bob_100%", results[0].Username)

	got.DisplayName = "Alice A."
	require.NoError(t, s.UpdateProfile(ctx, got))
	got, err = s.GetProfile(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", got.DisplayName)

	ids, err := s.GetAllProfileIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 3)
}

func testStreakProfileCAS(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	user := AddUser(t, s, "streaker")

	sp, err := s.GetStreakProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sp.Version)

	stale := sp
	sp.CurrentStreak = 1
	sp.LongestStreak = 1
	sp.LastActivityDate = "2024-03-01"
	require.NoError(t, s.UpdateStreakProfile(ctx, sp))

	stale.CurrentStreak = 5
	err = s.UpdateStreakProfile(ctx, stale)
	assert.ErrorIs(t, err, storage.ErrConflict)

	got, err := s.GetStreakProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentStreak)
	assert.Equal(t, "2024-03-01", got.LastActivityDate)
	assert.Equal(t, int64(1), got.Version)

	err = s.UpdateStreakProfile(ctx, models.StreakProfile{UserID: "missing"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testHabits(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	user := AddUser(t, s, "habits")
	h := AddHabit(t, s, user.ID, "Read", "2024-03-01")
	AddHabit(t, s, user.ID, "Run", "2024-03-01")

	got, err := s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read", got.Name)
	assert.True(t, got.IsActive)
	assert.Equal(t, "2024-03-01", got.StartDate)

	got.Name = "Read a chapter"
	require.NoError(t, s.UpdateHabit(ctx, got))
	require.NoError(t, s.SetHabitStreak(ctx, h.ID, 4))

	got, err = s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read a chapter", got.Name)
	assert.Equal(t, 4, got.Streak)

	require.NoError(t, s.DeleteHabit(ctx, h.ID))
	active, err := s.GetActiveHabits(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Run", active[0].Name)

	err = s.DeleteHabit(ctx, h.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Soft-deleted habits are still readable by id
	got, err = s.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func testCompletions(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	user := AddUser(t, s, "completer")
	h := AddHabit(t, s, user.ID, "Read", "2024-03-01")

	assert.True(t, Complete(t, s, h, "2024-03-01", true))
	assert.False(t, Complete(t, s, h, "2024-03-01", true))
	Complete(t, s, h, "2024-03-02", true)
	Complete(t, s, h, "2024-03-03", true)
	assert.True(t, Complete(t, s, h, "2024-03-02", false))

	c, err := s.GetCompletion(ctx, h.ID, "2024-03-02")
	require.NoError(t, err)
	assert.False(t, c.Completed)

	_, err = s.GetCompletion(ctx, h.ID, "2024-02-28")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	day, err := s.GetCompletionsForDay(ctx, user.ID, "2024-03-01")
	require.NoError(t, err)
	assert.Len(t, day, 1)

	rng, err := s.GetCompletionsInRange(ctx, user.ID, "2024-03-01", "2024-03-03")
	require.NoError(t, err)
	assert.Len(t, rng, 3)

	days, err := s.GetCompletedDays(ctx, h.ID, "2024-03-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-03", "2024-03-01"}, days)
}

func testDayProgress(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	user := AddUser(t, s, "progress")
	read := AddHabit(t, s, user.ID, "Read", "2024-03-01")
	run := AddHabit(t, s, user.ID, "Run", "2024-03-01")
	AddHabit(t, s, user.ID, "Later", "2024-03-05")

	progress, err := s.GetDayProgress(ctx, user.ID, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, models.DayProgress{Day: "2024-03-01", Completed: 0, Total: 2}, progress)

	Complete(t, s, read, "2024-03-01", true)
	Complete(t, s, run, "2024-03-01", true)
	progress, err = s.GetDayProgress(ctx, user.ID, "2024-03-01")
	require.NoError(t, err)
	assert.True(t, progress.AllDone())

	require.NoError(t, s.DeleteHabit(ctx, run.ID))
	progress, err = s.GetDayProgress(ctx, user.ID, "2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Total)
	assert.Equal(t, 1, progress.Completed)

	empty, err := s.GetDayProgress(ctx, "nobody", "2024-03-01")
	require.NoError(t, err)
	assert.False(t, empty.AllDone())
}

func testUserStats(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	user := AddUser(t, s, "stats")

	// Second insert is a no-op
	require.NoError(t, s.AddUserStats(ctx, models.NewUserStats(user.ID)))

	st, err := s.GetUserStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Level)
	assert.Equal(t, 100, st.XPToNextLevel)

	stale := st
	st.XP = 50
	st.TotalPoints = 50
	require.NoError(t, s.UpdateUserStats(ctx, st))

	stale.XP = 10
	assert.ErrorIs(t, s.UpdateUserStats(ctx, stale), storage.ErrConflict)

	got, err := s.GetUserStats(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.XP)
	assert.Equal(t, int64(1), got.Version)

	_, err = s.GetUserStats(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testAchievements(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	user := AddUser(t, s, "achiever")

	first := models.Achievement{
		ID: uuid.New().String(), UserID: user.ID, Type: models.AchievementStreak,
		Title: "Week Warrior", Requirement: 7,
	}
	added, err := s.AddAchievement(ctx, first)
	require.NoError(t, err)
	assert.True(t, added)

	dup := first
	dup.ID = uuid.New().String()
	added, err = s.AddAchievement(ctx, dup)
	require.NoError(t, err)
	assert.False(t, added)

	_, err = s.AddAchievement(ctx, models.Achievement{
		ID: uuid.New().String(), UserID: user.ID, Type: models.AchievementTotalHabits,
		Title: "First Step", Requirement: 1,
	})
	require.NoError(t, err)

	list, err := s.GetAchievements(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Requirement)
	assert.False(t, list[1].Unlocked())

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ok, err := s.UnlockAchievement(ctx, first.ID, at)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UnlockAchievement(ctx, first.ID, at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	list, err = s.GetAchievements(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, list[1].UnlockedAt)
	assert.True(t, list[1].UnlockedAt.Equal(at))
}

func testFriendships(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	alice := AddUser(t, s, "alice")
	bob := AddUser(t, s, "bob")
	now := time.Now().UTC()

	f := models.Friendship{
		ID: uuid.New().String(), RequesterID: alice.ID, AddresseeID: bob.ID,
		Status: models.FriendshipPending, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.AddFriendship(ctx, f))

	// The reverse direction is the same unordered pair
	reverse := models.Friendship{
		ID: uuid.New().String(), RequesterID: bob.ID, AddresseeID: alice.ID,
		Status: models.FriendshipPending, CreatedAt: now, UpdatedAt: now,
	}
	assert.ErrorIs(t, s.AddFriendship(ctx, reverse), storage.ErrConflict)

	between, err := s.GetFriendshipBetween(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, f.ID, between.ID)

	ok, err := s.UpdateFriendshipStatus(ctx, f.ID, models.FriendshipPending, models.FriendshipAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.UpdateFriendshipStatus(ctx, f.ID, models.FriendshipPending, models.FriendshipAccepted)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.CountFriends(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	accepted, err := s.GetFriendships(ctx, alice.ID, models.FriendshipAccepted)
	require.NoError(t, err)
	assert.Len(t, accepted, 1)

	require.NoError(t, s.DeleteFriendship(ctx, f.ID))
	assert.ErrorIs(t, s.DeleteFriendship(ctx, f.ID), storage.ErrNotFound)
	_, err = s.GetFriendship(ctx, f.ID)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func newPartnership(user1, user2 string, status models.PartnershipStatus, target int) models.StreakPartnership {
	now := time.Now().UTC()
	return models.StreakPartnership{
		ID: uuid.New().String(), User1ID: user1, User2ID: user2, Status: status,
		TargetDays: target, ReminderEnabled: true, CreatedAt: now, UpdatedAt: now,
	}
}

func testPartnerships(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	alice := AddUser(t, s, "alice")
	bob := AddUser(t, s, "bob")

	p := newPartnership(alice.ID, bob.ID, models.PartnershipPending, 30)
	require.NoError(t, s.AddPartnership(ctx, p))

	// Only one open partnership per unordered pair
	second := newPartnership(bob.ID, alice.ID, models.PartnershipPending, 10)
	assert.ErrorIs(t, s.AddPartnership(ctx, second), storage.ErrConflict)

	open, err := s.GetOpenPartnershipBetween(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, open.ID)
	assert.True(t, open.ReminderEnabled)

	stale := open
	open.Status = models.PartnershipCancelled
	require.NoError(t, s.UpdatePartnership(ctx, open))
	assert.ErrorIs(t, s.UpdatePartnership(ctx, stale), storage.ErrConflict)

	_, err = s.GetOpenPartnershipBetween(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// A cancelled pair can start over
	require.NoError(t, s.AddPartnership(ctx, second))

	all, err := s.GetPartnershipsForUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := s.GetPartnershipsForUser(ctx, alice.ID, models.PartnershipPending, models.PartnershipActive)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second.ID, pending[0].ID)
}

func testRecordPartnershipDay(t *testing.T, s storage.Provider) {
	ctx := context.Background()
	alice := AddUser(t, s, "alice")
	bob := AddUser(t, s, "bob")

	p := newPartnership(alice.ID, bob.ID, models.PartnershipActive, 2)
	p.StartDate = "2024-03-01"
	require.NoError(t, s.AddPartnership(ctx, p))
	p, err := s.GetPartnership(ctx, p.ID)
	require.NoError(t, err)

	next := p
	next.CurrentStreak = 1
	ok, err := s.RecordPartnershipDay(ctx, next, "2024-03-01")
	require.NoError(t, err)
	assert.True(t, ok)

	// Same day again, even from a fresh read, is not counted twice
	p, err = s.GetPartnership(ctx, p.ID)
	require.NoError(t, err)
	again := p
	again.CurrentStreak = 2
	ok, err = s.RecordPartnershipDay(ctx, again, "2024-03-01")
	require.NoError(t, err)
	assert.False(t, ok)

	done := p
	done.CurrentStreak = 2
	done.Status = models.PartnershipCompleted
	done.EndDate = "2024-03-02"
	ok, err = s.RecordPartnershipDay(ctx, done, "2024-03-02")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetPartnership(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PartnershipCompleted, got.Status)
	assert.Equal(t, 2, got.CurrentStreak)
	assert.Equal(t, "2024-03-02", got.LastActivityDate)
	assert.Equal(t, "2024-03-02", got.EndDate)

	// Completed partnerships no longer accept days
	ok, err = s.RecordPartnershipDay(ctx, got, "2024-03-03")
	require.NoError(t, err)
	assert.False(t, ok)
}

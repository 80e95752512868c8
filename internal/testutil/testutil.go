// Package testutil provides SQLite-backed fixtures for package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/storage/sqlite"
	"github.com/julianstephens/daystreak/internal/storage/storetest"
)

// NewStore returns an initialized SQLite store in a temporary directory. It
// is closed when the test ends.
func NewStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "daystreak.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// AddUser inserts a profile and its default stats.
func AddUser(t *testing.T, store *sqlite.Store, username string) models.Profile {
	t.Helper()
	return storetest.AddUser(t, store, username)
}

// AddHabit inserts an active daily habit worth 10 points.
func AddHabit(t *testing.T, store *sqlite.Store, userID, name, startDate string) models.Habit {
	t.Helper()
	return storetest.AddHabit(t, store, userID, name, startDate)
}

// Complete marks h done or not done on day.
func Complete(t *testing.T, store *sqlite.Store, h models.Habit, day string, done bool) {
	t.Helper()
	storetest.Complete(t, store, h, day, done)
}

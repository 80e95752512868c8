package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/daystreak/internal/models"
	"github.com/julianstephens/daystreak/internal/storage"
	"github.com/julianstephens/daystreak/internal/storage/storetest"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return store
}

func TestProviderSuite(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Provider {
		return setupTestStore(t)
	})
}

func TestInitIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
}

func TestLoadRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	err := store.Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "daystreak init") {
		t.Fatalf("expected init hint, got %v", err)
	}
}

func TestLoadAfterInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store := NewStore(path)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	store.Close()

	reopened := NewStore(path)
	defer reopened.Close()
	if err := reopened.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := reopened.GetAllProfileIDs(context.Background()); err != nil {
		t.Fatalf("query after Load failed: %v", err)
	}
	if reopened.GetConfigPath() != path {
		t.Errorf("GetConfigPath() = %s, want %s", reopened.GetConfigPath(), path)
	}
}

func TestMigrateUpToDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store := NewStore(path)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	store.Close()

	reopened := NewStore(path)
	defer reopened.Close()
	count, err := reopened.Migrate(context.Background(), func(string) {})
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Migrate applied %d migrations on an up-to-date database", count)
	}
}

func TestMigrateRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := store.Migrate(context.Background(), func(string) {}); err == nil {
		t.Fatal("expected error for missing database")
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	err := store.AddUserStats(context.Background(), models.NewUserStats("no-such-user"))
	if err == nil {
		t.Fatal("expected foreign key violation for stats without a profile")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	_, err := store.DB().Exec("INSERT INTO schema_version (version) VALUES (1)")
	if err == nil {
		t.Fatal("expected duplicate schema version to fail")
	}
	if !isUniqueViolation(err) {
		t.Errorf("isUniqueViolation(%v) = false, want true", err)
	}
	if isUniqueViolation(errors.New("disk I/O error")) {
		t.Error("plain error reported as unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("wrapped: %w", errors.New("UNIQUE constraint failed: profiles.id"))) {
		t.Error("message fallback not recognized")
	}
}

func TestBackup(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()
	ctx := context.Background()

	storetest.AddUser(t, store, "alice")

	path, err := store.Backup(ctx)
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("backup file missing: %v", err)
	}

	copied := NewStore(path)
	defer copied.Close()
	if err := copied.Load(ctx); err != nil {
		t.Fatalf("failed to load backup: %v", err)
	}
	ids, err := copied.GetAllProfileIDs(ctx)
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("backup has %d profiles, want 1", len(ids))
	}

	second, err := store.Backup(ctx)
	if err != nil {
		t.Fatalf("second Backup failed: %v", err)
	}
	if second == path {
		t.Error("second backup overwrote the first")
	}

	backups, err := store.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(backups))
	}
	if backups[0].Path != second {
		t.Errorf("newest backup = %s, want %s", backups[0].Path, second)
	}
}

func TestBackupRotation(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	for i := 0; i < MaxBackups+2; i++ {
		if _, err := store.Backup(context.Background()); err != nil {
			t.Fatalf("Backup %d failed: %v", i, err)
		}
	}

	backups, err := store.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != MaxBackups {
		t.Errorf("expected %d backups after rotation, got %d", MaxBackups, len(backups))
	}
}

func TestListBackupsWithoutDir(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "test.db"))
	backups, err := store.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}
}

func TestRestore(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()
	ctx := context.Background()

	storetest.AddUser(t, store, "alice")
	path, err := store.Backup(ctx)
	if err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	storetest.AddUser(t, store, "bob")

	if err := store.Restore(ctx, path); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load after restore failed: %v", err)
	}
	ids, err := store.GetAllProfileIDs(ctx)
	if err != nil {
		t.Fatalf("failed to read restored database: %v", err)
	}
	if len(ids) != 1 {
		t.Errorf("restored database has %d profiles, want 1", len(ids))
	}

	backups, err := store.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 2 {
		t.Errorf("expected the pre-restore state to be backed up, got %d backups", len(backups))
	}
}

func TestRestoreRejectsNonDatabase(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	bogus := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(bogus, []byte("not a database"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if err := store.Restore(context.Background(), bogus); err == nil {
		t.Fatal("expected error restoring a non-database file")
	}
}

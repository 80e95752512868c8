package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxBackups is the maximum number of backups to keep
	MaxBackups = 14
	// BackupDirName is the name of the backup directory
	BackupDirName = "backups"

	backupFilePrefix  = "daystreak-"
	backupFileSuffix  = ".db"
	backupStampFormat = "20060102-150405"
)

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
	seq       int
}

// BackupDir returns the directory backups are written to.
func (s *Store) BackupDir() string {
	return filepath.Join(filepath.Dir(s.path), BackupDirName)
}

// Backup writes a consistent copy of the open database with VACUUM INTO and
// prunes the oldest copies beyond MaxBackups.
func (s *Store) Backup(ctx context.Context) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not open")
	}
	if s.path == ":memory:" {
		return "", fmt.Errorf("in-memory databases cannot be backed up")
	}
	if err := os.MkdirAll(s.BackupDir(), 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	stamp := time.Now().UTC().Format(backupStampFormat)
	dest := filepath.Join(s.BackupDir(), backupFilePrefix+stamp+backupFileSuffix)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		dest = filepath.Join(s.BackupDir(), fmt.Sprintf("%s%s-%d%s", backupFilePrefix, stamp, counter, backupFileSuffix))
	}

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return "", fmt.Errorf("failed to backup database: %w", err)
	}

	if err := s.rotateBackups(); err != nil {
		return dest, fmt.Errorf("backup written but rotation failed: %w", err)
	}
	return dest, nil
}

// ListBackups returns the available backups, newest first.
func (s *Store) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.BackupDir())
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupFilePrefix) || !strings.HasSuffix(name, backupFileSuffix) {
			continue
		}

		// daystreak-YYYYMMDD-HHMMSS[-N].db
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, backupFilePrefix), backupFileSuffix)
		seq := 0
		if len(stamp) > len(backupStampFormat) {
			n, err := strconv.Atoi(strings.TrimPrefix(stamp[len(backupStampFormat):], "-"))
			if err != nil {
				continue
			}
			seq = n
			stamp = stamp[:len(backupStampFormat)]
		}
		ts, err := time.Parse(backupStampFormat, stamp)
		if err != nil {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, BackupInfo{
			Path:      filepath.Join(s.BackupDir(), name),
			Timestamp: ts,
			Size:      info.Size(),
			seq:       seq,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		if backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].seq > backups[j].seq
		}
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

func (s *Store) rotateBackups() error {
	backups, err := s.ListBackups()
	if err != nil {
		return err
	}
	for i := MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
	}
	return nil
}

// sqliteHeader starts every SQLite database file.
const sqliteHeader = "SQLite format 3\x00"

// Restore replaces the database file with the backup at backupPath, first
// backing up the current database when it is open. The store is closed
// afterwards and must be loaded again.
func (s *Store) Restore(ctx context.Context, backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if !strings.HasPrefix(string(data), sqliteHeader) {
		return fmt.Errorf("%s is not a SQLite database", backupPath)
	}

	if s.db != nil {
		if _, err := s.Backup(ctx); err != nil {
			return fmt.Errorf("failed to back up current database: %w", err)
		}
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	tmp := s.path + ".restore"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write restored database: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace database: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale %s file: %w", suffix, err)
		}
	}
	return nil
}

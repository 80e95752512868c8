// Package sqlstore implements storage.Provider's table operations over
// database/sql. The sqlite and postgres packages own connection lifecycle
// and hand an open *sql.DB to New.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/daystreak/internal/migration"
	"github.com/julianstephens/daystreak/internal/storage"
)

// timestampFormat is fixed-width so stored timestamps sort lexically.
const timestampFormat = "2006-01-02T15:04:05.000000Z07:00"

var timeNow = time.Now

type Store struct {
	db     *sql.DB
	driver migration.Driver
	unique func(error) bool
}

// New wraps db. isUniqueViolation recognizes the driver's unique constraint
// errors so they can be reported as storage.ErrConflict.
func New(db *sql.DB, driver migration.Driver, isUniqueViolation func(error) bool) *Store {
	if isUniqueViolation == nil {
		isUniqueViolation = func(error) bool { return false }
	}
	return &Store{db: db, driver: driver, unique: isUniqueViolation}
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Driver() migration.Driver {
	return s.driver
}

func (s *Store) q(query string) string {
	return migration.Rebind(s.driver, query)
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, s.q(query), args...)
	if err != nil && s.unique(err) {
		return nil, fmt.Errorf("%w: %v", storage.ErrConflict, err)
	}
	return res, err
}

func (s *Store) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, s.q(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.q(query), args...)
}

// exists reports whether a row matching where exists in table. Used to tell
// a missing row from a lost conditional update.
func (s *Store) exists(ctx context.Context, table, where string, args ...interface{}) (bool, error) {
	var n int
	err := s.queryRow(ctx, "SELECT COUNT(*) FROM "+table+" WHERE "+where, args...).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// conditionalMiss converts a zero-row conditional update into ErrNotFound or
// ErrConflict.
func (s *Store) conditionalMiss(ctx context.Context, entity, table, idColumn, id string) error {
	found, err := s.exists(ctx, table, idColumn+" = ?", id)
	if err != nil {
		return fmt.Errorf("failed to check %s %s: %w", entity, id, err)
	}
	if !found {
		return fmt.Errorf("%s %s: %w", entity, id, storage.ErrNotFound)
	}
	return fmt.Errorf("%s %s changed concurrently: %w", entity, id, storage.ErrConflict)
}

func notFound(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, storage.ErrNotFound)
	}
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timestampFormat)
}

func parseTime(value, column string) (time.Time, error) {
	t, err := time.Parse(timestampFormat, value)
	if err != nil {
		// Rows written by hand or older tools
		t, err = time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
		}
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

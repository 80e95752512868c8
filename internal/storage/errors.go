package storage

import "errors"

var (
	// ErrNotFound is wrapped by lookups and updates of rows that do not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is wrapped by writes that lost an optimistic concurrency
	// race or hit a uniqueness constraint.
	ErrConflict = errors.New("record conflict")
)

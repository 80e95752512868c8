package errors

import (
	stderrors "errors"
	"fmt"
)

// ValidationError is a caller-correctable input problem. Reason is safe to
// show to the user as-is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// StoreError wraps a storage I/O failure. The operation may be retried and
// callers must not assume state changed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ConflictError reports an optimistic concurrency conflict that outlived the
// retry budget.
type ConflictError struct {
	Entity string
	ID     string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrent update conflict on %s %q", e.Entity, e.ID)
}

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func Conflict(entity, id string) error {
	return &ConflictError{Entity: entity, ID: id}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return stderrors.As(err, &target)
}

func IsStore(err error) bool {
	var target *StoreError
	return stderrors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return stderrors.As(err, &target)
}

// Reason returns the user-facing reason of a validation error, or the error
// text for anything else.
func Reason(err error) string {
	var target *ValidationError
	if stderrors.As(err, &target) {
		return target.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

package errors

import (
	stderrors "errors"

	"github.com/julianstephens/daystreak/internal/storage"
)

// FromStore translates a storage error into the taxonomy: missing rows become
// NotFoundError, lost conditional writes ConflictError, anything else
// StoreError.
func FromStore(op, entity, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, storage.ErrNotFound):
		return NotFound(entity, id)
	case stderrors.Is(err, storage.ErrConflict):
		return Conflict(entity, id)
	default:
		return Store(op, err)
	}
}

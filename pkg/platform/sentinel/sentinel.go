// Package sentinel defines the sentinel errors stores return for factual
// resource states. Services translate them into coded domain errors; handlers
// never see them directly.
package sentinel

import "errors"

var (
	// ErrNotFound: the entity does not exist in the store.
	ErrNotFound = errors.New("not found")
	// ErrConflict: a concurrent writer won; re-read and retry.
	ErrConflict = errors.New("conflict")
	// ErrAlreadyUsed: a uniqueness constraint rejected the write.
	ErrAlreadyUsed = errors.New("already used")
	// ErrInvalidState: entity is in the wrong state for the operation.
	ErrInvalidState = errors.New("invalid state")
	// ErrUnavailable: backing resource is temporarily unreachable.
	ErrUnavailable = errors.New("unavailable")
)

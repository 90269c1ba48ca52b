/*
errors.go - Centralized error types for the entity layer

PURPOSE:
  All error types in one place for consistency and discoverability.
  Reducer packages wrap these with additional context.

ERROR CATEGORIES:
  1. Identity errors - malformed natural keys
  2. Store errors - persistence failures

WHAT IS NOT AN ERROR:
  A record that does not exist yet is never an error for a reducer:
  get-or-create absorbs it by constructing the default record. Unmapped
  status codes and other anomalies are logged, not returned. Only a failing
  store can stop the reduction of the event stream.

SEE ALSO:
  - repository.go: Uses these errors
  - store.go: Uses these errors
*/
package entity

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidID is returned when an entity id is empty.
	ErrInvalidID = errors.New("invalid entity id")

	// ErrNotFound is returned by strict lookups (never by get-or-create).
	ErrNotFound = errors.New("entity not found")

	// ErrStoreFailed wraps a persistence failure.
	ErrStoreFailed = errors.New("store operation failed")

	// ErrUnknownKind is returned when a stored record carries an unknown enum value.
	ErrUnknownKind = errors.New("unknown enum value")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// StoreError identifies which record a persistence failure concerns.
type StoreError struct {
	Op     string // "load" or "save"
	Entity string // "lease", "rent_payment", ...
	ID     string
	Err    error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *StoreError) Unwrap() []error {
	return []error{ErrStoreFailed, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsStoreFailure returns true if the error came from the persistence layer.
func IsStoreFailure(err error) bool {
	return errors.Is(err, ErrStoreFailed)
}

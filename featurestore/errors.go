package featurestore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a track identifier is not in the store.
	ErrNotFound = errors.New("track not found")

	// ErrSchema is returned when the input artifacts violate the store invariants.
	ErrSchema = errors.New("schema violation")
)

// SchemaError describes which store invariant the input artifacts violate.
// It satisfies errors.Is(err, ErrSchema).
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation: %s", e.Reason)
}

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

func schemaErrorf(format string, args ...any) error {
	return &SchemaError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned by ByID for unknown identifiers.
// It satisfies errors.Is(err, ErrNotFound).
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("track %q not found", e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

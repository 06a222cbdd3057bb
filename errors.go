package soundalike

import (
	"errors"
	"fmt"

	"github.com/hupe1980/soundalike/featurestore"
	"github.com/hupe1980/soundalike/ranker"
)

var (
	// ErrInvalidTopN is returned when a negative result count is requested.
	ErrInvalidTopN = errors.New("topN must not be negative")

	// ErrNotFound is returned when a track identifier is not in the store.
	// It is the same value as featurestore.ErrNotFound.
	ErrNotFound = featurestore.ErrNotFound

	// ErrCategoryNotFound is returned when no track belongs to a category.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrSchema is returned when artifacts violate the feature store
	// invariants. It is the same value as featurestore.ErrSchema, so errors
	// from featurestore.New match it without translation.
	ErrSchema = featurestore.ErrSchema

	// ErrNoStore is returned when an engine is built or reloaded without a store.
	ErrNoStore = errors.New("no feature store")
)

// SchemaError indicates that the input artifacts are malformed: mismatched
// lengths, zero tracks, inconsistent dimensionality, duplicate ids or
// non-finite values.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type SchemaError struct {
	Reason string
	cause  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation: %s", e.Reason)
}

func (e *SchemaError) Unwrap() error { return e.cause }

// Is reports whether target is ErrSchema.
func (e *SchemaError) Is(target error) bool { return target == ErrSchema }

// NotFoundError indicates an unknown track identifier.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type NotFoundError struct {
	TrackID string
	cause   error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("track %q not found", e.TrackID)
}

func (e *NotFoundError) Unwrap() error { return e.cause }

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// CategoryNotFoundError indicates a category without member tracks.
type CategoryNotFoundError struct {
	Category string
}

func (e *CategoryNotFoundError) Error() string {
	return fmt.Sprintf("category %q not found", e.Category)
}

// Is reports whether target is ErrCategoryNotFound.
func (e *CategoryNotFoundError) Is(target error) bool { return target == ErrCategoryNotFound }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var nf *featurestore.NotFoundError
	if errors.As(err, &nf) {
		return &NotFoundError{TrackID: nf.ID, cause: err}
	}
	var se *featurestore.SchemaError
	if errors.As(err, &se) {
		return &SchemaError{Reason: se.Reason, cause: err}
	}

	if errors.Is(err, ranker.ErrNegativeTopN) {
		return fmt.Errorf("%w: %w", ErrInvalidTopN, err)
	}

	return err
}

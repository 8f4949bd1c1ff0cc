package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: run", ErrNotFound)

	// Input errors
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmptyPosterior   = fmt.Errorf("%w: empty posterior", ErrInvalidInput)
	ErrEmptyGrid        = fmt.Errorf("%w: empty covariate grid", ErrInvalidInput)
	ErrRaggedPosterior  = fmt.Errorf("%w: posterior draw counts differ", ErrInvalidInput)
	ErrMismatchedGroups = errors.New("group predictions not aligned")
	ErrInvalidQuantile  = errors.New("invalid quantile pair")

	// Determinism errors
	ErrSeedMismatch = errors.New("seed produced unexpected stream")
)

// Error constructors with context

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewInvalidInputError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidInput, field, reason)
}

func NewMismatchedGroupsError(reason string) error {
	return fmt.Errorf("%w: %s", ErrMismatchedGroups, reason)
}

func NewInvalidQuantileError(lo, hi float64) error {
	return fmt.Errorf("%w: [%g, %g]", ErrInvalidQuantile, lo, hi)
}

// Error checking helpers

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrMismatchedGroups) ||
		errors.Is(err, ErrInvalidQuantile)
}

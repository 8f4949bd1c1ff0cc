package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named
	// operation. The same (name, seed) pair always yields an identical stream,
	// so repeated runs reproduce their simulated predictions exactly.
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// ValidateSeed ensures the seed produces the expected leading draws
	ValidateSeed(ctx context.Context, name string, seed int64, expected []float64) error
}

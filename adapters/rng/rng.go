package rng

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/simonsteiger/strix/domain/core"
	"github.com/simonsteiger/strix/ports"
)

// SeededRNG implements ports.RNGPort with deterministic per-operation streams.
// Mixing the operation name into the seed keeps independent operations on
// independent streams even when they share one base seed.
type SeededRNG struct{}

// New creates a seeded RNG adapter
func New() *SeededRNG {
	return &SeededRNG{}
}

// SeededStream creates a deterministic stream for a named operation
func (r *SeededRNG) SeededStream(_ context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(mixSeed(name, seed))), nil
}

// ValidateSeed checks that the stream's leading Float64 draws match expected
func (r *SeededRNG) ValidateSeed(ctx context.Context, name string, seed int64, expected []float64) error {
	stream, err := r.SeededStream(ctx, name, seed)
	if err != nil {
		return err
	}
	for i, want := range expected {
		got := stream.Float64()
		if math.Abs(got-want) > 1e-12 {
			return fmt.Errorf("%w: operation %q seed %d: draw %d got %v, want %v",
				core.ErrSeedMismatch, name, seed, i, got, want)
		}
	}
	return nil
}

func mixSeed(name string, seed int64) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return seed ^ int64(h.Sum64())
}

var _ ports.RNGPort = (*SeededRNG)(nil)

package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonsteiger/strix/adapters/rng"
	"github.com/simonsteiger/strix/domain/contrast"
	"github.com/simonsteiger/strix/domain/core"
	"github.com/simonsteiger/strix/domain/run"
	"github.com/simonsteiger/strix/internal/testkit"
	"github.com/simonsteiger/strix/ports"
)

// memoryRepo is an in-memory ContrastRepositoryPort for service tests
type memoryRepo struct {
	saved map[core.RunID]*run.Result
	order []core.RunID
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{saved: make(map[core.RunID]*run.Result)}
}

func (m *memoryRepo) SaveRun(_ context.Context, result *run.Result) error {
	id := result.Manifest.RunID
	if _, ok := m.saved[id]; !ok {
		m.order = append(m.order, id)
	}
	m.saved[id] = result
	return nil
}

func (m *memoryRepo) GetRun(_ context.Context, id core.RunID) (*run.Result, error) {
	result, ok := m.saved[id]
	if !ok {
		return nil, core.NewNotFoundError("contrast run", id.String())
	}
	return result, nil
}

func (m *memoryRepo) ListRuns(_ context.Context, limit int) ([]run.Manifest, error) {
	var manifests []run.Manifest
	for i := len(m.order) - 1; i >= 0 && len(manifests) < limit; i-- {
		manifests = append(manifests, m.saved[m.order[i]].Manifest)
	}
	return manifests, nil
}

var _ ports.ContrastRepositoryPort = (*memoryRepo)(nil)

func testRequest(seed int64) ContrastRequest {
	sample := testkit.NewTwoGroupPosterior(1, 500,
		testkit.GroupSpec{Group: "female", Intercept: 45, InterceptSD: 0.5, Slope: 0.9, SlopeSD: 0.05, Sigma: 5, SigmaSD: 0.1},
		testkit.GroupSpec{Group: "male", Intercept: 55, InterceptSD: 0.5, Slope: 0.8, SlopeSD: 0.05, Sigma: 5, SigmaSD: 0.1},
	)
	return ContrastRequest{
		Posterior:       sample,
		Grid:            contrast.NewGrid(130, 180, 10),
		ReferenceOffset: 154.6,
		DrawCount:       1000,
		GroupA:          "female",
		GroupB:          "male",
		QuantileLevels:  []float64{0.95, 0.5},
		Seed:            seed,
	}
}

func TestContrastService_Run(t *testing.T) {
	repo := newMemoryRepo()
	service := NewContrastService(rng.New(), repo, nil)

	result, err := service.Run(context.Background(), testRequest(42))
	require.NoError(t, err)
	require.NotNil(t, result.Summary)

	assert.Equal(t, int64(42), result.Manifest.Seed)
	assert.Equal(t, 1000, result.Manifest.DrawCount)
	assert.Equal(t, 6, result.Manifest.GridLen)
	assert.Equal(t, 130.0, result.Manifest.GridMin)
	assert.Equal(t, 180.0, result.Manifest.GridMax)
	assert.False(t, result.Manifest.Fingerprint.IsEmpty())

	assert.Len(t, result.Summary.Bands, 2)
	assert.Len(t, result.Points, 6)
	for i, p := range result.Points {
		assert.Equal(t, result.Manifest.GridMin+float64(i)*10, p.Covariate)
		// female - male is negative across the whole grid for these parameters
		assert.Less(t, p.Mean, 0.0)
	}

	saved, err := repo.GetRun(context.Background(), result.Manifest.RunID)
	require.NoError(t, err)
	assert.Equal(t, result.Manifest.Fingerprint, saved.Manifest.Fingerprint)
}

func TestContrastService_Run_DeterministicForSeed(t *testing.T) {
	service := NewContrastService(rng.New(), nil, nil)

	first, err := service.Run(context.Background(), testRequest(7))
	require.NoError(t, err)
	second, err := service.Run(context.Background(), testRequest(7))
	require.NoError(t, err)

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Points, second.Points)
	assert.Equal(t, first.Manifest.Fingerprint, second.Manifest.Fingerprint)
}

func TestContrastService_Run_InvalidInput(t *testing.T) {
	repo := newMemoryRepo()
	service := NewContrastService(rng.New(), repo, nil)

	req := testRequest(1)
	req.Grid = nil
	_, err := service.Run(context.Background(), req)
	require.Error(t, err)
	assert.True(t, core.IsInputError(err))
	assert.Empty(t, repo.saved, "failed runs must not be persisted")
}

func TestReferenceOffsetFromObservations(t *testing.T) {
	obs := []ports.Observation{
		{Height: 150, Age: 30},
		{Height: 160, Age: 40},
		{Height: 100, Age: 10}, // child, excluded
	}

	offset, err := ReferenceOffsetFromObservations(obs, 18)
	require.NoError(t, err)
	assert.InDelta(t, 155, offset, 1e-9)

	_, err = ReferenceOffsetFromObservations(obs, 99)
	require.Error(t, err)
	assert.True(t, core.IsInputError(err))
}

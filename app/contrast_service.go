package app

import (
	"context"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/semaphore"

	"github.com/simonsteiger/strix/domain/contrast"
	"github.com/simonsteiger/strix/domain/core"
	"github.com/simonsteiger/strix/domain/posterior"
	"github.com/simonsteiger/strix/domain/run"
	"github.com/simonsteiger/strix/internal"
	apperrors "github.com/simonsteiger/strix/internal/errors"
	"github.com/simonsteiger/strix/ports"
)

// rngStreamName scopes the service's random stream; changing it invalidates
// fingerprint-based replay of stored runs.
const rngStreamName = "predictive_contrast"

// maxSummaryWorkers bounds the per-covariate summary fan-out
const maxSummaryWorkers = 8

// ContrastService orchestrates a full contrast run:
// simulate -> difference -> bands -> point summaries -> persist.
type ContrastService struct {
	rng    ports.RNGPort
	repo   ports.ContrastRepositoryPort // nil disables persistence
	logger *internal.Logger
}

// NewContrastService creates a contrast service
func NewContrastService(rng ports.RNGPort, repo ports.ContrastRepositoryPort, logger *internal.Logger) *ContrastService {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &ContrastService{rng: rng, repo: repo, logger: logger}
}

// ContrastRequest defines the inputs for one deterministic contrast run
type ContrastRequest struct {
	RunID           core.RunID // optional, generated if empty
	Posterior       *posterior.Sample
	Grid            contrast.Grid
	ReferenceOffset float64
	DrawCount       int
	GroupA          posterior.GroupID
	GroupB          posterior.GroupID
	QuantileLevels  []float64 // optional, defaults to contrast.DefaultLevels
	Seed            int64
}

// Run executes the pipeline and returns the complete run result.
// The same request with the same seed yields an identical result apart
// from RunID, timestamps, and runtime.
func (s *ContrastService) Run(ctx context.Context, req ContrastRequest) (*run.Result, error) {
	started := time.Now()

	runID := req.RunID
	if runID == "" {
		runID = core.RunID(core.NewID())
	}
	levels := req.QuantileLevels
	if len(levels) == 0 {
		levels = contrast.DefaultLevels
	}

	stream, err := s.rng.SeededStream(ctx, rngStreamName, req.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create random stream: %w", err)
	}
	engine := contrast.NewEngine(stream)

	preds, err := engine.SimulatePredictions(req.Posterior, req.Grid, req.ReferenceOffset, req.DrawCount)
	if err != nil {
		return nil, err
	}

	series, err := engine.ComputeDifferenceSeries(preds, req.GroupA, req.GroupB)
	if err != nil {
		return nil, err
	}

	summary, err := engine.ComputeContrastBands(series, contrast.CentralPairs(levels))
	if err != nil {
		return nil, err
	}

	points, err := s.summarizePoints(ctx, engine, series)
	if err != nil {
		return nil, err
	}

	manifest := run.NewManifest(runID, req.GroupA, req.GroupB, req.Posterior.ContentHash(),
		req.Seed, req.DrawCount, req.ReferenceOffset, req.Grid, levels)
	manifest.RuntimeMs = time.Since(started).Milliseconds()

	result := &run.Result{
		Manifest: manifest,
		Summary:  summary,
		Points:   points,
	}

	if s.repo != nil {
		if err := s.repo.SaveRun(ctx, result); err != nil {
			return nil, apperrors.DatabaseError(err)
		}
	}

	s.logger.Info("contrast run %s: %s - %s over %d covariates, %d draws, %dms",
		runID, req.GroupA, req.GroupB, len(req.Grid), req.DrawCount, manifest.RuntimeMs)
	return result, nil
}

// summarizePoints computes per-covariate point summaries with a bounded
// worker fan-out. Covariates are independent, so order is restored by index.
func (s *ContrastService) summarizePoints(ctx context.Context, engine *contrast.Engine, series *contrast.DifferenceSeries) ([]contrast.PointSummary, error) {
	sem := semaphore.NewWeighted(maxSummaryWorkers)
	points := make([]contrast.PointSummary, len(series.Grid))
	errs := make([]error, len(series.Grid))

	for i, x := range series.Grid {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("summary worker acquire: %w", err)
		}
		go func(idx int, covariate float64) {
			defer sem.Release(1)
			points[idx], errs[idx] = engine.SummarizePoint(series, covariate)
		}(i, x)
	}

	// Wait for all workers by draining the full weight.
	if err := sem.Acquire(ctx, maxSummaryWorkers); err != nil {
		return nil, fmt.Errorf("summary worker drain: %w", err)
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return points, nil
}

// ReferenceOffsetFromObservations computes the covariate reference offset the
// regression was centered on: the mean height of observations at or above
// minAge (the model is fit on adults only).
func ReferenceOffsetFromObservations(obs []ports.Observation, minAge float64) (float64, error) {
	var heights []float64
	for _, o := range obs {
		if o.Age >= minAge {
			heights = append(heights, o.Height)
		}
	}
	if len(heights) == 0 {
		return 0, core.NewInvalidInputError("observations",
			fmt.Sprintf("no rows with age >= %g", minAge))
	}
	return stats.Mean(heights)
}

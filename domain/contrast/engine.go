package contrast

import (
	"fmt"
	"math/rand"

	"github.com/montanaflynn/stats"

	"github.com/simonsteiger/strix/domain/core"
	"github.com/simonsteiger/strix/domain/posterior"
)

// Engine runs the posterior-predictive contrast pipeline:
// simulate predictions -> paired differences -> nested quantile bands.
// All randomness flows through the engine's rand source, never package-global
// state, so the same seed reproduces the same outputs bit for bit.
type Engine struct {
	rng *rand.Rand
}

// NewEngine creates an engine over an explicit random source
func NewEngine(rng *rand.Rand) *Engine {
	return &Engine{rng: rng}
}

// SimulatePredictions draws drawCount simulated outcomes per (group, covariate)
// cell. Each simulated individual i picks one posterior draw index uniformly
// with replacement; the index sequence is shared across groups at the same
// covariate, so position i in group A pairs with position i in group B.
// Indices are always resampled, even when drawCount equals the posterior draw
// count, which keeps the randomness consumption order independent of the
// posterior size. Gaussian noise uses the residual scale of the chosen draw
// and is independent per group.
func (e *Engine) SimulatePredictions(sample *posterior.Sample, grid Grid, referenceOffset float64, drawCount int) (*PredictionSet, error) {
	if err := sample.Validate(); err != nil {
		return nil, err
	}
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if drawCount <= 0 {
		return nil, core.NewInvalidInputError("draw_count",
			fmt.Sprintf("must be positive, got %d", drawCount))
	}

	groups := sample.Groups()
	n := sample.DrawCount()

	set := &PredictionSet{
		Grid:      append(Grid(nil), grid...),
		DrawCount: drawCount,
		values:    make(map[PredictionKey][]float64, len(groups)*len(grid)),
	}

	indices := make([]int, drawCount)
	for _, x := range grid {
		for i := range indices {
			indices[i] = e.rng.Intn(n)
		}
		for _, group := range groups {
			intercepts, _ := sample.Draws(posterior.ParamIntercept, group)
			slopes, _ := sample.Draws(posterior.ParamSlope, group)
			sigmas, _ := sample.Draws(posterior.ParamSigma, group)

			values := make([]float64, drawCount)
			for i, j := range indices {
				mu := intercepts[j] + slopes[j]*(x-referenceOffset)
				values[i] = mu + e.rng.NormFloat64()*sigmas[j]
			}
			set.values[PredictionKey{Group: group, Covariate: x}] = values
		}
	}
	return set, nil
}

// ComputeDifferenceSeries subtracts group B's predictions from group A's
// elementwise at matching index positions, per covariate value. Both groups
// must have been simulated over the same grid with the same draw count.
func (e *Engine) ComputeDifferenceSeries(preds *PredictionSet, groupA, groupB posterior.GroupID) (*DifferenceSeries, error) {
	if preds == nil || len(preds.Grid) == 0 {
		return nil, core.NewMismatchedGroupsError("no predictions to compare")
	}
	for _, g := range []posterior.GroupID{groupA, groupB} {
		if !preds.HasGroup(g) {
			return nil, core.NewMismatchedGroupsError(fmt.Sprintf(
				"group %s not simulated over the full grid (have %v)", g, preds.Groups()))
		}
	}

	series := &DifferenceSeries{
		GroupA: groupA,
		GroupB: groupB,
		Grid:   append(Grid(nil), preds.Grid...),
		diffs:  make(map[float64][]float64, len(preds.Grid)),
	}

	for _, x := range preds.Grid {
		a, _ := preds.Values(groupA, x)
		b, _ := preds.Values(groupB, x)
		if len(a) != len(b) {
			return nil, core.NewMismatchedGroupsError(
				fmt.Sprintf("draw counts differ at covariate %g: %d vs %d", x, len(a), len(b)))
		}
		diffs := make([]float64, len(a))
		for i := range a {
			diffs[i] = a[i] - b[i]
		}
		series.diffs[x] = diffs
	}
	return series, nil
}

// ComputeContrastBands computes nested credible-interval bands: one
// ContrastBand per quantile pair, each holding one IntervalBand per covariate
// in grid order. Pairs are independent of one another, so they fan out to one
// goroutine each over shared read-only sorted sequences. The computation is
// deterministic; rerunning on the same series yields bit-identical output.
func (e *Engine) ComputeContrastBands(series *DifferenceSeries, pairs []QuantilePair) (*ContrastSummary, error) {
	if series == nil || len(series.Grid) == 0 {
		return nil, core.ErrEmptyGrid
	}
	for _, pair := range pairs {
		if err := pair.Validate(); err != nil {
			return nil, err
		}
	}

	// Sort each covariate's differences once, shared by every pair.
	sorted := make(map[float64][]float64, len(series.Grid))
	for _, x := range series.Grid {
		sorted[x] = sortedCopy(series.diffs[x])
	}

	type bandWithIndex struct {
		band  ContrastBand
		index int
	}
	resultChan := make(chan bandWithIndex, len(pairs))

	for i, pair := range pairs {
		go func(pair QuantilePair, idx int) {
			bands := make([]IntervalBand, 0, len(series.Grid))
			for _, x := range series.Grid {
				s := sorted[x]
				bands = append(bands, IntervalBand{
					Covariate: x,
					Lower:     quantileSorted(s, pair.Lo),
					Upper:     quantileSorted(s, pair.Hi),
				})
			}
			resultChan <- bandWithIndex{band: ContrastBand{Pair: pair, Bands: bands}, index: idx}
		}(pair, i)
	}

	summary := &ContrastSummary{
		GroupA: series.GroupA,
		GroupB: series.GroupB,
		Bands:  make([]ContrastBand, len(pairs)),
	}
	for range pairs {
		res := <-resultChan
		summary.Bands[res.index] = res.band
	}
	return summary, nil
}

// SummarizeSign computes the fractions of differences strictly above and
// strictly below zero at one covariate value. Exact zeros count toward
// neither, so the fractions need not sum to 1.
func (e *Engine) SummarizeSign(series *DifferenceSeries, covariate float64) (SignSummary, error) {
	diffs, ok := series.At(covariate)
	if !ok {
		return SignSummary{}, core.NewInvalidInputError("covariate",
			fmt.Sprintf("%g not present in difference series", covariate))
	}

	var positive, negative int
	for _, d := range diffs {
		switch {
		case d > 0:
			positive++
		case d < 0:
			negative++
		}
	}
	n := float64(len(diffs))
	return SignSummary{
		PPositive: float64(positive) / n,
		PNegative: float64(negative) / n,
	}, nil
}

// SummarizePoint condenses one covariate's difference distribution into the
// point summaries used by reports: mean, range, and sign fractions.
func (e *Engine) SummarizePoint(series *DifferenceSeries, covariate float64) (PointSummary, error) {
	diffs, ok := series.At(covariate)
	if !ok {
		return PointSummary{}, core.NewInvalidInputError("covariate",
			fmt.Sprintf("%g not present in difference series", covariate))
	}

	mean, err := stats.Mean(diffs)
	if err != nil {
		return PointSummary{}, core.NewInvalidInputError("difference series", err.Error())
	}
	min, err := stats.Min(diffs)
	if err != nil {
		return PointSummary{}, core.NewInvalidInputError("difference series", err.Error())
	}
	max, err := stats.Max(diffs)
	if err != nil {
		return PointSummary{}, core.NewInvalidInputError("difference series", err.Error())
	}

	sign, err := e.SummarizeSign(series, covariate)
	if err != nil {
		return PointSummary{}, err
	}

	return PointSummary{
		Covariate: covariate,
		Mean:      mean,
		Min:       min,
		Max:       max,
		Sign:      sign,
	}, nil
}

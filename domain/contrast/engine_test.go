package contrast

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/simonsteiger/strix/domain/core"
	"github.com/simonsteiger/strix/domain/posterior"
)

func newTestEngine(seed int64) *Engine {
	return NewEngine(rand.New(rand.NewSource(seed)))
}

// constantSample builds a posterior whose draws repeat fixed values
func constantSample(n int, intercepts, slopes, sigmas map[posterior.GroupID]float64) *posterior.Sample {
	s := posterior.NewSample()
	for g, v := range intercepts {
		s.Set(posterior.ParamIntercept, g, repeat(v, n))
	}
	for g, v := range slopes {
		s.Set(posterior.ParamSlope, g, repeat(v, n))
	}
	for g, v := range sigmas {
		s.Set(posterior.ParamSigma, g, repeat(v, n))
	}
	return s
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func twoGroupSample(n int) *posterior.Sample {
	return constantSample(n,
		map[posterior.GroupID]float64{"female": 45, "male": 55},
		map[posterior.GroupID]float64{"female": 0.9, "male": 0.8},
		map[posterior.GroupID]float64{"female": 5, "male": 5},
	)
}

func TestSimulatePredictions_DrawCount(t *testing.T) {
	engine := newTestEngine(1)
	grid := Grid{140, 150, 160}

	preds, err := engine.SimulatePredictions(twoGroupSample(200), grid, 150, 500)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if preds.DrawCount != 500 {
		t.Errorf("expected draw count 500, got %d", preds.DrawCount)
	}

	for _, g := range []posterior.GroupID{"female", "male"} {
		for _, x := range grid {
			values, ok := preds.Values(g, x)
			if !ok {
				t.Fatalf("missing predictions for (%s, %g)", g, x)
			}
			if len(values) != 500 {
				t.Errorf("(%s, %g): expected 500 values, got %d", g, x, len(values))
			}
		}
	}
}

func TestSimulatePredictions_InvalidInputs(t *testing.T) {
	engine := newTestEngine(1)
	sample := twoGroupSample(100)

	if _, err := engine.SimulatePredictions(sample, Grid{}, 150, 100); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("empty grid: expected ErrInvalidInput, got %v", err)
	}
	if _, err := engine.SimulatePredictions(sample, Grid{150, 140}, 150, 100); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("non-increasing grid: expected ErrInvalidInput, got %v", err)
	}
	if _, err := engine.SimulatePredictions(sample, Grid{140, 150}, 150, 0); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("zero draw count: expected ErrInvalidInput, got %v", err)
	}

	ragged := twoGroupSample(100)
	ragged.Set(posterior.ParamSlope, "male", repeat(0.8, 50))
	if _, err := engine.SimulatePredictions(ragged, Grid{140}, 150, 100); !errors.Is(err, core.ErrRaggedPosterior) {
		t.Errorf("ragged posterior: expected ErrRaggedPosterior, got %v", err)
	}
}

// With zero residual noise and group B's intercept draws exactly 10 below
// group A's at every MCMC iteration, paired index selection must yield a
// difference of exactly 10 for every simulated individual. Independent index
// sequences per group would scatter the differences.
func TestSimulatePredictions_PairedIndices(t *testing.T) {
	engine := newTestEngine(7)

	a := make([]float64, 300)
	b := make([]float64, 300)
	r := rand.New(rand.NewSource(99))
	for i := range a {
		a[i] = 40 + r.Float64()*20
		b[i] = a[i] - 10
	}

	s := posterior.NewSample()
	s.Set(posterior.ParamIntercept, "female", a)
	s.Set(posterior.ParamIntercept, "male", b)
	for _, g := range []posterior.GroupID{"female", "male"} {
		s.Set(posterior.ParamSlope, g, repeat(0, 300))
		s.Set(posterior.ParamSigma, g, repeat(0, 300))
	}

	preds, err := engine.SimulatePredictions(s, Grid{150}, 150, 1000)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	series, err := engine.ComputeDifferenceSeries(preds, "female", "male")
	if err != nil {
		t.Fatalf("difference failed: %v", err)
	}

	diffs, _ := series.At(150)
	for i, d := range diffs {
		if math.Abs(d-10) > 1e-12 {
			t.Fatalf("diff %d = %v, want exactly 10 (indices not paired?)", i, d)
		}
	}
}

func TestComputeDifferenceSeries_Negation(t *testing.T) {
	engine := newTestEngine(3)
	grid := Grid{140, 160}

	preds, err := engine.SimulatePredictions(twoGroupSample(100), grid, 150, 400)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	ab, err := engine.ComputeDifferenceSeries(preds, "female", "male")
	if err != nil {
		t.Fatalf("A-B failed: %v", err)
	}
	ba, err := engine.ComputeDifferenceSeries(preds, "male", "female")
	if err != nil {
		t.Fatalf("B-A failed: %v", err)
	}

	for _, x := range grid {
		d1, _ := ab.At(x)
		d2, _ := ba.At(x)
		for i := range d1 {
			if d1[i] != -d2[i] {
				t.Fatalf("at covariate %g index %d: %v != -%v", x, i, d1[i], d2[i])
			}
		}
	}
}

func TestComputeDifferenceSeries_MissingGroup(t *testing.T) {
	engine := newTestEngine(3)
	preds, err := engine.SimulatePredictions(twoGroupSample(100), Grid{150}, 150, 100)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	if _, err := engine.ComputeDifferenceSeries(preds, "female", "child"); !errors.Is(err, core.ErrMismatchedGroups) {
		t.Errorf("expected ErrMismatchedGroups, got %v", err)
	}
}

func TestComputeContrastBands_BoundsAndContainment(t *testing.T) {
	engine := newTestEngine(5)
	grid := Grid{130, 150, 170}

	preds, _ := engine.SimulatePredictions(twoGroupSample(200), grid, 150, 1000)
	series, _ := engine.ComputeDifferenceSeries(preds, "female", "male")

	pairs := CentralPairs([]float64{0.99, 0.95, 0.50})
	summary, err := engine.ComputeContrastBands(series, pairs)
	if err != nil {
		t.Fatalf("bands failed: %v", err)
	}
	if len(summary.Bands) != len(pairs) {
		t.Fatalf("expected %d contrast bands, got %d", len(pairs), len(summary.Bands))
	}

	for bi, band := range summary.Bands {
		if band.Pair != pairs[bi] {
			t.Errorf("band %d: pair order not preserved: %v", bi, band.Pair)
		}
		if len(band.Bands) != len(grid) {
			t.Fatalf("band %d: expected %d intervals, got %d", bi, len(grid), len(band.Bands))
		}
		for i, iv := range band.Bands {
			if iv.Covariate != grid[i] {
				t.Errorf("band %d interval %d: grid order not preserved: %g", bi, i, iv.Covariate)
			}
			if iv.Lower > iv.Upper {
				t.Errorf("band %d at %g: lower %v > upper %v", bi, iv.Covariate, iv.Lower, iv.Upper)
			}

			diffs, _ := series.At(iv.Covariate)
			min, max := diffs[0], diffs[0]
			for _, d := range diffs {
				min = math.Min(min, d)
				max = math.Max(max, d)
			}
			if iv.Lower < min || iv.Upper > max {
				t.Errorf("band %d at %g: [%v, %v] outside data range [%v, %v]",
					bi, iv.Covariate, iv.Lower, iv.Upper, min, max)
			}
		}
	}
}

func TestComputeContrastBands_FullRangePairIsMinMax(t *testing.T) {
	engine := newTestEngine(5)
	preds, _ := engine.SimulatePredictions(twoGroupSample(100), Grid{150}, 150, 500)
	series, _ := engine.ComputeDifferenceSeries(preds, "female", "male")

	summary, err := engine.ComputeContrastBands(series, []QuantilePair{{Lo: 0, Hi: 1}})
	if err != nil {
		t.Fatalf("bands failed: %v", err)
	}

	diffs, _ := series.At(150)
	min, max := diffs[0], diffs[0]
	for _, d := range diffs {
		min = math.Min(min, d)
		max = math.Max(max, d)
	}

	iv := summary.Bands[0].Bands[0]
	if iv.Lower != min || iv.Upper != max {
		t.Errorf("(0,1) pair should return exact (min, max): got [%v, %v], want [%v, %v]",
			iv.Lower, iv.Upper, min, max)
	}
}

func TestComputeContrastBands_Idempotent(t *testing.T) {
	engine := newTestEngine(5)
	preds, _ := engine.SimulatePredictions(twoGroupSample(100), Grid{140, 160}, 150, 500)
	series, _ := engine.ComputeDifferenceSeries(preds, "female", "male")
	pairs := CentralPairs(DefaultLevels)

	first, err := engine.ComputeContrastBands(series, pairs)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := engine.ComputeContrastBands(series, pairs)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("band computation should be bit-identical across reruns")
	}
}

func TestComputeContrastBands_InvalidPairs(t *testing.T) {
	engine := newTestEngine(5)
	preds, _ := engine.SimulatePredictions(twoGroupSample(100), Grid{150}, 150, 100)
	series, _ := engine.ComputeDifferenceSeries(preds, "female", "male")

	bad := []QuantilePair{
		{Lo: 0.9, Hi: 0.1},
		{Lo: -0.1, Hi: 0.5},
		{Lo: 0.5, Hi: 1.1},
		{Lo: 0.5, Hi: 0.5},
	}
	for _, pair := range bad {
		if _, err := engine.ComputeContrastBands(series, []QuantilePair{pair}); !errors.Is(err, core.ErrInvalidQuantile) {
			t.Errorf("pair %+v: expected ErrInvalidQuantile, got %v", pair, err)
		}
	}
}

func TestSummarizeSign_StrictInequalities(t *testing.T) {
	series, err := NewDifferenceSeries("female", "male", Grid{150},
		map[float64][]float64{150: {-2, -1, 0, 1, 2}})
	if err != nil {
		t.Fatalf("fixture failed: %v", err)
	}

	sign, err := newTestEngine(1).SummarizeSign(series, 150)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if sign.PPositive != 0.4 {
		t.Errorf("p_positive: got %v, want 0.4", sign.PPositive)
	}
	if sign.PNegative != 0.4 {
		t.Errorf("p_negative: got %v, want 0.4", sign.PNegative)
	}
}

func TestSummarizeSign_MissingCovariate(t *testing.T) {
	engine := newTestEngine(1)
	preds, _ := engine.SimulatePredictions(twoGroupSample(100), Grid{150}, 150, 100)
	series, _ := engine.ComputeDifferenceSeries(preds, "female", "male")

	if _, err := engine.SummarizeSign(series, 999); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for unknown covariate, got %v", err)
	}
}

// Two groups with flat slopes and intercepts 45 vs 55: the difference
// distribution is centered at -10 regardless of covariate, so the mean
// difference lands near -10 and essentially no paired draw comes out positive.
func TestEndToEnd_ConstantContrast(t *testing.T) {
	engine := newTestEngine(42)
	sample := constantSample(1000,
		map[posterior.GroupID]float64{"A": 45, "B": 55},
		map[posterior.GroupID]float64{"A": 0, "B": 0},
		map[posterior.GroupID]float64{"A": 1, "B": 1},
	)

	preds, err := engine.SimulatePredictions(sample, Grid{150}, 150, 1000)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	series, err := engine.ComputeDifferenceSeries(preds, "A", "B")
	if err != nil {
		t.Fatalf("difference failed: %v", err)
	}

	point, err := engine.SummarizePoint(series, 150)
	if err != nil {
		t.Fatalf("point summary failed: %v", err)
	}
	if math.Abs(point.Mean-(-10)) > 0.5 {
		t.Errorf("mean difference: got %v, want approx -10", point.Mean)
	}
	if point.Sign.PPositive > 0.01 {
		t.Errorf("p_positive: got %v, want approx 0", point.Sign.PPositive)
	}
	if point.Sign.PNegative < 0.99 {
		t.Errorf("p_negative: got %v, want approx 1", point.Sign.PNegative)
	}
}

// With constant parameters the predictions at the reference covariate are
// exact N(intercept, sigma) draws, so the simulated central interval should
// match the analytic normal quantiles.
func TestSimulatedBands_MatchNormalQuantiles(t *testing.T) {
	engine := newTestEngine(11)
	sample := constantSample(100,
		map[posterior.GroupID]float64{"A": 0, "B": 0},
		map[posterior.GroupID]float64{"A": 0, "B": 0},
		map[posterior.GroupID]float64{"A": 1, "B": 1},
	)

	preds, _ := engine.SimulatePredictions(sample, Grid{150}, 150, 40000)
	series, _ := engine.ComputeDifferenceSeries(preds, "A", "B")
	summary, err := engine.ComputeContrastBands(series, []QuantilePair{CentralPair(0.95)})
	if err != nil {
		t.Fatalf("bands failed: %v", err)
	}

	// Difference of two independent unit normals: N(0, sqrt 2).
	diff := distuv.Normal{Mu: 0, Sigma: math.Sqrt2}
	wantLower := diff.Quantile(0.025)
	wantUpper := diff.Quantile(0.975)

	iv := summary.Bands[0].Bands[0]
	if math.Abs(iv.Lower-wantLower) > 0.45 {
		t.Errorf("lower bound: got %v, want approx %v", iv.Lower, wantLower)
	}
	if math.Abs(iv.Upper-wantUpper) > 0.45 {
		t.Errorf("upper bound: got %v, want approx %v", iv.Upper, wantUpper)
	}
}

func TestPipeline_DeterministicForSeed(t *testing.T) {
	runOnce := func() *ContrastSummary {
		engine := newTestEngine(123)
		preds, err := engine.SimulatePredictions(twoGroupSample(150), Grid{140, 150, 160}, 150, 600)
		if err != nil {
			t.Fatalf("simulate failed: %v", err)
		}
		series, err := engine.ComputeDifferenceSeries(preds, "female", "male")
		if err != nil {
			t.Fatalf("difference failed: %v", err)
		}
		summary, err := engine.ComputeContrastBands(series, CentralPairs(DefaultLevels))
		if err != nil {
			t.Fatalf("bands failed: %v", err)
		}
		return summary
	}

	if !reflect.DeepEqual(runOnce(), runOnce()) {
		t.Error("same seed should reproduce identical contrast summaries")
	}
}

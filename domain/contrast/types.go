package contrast

import (
	"fmt"
	"sort"

	"github.com/simonsteiger/strix/domain/core"
	"github.com/simonsteiger/strix/domain/posterior"
)

// Grid is an ordered sequence of covariate values shared across groups.
// INVARIANT: strictly increasing, no duplicates.
type Grid []float64

// NewGrid builds a grid of evenly spaced values from lo to hi inclusive
func NewGrid(lo, hi, step float64) Grid {
	if step <= 0 || hi < lo {
		return nil
	}
	var g Grid
	for x := lo; x <= hi; x += step {
		g = append(g, x)
	}
	return g
}

// Validate checks the grid invariants
func (g Grid) Validate() error {
	if len(g) == 0 {
		return core.ErrEmptyGrid
	}
	for i := 1; i < len(g); i++ {
		if g[i] <= g[i-1] {
			return core.NewInvalidInputError("grid",
				fmt.Sprintf("values must be strictly increasing, got %g after %g", g[i], g[i-1]))
		}
	}
	return nil
}

// PredictionKey addresses one simulated cell: a group at a covariate value.
// A typed composite key, so group and covariate never travel as a parsed label.
type PredictionKey struct {
	Group     posterior.GroupID `json:"group"`
	Covariate float64           `json:"covariate"`
}

// PredictionSet holds simulated predictive draws per (group, covariate) cell.
// INVARIANT: every cell holds exactly DrawCount values, and index i refers to
// the same simulated-individual draw across groups at the same covariate.
type PredictionSet struct {
	Grid      Grid `json:"grid"`
	DrawCount int  `json:"draw_count"`

	values map[PredictionKey][]float64
}

// Values returns the simulated draws for one cell.
// The returned slice must not be mutated by the caller.
func (p *PredictionSet) Values(group posterior.GroupID, covariate float64) ([]float64, bool) {
	v, ok := p.values[PredictionKey{Group: group, Covariate: covariate}]
	return v, ok
}

// Groups returns the sorted groups present in the prediction set
func (p *PredictionSet) Groups() []posterior.GroupID {
	seen := make(map[posterior.GroupID]bool)
	var groups []posterior.GroupID
	for key := range p.values {
		if !seen[key.Group] {
			seen[key.Group] = true
			groups = append(groups, key.Group)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	return groups
}

// HasGroup reports whether the group was simulated over the full grid
func (p *PredictionSet) HasGroup(group posterior.GroupID) bool {
	for _, x := range p.Grid {
		if _, ok := p.Values(group, x); !ok {
			return false
		}
	}
	return len(p.Grid) > 0
}

// DifferenceSeries holds, per covariate value, the paired differences
// (group A prediction - group B prediction) across all simulation draws.
type DifferenceSeries struct {
	GroupA posterior.GroupID `json:"group_a"`
	GroupB posterior.GroupID `json:"group_b"`
	Grid   Grid              `json:"grid"`

	diffs map[float64][]float64
}

// NewDifferenceSeries assembles a difference series from externally computed
// differences, e.g. when the paired subtraction happened outside the engine.
// Every grid value must have a nonempty sequence of equal length.
func NewDifferenceSeries(groupA, groupB posterior.GroupID, grid Grid, diffs map[float64][]float64) (*DifferenceSeries, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	n := -1
	copied := make(map[float64][]float64, len(grid))
	for _, x := range grid {
		d, ok := diffs[x]
		if !ok || len(d) == 0 {
			return nil, core.NewInvalidInputError("difference series",
				fmt.Sprintf("no differences at covariate %g", x))
		}
		if n == -1 {
			n = len(d)
		} else if len(d) != n {
			return nil, core.NewMismatchedGroupsError(
				fmt.Sprintf("difference lengths differ at covariate %g", x))
		}
		cp := make([]float64, len(d))
		copy(cp, d)
		copied[x] = cp
	}
	return &DifferenceSeries{
		GroupA: groupA,
		GroupB: groupB,
		Grid:   append(Grid(nil), grid...),
		diffs:  copied,
	}, nil
}

// At returns the difference sequence at one covariate value.
// The returned slice must not be mutated by the caller.
func (d *DifferenceSeries) At(covariate float64) ([]float64, bool) {
	v, ok := d.diffs[covariate]
	return v, ok
}

// QuantilePair is a two-sided quantile specification, e.g. (0.025, 0.975)
type QuantilePair struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Validate checks 0 <= lo < hi <= 1
func (q QuantilePair) Validate() error {
	if q.Lo < 0 || q.Hi > 1 || q.Lo >= q.Hi {
		return core.NewInvalidQuantileError(q.Lo, q.Hi)
	}
	return nil
}

// Level returns the central probability mass covered by the pair
func (q QuantilePair) Level() float64 {
	return q.Hi - q.Lo
}

// CentralPair builds the symmetric quantile pair covering the given central mass
func CentralPair(level float64) QuantilePair {
	alpha := (1 - level) / 2
	return QuantilePair{Lo: alpha, Hi: 1 - alpha}
}

// DefaultLevels are the nested central interval masses used for contrast plots
var DefaultLevels = []float64{0.99, 0.95, 0.90, 0.80, 0.70, 0.60, 0.50}

// CentralPairs maps central masses to symmetric quantile pairs, preserving order
func CentralPairs(levels []float64) []QuantilePair {
	pairs := make([]QuantilePair, len(levels))
	for i, level := range levels {
		pairs[i] = CentralPair(level)
	}
	return pairs
}

// IntervalBand is the [lower, upper] bound of a difference distribution
// at one covariate value, for one quantile pair
type IntervalBand struct {
	Covariate float64 `json:"covariate"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
}

// ContrastBand is one quantile pair's interval bands, ordered by covariate
type ContrastBand struct {
	Pair  QuantilePair   `json:"pair"`
	Bands []IntervalBand `json:"bands"`
}

// ContrastSummary is the full nested band structure handed to plotting code:
// one ContrastBand per requested quantile pair, in request order
type ContrastSummary struct {
	GroupA posterior.GroupID `json:"group_a"`
	GroupB posterior.GroupID `json:"group_b"`
	Bands  []ContrastBand    `json:"bands"`
}

// SignSummary holds the strict-sign fractions of a difference distribution.
// PPositive and PNegative need not sum to 1 when exact zeros occur.
type SignSummary struct {
	PPositive float64 `json:"p_positive"`
	PNegative float64 `json:"p_negative"`
}

// PointSummary condenses one covariate's difference distribution for reports
type PointSummary struct {
	Covariate float64     `json:"covariate"`
	Mean      float64     `json:"mean"`
	Min       float64     `json:"min"`
	Max       float64     `json:"max"`
	Sign      SignSummary `json:"sign"`
}

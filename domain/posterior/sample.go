package posterior

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"

	"github.com/simonsteiger/strix/domain/core"
)

// GroupID identifies a population group (e.g. "female", "male")
type GroupID string

func (g GroupID) String() string { return string(g) }

// ParamName identifies a regression parameter
type ParamName string

func (p ParamName) String() string { return string(p) }

// Canonical parameter names for the per-group linear model
// outcome = intercept + slope*(covariate - offset) + Normal(0, sigma)
const (
	ParamIntercept ParamName = "intercept"
	ParamSlope     ParamName = "slope"
	ParamSigma     ParamName = "sigma"
)

// RequiredParams lists the parameters every group must carry
var RequiredParams = []ParamName{ParamIntercept, ParamSlope, ParamSigma}

// Sample holds posterior draws keyed by parameter and group.
// INVARIANTS (checked by Validate):
// - every required parameter is present for every group
// - all draw sequences share one nonzero length
// Draw order is the MCMC iteration order and is never reordered.
type Sample struct {
	draws map[ParamName]map[GroupID][]float64
}

// NewSample creates an empty posterior sample
func NewSample() *Sample {
	return &Sample{draws: make(map[ParamName]map[GroupID][]float64)}
}

// Set stores the draw sequence for one (parameter, group) cell.
// The slice is copied so the sample stays immutable under caller mutation.
func (s *Sample) Set(param ParamName, group GroupID, draws []float64) {
	byGroup, ok := s.draws[param]
	if !ok {
		byGroup = make(map[GroupID][]float64)
		s.draws[param] = byGroup
	}
	cp := make([]float64, len(draws))
	copy(cp, draws)
	byGroup[group] = cp
}

// Draws returns the draw sequence for one (parameter, group) cell.
// The returned slice must not be mutated by the caller.
func (s *Sample) Draws(param ParamName, group GroupID) ([]float64, bool) {
	byGroup, ok := s.draws[param]
	if !ok {
		return nil, false
	}
	d, ok := byGroup[group]
	return d, ok
}

// Groups returns the sorted union of groups present across all parameters
func (s *Sample) Groups() []GroupID {
	seen := make(map[GroupID]bool)
	for _, byGroup := range s.draws {
		for g := range byGroup {
			seen[g] = true
		}
	}
	groups := make([]GroupID, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	return groups
}

// params returns the sorted parameter names present in the sample
func (s *Sample) params() []ParamName {
	params := make([]ParamName, 0, len(s.draws))
	for p := range s.draws {
		params = append(params, p)
	}
	sort.Slice(params, func(i, j int) bool { return params[i] < params[j] })
	return params
}

// DrawCount returns the shared draw count, or 0 if the sample is empty.
// The count is taken from the first cell in sorted (parameter, group) order,
// so it is stable for a given sample regardless of insertion order.
func (s *Sample) DrawCount() int {
	for _, param := range s.params() {
		byGroup := s.draws[param]
		groups := make([]GroupID, 0, len(byGroup))
		for g := range byGroup {
			groups = append(groups, g)
		}
		sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
		for _, g := range groups {
			return len(byGroup[g])
		}
	}
	return 0
}

// ContentHash returns a hash of the sample's draws, walking cells in sorted
// (parameter, group) order so equal samples hash equally regardless of how
// they were assembled.
func (s *Sample) ContentHash() core.Hash {
	h := sha256.New()
	for _, param := range s.params() {
		byGroup := s.draws[param]
		groups := make([]GroupID, 0, len(byGroup))
		for g := range byGroup {
			groups = append(groups, g)
		}
		sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
		for _, g := range groups {
			fmt.Fprintf(h, "%s|%s|", param, g)
			var buf [8]byte
			for _, v := range byGroup[g] {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
				h.Write(buf[:])
			}
		}
	}
	return core.Hash(hex.EncodeToString(h.Sum(nil)))
}

// Validate checks the sample invariants. Violations surface as ErrInvalidInput.
func (s *Sample) Validate() error {
	groups := s.Groups()
	if len(groups) == 0 {
		return core.ErrEmptyPosterior
	}

	n := s.DrawCount()
	if n == 0 {
		return core.ErrEmptyPosterior
	}

	for _, param := range RequiredParams {
		byGroup, ok := s.draws[param]
		if !ok {
			return core.NewInvalidInputError("posterior", "missing parameter "+param.String())
		}
		for _, g := range groups {
			if _, ok := byGroup[g]; !ok {
				return core.NewInvalidInputError("posterior",
					"parameter "+param.String()+" missing for group "+g.String())
			}
		}
	}

	// Every cell, required or not, must share one draw count.
	for _, param := range s.params() {
		for _, g := range groups {
			d, ok := s.draws[param][g]
			if !ok {
				continue
			}
			if len(d) == 0 {
				return core.ErrEmptyPosterior
			}
			if len(d) != n {
				return core.ErrRaggedPosterior
			}
		}
	}
	return nil
}

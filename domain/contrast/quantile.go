package contrast

import (
	"math"
	"sort"
)

// quantileSorted computes an empirical quantile of an ascending-sorted sequence
// using linear interpolation between order statistics: for quantile q and n
// samples, the value at fractional rank q*(n-1). With q=0 and q=1 this returns
// the sample min and max exactly.
func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	rank := q * float64(n-1)
	lo := int(math.Floor(rank))
	if lo >= n-1 {
		return sorted[n-1]
	}

	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// sortedCopy returns an ascending-sorted copy, leaving the input untouched
func sortedCopy(values []float64) []float64 {
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)
	return cp
}

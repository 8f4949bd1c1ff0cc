package testkit

import (
	"math"
	"math/rand"

	"github.com/simonsteiger/strix/domain/posterior"
)

// GroupSpec describes the generating parameters for one group's synthetic
// posterior draws: intercept and slope draws come from normal distributions,
// residual-scale draws from a log-normal so they stay positive.
type GroupSpec struct {
	Group       posterior.GroupID
	Intercept   float64
	InterceptSD float64
	Slope       float64
	SlopeSD     float64
	Sigma       float64
	SigmaSD     float64
}

// NewTwoGroupPosterior builds a deterministic synthetic posterior for two
// groups with drawCount draws each. The same seed reproduces the same sample.
func NewTwoGroupPosterior(seed int64, drawCount int, a, b GroupSpec) *posterior.Sample {
	r := rand.New(rand.NewSource(seed))
	sample := posterior.NewSample()
	for _, spec := range []GroupSpec{a, b} {
		sample.Set(posterior.ParamIntercept, spec.Group, normalDraws(r, spec.Intercept, spec.InterceptSD, drawCount))
		sample.Set(posterior.ParamSlope, spec.Group, normalDraws(r, spec.Slope, spec.SlopeSD, drawCount))
		sample.Set(posterior.ParamSigma, spec.Group, logNormalDraws(r, spec.Sigma, spec.SigmaSD, drawCount))
	}
	return sample
}

func normalDraws(r *rand.Rand, mu, sd float64, n int) []float64 {
	draws := make([]float64, n)
	for i := range draws {
		draws[i] = mu + sd*r.NormFloat64()
	}
	return draws
}

// logNormalDraws centers the log-normal at log(scale), so sd=0 degenerates to
// the constant scale value
func logNormalDraws(r *rand.Rand, scale, sd float64, n int) []float64 {
	draws := make([]float64, n)
	for i := range draws {
		draws[i] = math.Exp(math.Log(scale) + sd*r.NormFloat64())
	}
	return draws
}

package ports

import (
	"context"

	"github.com/simonsteiger/strix/domain/posterior"
)

// PosteriorReaderPort loads posterior parameter draws produced by an external
// MCMC sampler. Inference itself never happens inside this module.
type PosteriorReaderPort interface {
	ReadPosterior(ctx context.Context) (*posterior.Sample, error)
}

// Observation is one row of the anthropometric table the regression was fit on
type Observation struct {
	Height float64
	Weight float64
	Age    float64
	Group  posterior.GroupID
}

// ObservationReaderPort loads the already-collected observation table.
// The engine only needs it to fix the covariate reference offset.
type ObservationReaderPort interface {
	ReadObservations(ctx context.Context) ([]Observation, error)
}

package ports

import (
	"context"

	"github.com/simonsteiger/strix/domain/core"
	"github.com/simonsteiger/strix/domain/run"
)

// ContrastRepositoryPort persists contrast run artifacts for later retrieval
type ContrastRepositoryPort interface {
	SaveRun(ctx context.Context, result *run.Result) error
	GetRun(ctx context.Context, id core.RunID) (*run.Result, error)
	ListRuns(ctx context.Context, limit int) ([]run.Manifest, error)
}

package ports

import (
	"context"

	"github.com/simonsteiger/strix/domain/run"
)

// ExporterPort writes a run result to a file artifact (e.g. a workbook)
// for consumption by external plotting or reporting tools
type ExporterPort interface {
	Export(ctx context.Context, result *run.Result, path string) error
}

package run

import (
	"fmt"

	"github.com/simonsteiger/strix/domain/contrast"
	"github.com/simonsteiger/strix/domain/core"
	"github.com/simonsteiger/strix/domain/posterior"
)

// Manifest captures the complete specification of a contrast run.
// It is the truth source for replay: the fingerprint covers every input that
// determines the output, so two runs with equal fingerprints must produce
// identical results.
type Manifest struct {
	RunID           core.RunID        `json:"run_id"`
	GroupA          posterior.GroupID `json:"group_a"`
	GroupB          posterior.GroupID `json:"group_b"`
	PosteriorHash   core.Hash         `json:"posterior_hash"`
	Seed            int64             `json:"seed"`
	DrawCount       int               `json:"draw_count"`
	ReferenceOffset float64           `json:"reference_offset"`
	GridMin         float64           `json:"grid_min"`
	GridMax         float64           `json:"grid_max"`
	GridLen         int               `json:"grid_len"`
	QuantileLevels  []float64         `json:"quantile_levels"`
	RuntimeMs       int64             `json:"runtime_ms"`
	Fingerprint     core.Hash         `json:"fingerprint"`
	CreatedAt       core.Timestamp    `json:"created_at"`
}

// NewManifest creates a run manifest and stamps its determinism fingerprint
func NewManifest(runID core.RunID, groupA, groupB posterior.GroupID, posteriorHash core.Hash,
	seed int64, drawCount int, referenceOffset float64, grid contrast.Grid, levels []float64) Manifest {

	m := Manifest{
		RunID:           runID,
		GroupA:          groupA,
		GroupB:          groupB,
		PosteriorHash:   posteriorHash,
		Seed:            seed,
		DrawCount:       drawCount,
		ReferenceOffset: referenceOffset,
		GridLen:         len(grid),
		QuantileLevels:  append([]float64(nil), levels...),
		CreatedAt:       core.Now(),
	}
	if len(grid) > 0 {
		m.GridMin = grid[0]
		m.GridMax = grid[len(grid)-1]
	}
	m.Fingerprint = m.computeFingerprint()
	return m
}

func (m Manifest) computeFingerprint() core.Hash {
	data := fmt.Sprintf("%s|%s|%s|%d|%d|%g|%g|%g|%d|%v",
		m.GroupA, m.GroupB, m.PosteriorHash, m.Seed, m.DrawCount,
		m.ReferenceOffset, m.GridMin, m.GridMax, m.GridLen, m.QuantileLevels)
	return core.NewHash([]byte(data))
}

// Result bundles everything a run produces: the audit manifest, the nested
// band structure for plotting, and per-covariate point summaries for reports.
type Result struct {
	Manifest Manifest                  `json:"manifest"`
	Summary  *contrast.ContrastSummary `json:"summary"`
	Points   []contrast.PointSummary   `json:"points"`
}

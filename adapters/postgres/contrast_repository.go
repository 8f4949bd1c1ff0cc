package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/simonsteiger/strix/domain/core"
	"github.com/simonsteiger/strix/domain/run"
	"github.com/simonsteiger/strix/ports"
)

// ContrastRepository implements ContrastRepositoryPort for PostgreSQL
type ContrastRepository struct {
	db *sqlx.DB
}

// NewContrastRepository creates a new PostgreSQL contrast repository
func NewContrastRepository(db *sqlx.DB) *ContrastRepository {
	return &ContrastRepository{db: db}
}

// EnsureSchema creates the contrast_runs table if it does not exist
func (r *ContrastRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS contrast_runs (
			id          TEXT PRIMARY KEY,
			group_a     TEXT NOT NULL,
			group_b     TEXT NOT NULL,
			seed        BIGINT NOT NULL,
			draw_count  INTEGER NOT NULL,
			fingerprint TEXT NOT NULL,
			manifest    JSONB NOT NULL,
			payload     JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure contrast_runs schema: %w", err)
	}
	return nil
}

// SaveRun persists a run result, replacing any previous run with the same ID
func (r *ContrastRepository) SaveRun(ctx context.Context, result *run.Result) error {
	if result == nil {
		return fmt.Errorf("cannot save nil run result")
	}

	manifestJSON, err := json.Marshal(result.Manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal run manifest: %w", err)
	}
	payloadJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal run payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO contrast_runs (id, group_a, group_b, seed, draw_count, fingerprint, manifest, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			group_a     = EXCLUDED.group_a,
			group_b     = EXCLUDED.group_b,
			seed        = EXCLUDED.seed,
			draw_count  = EXCLUDED.draw_count,
			fingerprint = EXCLUDED.fingerprint,
			manifest    = EXCLUDED.manifest,
			payload     = EXCLUDED.payload`,
		result.Manifest.RunID.String(),
		result.Manifest.GroupA.String(),
		result.Manifest.GroupB.String(),
		result.Manifest.Seed,
		result.Manifest.DrawCount,
		result.Manifest.Fingerprint.String(),
		manifestJSON,
		payloadJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save contrast run %s: %w", result.Manifest.RunID, err)
	}
	return nil
}

// GetRun retrieves one run result by ID
func (r *ContrastRepository) GetRun(ctx context.Context, id core.RunID) (*run.Result, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM contrast_runs WHERE id = $1`, id.String()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("contrast run", id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contrast run %s: %w", id, err)
	}

	var result run.Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contrast run %s: %w", id, err)
	}
	return &result, nil
}

// ListRuns returns the most recent run manifests, newest first
func (r *ContrastRepository) ListRuns(ctx context.Context, limit int) ([]run.Manifest, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT manifest FROM contrast_runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contrast runs: %w", err)
	}
	defer rows.Close()

	var manifests []run.Manifest
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan contrast run row: %w", err)
		}
		var m run.Manifest
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run manifest: %w", err)
		}
		manifests = append(manifests, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contrast runs: %w", err)
	}
	return manifests, nil
}

var _ ports.ContrastRepositoryPort = (*ContrastRepository)(nil)

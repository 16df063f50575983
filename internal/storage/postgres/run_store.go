package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"flr-tracker/internal/domain"
	"flr-tracker/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `
	run_id, series_id, generated_at, first_ts, last_ts, points,
	composite, regime_status, signal, csd_status, current_ar1, kendall_tau,
	is_bubble, lppl_confidence, document`

// Insert adds a run record. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunRecord) error {
	if r == nil || r.RunID == "" || r.SeriesID == "" {
		return storage.ErrInvalidInput
	}

	query := `INSERT INTO analysis_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	var document any
	if len(r.Document) > 0 {
		document = string(r.Document)
	}

	_, err := s.pool.Exec(ctx, query,
		r.RunID,
		r.SeriesID,
		r.GeneratedAt,
		r.FirstTs,
		r.LastTs,
		r.Points,
		r.Composite,
		r.RegimeStatus,
		r.Signal,
		r.CSDStatus,
		r.CurrentAR1,
		r.KendallTau,
		r.IsBubble,
		r.LPPLConfidence,
		document,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by id. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE run_id = $1`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// GetLatest retrieves the most recently generated run of a series.
func (s *RunStore) GetLatest(ctx context.Context, seriesID string) (*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs
		WHERE series_id = $1
		ORDER BY generated_at DESC, run_id ASC
		LIMIT 1`

	r, err := scanRun(s.pool.QueryRow(ctx, query, seriesID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest run: %w", err)
	}
	return r, nil
}

// List retrieves up to limit runs of a series, newest first.
func (s *RunStore) List(ctx context.Context, seriesID string, limit int) ([]*domain.RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM analysis_runs
		WHERE series_id = $1
		ORDER BY generated_at DESC, run_id ASC`
	args := []any{seriesID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// scanRun scans a single row into a RunRecord.
func scanRun(row pgx.Row) (*domain.RunRecord, error) {
	var r domain.RunRecord
	var document *string

	err := row.Scan(
		&r.RunID,
		&r.SeriesID,
		&r.GeneratedAt,
		&r.FirstTs,
		&r.LastTs,
		&r.Points,
		&r.Composite,
		&r.RegimeStatus,
		&r.Signal,
		&r.CSDStatus,
		&r.CurrentAR1,
		&r.KendallTau,
		&r.IsBubble,
		&r.LPPLConfidence,
		&document,
	)
	if err != nil {
		return nil, err
	}
	if document != nil {
		r.Document = []byte(*document)
	}
	return &r, nil
}

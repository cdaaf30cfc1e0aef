package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a workflow result does not exist.
var ErrNotFound = errors.New("workflow result not found")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const resultCols = `id, sample_id, workflow_type, workflow_sub_type, passed, override,
	reason, result_data, evaluations, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, res *WorkflowResult) error {
	res.ID = uuid.New()

	data, err := json.Marshal(res.ResultData)
	if err != nil {
		return fmt.Errorf("marshal result data: %w", err)
	}
	var evals []byte
	if len(res.Evaluations) > 0 {
		if evals, err = json.Marshal(res.Evaluations); err != nil {
			return fmt.Errorf("marshal evaluations: %w", err)
		}
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO workflow_result
			(id, sample_id, workflow_type, workflow_sub_type, passed, override, reason, result_data, evaluations)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		res.ID, res.SampleID, res.WorkflowType, res.WorkflowSubType,
		res.Passed, res.Override, res.Reason, data, evals)
	return err
}

func scanResult(row pgx.Row) (*WorkflowResult, error) {
	var (
		res   WorkflowResult
		data  []byte
		evals []byte
	)
	err := row.Scan(&res.ID, &res.SampleID, &res.WorkflowType, &res.WorkflowSubType,
		&res.Passed, &res.Override, &res.Reason, &data, &evals, &res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &res.ResultData); err != nil {
			return nil, fmt.Errorf("unmarshal result data: %w", err)
		}
	}
	if len(evals) > 0 {
		if err := json.Unmarshal(evals, &res.Evaluations); err != nil {
			return nil, fmt.Errorf("unmarshal evaluations: %w", err)
		}
	}
	return &res, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*WorkflowResult, error) {
	return scanResult(r.pool.QueryRow(ctx,
		`SELECT `+resultCols+` FROM workflow_result WHERE id = $1`, id))
}

func (r *repoPG) ListBySample(ctx context.Context, sampleID uuid.UUID) ([]*WorkflowResult, error) {
	return r.list(ctx,
		`SELECT `+resultCols+` FROM workflow_result WHERE sample_id = $1 ORDER BY created_at DESC`,
		sampleID)
}

func (r *repoPG) ListPassedBySample(ctx context.Context, sampleID uuid.UUID) ([]*WorkflowResult, error) {
	return r.list(ctx,
		`SELECT `+resultCols+` FROM workflow_result
		 WHERE sample_id = $1 AND passed ORDER BY created_at DESC`,
		sampleID)
}

func (r *repoPG) list(ctx context.Context, query string, args ...interface{}) ([]*WorkflowResult, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*WorkflowResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, res)
	}
	return items, rows.Err()
}

package sample

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a sample does not exist.
var ErrNotFound = errors.New("sample not found")

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const sampleCols = `id, barcode, client_id, sex, age, status, report_email, created_at, updated_at`

func scanSample(row pgx.Row) (*Sample, error) {
	var s Sample
	err := row.Scan(&s.ID, &s.Barcode, &s.ClientID, &s.Sex, &s.Age,
		&s.Status, &s.ReportEmail, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Sample) error {
	s.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sample (id, barcode, client_id, sex, age, status, report_email)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.Barcode, s.ClientID, s.Sex, s.Age, s.Status, s.ReportEmail)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Sample, error) {
	return scanSample(r.pool.QueryRow(ctx,
		`SELECT `+sampleCols+` FROM sample WHERE id = $1`, id))
}

func (r *repoPG) GetByBarcode(ctx context.Context, barcode string) (*Sample, error) {
	return scanSample(r.pool.QueryRow(ctx,
		`SELECT `+sampleCols+` FROM sample WHERE barcode = $1`, barcode))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sample SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Sample, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sample`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+sampleCols+` FROM sample ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectSamples(rows, total)
}

func (r *repoPG) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Sample, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM sample WHERE client_id = $1`, clientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+sampleCols+` FROM sample WHERE client_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		clientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectSamples(rows, total)
}

func collectSamples(rows pgx.Rows, total int) ([]*Sample, int, error) {
	var items []*Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

type manifestRepoPG struct{ pool *pgxpool.Pool }

func NewManifestRepoPG(pool *pgxpool.Pool) ManifestRepository {
	return &manifestRepoPG{pool: pool}
}

func (r *manifestRepoPG) CreateEntries(ctx context.Context, entries []*ManifestEntry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin manifest insert: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, e := range entries {
		if _, err := tx.Exec(ctx, `
			INSERT INTO sample_workflow (sample_id, workflow_type, workflow_sub_type, position)
			VALUES ($1,$2,$3,$4)`,
			e.SampleID, e.WorkflowType, e.WorkflowSubType, i); err != nil {
			return fmt.Errorf("insert manifest entry %s: %w", e.WorkflowType, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *manifestRepoPG) ListBySample(ctx context.Context, sampleID uuid.UUID) ([]*ManifestEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sample_id, workflow_type, workflow_sub_type
		FROM sample_workflow WHERE sample_id = $1 ORDER BY position`, sampleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*ManifestEntry
	for rows.Next() {
		var e ManifestEntry
		if err := rows.Scan(&e.SampleID, &e.WorkflowType, &e.WorkflowSubType); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

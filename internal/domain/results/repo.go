package results

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists workflow results. Rows are append-only; corrections
// arrive as new submissions.
type Repository interface {
	Create(ctx context.Context, r *WorkflowResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*WorkflowResult, error)
	ListBySample(ctx context.Context, sampleID uuid.UUID) ([]*WorkflowResult, error)
	// ListPassedBySample returns the passing results for a sample, most
	// recent first, for the status reduction's manifest recount.
	ListPassedBySample(ctx context.Context, sampleID uuid.UUID) ([]*WorkflowResult, error)
}

package sample

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Sample) error
	GetByID(ctx context.Context, id uuid.UUID) (*Sample, error)
	GetByBarcode(ctx context.Context, barcode string) (*Sample, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	List(ctx context.Context, limit, offset int) ([]*Sample, int, error)
	ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Sample, int, error)
}

type ManifestRepository interface {
	CreateEntries(ctx context.Context, entries []*ManifestEntry) error
	ListBySample(ctx context.Context, sampleID uuid.UUID) ([]*ManifestEntry, error)
}

package sample

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WorkflowRequest names one assay requested at registration.
type WorkflowRequest struct {
	WorkflowType    string  `json:"workflow_type"`
	WorkflowSubType *string `json:"workflow_sub_type,omitempty"`
}

// Notifier is the outbound notification port used at registration.
type Notifier interface {
	SampleRegistered(ctx context.Context, s *Sample, workflowCount int)
}

type Service struct {
	samples  Repository
	manifest ManifestRepository
	notifier Notifier
	log      zerolog.Logger
}

func NewService(samples Repository, manifest ManifestRepository, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{samples: samples, manifest: manifest, notifier: notifier, log: log}
}

// Register creates a sample together with its workflow manifest. The
// manifest is fixed here and never mutated afterwards.
func (s *Service) Register(ctx context.Context, smp *Sample, workflows []WorkflowRequest) error {
	if smp.Barcode == "" {
		return fmt.Errorf("%w: barcode is required", ErrInvalidInput)
	}
	if smp.ClientID == uuid.Nil {
		return fmt.Errorf("%w: client_id is required", ErrInvalidInput)
	}
	if len(workflows) == 0 {
		return fmt.Errorf("%w: at least one workflow is required", ErrInvalidInput)
	}
	smp.Sex = strings.ToUpper(strings.TrimSpace(smp.Sex))
	if smp.Sex != "" && smp.Sex != "M" && smp.Sex != "F" {
		return fmt.Errorf("%w: invalid sex %q", ErrInvalidInput, smp.Sex)
	}
	if smp.Status == "" {
		smp.Status = StatusAddedToWorklist
	}
	if !ValidStatuses[smp.Status] {
		return fmt.Errorf("%w: invalid status %q", ErrInvalidInput, smp.Status)
	}

	seen := make(map[string]bool, len(workflows))
	for _, w := range workflows {
		if w.WorkflowType == "" {
			return fmt.Errorf("%w: workflow_type is required on every requested workflow", ErrInvalidInput)
		}
		key := w.WorkflowType
		if w.WorkflowSubType != nil {
			key += "/" + *w.WorkflowSubType
		}
		if seen[key] {
			return fmt.Errorf("%w: duplicate requested workflow %s", ErrInvalidInput, key)
		}
		seen[key] = true
	}

	if err := s.samples.Create(ctx, smp); err != nil {
		return err
	}

	entries := make([]*ManifestEntry, 0, len(workflows))
	for _, w := range workflows {
		entries = append(entries, &ManifestEntry{
			SampleID:        smp.ID,
			WorkflowType:    w.WorkflowType,
			WorkflowSubType: w.WorkflowSubType,
		})
	}
	if err := s.manifest.CreateEntries(ctx, entries); err != nil {
		return fmt.Errorf("create workflow manifest: %w", err)
	}

	s.log.Info().
		Str("sample_id", smp.ID.String()).
		Str("barcode", smp.Barcode).
		Int("workflows", len(entries)).
		Msg("sample registered")

	if s.notifier != nil {
		s.notifier.SampleRegistered(ctx, smp, len(entries))
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Sample, error) {
	return s.samples.GetByID(ctx, id)
}

func (s *Service) GetByBarcode(ctx context.Context, barcode string) (*Sample, error) {
	return s.samples.GetByBarcode(ctx, barcode)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Sample, int, error) {
	return s.samples.List(ctx, limit, offset)
}

func (s *Service) ListByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]*Sample, int, error) {
	return s.samples.ListByClient(ctx, clientID, limit, offset)
}

// Manifest returns the sample's requested workflow list in registration
// order.
func (s *Service) Manifest(ctx context.Context, sampleID uuid.UUID) ([]*ManifestEntry, error) {
	if _, err := s.samples.GetByID(ctx, sampleID); err != nil {
		return nil, err
	}
	return s.manifest.ListBySample(ctx, sampleID)
}

// UpdateStatus applies an administrative status change (acceptance,
// received-by-lab, repeat requests). The validation engine moves samples
// through PROCESSING/COMPLETED/FAILED on its own.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	if !ValidStatuses[status] {
		return fmt.Errorf("%w: invalid status %q", ErrInvalidInput, status)
	}
	if err := s.samples.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.log.Info().
		Str("sample_id", id.String()).
		Str("status", string(status)).
		Msg("sample status updated")
	return nil
}

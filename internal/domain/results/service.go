package results

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cianogeneway/lims/internal/domain/reference"
	"github.com/cianogeneway/lims/internal/domain/sample"
)

// Notifier is the outbound notification port. Implementations must not
// block the submission path on delivery.
type Notifier interface {
	QCFailure(ctx context.Context, s *sample.Sample, workflow, reason string)
	ResultsAvailable(ctx context.Context, s *sample.Sample)
}

// Submission is one workflow result reported by an instrument or an
// analyst.
type Submission struct {
	SampleID        uuid.UUID
	WorkflowType    WorkflowType
	WorkflowSubType *string
	ResultData      ResultData
	// Override asserts a pass regardless of the computed verdict. The
	// raw verdict is still recorded for audit.
	Override       bool
	OverrideReason string
}

var knownWorkflowTypes = map[WorkflowType]bool{
	WorkflowOpenArray:        true,
	WorkflowQPCR:             true,
	WorkflowMicroarray:       true,
	WorkflowNGS:              true,
	WorkflowFragmentAnalysis: true,
	WorkflowSanger:           true,
	WorkflowPathology:        true,
}

type Service struct {
	repo     Repository
	samples  sample.Repository
	manifest sample.ManifestRepository
	table    *reference.Table
	notifier Notifier
	locks    *sampleLocks
	log      zerolog.Logger
}

func NewService(repo Repository, samples sample.Repository, manifest sample.ManifestRepository,
	table *reference.Table, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		samples:  samples,
		manifest: manifest,
		table:    table,
		notifier: notifier,
		locks:    newSampleLocks(),
		log:      log.With().Str("component", "results").Logger(),
	}
}

// Submit validates a workflow result, persists it with its effective
// outcome, and reduces the sample's status. It returns the stored result
// together with the status the reduction arrived at. Submissions for the
// same sample are serialized so the manifest recount sees a consistent
// result set.
func (s *Service) Submit(ctx context.Context, sub *Submission) (*WorkflowResult, sample.Status, error) {
	if err := s.validateSubmission(sub); err != nil {
		return nil, "", err
	}

	s.locks.lock(sub.SampleID)
	defer s.locks.unlock(sub.SampleID)

	smp, err := s.samples.GetByID(ctx, sub.SampleID)
	if err != nil {
		return nil, "", err
	}

	sub.WorkflowSubType = normalizeSubType(sub.WorkflowSubType)
	verdict := s.verdict(smp, sub)
	effective := sub.Override || verdict.Passed

	res := &WorkflowResult{
		SampleID:        smp.ID,
		WorkflowType:    sub.WorkflowType,
		WorkflowSubType: sub.WorkflowSubType,
		Passed:          effective,
		Override:        sub.Override && !verdict.Passed,
		ResultData:      sub.ResultData,
		Evaluations:     verdict.Evaluations,
	}
	if reason := resultReason(verdict, res.Override, sub.OverrideReason); reason != "" {
		res.Reason = &reason
	}

	if err := s.repo.Create(ctx, res); err != nil {
		return nil, "", fmt.Errorf("persist workflow result: %w", err)
	}

	if res.Override {
		s.log.Warn().
			Str("sample_id", smp.ID.String()).
			Str("barcode", smp.Barcode).
			Str("workflow", Label(res.WorkflowType, res.WorkflowSubType)).
			Str("verdict_reason", verdict.Reason).
			Str("override_reason", sub.OverrideReason).
			Msg("qc failure overridden")
	}

	status, err := s.reduceStatus(ctx, smp, res, verdict)
	if err != nil {
		return nil, "", err
	}
	return res, status, nil
}

func (s *Service) validateSubmission(sub *Submission) error {
	if sub.SampleID == uuid.Nil {
		return fmt.Errorf("%w: sample id is required", ErrInvalidInput)
	}
	if !knownWorkflowTypes[sub.WorkflowType] {
		return fmt.Errorf("%w: unknown workflow type %q", ErrInvalidInput, sub.WorkflowType)
	}
	return nil
}

func (s *Service) verdict(smp *sample.Sample, sub *Submission) Verdict {
	if sub.WorkflowType == WorkflowPathology {
		return ValidatePathology(s.table, sub.WorkflowSubType, sub.ResultData, smp.Sex, smp.Age)
	}
	return Validate(sub.WorkflowType, sub.WorkflowSubType, sub.ResultData)
}

// reduceStatus recomputes the sample status from the stored results. A
// failing result fails the sample outright. A passing result triggers a
// manifest recount: the sample completes only when every requested workflow
// has at least one passing result.
func (s *Service) reduceStatus(ctx context.Context, smp *sample.Sample, res *WorkflowResult, verdict Verdict) (sample.Status, error) {
	if !res.Passed {
		if err := s.samples.UpdateStatus(ctx, smp.ID, sample.StatusFailed); err != nil {
			return "", fmt.Errorf("mark sample failed: %w", err)
		}
		s.log.Info().
			Str("sample_id", smp.ID.String()).
			Str("workflow", Label(res.WorkflowType, res.WorkflowSubType)).
			Str("reason", verdict.Reason).
			Msg("sample failed qc")
		if s.notifier != nil {
			s.notifier.QCFailure(ctx, smp, Label(res.WorkflowType, res.WorkflowSubType), verdict.Reason)
		}
		return sample.StatusFailed, nil
	}

	entries, err := s.manifest.ListBySample(ctx, smp.ID)
	if err != nil {
		return "", fmt.Errorf("load manifest: %w", err)
	}
	passed, err := s.repo.ListPassedBySample(ctx, smp.ID)
	if err != nil {
		return "", fmt.Errorf("load passing results: %w", err)
	}

	status := sample.StatusProcessing
	if manifestSatisfied(entries, passed) {
		status = sample.StatusCompleted
	}
	if err := s.samples.UpdateStatus(ctx, smp.ID, status); err != nil {
		return "", fmt.Errorf("update sample status: %w", err)
	}
	s.log.Info().
		Str("sample_id", smp.ID.String()).
		Str("workflow", Label(res.WorkflowType, res.WorkflowSubType)).
		Str("status", string(status)).
		Msg("workflow result accepted")

	if status == sample.StatusCompleted && s.notifier != nil {
		s.notifier.ResultsAvailable(ctx, smp)
	}
	return status, nil
}

// manifestSatisfied reports whether every manifest entry is covered by a
// passing result. Matching is on workflow type plus subtype, a nil subtype
// matching only nil.
func manifestSatisfied(entries []*sample.ManifestEntry, passed []*WorkflowResult) bool {
	for _, e := range entries {
		covered := false
		for _, r := range passed {
			if e.Matches(string(r.WorkflowType), r.WorkflowSubType) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

func normalizeSubType(st *string) *string {
	if st == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*st))
	if v == "" {
		return nil
	}
	return &v
}

// resultReason picks the persisted reason: the override justification when
// a failure was overridden with one, otherwise the verdict's own reason. An
// override without a justification keeps the failure reason it suppressed.
func resultReason(verdict Verdict, overridden bool, overrideReason string) string {
	if overridden && strings.TrimSpace(overrideReason) != "" {
		return overrideReason
	}
	return verdict.Reason
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*WorkflowResult, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListBySample(ctx context.Context, sampleID uuid.UUID) ([]*WorkflowResult, error) {
	if _, err := s.samples.GetByID(ctx, sampleID); err != nil {
		return nil, err
	}
	return s.repo.ListBySample(ctx, sampleID)
}

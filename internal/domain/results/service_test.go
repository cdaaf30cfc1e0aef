package results

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cianogeneway/lims/internal/domain/reference"
	"github.com/cianogeneway/lims/internal/domain/sample"
)

type mockSampleRepo struct {
	mu      sync.Mutex
	samples map[uuid.UUID]*sample.Sample
}

func newMockSampleRepo() *mockSampleRepo {
	return &mockSampleRepo{samples: make(map[uuid.UUID]*sample.Sample)}
}

func (m *mockSampleRepo) Create(_ context.Context, s *sample.Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m.samples[s.ID] = s
	return nil
}

func (m *mockSampleRepo) GetByID(_ context.Context, id uuid.UUID) (*sample.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.samples[id]
	if !ok {
		return nil, sample.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockSampleRepo) GetByBarcode(_ context.Context, barcode string) (*sample.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.samples {
		if s.Barcode == barcode {
			cp := *s
			return &cp, nil
		}
	}
	return nil, sample.ErrNotFound
}

func (m *mockSampleRepo) UpdateStatus(_ context.Context, id uuid.UUID, status sample.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.samples[id]
	if !ok {
		return sample.ErrNotFound
	}
	s.Status = status
	return nil
}

func (m *mockSampleRepo) List(_ context.Context, _, _ int) ([]*sample.Sample, int, error) {
	return nil, 0, nil
}

func (m *mockSampleRepo) ListByClient(_ context.Context, _ uuid.UUID, _, _ int) ([]*sample.Sample, int, error) {
	return nil, 0, nil
}

type mockManifestRepo struct {
	entries map[uuid.UUID][]*sample.ManifestEntry
}

func newMockManifestRepo() *mockManifestRepo {
	return &mockManifestRepo{entries: make(map[uuid.UUID][]*sample.ManifestEntry)}
}

func (m *mockManifestRepo) CreateEntries(_ context.Context, entries []*sample.ManifestEntry) error {
	for _, e := range entries {
		m.entries[e.SampleID] = append(m.entries[e.SampleID], e)
	}
	return nil
}

func (m *mockManifestRepo) ListBySample(_ context.Context, sampleID uuid.UUID) ([]*sample.ManifestEntry, error) {
	return m.entries[sampleID], nil
}

type mockResultRepo struct {
	mu      sync.Mutex
	results []*WorkflowResult
}

func (m *mockResultRepo) Create(_ context.Context, r *WorkflowResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = uuid.New()
	m.results = append(m.results, r)
	return nil
}

func (m *mockResultRepo) GetByID(_ context.Context, id uuid.UUID) (*WorkflowResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.results {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockResultRepo) ListBySample(_ context.Context, sampleID uuid.UUID) ([]*WorkflowResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*WorkflowResult
	for _, r := range m.results {
		if r.SampleID == sampleID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockResultRepo) ListPassedBySample(_ context.Context, sampleID uuid.UUID) ([]*WorkflowResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*WorkflowResult
	for _, r := range m.results {
		if r.SampleID == sampleID && r.Passed {
			out = append(out, r)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	failures  []string
	available []string
}

func (n *recordingNotifier) QCFailure(_ context.Context, s *sample.Sample, workflow, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, s.Barcode+" "+workflow+" "+reason)
}

func (n *recordingNotifier) ResultsAvailable(_ context.Context, s *sample.Sample) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.available = append(n.available, s.Barcode)
}

type fixture struct {
	svc      *Service
	samples  *mockSampleRepo
	manifest *mockManifestRepo
	results  *mockResultRepo
	notifier *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		samples:  newMockSampleRepo(),
		manifest: newMockManifestRepo(),
		results:  &mockResultRepo{},
		notifier: &recordingNotifier{},
	}
	f.svc = NewService(f.results, f.samples, f.manifest, reference.DefaultTable(), f.notifier, zerolog.Nop())
	return f
}

// addSample registers a sample with the given manifest workflows. A
// workflow is given as "TYPE" or "TYPE/SUBTYPE".
func (f *fixture) addSample(t *testing.T, barcode, sex string, workflows ...string) *sample.Sample {
	t.Helper()
	s := &sample.Sample{
		Barcode: barcode,
		Sex:     sex,
		Status:  sample.StatusProcessing,
	}
	if err := f.samples.Create(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	for _, w := range workflows {
		e := &sample.ManifestEntry{SampleID: s.ID}
		if i := strings.IndexByte(w, '/'); i >= 0 {
			e.WorkflowType = w[:i]
			st := w[i+1:]
			e.WorkflowSubType = &st
		} else {
			e.WorkflowType = w
		}
		if err := f.manifest.CreateEntries(context.Background(), []*sample.ManifestEntry{e}); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func (f *fixture) status(t *testing.T, id uuid.UUID) sample.Status {
	t.Helper()
	s, err := f.samples.GetByID(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	return s.Status
}

func TestSubmitPassingResultCompletesSingleWorkflowSample(t *testing.T) {
	f := newFixture(t)
	s := f.addSample(t, "BC-001", "M", "OPENARRAY")

	res, status, err := f.svc.Submit(context.Background(), &Submission{
		SampleID:     s.ID,
		WorkflowType: WorkflowOpenArray,
		ResultData:   ResultData{"callRate": 99.1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Passed || res.Override {
		t.Errorf("Passed = %v Override = %v, want passed without override", res.Passed, res.Override)
	}
	if status != sample.StatusCompleted {
		t.Errorf("returned status = %s, want COMPLETED", status)
	}
	if got := f.status(t, s.ID); got != sample.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got)
	}
	if len(f.notifier.available) != 1 {
		t.Errorf("results-available notifications = %d, want 1", len(f.notifier.available))
	}
}

func TestSubmitFailingResultFailsSample(t *testing.T) {
	f := newFixture(t)
	s := f.addSample(t, "BC-002", "M", "OPENARRAY")

	res, _, err := f.svc.Submit(context.Background(), &Submission{
		SampleID:     s.ID,
		WorkflowType: WorkflowOpenArray,
		ResultData:   ResultData{"callRate": 95.0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Passed {
		t.Error("result should fail")
	}
	if res.Reason == nil || *res.Reason == "" {
		t.Error("failing result should carry a reason")
	}
	if got := f.status(t, s.ID); got != sample.StatusFailed {
		t.Errorf("status = %s, want FAILED", got)
	}
	if len(f.notifier.failures) != 1 {
		t.Errorf("qc-failure notifications = %d, want 1", len(f.notifier.failures))
	}
}

func TestSubmitMultiWorkflowProgression(t *testing.T) {
	f := newFixture(t)
	s := f.addSample(t, "BC-003", "F",
		"OPENARRAY", "NEXT_GENERATION_SEQUENCING/SHOTGUN")

	if _, _, err := f.svc.Submit(context.Background(), &Submission{
		SampleID:     s.ID,
		WorkflowType: WorkflowOpenArray,
		ResultData:   ResultData{"callRate": 98.0},
	}); err != nil {
		t.Fatal(err)
	}
	if got := f.status(t, s.ID); got != sample.StatusProcessing {
		t.Errorf("status after 1/2 results = %s, want PROCESSING", got)
	}
	if len(f.notifier.available) != 0 {
		t.Error("no notification expected before the manifest is complete")
	}

	shotgun := SubTypeShotgun
	if _, _, err := f.svc.Submit(context.Background(), &Submission{
		SampleID:        s.ID,
		WorkflowType:    WorkflowNGS,
		WorkflowSubType: &shotgun,
		ResultData:      ResultData{"dataOutput": 750.0},
	}); err != nil {
		t.Fatal(err)
	}
	if got := f.status(t, s.ID); got != sample.StatusCompleted {
		t.Errorf("status after 2/2 results = %s, want COMPLETED", got)
	}
	if len(f.notifier.available) != 1 {
		t.Errorf("results-available notifications = %d, want 1", len(f.notifier.available))
	}
}

func TestSubmitSubtypeMustMatchManifest(t *testing.T) {
	f := newFixture(t)
	s := f.addSample(t, "BC-004", "M", "NEXT_GENERATION_SEQUENCING/SHOTGUN")

	// A passing result without the subtype does not satisfy a subtyped
	// manifest entry.
	if _, _, err := f.svc.Submit(context.Background(), &Submission{
		SampleID:     s.ID,
		WorkflowType: WorkflowNGS,
		ResultData:   ResultData{},
	}); err != nil {
		t.Fatal(err)
	}
	if got := f.status(t, s.ID); got != sample.StatusProcessing {
		t.Errorf("status = %s, want PROCESSING", got)
	}
}

func TestSubmitOverrideAssertsPass(t *testing.T) {
	f := newFixture(t)
	s := f.addSample(t, "BC-005", "M", "OPENARRAY")

	res, _, err := f.svc.Submit(context.Background(), &Submission{
		SampleID:       s.ID,
		WorkflowType:   WorkflowOpenArray,
		ResultData:     ResultData{"callRate": 95.0},
		Override:       true,
		OverrideReason: "repeat run confirmed genotypes manually",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Passed {
		t.Error("override should make the result pass")
	}
	if !res.Override {
		t.Error("override flag should be persisted")
	}
	if res.Reason == nil || *res.Reason != "repeat run confirmed genotypes manually" {
		t.Errorf("Reason = %v, want the override justification", res.Reason)
	}
	if got := f.status(t, s.ID); got != sample.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got)
	}
	if len(f.notifier.failures) != 0 {
		t.Error("an overridden failure must not notify qc-failure")
	}
}

func TestSubmitOverrideOnPassingResultNotRecorded(t *testing.T) {
	f := newFixture(t)
	s := f.addSample(t, "BC-006", "M", "OPENARRAY")

	res, _, err := f.svc.Submit(context.Background(), &Submission{
		SampleID:       s.ID,
		WorkflowType:   WorkflowOpenArray,
		ResultData:     ResultData{"callRate": 99.0},
		Override:       true,
		OverrideReason: "not needed",
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Override {
		t.Error("override should not be recorded when the verdict already passed")
	}
}

func TestSubmitOverrideWithoutReason(t *testing.T) {
	f := newFixture(t)
	s := f.addSample(t, "BC-007", "M", "OPENARRAY")

	// A justification is optional; the suppressed failure reason stays on
	// the record for the audit trail.
	res, status, err := f.svc.Submit(context.Background(), &Submission{
		SampleID:     s.ID,
		WorkflowType: WorkflowOpenArray,
		ResultData:   ResultData{"callRate": 95.0},
		Override:     true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Passed || !res.Override {
		t.Errorf("Passed = %v Override = %v, want both true", res.Passed, res.Override)
	}
	if res.Reason == nil || !strings.Contains(*res.Reason, "95") {
		t.Errorf("Reason = %v, want the overridden failure reason kept", res.Reason)
	}
	if status != sample.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", status)
	}
}

func TestSubmitResubmissionAfterFailureRecovers(t *testing.T) {
	f := newFixture(t)
	s := f.addSample(t, "BC-008", "M", "OPENARRAY")

	if _, _, err := f.svc.Submit(context.Background(), &Submission{
		SampleID:     s.ID,
		WorkflowType: WorkflowOpenArray,
		ResultData:   ResultData{"callRate": 90.0},
	}); err != nil {
		t.Fatal(err)
	}
	if got := f.status(t, s.ID); got != sample.StatusFailed {
		t.Fatalf("status = %s, want FAILED", got)
	}

	// A later passing run supersedes the failure in the recount.
	if _, _, err := f.svc.Submit(context.Background(), &Submission{
		SampleID:     s.ID,
		WorkflowType: WorkflowOpenArray,
		ResultData:   ResultData{"callRate": 98.2},
	}); err != nil {
		t.Fatal(err)
	}
	if got := f.status(t, s.ID); got != sample.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got)
	}

	all, err := f.svc.ListBySample(context.Background(), s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("stored results = %d, want both submissions kept", len(all))
	}
}

func TestSubmitPathologyUsesSampleSex(t *testing.T) {
	f := newFixture(t)
	s := f.addSample(t, "BC-009", "F", "PATHOLOGY/CREATININE")

	// Creatinine 90 is in range for a male sample; for a female one it is
	// flagged HIGH but remains reportable, so the sample still completes.
	creatinine := "CREATININE"
	res, status, err := f.svc.Submit(context.Background(), &Submission{
		SampleID:        s.ID,
		WorkflowType:    WorkflowPathology,
		WorkflowSubType: &creatinine,
		ResultData:      ResultData{"value": 90.0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Passed {
		t.Errorf("creatinine 90 female should pass with a flag, got reason %v", res.Reason)
	}
	if len(res.Evaluations) != 1 {
		t.Fatalf("Evaluations = %d, want 1", len(res.Evaluations))
	}
	if res.Evaluations[0].Status != reference.StatusHigh {
		t.Errorf("Status = %s, want HIGH", res.Evaluations[0].Status)
	}
	if res.Reason == nil || !strings.Contains(*res.Reason, "above") {
		t.Errorf("Reason = %v, want an above-range note", res.Reason)
	}
	if status != sample.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", status)
	}
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	s := f.addSample(t, "BC-010", "M", "OPENARRAY")

	_, _, err := f.svc.Submit(context.Background(), &Submission{
		WorkflowType: WorkflowOpenArray,
		ResultData:   ResultData{"callRate": 99.0},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("missing sample id: err = %v, want ErrInvalidInput", err)
	}

	_, _, err = f.svc.Submit(context.Background(), &Submission{
		SampleID:     s.ID,
		WorkflowType: WorkflowType("KARYOTYPING"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown type: err = %v, want ErrInvalidInput", err)
	}

	_, _, err = f.svc.Submit(context.Background(), &Submission{
		SampleID:     uuid.New(),
		WorkflowType: WorkflowOpenArray,
		ResultData:   ResultData{"callRate": 99.0},
	})
	if !errors.Is(err, sample.ErrNotFound) {
		t.Errorf("unknown sample: err = %v, want sample.ErrNotFound", err)
	}
}

func TestSubmitNormalizesSubType(t *testing.T) {
	f := newFixture(t)
	s := f.addSample(t, "BC-011", "M", "NEXT_GENERATION_SEQUENCING/SHOTGUN")

	st := "shotgun"
	res, _, err := f.svc.Submit(context.Background(), &Submission{
		SampleID:        s.ID,
		WorkflowType:    WorkflowNGS,
		WorkflowSubType: &st,
		ResultData:      ResultData{"dataOutput": 600.0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.WorkflowSubType == nil || *res.WorkflowSubType != SubTypeShotgun {
		t.Errorf("WorkflowSubType = %v, want normalized SHOTGUN", res.WorkflowSubType)
	}
	if got := f.status(t, s.ID); got != sample.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got)
	}
}

func TestSubmitConcurrentSameSample(t *testing.T) {
	f := newFixture(t)
	s := f.addSample(t, "BC-012", "M", "OPENARRAY", "QPCR")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wt := WorkflowOpenArray
		data := ResultData{"callRate": 99.0}
		if i == 1 {
			wt = WorkflowQPCR
			data = ResultData{"passed": true}
		}
		wg.Add(1)
		go func(wt WorkflowType, data ResultData) {
			defer wg.Done()
			if _, _, err := f.svc.Submit(context.Background(), &Submission{
				SampleID:     s.ID,
				WorkflowType: wt,
				ResultData:   data,
			}); err != nil {
				t.Error(err)
			}
		}(wt, data)
	}
	wg.Wait()

	if got := f.status(t, s.ID); got != sample.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED", got)
	}
}

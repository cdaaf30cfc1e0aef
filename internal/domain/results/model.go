// Package results implements the workflow result validation engine: QC
// verdicts for each assay type, pathology reference-range checks, and the
// sample status reduction applied on every submission.
package results

import (
	"time"

	"github.com/google/uuid"

	"github.com/cianogeneway/lims/internal/domain/reference"
)

// WorkflowType identifies an assay family. The set is closed: adding an
// assay means adding a constant and a dispatch arm, not a silent
// fallthrough.
type WorkflowType string

const (
	WorkflowOpenArray        WorkflowType = "OPENARRAY"
	WorkflowQPCR             WorkflowType = "QPCR"
	WorkflowMicroarray       WorkflowType = "MICROARRAY"
	WorkflowNGS              WorkflowType = "NEXT_GENERATION_SEQUENCING"
	WorkflowFragmentAnalysis WorkflowType = "FRAGMENT_ANALYSIS"
	WorkflowSanger           WorkflowType = "SANGER_SEQUENCING"
	WorkflowPathology        WorkflowType = "PATHOLOGY"
)

// Workflow subtypes with dedicated rules.
const (
	SubTypeShotgun          = "SHOTGUN"
	SubTypePaternityKinship = "PATERNITY_KINSHIP"
	SubTypeFBC              = "FBC"
)

// Outcome is the three-valued raw verdict read from an instrument-reported
// pass/fail flag.
type Outcome int

const (
	OutcomeUnspecified Outcome = iota
	OutcomePass
	OutcomeFail
)

// UnspecifiedVerdictPolicy is the dispatch policy for assay types without a
// modelled rule and for result payloads that carry no pass/fail flag where
// one is optional: an unspecified outcome counts as a pass. Deliberately
// permissive for not-yet-modelled assay types.
const UnspecifiedVerdictPolicy = OutcomePass

// ResultData is the structured measurement payload of a submission. Its
// shape depends on the workflow type; accessors tolerate missing fields and
// wrong types.
type ResultData map[string]interface{}

// Float reads a numeric field. JSON numbers arrive as float64; integer
// values from other producers are accepted too.
func (d ResultData) Float(key string) (float64, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Outcome reads the reported pass/fail flag under key. A missing field is
// Unspecified; a non-boolean is Fail (malformed payloads never pass by
// accident).
func (d ResultData) Outcome(key string) Outcome {
	v, ok := d[key]
	if !ok {
		return OutcomeUnspecified
	}
	b, ok := v.(bool)
	if !ok {
		return OutcomeFail
	}
	if b {
		return OutcomePass
	}
	return OutcomeFail
}

// String reads a string field, empty when absent or mistyped.
func (d ResultData) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Verdict is the raw QC decision for one workflow result, before override.
type Verdict struct {
	Passed      bool                   `json:"passed"`
	Reason      string                 `json:"reason,omitempty"`
	Evaluations []reference.Evaluation `json:"evaluations,omitempty"`
}

// WorkflowResult maps to the workflow_result table. Passed is the effective
// outcome (verdict OR override); Override records that a human asserted the
// pass. Rows are append-only; a resubmission for the same
// (sample, type, subtype) is a new row.
type WorkflowResult struct {
	ID              uuid.UUID              `db:"id" json:"id"`
	SampleID        uuid.UUID              `db:"sample_id" json:"sample_id"`
	WorkflowType    WorkflowType           `db:"workflow_type" json:"workflow_type"`
	WorkflowSubType *string                `db:"workflow_sub_type" json:"workflow_sub_type,omitempty"`
	Passed          bool                   `db:"passed" json:"passed"`
	Override        bool                   `db:"override" json:"override"`
	Reason          *string                `db:"reason" json:"reason,omitempty"`
	ResultData      ResultData             `db:"result_data" json:"result_data"`
	Evaluations     []reference.Evaluation `db:"evaluations" json:"evaluations,omitempty"`
	CreatedAt       time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time              `db:"updated_at" json:"updated_at"`
}

// Label renders a workflow identity for reasons and notifications, e.g.
// "NEXT_GENERATION_SEQUENCING/SHOTGUN".
func Label(workflowType WorkflowType, subType *string) string {
	if subType != nil && *subType != "" {
		return string(workflowType) + "/" + *subType
	}
	return string(workflowType)
}

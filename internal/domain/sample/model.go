// Package sample owns the sample entity, its lifecycle status set, and the
// workflow manifest fixed at registration.
package sample

import (
	"time"

	"github.com/google/uuid"
)

// Status is a sample lifecycle status. ADDED_TO_WORKLIST and ACCEPTED are
// produced by worklist/acceptance flows; the validation engine only writes
// PROCESSING, COMPLETED and FAILED. COMPLETED and FAILED stay re-enterable
// so a corrective submission can move a sample back out of them.
type Status string

const (
	StatusAddedToWorklist Status = "ADDED_TO_WORKLIST"
	StatusAccepted        Status = "ACCEPTED"
	StatusReceivedByLab   Status = "RECEIVED_BY_LAB"
	StatusProcessing      Status = "PROCESSING"
	StatusCompleted       Status = "COMPLETED"
	StatusFailed          Status = "FAILED"
	StatusRepeat          Status = "REPEAT"
)

// ValidStatuses is the closed set of sample statuses.
var ValidStatuses = map[Status]bool{
	StatusAddedToWorklist: true,
	StatusAccepted:        true,
	StatusReceivedByLab:   true,
	StatusProcessing:      true,
	StatusCompleted:       true,
	StatusFailed:          true,
	StatusRepeat:          true,
}

// Sample maps to the sample table.
type Sample struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Barcode     string    `db:"barcode" json:"barcode"`
	ClientID    uuid.UUID `db:"client_id" json:"client_id"`
	Sex         string    `db:"sex" json:"sex,omitempty"` // "M", "F" or empty
	Age         *int      `db:"age" json:"age,omitempty"`
	Status      Status    `db:"status" json:"status"`
	ReportEmail string    `db:"report_email" json:"report_email,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ManifestEntry maps to the sample_workflow table: one assay the sample is
// expected to undergo. Entries are created at registration, never mutated,
// and deleted only with the sample.
type ManifestEntry struct {
	SampleID        uuid.UUID `db:"sample_id" json:"sample_id"`
	WorkflowType    string    `db:"workflow_type" json:"workflow_type"`
	WorkflowSubType *string   `db:"workflow_sub_type" json:"workflow_sub_type,omitempty"`
}

// Matches reports whether a result identified by (workflowType, subType)
// satisfies this manifest entry: types equal AND subtypes equal or both
// absent.
func (m *ManifestEntry) Matches(workflowType string, subType *string) bool {
	if m.WorkflowType != workflowType {
		return false
	}
	if m.WorkflowSubType == nil && subType == nil {
		return true
	}
	if m.WorkflowSubType != nil && subType != nil {
		return *m.WorkflowSubType == *subType
	}
	return false
}

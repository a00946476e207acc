// internal/models/job.go
package models

import "time"

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusDraft      JobStatus = "DRAFT"
	JobStatusOpen       JobStatus = "OPEN"
	JobStatusAwarded    JobStatus = "AWARDED"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusDisputed   JobStatus = "DISPUTED"
	JobStatusPaid       JobStatus = "PAID"
	JobStatusCancelled  JobStatus = "CANCELLED"
	JobStatusClosed     JobStatus = "CLOSED"
)

// AllJobStatuses lists every state in declaration order.
var AllJobStatuses = []JobStatus{
	JobStatusDraft,
	JobStatusOpen,
	JobStatusAwarded,
	JobStatusInProgress,
	JobStatusCompleted,
	JobStatusDisputed,
	JobStatusPaid,
	JobStatusCancelled,
	JobStatusClosed,
}

// Valid reports whether s is a known status.
func (s JobStatus) Valid() bool {
	for _, known := range AllJobStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Job struct {
	ID                   string    `json:"id"`
	CustomerID           string    `json:"customerId"`
	Title                string    `json:"title,omitempty"`
	Budget               float64   `json:"budget"`
	Location             string    `json:"location"`
	Status               JobStatus `json:"status"`
	AssignedContractorID *string   `json:"assignedContractorId,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// StatusHistory is an immutable record of one successful transition.
type StatusHistory struct {
	ID         string    `json:"id"`
	JobID      string    `json:"jobId"`
	FromStatus JobStatus `json:"fromStatus"`
	ToStatus   JobStatus `json:"toStatus"`
	ActorID    string    `json:"actorId"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

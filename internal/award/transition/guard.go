// internal/award/transition/guard.go

// Package transition is the job status state machine and the service that
// applies manual moves through it.
package transition

import (
	"time"

	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/models"

	"github.com/google/uuid"
)

var transitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusDraft:      {models.JobStatusOpen, models.JobStatusCancelled},
	models.JobStatusOpen:       {models.JobStatusAwarded, models.JobStatusCancelled},
	models.JobStatusAwarded:    {models.JobStatusInProgress, models.JobStatusCancelled},
	models.JobStatusInProgress: {models.JobStatusCompleted, models.JobStatusDisputed},
	models.JobStatusCompleted:  {models.JobStatusPaid, models.JobStatusDisputed},
	models.JobStatusDisputed:   {models.JobStatusInProgress, models.JobStatusCancelled},
	models.JobStatusPaid:       {models.JobStatusClosed},
	models.JobStatusCancelled:  {models.JobStatusOpen},
}

// CanTransition reports whether from -> to is in the table.
func CanTransition(from, to models.JobStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Validate returns an illegal-transition error for moves outside the table.
func Validate(from, to models.JobStatus) error {
	if !CanTransition(from, to) {
		return apperrors.NewIllegalTransitionError(string(from), string(to))
	}
	return nil
}

// AllowedTargets lists the states reachable from from.
func AllowedTargets(from models.JobStatus) []models.JobStatus {
	out := make([]models.JobStatus, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

// IsTerminal reports whether no further move leaves s on the happy path.
func IsTerminal(s models.JobStatus) bool {
	return s == models.JobStatusClosed || s == models.JobStatusCancelled
}

// NewHistory builds the immutable record of one transition.
func NewHistory(jobID string, from, to models.JobStatus, actorID, notes string, at time.Time) models.StatusHistory {
	return models.StatusHistory{
		ID:         uuid.New().String(),
		JobID:      jobID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Notes:      notes,
		CreatedAt:  at.UTC(),
	}
}

// internal/award/transition/guard_test.go
package transition

import (
	"testing"
	"time"

	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_Table(t *testing.T) {
	legal := map[[2]models.JobStatus]bool{
		{models.JobStatusDraft, models.JobStatusOpen}:            true,
		{models.JobStatusDraft, models.JobStatusCancelled}:       true,
		{models.JobStatusOpen, models.JobStatusAwarded}:          true,
		{models.JobStatusOpen, models.JobStatusCancelled}:        true,
		{models.JobStatusAwarded, models.JobStatusInProgress}:    true,
		{models.JobStatusAwarded, models.JobStatusCancelled}:     true,
		{models.JobStatusInProgress, models.JobStatusCompleted}:  true,
		{models.JobStatusInProgress, models.JobStatusDisputed}:   true,
		{models.JobStatusCompleted, models.JobStatusPaid}:        true,
		{models.JobStatusCompleted, models.JobStatusDisputed}:    true,
		{models.JobStatusDisputed, models.JobStatusInProgress}:   true,
		{models.JobStatusDisputed, models.JobStatusCancelled}:    true,
		{models.JobStatusPaid, models.JobStatusClosed}:           true,
		{models.JobStatusCancelled, models.JobStatusOpen}:        true,
	}

	for _, from := range models.AllJobStatuses {
		for _, to := range models.AllJobStatuses {
			want := legal[[2]models.JobStatus{from, to}]
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)

			err := Validate(from, to)
			if want {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperrors.IsIllegalTransition(err), "%s -> %s", from, to)
			}
		}
	}
}

func TestValidate_CompletedToOpenFails(t *testing.T) {
	err := Validate(models.JobStatusCompleted, models.JobStatusOpen)
	std, ok := apperrors.AsStandard(err)
	if assert.True(t, ok) {
		assert.Equal(t, "COMPLETED", std.Metadata["from"])
		assert.Equal(t, "OPEN", std.Metadata["to"])
	}
}

func TestAllowedTargets_ReturnsCopy(t *testing.T) {
	targets := AllowedTargets(models.JobStatusOpen)
	assert.Equal(t, []models.JobStatus{models.JobStatusAwarded, models.JobStatusCancelled}, targets)

	targets[0] = models.JobStatusClosed
	assert.True(t, CanTransition(models.JobStatusOpen, models.JobStatusAwarded))
	assert.Empty(t, AllowedTargets(models.JobStatusClosed))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(models.JobStatusClosed))
	assert.True(t, IsTerminal(models.JobStatusCancelled))
	assert.False(t, IsTerminal(models.JobStatusPaid))
}

func TestNewHistory(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("EAT", 3*3600))
	h := NewHistory("job-1", models.JobStatusOpen, models.JobStatusAwarded, "system", "auto", at)

	assert.NotEmpty(t, h.ID)
	assert.Equal(t, "job-1", h.JobID)
	assert.Equal(t, models.JobStatusOpen, h.FromStatus)
	assert.Equal(t, models.JobStatusAwarded, h.ToStatus)
	assert.Equal(t, time.UTC, h.CreatedAt.Location())
	assert.True(t, h.CreatedAt.Equal(at))
}

func TestPlanNotifications(t *testing.T) {
	contractor := "pro-1"
	job := models.Job{ID: "job-1", CustomerID: "cust-1", AssignedContractorID: &contractor}

	tests := []struct {
		to         models.JobStatus
		recipients []string
	}{
		{models.JobStatusAwarded, []string{"pro-1", "cust-1"}},
		{models.JobStatusInProgress, []string{"cust-1"}},
		{models.JobStatusCompleted, []string{"cust-1"}},
		{models.JobStatusDisputed, []string{"cust-1", "pro-1"}},
		{models.JobStatusPaid, []string{"pro-1"}},
		{models.JobStatusCancelled, []string{"cust-1", "pro-1"}},
		{models.JobStatusClosed, []string{"cust-1"}},
		{models.JobStatusOpen, []string{"cust-1"}},
		{models.JobStatusDraft, nil},
	}
	for _, tt := range tests {
		t.Run(string(tt.to), func(t *testing.T) {
			var got []string
			for _, n := range PlanNotifications(job, tt.to) {
				got = append(got, n.UserID)
				assert.NotEmpty(t, n.Title)
				assert.Contains(t, n.Message, "job-1")
			}
			assert.Equal(t, tt.recipients, got)
		})
	}
}

func TestPlanNotifications_AwardedContractorKind(t *testing.T) {
	contractor := "pro-1"
	notices := PlanNotifications(models.Job{ID: "job-1", CustomerID: "cust-1", AssignedContractorID: &contractor}, models.JobStatusAwarded)

	assert.Equal(t, models.KindBidAccepted, notices[0].Kind)
	assert.Equal(t, models.KindJobStatus, notices[1].Kind)
}

func TestPlanNotifications_SkipsMissingContractor(t *testing.T) {
	notices := PlanNotifications(models.Job{ID: "job-1", CustomerID: "cust-1"}, models.JobStatusCancelled)
	assert.Len(t, notices, 1)
	assert.Equal(t, "cust-1", notices[0].UserID)
}

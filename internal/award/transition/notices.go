// internal/award/transition/notices.go
package transition

import (
	"fmt"

	"award-engine/internal/models"
)

// Notice is one notification a transition produces.
type Notice struct {
	UserID  string
	Title   string
	Message string
	Kind    models.NotificationKind
}

// PlanNotifications returns the notices for job having just moved to to.
// Recipients without an ID are skipped.
func PlanNotifications(job models.Job, to models.JobStatus) []Notice {
	contractor := ""
	if job.AssignedContractorID != nil {
		contractor = *job.AssignedContractorID
	}
	label := jobLabel(job)

	var out []Notice
	add := func(userID, title, msg string, kind models.NotificationKind) {
		if userID == "" {
			return
		}
		out = append(out, Notice{UserID: userID, Title: title, Message: msg, Kind: kind})
	}

	switch to {
	case models.JobStatusAwarded:
		add(contractor, "Bid accepted",
			fmt.Sprintf("Your bid on %s has been accepted.", label), models.KindBidAccepted)
		add(job.CustomerID, "Job awarded",
			fmt.Sprintf("%s has been awarded to a contractor.", label), models.KindJobStatus)
	case models.JobStatusInProgress:
		add(job.CustomerID, "Work started",
			fmt.Sprintf("Work on %s is in progress.", label), models.KindJobStatus)
	case models.JobStatusCompleted:
		add(job.CustomerID, "Job completed",
			fmt.Sprintf("%s has been marked completed. Please review and release payment.", label), models.KindJobStatus)
	case models.JobStatusDisputed:
		msg := fmt.Sprintf("%s is under dispute.", label)
		add(job.CustomerID, "Job disputed", msg, models.KindJobStatus)
		add(contractor, "Job disputed", msg, models.KindJobStatus)
	case models.JobStatusPaid:
		add(contractor, "Payment released",
			fmt.Sprintf("Payment for %s has been released.", label), models.KindJobStatus)
	case models.JobStatusCancelled:
		msg := fmt.Sprintf("%s has been cancelled.", label)
		add(job.CustomerID, "Job cancelled", msg, models.KindJobStatus)
		add(contractor, "Job cancelled", msg, models.KindJobStatus)
	case models.JobStatusClosed:
		add(job.CustomerID, "Job closed",
			fmt.Sprintf("%s has been closed.", label), models.KindJobStatus)
	case models.JobStatusOpen:
		add(job.CustomerID, "Job reopened",
			fmt.Sprintf("%s is open for bidding again.", label), models.KindJobStatus)
	}
	return out
}

func jobLabel(job models.Job) string {
	if job.Title != "" {
		return fmt.Sprintf("job %q", job.Title)
	}
	return "job " + job.ID
}

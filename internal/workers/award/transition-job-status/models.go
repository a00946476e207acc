// internal/workers/award/transition-job-status/models.go
package transitionjobstatus

type Input struct {
	JobID    string `json:"jobId"`
	ToStatus string `json:"toStatus"`
	ActorID  string `json:"actorId"`
	Notes    string `json:"notes,omitempty"`
}

type Output struct {
	JobID                string   `json:"jobId"`
	Status               string   `json:"status"`
	AssignedContractorID string   `json:"assignedContractorId,omitempty"`
	AllowedNext          []string `json:"allowedNext"`
}

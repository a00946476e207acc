// internal/workers/award/evaluate-job-bids/models.go
package evaluatejobbids

type Input struct {
	JobID       string `json:"jobId"`
	RequestedBy string `json:"requestedBy,omitempty"`
}

type Output struct {
	JobID        string  `json:"jobId"`
	Outcome      string  `json:"outcome"`
	WinningBidID string  `json:"winningBidId,omitempty"`
	WinningScore float64 `json:"winningScore"`
	BidCount     int     `json:"bidCount"`
	Reason       string  `json:"reason,omitempty"`
}

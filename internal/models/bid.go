// internal/models/bid.go
package models

import "time"

type BidStatus string

const (
	BidStatusPending  BidStatus = "PENDING"
	BidStatusAccepted BidStatus = "ACCEPTED"
	BidStatusRejected BidStatus = "REJECTED"
)

// Bid is a professional's proposal against a job. LocationScore and
// MatchTier are computed once, at submission time.
type Bid struct {
	ID             string    `json:"id"`
	JobID          string    `json:"jobId"`
	ProfessionalID string    `json:"professionalId"`
	Amount         float64   `json:"amount"`
	TimelineWeeks  int       `json:"timelineWeeks"`
	Status         BidStatus `json:"status"`
	LocationScore  float64   `json:"locationScore"`
	MatchTier      string    `json:"matchTier"`
	CreatedAt      time.Time `json:"createdAt"`
}

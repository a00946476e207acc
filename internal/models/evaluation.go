// internal/models/evaluation.go
package models

import "time"

// EvaluationTrigger names the path that started an evaluation.
type EvaluationTrigger string

const (
	TriggerThreshold EvaluationTrigger = "threshold"
	TriggerWindow    EvaluationTrigger = "window"
	TriggerManual    EvaluationTrigger = "manual"
)

// EvaluationOutcome is the decision an evaluation reached.
type EvaluationOutcome string

const (
	OutcomeAwarded      EvaluationOutcome = "awarded"
	OutcomeManualReview EvaluationOutcome = "manual_review"
	OutcomeNoBids       EvaluationOutcome = "no_bids"
	OutcomeSkipped      EvaluationOutcome = "skipped"
)

// ScoreBreakdown exposes every score component of one bid.
type ScoreBreakdown struct {
	Capability  float64 `json:"capability"`
	Reputation  float64 `json:"reputation"`
	TrackRecord float64 `json:"trackRecord"`
	Location    float64 `json:"location"`
	Total       float64 `json:"total"`
}

// ScoredBid pairs a bid with its bidder and score.
type ScoredBid struct {
	Bid          Bid            `json:"bid"`
	Professional Professional   `json:"professional"`
	Score        ScoreBreakdown `json:"score"`
}

// TriggerRecord is the persisted evaluation window of one job.
type TriggerRecord struct {
	JobID      string     `json:"jobId"`
	FirstBidAt time.Time  `json:"firstBidAt"`
	DueAt      time.Time  `json:"dueAt"`
	ClaimedAt  *time.Time `json:"claimedAt,omitempty"`
	FiredAt    *time.Time `json:"firedAt,omitempty"`
	FireCount  int        `json:"fireCount"`
}

// Fired reports whether the window has been closed by an evaluation.
func (r TriggerRecord) Fired() bool {
	return r.FiredAt != nil
}

// AwardCommit is everything the atomic award step mutates.
type AwardCommit struct {
	JobID          string        `json:"jobId"`
	WinningBidID   string        `json:"winningBidId"`
	ProfessionalID string        `json:"professionalId"`
	Score          float64       `json:"score"`
	History        StatusHistory `json:"history"`
}

// AwardReceipt is what the award transaction changed.
type AwardReceipt struct {
	Job          Job          `json:"job"`
	Professional Professional `json:"professional"`
	RejectedBids []Bid        `json:"rejectedBids"`
}

// EvaluationResult is returned to the caller of an evaluation.
type EvaluationResult struct {
	JobID          string            `json:"jobId"`
	Trigger        EvaluationTrigger `json:"trigger"`
	Outcome        EvaluationOutcome `json:"outcome"`
	WinningBidID   string            `json:"winningBidId,omitempty"`
	WinningScore   float64           `json:"winningScore"`
	Ranking        []ScoredBid       `json:"ranking,omitempty"`
	RejectedBidIDs []string          `json:"rejectedBidIds,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	EvaluatedAt    time.Time         `json:"evaluatedAt"`
}

// RankedBid is the flattened audit view of one scored bid.
type RankedBid struct {
	Rank           int            `json:"rank"`
	BidID          string         `json:"bidId"`
	ProfessionalID string         `json:"professionalId"`
	Amount         float64        `json:"amount"`
	TimelineWeeks  int            `json:"timelineWeeks"`
	MatchTier      string         `json:"matchTier"`
	Score          ScoreBreakdown `json:"score"`
}

// EvaluationRecord is the audit document of one evaluation.
type EvaluationRecord struct {
	ID              string            `json:"id"`
	JobID           string            `json:"jobId"`
	Trigger         EvaluationTrigger `json:"trigger"`
	Outcome         EvaluationOutcome `json:"outcome"`
	WinningBidID    string            `json:"winningBidId,omitempty"`
	WinningScore    float64           `json:"winningScore"`
	MinWinningScore float64           `json:"minWinningScore"`
	Ranking         []RankedBid       `json:"ranking"`
	Reason          string            `json:"reason,omitempty"`
	DurationMs      int64             `json:"durationMs"`
	EvaluatedAt     time.Time         `json:"evaluatedAt"`
}

// NewEvaluationRecord flattens a result into its audit document.
func NewEvaluationRecord(id string, result EvaluationResult, minScore float64, duration time.Duration) EvaluationRecord {
	ranking := make([]RankedBid, 0, len(result.Ranking))
	for i, sb := range result.Ranking {
		ranking = append(ranking, RankedBid{
			Rank:           i + 1,
			BidID:          sb.Bid.ID,
			ProfessionalID: sb.Bid.ProfessionalID,
			Amount:         sb.Bid.Amount,
			TimelineWeeks:  sb.Bid.TimelineWeeks,
			MatchTier:      sb.Bid.MatchTier,
			Score:          sb.Score,
		})
	}
	return EvaluationRecord{
		ID:              id,
		JobID:           result.JobID,
		Trigger:         result.Trigger,
		Outcome:         result.Outcome,
		WinningBidID:    result.WinningBidID,
		WinningScore:    result.WinningScore,
		MinWinningScore: minScore,
		Ranking:         ranking,
		Reason:          result.Reason,
		DurationMs:      duration.Milliseconds(),
		EvaluatedAt:     result.EvaluatedAt,
	}
}

// PendingJob is an open job with pending bids and no evaluation window.
type PendingJob struct {
	JobID      string    `json:"jobId"`
	FirstBidAt time.Time `json:"firstBidAt"`
}

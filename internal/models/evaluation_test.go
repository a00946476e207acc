// internal/models/evaluation_test.go
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobStatus_Valid(t *testing.T) {
	for _, s := range AllJobStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, JobStatus("FINISHED").Valid())
	assert.False(t, JobStatus("open").Valid())
}

func TestNewEvaluationRecord_RanksInOrder(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	result := EvaluationResult{
		JobID:        "job-1",
		Trigger:      TriggerWindow,
		Outcome:      OutcomeManualReview,
		WinningBidID: "",
		WinningScore: 45,
		Ranking: []ScoredBid{
			{Bid: Bid{ID: "bid-b", ProfessionalID: "pro-b", MatchTier: "same_ward"}, Score: ScoreBreakdown{Total: 45}},
			{Bid: Bid{ID: "bid-a", ProfessionalID: "pro-a"}, Score: ScoreBreakdown{Total: 30}},
		},
		EvaluatedAt: at,
	}

	rec := NewEvaluationRecord("eval-1", result, 60, 1500*time.Millisecond)

	assert.Equal(t, "eval-1", rec.ID)
	assert.Equal(t, int64(1500), rec.DurationMs)
	assert.Equal(t, 60.0, rec.MinWinningScore)
	if assert.Len(t, rec.Ranking, 2) {
		assert.Equal(t, 1, rec.Ranking[0].Rank)
		assert.Equal(t, "bid-b", rec.Ranking[0].BidID)
		assert.Equal(t, "same_ward", rec.Ranking[0].MatchTier)
		assert.Equal(t, 2, rec.Ranking[1].Rank)
	}
	assert.Equal(t, at, rec.EvaluatedAt)
}

func TestTriggerRecord_Fired(t *testing.T) {
	now := time.Now()
	assert.False(t, TriggerRecord{}.Fired())
	assert.True(t, TriggerRecord{FiredAt: &now}.Fired())
}

// internal/award/scoring/scorer_test.go
package scoring

import (
	"math"
	"testing"

	"award-engine/internal/common/config"
	"award-engine/internal/models"

	"github.com/stretchr/testify/assert"
)

func rating(v float64) *float64 { return &v }

func TestScorer_ScenarioA(t *testing.T) {
	s := NewScorer(DefaultWeights())

	got := s.Score(
		models.Bid{Amount: 8000, TimelineWeeks: 10, LocationScore: 0.9},
		models.Professional{NCALevel: 5, AverageRating: rating(4.8), SuccessfulBids: 8, TotalBids: 10},
	)

	assert.InDelta(t, 25.0, got.Capability, 1e-9)
	assert.InDelta(t, 24.0, got.Reputation, 1e-9)
	assert.InDelta(t, 12.0, got.TrackRecord, 1e-9)
	assert.InDelta(t, 18.0, got.Location, 1e-9)
	assert.InDelta(t, 79.0, got.Total, 1e-9)
}

func TestScorer_ComponentEdges(t *testing.T) {
	s := NewScorer(DefaultWeights())

	tests := []struct {
		name string
		bid  models.Bid
		pro  models.Professional
		want models.ScoreBreakdown
	}{
		{
			name: "unset rating and no history",
			pro:  models.Professional{NCALevel: 1},
			want: models.ScoreBreakdown{Capability: 5, Total: 5},
		},
		{
			name: "everything at maximum",
			bid:  models.Bid{LocationScore: 1},
			pro:  models.Professional{NCALevel: 8, AverageRating: rating(5), SuccessfulBids: 3, TotalBids: 3},
			want: models.ScoreBreakdown{Capability: 40, Reputation: 25, TrackRecord: 15, Location: 20, Total: 100},
		},
		{
			name: "out of range inputs clamp",
			bid:  models.Bid{LocationScore: 3},
			pro:  models.Professional{NCALevel: 12, AverageRating: rating(9), SuccessfulBids: 7, TotalBids: 2},
			want: models.ScoreBreakdown{Capability: 40, Reputation: 25, TrackRecord: 15, Location: 20, Total: 100},
		},
		{
			name: "negative inputs floor at zero",
			bid:  models.Bid{LocationScore: -1},
			pro:  models.Professional{NCALevel: -2, AverageRating: rating(-3), SuccessfulBids: -1, TotalBids: 4},
			want: models.ScoreBreakdown{},
		},
		{
			name: "NaN rating is zero",
			pro:  models.Professional{NCALevel: 4, AverageRating: rating(math.NaN())},
			want: models.ScoreBreakdown{Capability: 20, Total: 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.bid, tt.pro)
			assert.InDelta(t, tt.want.Capability, got.Capability, 1e-9)
			assert.InDelta(t, tt.want.Reputation, got.Reputation, 1e-9)
			assert.InDelta(t, tt.want.TrackRecord, got.TrackRecord, 1e-9)
			assert.InDelta(t, tt.want.Location, got.Location, 1e-9)
			assert.InDelta(t, tt.want.Total, got.Total, 1e-9)
		})
	}
}

func TestScorer_ReputationTopsOutAt25(t *testing.T) {
	w := DefaultWeights()
	w.Reputation = 30
	s := NewScorer(w)

	got := s.Score(models.Bid{}, models.Professional{AverageRating: rating(5)})
	assert.Equal(t, 25.0, got.Reputation)
}

func TestScorer_TotalAlwaysWithinBounds(t *testing.T) {
	s := NewScorer(Weights{Capability: 80, Reputation: 80, TrackRecord: 80, Location: 80})

	for nca := -1; nca <= 10; nca++ {
		for _, r := range []*float64{nil, rating(0), rating(2.5), rating(5), rating(40)} {
			for _, total := range []int{0, 1, 10} {
				got := s.Total(
					models.Bid{LocationScore: 1},
					models.Professional{NCALevel: nca, AverageRating: r, SuccessfulBids: total, TotalBids: total},
				)
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, 100.0)
			}
		}
	}
}

func TestScorer_Deterministic(t *testing.T) {
	s := NewScorer(DefaultWeights())
	bid := models.Bid{LocationScore: 0.7}
	pro := models.Professional{NCALevel: 3, AverageRating: rating(3.3), SuccessfulBids: 1, TotalBids: 3}

	first := s.Score(bid, pro)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, s.Score(bid, pro))
	}
}

func TestWeightsFromConfig(t *testing.T) {
	w := WeightsFromConfig(config.WeightsConfig{Capability: 1, Reputation: 2, TrackRecord: 3, Location: 4})
	assert.Equal(t, Weights{Capability: 1, Reputation: 2, TrackRecord: 3, Location: 4}, w)
}

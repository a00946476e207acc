// internal/award/scoring/scorer.go

// Package scoring turns a bid and its bidder into a 0-100 score.
package scoring

import (
	"math"

	"award-engine/internal/common/config"
	"award-engine/internal/models"
)

const (
	maxNCALevel = 8
	maxTotal    = 100

	// repPerStar caps reputation at 25 points for a 5.0 rating even though
	// its weight is configured separately.
	repPerStar = 5
)

// Weights is the share of 100 each component may contribute.
type Weights struct {
	Capability  float64
	Reputation  float64
	TrackRecord float64
	Location    float64
}

// DefaultWeights is the 40/25/15/20 split.
func DefaultWeights() Weights {
	return Weights{Capability: 40, Reputation: 25, TrackRecord: 15, Location: 20}
}

// WeightsFromConfig copies the configured weights.
func WeightsFromConfig(w config.WeightsConfig) Weights {
	return Weights{
		Capability:  w.Capability,
		Reputation:  w.Reputation,
		TrackRecord: w.TrackRecord,
		Location:    w.Location,
	}
}

// Scorer is stateless and safe for concurrent use.
type Scorer struct {
	weights Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score computes every component. The location component uses the
// affinity stored on the bid at submission time.
func (s *Scorer) Score(bid models.Bid, pro models.Professional) models.ScoreBreakdown {
	w := s.weights

	capability := clamp(float64(pro.NCALevel)/maxNCALevel*w.Capability, w.Capability)

	var reputation float64
	if pro.AverageRating != nil {
		reputation = clamp(*pro.AverageRating*repPerStar, w.Reputation)
	}

	var track float64
	if pro.TotalBids > 0 {
		track = clamp(float64(pro.SuccessfulBids)/float64(pro.TotalBids)*w.TrackRecord, w.TrackRecord)
	}

	loc := clamp(bid.LocationScore*w.Location, w.Location)

	return models.ScoreBreakdown{
		Capability:  capability,
		Reputation:  reputation,
		TrackRecord: track,
		Location:    loc,
		Total:       clamp(capability+reputation+track+loc, maxTotal),
	}
}

// Total is a convenience for callers that only need the scalar.
func (s *Scorer) Total(bid models.Bid, pro models.Professional) float64 {
	return s.Score(bid, pro).Total
}

func clamp(v, hi float64) float64 {
	if math.IsNaN(v) || v < 0 || hi <= 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

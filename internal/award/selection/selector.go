// internal/award/selection/selector.go

// Package selection picks the best pending bid on an open job.
package selection

import (
	"context"
	"fmt"
	"sort"

	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"
	"award-engine/internal/models"
)

// BidSource reads jobs and their pending bids. ListPendingBids returns bids
// in submission order.
type BidSource interface {
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	ListPendingBids(ctx context.Context, jobID string) ([]models.Bid, error)
}

// ProfessionalSource loads bidder profiles keyed by ID.
type ProfessionalSource interface {
	GetProfessionals(ctx context.Context, ids []string) (map[string]models.Professional, error)
}

// Scorer scores one bid.
type Scorer interface {
	Score(bid models.Bid, pro models.Professional) models.ScoreBreakdown
}

// Selection is what SelectBest observed. Best is nil when the job is no
// longer open or has no pending bids. Skipped lists bids whose bidder
// profile could not be found.
type Selection struct {
	Job     *models.Job
	Best    *models.ScoredBid
	Ranking []models.ScoredBid
	Skipped []string
}

type Selector struct {
	bids   BidSource
	pros   ProfessionalSource
	scorer Scorer
	logger logger.Logger
}

func NewSelector(bids BidSource, pros ProfessionalSource, scorer Scorer, log logger.Logger) *Selector {
	return &Selector{
		bids:   bids,
		pros:   pros,
		scorer: scorer,
		logger: logger.Component(log, "selector"),
	}
}

// SelectBest ranks every pending bid by total score, highest first. Ties
// keep submission order, so the earliest bid wins. Bids from unknown
// professionals are left out of the ranking; the job fails with a
// not-found error only when no bid can be ranked.
func (s *Selector) SelectBest(ctx context.Context, jobID string) (*Selection, error) {
	job, err := s.bids.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	sel := &Selection{Job: job}
	if job.Status != models.JobStatusOpen {
		return sel, nil
	}

	bids, err := s.bids.ListPendingBids(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list pending bids: %w", err)
	}
	if len(bids) == 0 {
		return sel, nil
	}

	ids := make([]string, 0, len(bids))
	for _, b := range bids {
		ids = append(ids, b.ProfessionalID)
	}
	pros, err := s.pros.GetProfessionals(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load professionals: %w", err)
	}

	ranking := make([]models.ScoredBid, 0, len(bids))
	for _, b := range bids {
		pro, ok := pros[b.ProfessionalID]
		if !ok {
			s.logger.Warn("skipping bid without professional profile", map[string]interface{}{
				"jobId":          jobID,
				"bidId":          b.ID,
				"professionalId": b.ProfessionalID,
			})
			sel.Skipped = append(sel.Skipped, b.ID)
			continue
		}
		ranking = append(ranking, models.ScoredBid{
			Bid:          b,
			Professional: pro,
			Score:        s.scorer.Score(b, pro),
		})
	}

	if len(ranking) == 0 {
		return nil, apperrors.NewProfessionalNotFoundError(bids[0].ProfessionalID)
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score.Total > ranking[j].Score.Total
	})

	sel.Ranking = ranking
	sel.Best = &ranking[0]

	s.logger.Debug("bids ranked", map[string]interface{}{
		"jobId":     jobID,
		"bidCount":  len(ranking),
		"skipped":   len(sel.Skipped),
		"bestBidId": sel.Best.Bid.ID,
		"bestScore": sel.Best.Score.Total,
	})
	return sel, nil
}

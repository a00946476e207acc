// internal/award/transition/service.go
package transition

import (
	"context"
	"time"

	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"
	"award-engine/internal/models"
)

// Store persists transitions. TransitionJob must apply the status change and
// the history row together, and only while the job is still in from.
type Store interface {
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	TransitionJob(ctx context.Context, jobID string, from, to models.JobStatus, history models.StatusHistory) (*models.Job, error)
	ListHistory(ctx context.Context, jobID string) ([]models.StatusHistory, error)
}

// Notifier delivers one user notification.
type Notifier interface {
	Send(ctx context.Context, userID, title, message string, kind models.NotificationKind) error
}

type Service struct {
	store    Store
	notifier Notifier
	logger   logger.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithClock overrides the time source for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, notifier Notifier, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		logger:   logger.Component(log, "transition"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transition moves jobID to to on behalf of actorID. Illegal moves leave no
// trace; a concurrent change surfaces as a status-conflict error. AWARDED is
// refused because only bid evaluation commits an award.
func (s *Service) Transition(ctx context.Context, jobID string, to models.JobStatus, actorID, notes string) (*models.Job, error) {
	if !to.Valid() {
		return nil, apperrors.NewInvalidInputError("unknown status: " + string(to))
	}
	if actorID == "" {
		return nil, apperrors.NewInvalidInputError("actorId is required")
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	from := job.Status
	if err := Validate(from, to); err != nil {
		s.logger.Warn("transition rejected", map[string]interface{}{
			"jobId": jobID,
			"from":  from,
			"to":    to,
			"actor": actorID,
		})
		return nil, err
	}
	if to == models.JobStatusAwarded {
		s.logger.Warn("manual award rejected", map[string]interface{}{
			"jobId": jobID,
			"from":  from,
			"actor": actorID,
		})
		return nil, apperrors.NewAwardRequiresEvaluationError(jobID, string(from))
	}

	history := NewHistory(jobID, from, to, actorID, notes, s.now())
	updated, err := s.store.TransitionJob(ctx, jobID, from, to, history)
	if err != nil {
		return nil, err
	}

	s.logger.Info("job transitioned", map[string]interface{}{
		"jobId": jobID,
		"from":  from,
		"to":    to,
		"actor": actorID,
	})
	s.NotifyTransition(ctx, *updated, to)
	return updated, nil
}

// NotifyTransition sends the per-status notices. Delivery failures are
// logged and never returned.
func (s *Service) NotifyTransition(ctx context.Context, job models.Job, to models.JobStatus) {
	for _, n := range PlanNotifications(job, to) {
		if err := s.notifier.Send(ctx, n.UserID, n.Title, n.Message, n.Kind); err != nil {
			s.logger.Warn("transition notification failed", map[string]interface{}{
				"jobId":  job.ID,
				"userId": n.UserID,
				"kind":   n.Kind,
				"error":  err,
			})
		}
	}
}

// History returns the job's transitions, oldest first.
func (s *Service) History(ctx context.Context, jobID string) ([]models.StatusHistory, error) {
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.store.ListHistory(ctx, jobID)
}

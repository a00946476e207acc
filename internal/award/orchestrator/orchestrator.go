// internal/award/orchestrator/orchestrator.go

// Package orchestrator evaluates a job's pending bids and applies the
// resulting award or escalation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"award-engine/internal/award/selection"
	"award-engine/internal/award/transition"
	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"
	"award-engine/internal/common/metrics"
	"award-engine/internal/lock"
	"award-engine/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SystemActor is recorded in history for automatic awards.
const SystemActor = "system"

// DefaultMinWinningScore is used when no threshold is configured.
const DefaultMinWinningScore = 60

type Selector interface {
	SelectBest(ctx context.Context, jobID string) (*selection.Selection, error)
}

// AwardStore applies an award atomically.
type AwardStore interface {
	CommitAward(ctx context.Context, c models.AwardCommit) (*models.AwardReceipt, error)
}

type Notifier interface {
	Send(ctx context.Context, userID, title, message string, kind models.NotificationKind) error
	NotifyAdmins(ctx context.Context, title, message string, kind models.NotificationKind) error
}

// Observer receives the audit record of every evaluation.
type Observer interface {
	ObserveEvaluation(ctx context.Context, record models.EvaluationRecord)
}

type Orchestrator struct {
	selector  Selector
	store     AwardStore
	locker    lock.Locker
	notifier  Notifier
	observers []Observer
	metrics   metrics.Sink
	tracer    trace.Tracer
	minScore  float64
	logger    logger.Logger
	now       func() time.Time
}

type Option func(*Orchestrator)

func WithObservers(obs ...Observer) Option {
	return func(o *Orchestrator) { o.observers = append(o.observers, obs...) }
}

func WithMetrics(sink metrics.Sink) Option {
	return func(o *Orchestrator) { o.metrics = sink }
}

func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New builds an orchestrator. A non-positive minScore falls back to
// DefaultMinWinningScore.
func New(sel Selector, store AwardStore, locker lock.Locker, notifier Notifier, minScore float64, log logger.Logger, opts ...Option) *Orchestrator {
	if minScore <= 0 {
		minScore = DefaultMinWinningScore
	}
	o := &Orchestrator{
		selector: sel,
		store:    store,
		locker:   locker,
		notifier: notifier,
		metrics:  metrics.NoopSink{},
		tracer:   otel.Tracer("award-engine/orchestrator"),
		minScore: minScore,
		logger:   logger.Component(log, "orchestrator"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Evaluate runs one evaluation of jobID. At most one evaluation per job is
// in flight; a job that is no longer open yields a skipped result.
func (o *Orchestrator) Evaluate(ctx context.Context, jobID string, trigger models.EvaluationTrigger) (*models.EvaluationResult, error) {
	start := time.Now()

	unlock, err := o.locker.Lock(ctx, jobID)
	if err != nil {
		if _, ok := apperrors.AsStandard(err); !ok {
			err = apperrors.NewLockAcquireFailedError(jobID, err)
		}
		return nil, err
	}
	defer unlock()
	o.metrics.LockWait(time.Since(start))

	ctx, span := o.tracer.Start(ctx, "award.evaluate", trace.WithAttributes(
		attribute.String("job.id", jobID),
		attribute.String("evaluation.trigger", string(trigger)),
	))
	defer span.End()

	result, err := o.evaluate(ctx, jobID, trigger)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.metrics.EvaluationCompleted(string(trigger), "error", time.Since(start))
		return nil, err
	}
	span.SetAttributes(
		attribute.String("evaluation.outcome", string(result.Outcome)),
		attribute.Float64("evaluation.best_score", result.WinningScore),
	)

	o.finish(ctx, result, time.Since(start))
	return result, nil
}

func (o *Orchestrator) evaluate(ctx context.Context, jobID string, trigger models.EvaluationTrigger) (*models.EvaluationResult, error) {
	result := &models.EvaluationResult{JobID: jobID, Trigger: trigger, EvaluatedAt: o.now()}

	sel, err := o.selector.SelectBest(ctx, jobID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			o.logger.Warn("stale evaluation trigger", map[string]interface{}{
				"jobId":   jobID,
				"trigger": trigger,
				"error":   err,
			})
			return skipped(result, err.Error()), nil
		}
		return nil, err
	}

	job := sel.Job
	if job.Status != models.JobStatusOpen {
		o.logger.Debug("job no longer open", map[string]interface{}{
			"jobId":  jobID,
			"status": job.Status,
		})
		return skipped(result, "job is "+string(job.Status)), nil
	}

	if sel.Best == nil {
		result.Outcome = models.OutcomeNoBids
		result.Reason = "no pending bids"
		o.logger.Info("no bids, escalating to admins", map[string]interface{}{"jobId": jobID})
		o.notifyAdmins(ctx, jobID, "Manual assignment required",
			fmt.Sprintf("Job %s received no bids and needs a contractor assigned manually.", jobID),
			models.KindManualAssignment)
		return result, nil
	}

	best := sel.Best
	result.Ranking = sel.Ranking
	result.WinningScore = best.Score.Total

	if best.Score.Total < o.minScore {
		result.Outcome = models.OutcomeManualReview
		result.Reason = fmt.Sprintf("best score %.1f below %.1f", best.Score.Total, o.minScore)
		o.logger.Info("best bid below threshold, escalating to admins", map[string]interface{}{
			"jobId":     jobID,
			"bidId":     best.Bid.ID,
			"bestScore": best.Score.Total,
			"threshold": o.minScore,
		})
		o.notifyAdmins(ctx, jobID, "Manual review required",
			fmt.Sprintf("Best bid %s on job %s scored %.1f, below the auto-award threshold of %.1f.",
				best.Bid.ID, jobID, best.Score.Total, o.minScore),
			models.KindManualReview)
		return result, nil
	}

	if err := transition.Validate(job.Status, models.JobStatusAwarded); err != nil {
		o.logger.Error("award transition rejected", map[string]interface{}{
			"jobId":  jobID,
			"status": job.Status,
			"error":  err,
		})
		return nil, err
	}

	history := transition.NewHistory(jobID, job.Status, models.JobStatusAwarded, SystemActor,
		fmt.Sprintf("auto-award: bid %s scored %.1f", best.Bid.ID, best.Score.Total), result.EvaluatedAt)
	receipt, err := o.store.CommitAward(ctx, models.AwardCommit{
		JobID:          jobID,
		WinningBidID:   best.Bid.ID,
		ProfessionalID: best.Bid.ProfessionalID,
		Score:          best.Score.Total,
		History:        history,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStatusConflict) || apperrors.IsNotFound(err) {
			o.logger.Warn("award lost a race", map[string]interface{}{
				"jobId": jobID,
				"bidId": best.Bid.ID,
				"error": err,
			})
			result.Ranking = nil
			return skipped(result, err.Error()), nil
		}
		return nil, err
	}

	result.Outcome = models.OutcomeAwarded
	result.WinningBidID = best.Bid.ID
	for _, b := range receipt.RejectedBids {
		result.RejectedBidIDs = append(result.RejectedBidIDs, b.ID)
	}
	o.logger.Info("job awarded", map[string]interface{}{
		"jobId":        jobID,
		"bidId":        best.Bid.ID,
		"professional": best.Bid.ProfessionalID,
		"score":        best.Score.Total,
		"rejected":     len(receipt.RejectedBids),
	})

	o.notifyAward(ctx, receipt)
	return result, nil
}

func skipped(r *models.EvaluationResult, reason string) *models.EvaluationResult {
	r.Outcome = models.OutcomeSkipped
	r.Reason = reason
	r.WinningScore = 0
	return r
}

// notifyAward tells the winner and customer through the AWARDED plan, then
// every bidder rejected by this award.
func (o *Orchestrator) notifyAward(ctx context.Context, receipt *models.AwardReceipt) {
	for _, n := range transition.PlanNotifications(receipt.Job, models.JobStatusAwarded) {
		o.send(ctx, receipt.Job.ID, n.UserID, n.Title, n.Message, n.Kind)
	}
	for _, b := range receipt.RejectedBids {
		o.send(ctx, receipt.Job.ID, b.ProfessionalID, "Bid not selected",
			fmt.Sprintf("Your bid on job %s was not selected.", receipt.Job.ID), models.KindBidRejected)
	}
}

func (o *Orchestrator) send(ctx context.Context, jobID, userID, title, message string, kind models.NotificationKind) {
	if err := o.notifier.Send(ctx, userID, title, message, kind); err != nil {
		o.logger.Warn("notification failed", map[string]interface{}{
			"jobId":  jobID,
			"userId": userID,
			"kind":   kind,
			"error":  err,
		})
	}
}

func (o *Orchestrator) notifyAdmins(ctx context.Context, jobID, title, message string, kind models.NotificationKind) {
	if err := o.notifier.NotifyAdmins(ctx, title, message, kind); err != nil {
		o.logger.Warn("admin notification failed", map[string]interface{}{
			"jobId": jobID,
			"kind":  kind,
			"error": err,
		})
	}
}

func (o *Orchestrator) finish(ctx context.Context, result *models.EvaluationResult, d time.Duration) {
	o.metrics.EvaluationCompleted(string(result.Trigger), string(result.Outcome), d)
	if len(result.Ranking) > 0 {
		o.metrics.BestScore(result.WinningScore)
	}

	record := models.NewEvaluationRecord(uuid.New().String(), *result, o.minScore, d)
	for _, obs := range o.observers {
		obs.ObserveEvaluation(ctx, record)
	}
}

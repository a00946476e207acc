// internal/award/scheduler/scheduler.go

// Package scheduler decides when a job is evaluated: once its pending bid
// count reaches the minimum, or when the evaluation window opened by its
// first bid elapses. Windows live in the store so they survive restarts.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"award-engine/internal/common/config"
	"award-engine/internal/common/logger"
	"award-engine/internal/common/metrics"
	"award-engine/internal/models"

	"github.com/robfig/cron/v3"
)

type Store interface {
	GetBid(ctx context.Context, bidID string) (*models.Bid, error)
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	CountPendingBids(ctx context.Context, jobID string) (int, error)
	ArmTrigger(ctx context.Context, jobID string, firstBidAt, dueAt time.Time) (*models.TriggerRecord, bool, error)
	ExpediteTrigger(ctx context.Context, jobID string, now, staleBefore time.Time) (bool, error)
	ReleaseTrigger(ctx context.Context, jobID string) error
	ClaimDueTriggers(ctx context.Context, now, staleBefore time.Time, limit int) ([]models.TriggerRecord, error)
	MarkFired(ctx context.Context, jobID string, firedAt time.Time) error
	ListUnarmedJobs(ctx context.Context, limit int) ([]models.PendingJob, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, jobID string, trigger models.EvaluationTrigger) (*models.EvaluationResult, error)
}

type Config struct {
	MinBids           int
	Window            time.Duration
	PollInterval      time.Duration
	ClaimTTL          time.Duration
	BatchSize         int
	Workers           int
	Buffer            int
	EvaluationTimeout time.Duration
	ReconcileSchedule string
}

func DefaultConfig() Config {
	return Config{
		MinBids:           5,
		Window:            24 * time.Hour,
		PollInterval:      15 * time.Second,
		ClaimTTL:          5 * time.Minute,
		BatchSize:         100,
		Workers:           4,
		Buffer:            256,
		EvaluationTimeout: 30 * time.Second,
		ReconcileSchedule: "@every 5m",
	}
}

// ConfigFrom maps the engine section, keeping defaults for unset values.
func ConfigFrom(e config.EngineConfig) Config {
	c := DefaultConfig()
	if e.MinBids > 0 {
		c.MinBids = e.MinBids
	}
	if w := e.EvaluationWindow(); w > 0 {
		c.Window = w
	}
	if e.PollInterval > 0 {
		c.PollInterval = e.PollInterval
	}
	if e.ClaimTTL > 0 {
		c.ClaimTTL = e.ClaimTTL
	}
	if e.BatchSize > 0 {
		c.BatchSize = e.BatchSize
	}
	if e.DispatchWorkers > 0 {
		c.Workers = e.DispatchWorkers
	}
	if e.DispatchBuffer > 0 {
		c.Buffer = e.DispatchBuffer
	}
	if e.EvaluationTimeout > 0 {
		c.EvaluationTimeout = e.EvaluationTimeout
	}
	c.ReconcileSchedule = e.ReconcileSchedule
	return c
}

type request struct {
	jobID   string
	trigger models.EvaluationTrigger
}

type Scheduler struct {
	config    Config
	store     Store
	evaluator Evaluator
	metrics   metrics.Sink
	logger    logger.Logger
	clock     func() time.Time
	queue     chan request
}

type Option func(*Scheduler)

func WithMetrics(sink metrics.Sink) Option {
	return func(s *Scheduler) { s.metrics = sink }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) { s.clock = clock }
}

func New(cfg Config, store Store, evaluator Evaluator, log logger.Logger, opts ...Option) *Scheduler {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1
	}
	s := &Scheduler{
		config:    cfg,
		store:     store,
		evaluator: evaluator,
		metrics:   metrics.NoopSink{},
		logger:    logger.Component(log, "scheduler"),
		clock:     time.Now,
		queue:     make(chan request, cfg.Buffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnBidSubmitted opens the job's window on its first bid and asks for an
// immediate evaluation once the pending count reaches the minimum. It never
// waits for the evaluation itself.
func (s *Scheduler) OnBidSubmitted(ctx context.Context, bidID string) error {
	bid, err := s.store.GetBid(ctx, bidID)
	if err != nil {
		return err
	}
	if bid.Status != models.BidStatusPending {
		s.logger.Debug("ignoring settled bid", map[string]interface{}{
			"bidId":  bidID,
			"status": bid.Status,
		})
		return nil
	}

	job, err := s.store.GetJob(ctx, bid.JobID)
	if err != nil {
		return err
	}
	if job.Status != models.JobStatusOpen {
		s.logger.Debug("ignoring bid on closed job", map[string]interface{}{
			"bidId":  bidID,
			"jobId":  job.ID,
			"status": job.Status,
		})
		return nil
	}

	firstBidAt := bid.CreatedAt
	if firstBidAt.IsZero() {
		firstBidAt = s.clock().UTC()
	}
	return s.arm(ctx, job.ID, firstBidAt)
}

// arm opens the window if none exists and expedites it when the threshold
// is met.
func (s *Scheduler) arm(ctx context.Context, jobID string, firstBidAt time.Time) error {
	rec, created, err := s.store.ArmTrigger(ctx, jobID, firstBidAt, firstBidAt.Add(s.config.Window))
	if err != nil {
		return fmt.Errorf("arm trigger: %w", err)
	}
	if created {
		s.metrics.TriggerArmed()
		s.logger.Info("evaluation window armed", map[string]interface{}{
			"jobId": jobID,
			"dueAt": rec.DueAt,
		})
	}

	count, err := s.store.CountPendingBids(ctx, jobID)
	if err != nil {
		return fmt.Errorf("count pending bids: %w", err)
	}
	if !s.thresholdReached(count, rec) {
		return nil
	}

	now := s.clock().UTC()
	claimed, err := s.store.ExpediteTrigger(ctx, jobID, now, now.Add(-s.config.ClaimTTL))
	if err != nil {
		return fmt.Errorf("expedite trigger: %w", err)
	}
	if !claimed {
		s.logger.Debug("threshold reached while window is claimed", map[string]interface{}{
			"jobId": jobID,
			"bids":  count,
		})
		return nil
	}
	s.logger.Info("bid threshold reached", map[string]interface{}{
		"jobId":   jobID,
		"bids":    count,
		"minBids": s.config.MinBids,
	})
	s.dispatch(ctx, request{jobID: jobID, trigger: models.TriggerThreshold})
	return nil
}

// thresholdReached fires when the count lands exactly on the minimum, or is
// past it while the window has never fired. Later bids on an evaluated job
// do not retrigger.
func (s *Scheduler) thresholdReached(count int, rec *models.TriggerRecord) bool {
	if count == s.config.MinBids {
		return true
	}
	return count > s.config.MinBids && !rec.Fired()
}

// dispatch queues req without blocking. A refused request has its claim
// released so the poller picks it up instead.
func (s *Scheduler) dispatch(ctx context.Context, req request) bool {
	select {
	case s.queue <- req:
		s.metrics.TriggerDispatched(string(req.trigger))
		s.metrics.QueueDepth(len(s.queue))
		return true
	default:
	}

	s.logger.Warn("dispatch queue full, deferring to poller", map[string]interface{}{
		"jobId":   req.jobID,
		"trigger": req.trigger,
	})
	if err := s.store.ReleaseTrigger(ctx, req.jobID); err != nil {
		s.logger.Error("failed to release trigger", map[string]interface{}{
			"jobId": req.jobID,
			"error": err,
		})
	}
	return false
}

// Run polls for due windows and runs evaluations until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	var c *cron.Cron
	if s.config.ReconcileSchedule != "" {
		c = cron.New()
		if _, err := c.AddFunc(s.config.ReconcileSchedule, func() {
			if _, err := s.Reconcile(ctx); err != nil {
				s.logger.Error("reconcile failed", map[string]interface{}{"error": err})
			}
		}); err != nil {
			return fmt.Errorf("invalid reconcile schedule %q: %w", s.config.ReconcileSchedule, err)
		}
		c.Start()
	}

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runner(ctx)
		}()
	}

	s.logger.Info("scheduler started", map[string]interface{}{
		"pollInterval": s.config.PollInterval.String(),
		"workers":      s.config.Workers,
		"minBids":      s.config.MinBids,
		"window":       s.config.Window.String(),
	})

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			if c != nil {
				<-c.Stop().Done()
			}
			wg.Wait()
			s.logger.Info("scheduler stopped", nil)
			return nil
		case <-ticker.C:
			s.Poll(ctx)
		}
	}
}

// Poll claims due windows and queues them. Returns the number queued.
func (s *Scheduler) Poll(ctx context.Context) int {
	now := s.clock().UTC()
	due, err := s.store.ClaimDueTriggers(ctx, now, now.Add(-s.config.ClaimTTL), s.config.BatchSize)
	if err != nil {
		s.logger.Error("failed to claim due triggers", map[string]interface{}{"error": err})
		return 0
	}

	queued := 0
	for _, rec := range due {
		if ctx.Err() != nil {
			break
		}
		if s.dispatch(ctx, request{jobID: rec.JobID, trigger: models.TriggerWindow}) {
			queued++
		}
	}
	if len(due) > 0 {
		s.logger.Debug("due triggers claimed", map[string]interface{}{
			"claimed": len(due),
			"queued":  queued,
		})
	}
	return queued
}

func (s *Scheduler) runner(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.queue:
			s.metrics.QueueDepth(len(s.queue))
			s.process(ctx, req)
		}
	}
}

// process evaluates one request and closes its window. A failed evaluation
// keeps its claim so it is retried once the claim goes stale.
func (s *Scheduler) process(ctx context.Context, req request) {
	evalCtx, cancel := context.WithTimeout(ctx, s.config.EvaluationTimeout)
	defer cancel()

	result, err := s.evaluator.Evaluate(evalCtx, req.jobID, req.trigger)
	if err != nil {
		s.logger.Error("evaluation failed", map[string]interface{}{
			"jobId":   req.jobID,
			"trigger": req.trigger,
			"error":   err,
		})
		return
	}

	if err := s.store.MarkFired(ctx, req.jobID, s.clock().UTC()); err != nil {
		s.logger.Error("failed to mark trigger fired", map[string]interface{}{
			"jobId": req.jobID,
			"error": err,
		})
	}
	s.logger.Debug("evaluation finished", map[string]interface{}{
		"jobId":   req.jobID,
		"trigger": req.trigger,
		"outcome": result.Outcome,
	})
}

// Reconcile arms open jobs that have pending bids but no window, covering
// bid events that never reached the engine.
func (s *Scheduler) Reconcile(ctx context.Context) (int, error) {
	jobs, err := s.store.ListUnarmedJobs(ctx, s.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list unarmed jobs: %w", err)
	}

	armed := 0
	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		if err := s.arm(ctx, j.JobID, j.FirstBidAt); err != nil {
			s.logger.Warn("failed to arm job", map[string]interface{}{
				"jobId": j.JobID,
				"error": err,
			})
			continue
		}
		armed++
	}
	if armed > 0 {
		s.logger.Info("reconciled unarmed jobs", map[string]interface{}{"armed": armed})
	}
	return armed, nil
}

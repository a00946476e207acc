// cmd/award-engine/engine.go
package main

import (
	"context"
	"fmt"
	"time"

	"award-engine/internal/audit"
	"award-engine/internal/award/orchestrator"
	"award-engine/internal/award/scheduler"
	"award-engine/internal/award/scoring"
	"award-engine/internal/award/selection"
	"award-engine/internal/award/transition"
	"award-engine/internal/common/aws"
	"award-engine/internal/common/camunda"
	"award-engine/internal/common/config"
	"award-engine/internal/common/database"
	"award-engine/internal/common/logger"
	"award-engine/internal/common/metrics"
	"award-engine/internal/common/observability"
	"award-engine/internal/lock"
	"award-engine/internal/models"
	"award-engine/internal/notify"
	"award-engine/internal/ops"
	"award-engine/internal/store/cache"
	"award-engine/internal/store/postgres"
)

// engine holds every wired component of one process.
type engine struct {
	cfg    *config.Config
	logger logger.Logger

	postgres *database.PostgresClient
	redis    *database.RedisClient
	store    *postgres.Store
	indexer  *audit.Indexer
	zeebe    *camunda.Client
	obs      *observability.Observability

	orchestrator *orchestrator.Orchestrator
	scheduler    *scheduler.Scheduler
	transitions  *transition.Service

	closers []func()
}

type engineOptions struct {
	// workflow connects to the Zeebe broker when camunda is enabled.
	workflow bool
	// audit connects to Elasticsearch when audit is enabled.
	audit bool
}

// retryWithBackoff attempts to execute a function with exponential backoff.
func retryWithBackoff(ctx context.Context, operation func(context.Context) error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err = operation(ctx); err == nil {
			return nil
		}
		if i == maxRetries-1 {
			break
		}
		log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
			"error":       err,
			"attempt":     i + 1,
			"maxRetries":  maxRetries,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func buildEngine(ctx context.Context, cfg *config.Config, log logger.Logger, opts engineOptions) (*engine, error) {
	e := &engine{cfg: cfg, logger: log}

	if err := e.connectStorage(ctx); err != nil {
		e.Close()
		return nil, err
	}

	obs, err := observability.New(cfg.App.Name, cfg.Tracing)
	if err != nil {
		log.Warn("observability exporter unavailable", map[string]interface{}{"error": err})
	}
	e.obs = obs
	e.closers = append(e.closers, func() { obs.Shutdown(context.Background()) })

	sink := metrics.NewPrometheusSink()
	notifier, err := e.newNotifier(ctx, sink)
	if err != nil {
		e.Close()
		return nil, err
	}

	observers := []orchestrator.Observer{evaluationMeter{obs: obs}}
	if opts.audit && cfg.Audit.Enabled {
		if err := e.connectAudit(ctx); err != nil {
			e.Close()
			return nil, err
		}
		observers = append(observers, e.indexer)
	}
	if opts.workflow && cfg.Camunda.Enabled {
		zbClient, err := camunda.NewClient(ctx, cfg.Camunda, camunda.DefaultRetryConfig, log)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.zeebe = zbClient
		e.closers = append(e.closers, func() { _ = zbClient.Close() })
		observers = append(observers, zbClient)
	}

	professionals := cache.NewProfessionals(e.store, e.redis.Client, cfg.Engine.ProfileCacheTTL, log)
	scorer := scoring.NewScorer(scoring.WeightsFromConfig(cfg.Engine.Weights))
	selector := selection.NewSelector(e.store, professionals, scorer, log)
	locker := lock.Chain{
		lock.NewKeyedMutex(),
		lock.NewRedisLocker(e.redis.Client, cfg.Engine.LockTTL, cfg.Engine.LockRetry, log),
	}

	e.orchestrator = orchestrator.New(selector, professionals, locker, notifier, cfg.Engine.MinWinningScore, log,
		orchestrator.WithObservers(observers...),
		orchestrator.WithMetrics(sink),
		orchestrator.WithTracer(obs.Tracer()),
	)
	e.scheduler = scheduler.New(scheduler.ConfigFrom(cfg.Engine), e.store, e.orchestrator, log,
		scheduler.WithMetrics(sink),
	)
	e.transitions = transition.NewService(e.store, notifier, log)
	return e, nil
}

func (e *engine) connectStorage(ctx context.Context) error {
	pg, err := database.NewPostgres(e.cfg.Database.Postgres)
	if err != nil {
		return err
	}
	e.postgres = pg
	e.closers = append(e.closers, func() { _ = pg.Close() })
	if err := retryWithBackoff(ctx, pg.Ping, 5, time.Second, e.logger, "PostgreSQL connection"); err != nil {
		return err
	}
	e.store = postgres.New(pg.DB, e.logger)

	rdb, err := database.NewRedis(e.cfg.Database.Redis)
	if err != nil {
		return err
	}
	e.redis = rdb
	e.closers = append(e.closers, func() { _ = rdb.Close() })
	return retryWithBackoff(ctx, rdb.Ping, 5, time.Second, e.logger, "Redis connection")
}

func (e *engine) connectAudit(ctx context.Context) error {
	es, err := database.NewElasticsearch(e.cfg.Database.Elasticsearch)
	if err != nil {
		return err
	}
	if err := retryWithBackoff(ctx, es.Ping, 3, time.Second, e.logger, "Elasticsearch connection"); err != nil {
		return err
	}
	e.indexer = audit.NewIndexer(es.Client, e.cfg.Audit.Index, e.logger)
	if err := e.indexer.EnsureIndex(ctx); err != nil {
		e.logger.Warn("failed to ensure audit index", map[string]interface{}{
			"index": e.cfg.Audit.Index,
			"error": err,
		})
	}
	return nil
}

func (e *engine) newNotifier(ctx context.Context, sink metrics.Sink) (*notify.Dispatcher, error) {
	n := e.cfg.Notifications

	var sesClient notify.SESService
	if n.Email.Enabled {
		c, err := aws.NewSESClient(ctx, n.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create SES client: %w", err)
		}
		sesClient = c
	}

	var snsClient notify.SNSService
	if n.SMS.Enabled {
		c, err := aws.NewSNSClient(ctx, n.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create SNS client: %w", err)
		}
		snsClient = c
	}

	return notify.NewDispatcher(notify.ConfigFrom(n), e.store, e.store, sesClient, snsClient, sink, e.logger), nil
}

// checks lists the dependencies reported by /ready.
func (e *engine) checks() map[string]ops.HealthCheck {
	checks := map[string]ops.HealthCheck{
		"postgres": e.postgres.Ping,
		"redis":    e.redis.Ping,
	}
	if e.zeebe != nil {
		checks["zeebe"] = e.zeebe.HealthCheck
	}
	return checks
}

// auditReader returns nil when audit is disabled so the ops server can
// report it.
func (e *engine) auditReader() ops.AuditReader {
	if e.indexer == nil {
		return nil
	}
	return e.indexer
}

// Close releases connections in reverse order of acquisition.
func (e *engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}

// evaluationMeter counts evaluations on the OpenTelemetry meter.
type evaluationMeter struct {
	obs *observability.Observability
}

func (m evaluationMeter) ObserveEvaluation(ctx context.Context, record models.EvaluationRecord) {
	m.obs.RecordEvaluation(ctx, string(record.Trigger), string(record.Outcome))
}

// cmd/award-engine/serve.go
package main

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"

	"award-engine/internal/common/camunda"
	"award-engine/internal/common/config"
	"award-engine/internal/common/validation"
	"award-engine/internal/ops"
	"award-engine/internal/transport/rabbitmq"
	evaluatejobbids "award-engine/internal/workers/award/evaluate-job-bids"
	transitionjobstatus "award-engine/internal/workers/award/transition-job-status"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler, bid consumer, workflow workers and ops server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg.Logging)
	log.Info("starting award engine", map[string]interface{}{
		"version":     version,
		"environment": cfg.App.Environment,
	})

	eng, err := buildEngine(ctx, cfg, log, engineOptions{workflow: true, audit: true})
	if err != nil {
		return err
	}
	defer eng.Close()

	validator, err := validation.NewValidator()
	if err != nil {
		return err
	}

	var workers []*camunda.Worker
	if eng.zeebe != nil {
		workers = startWorkers(eng, validator)
	}
	defer func() {
		for _, w := range workers {
			w.Stop()
		}
	}()

	var consumer *rabbitmq.Consumer
	if cfg.Messaging.RabbitMQ.Enabled {
		consumer, err = rabbitmq.Dial(cfg.Messaging.RabbitMQ, eng.scheduler, validator, log)
		if err != nil {
			return err
		}
		defer consumer.Close()
	}

	server := ops.NewServer(cfg.Ops, ops.Deps{
		Evaluator:   eng.orchestrator,
		Transitions: eng.transitions,
		Audit:       eng.auditReader(),
		Checks:      eng.checks(),
	}, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("component stopped", map[string]interface{}{
					"component": name,
					"error":     err,
				})
				errOnce.Do(func() { firstErr = err })
				cancel()
			}
		}()
	}

	run("scheduler", eng.scheduler.Run)
	run("ops", server.ListenAndServe)
	if consumer != nil {
		run("rabbitmq", consumer.Run)
	}

	log.Info("award engine started", map[string]interface{}{
		"opsAddress": cfg.Ops.Address,
		"workers":    len(workers),
		"consumer":   consumer != nil,
	})

	<-ctx.Done()
	log.Info("shutting down award engine", nil)
	wg.Wait()
	return firstErr
}

func startWorkers(eng *engine, validator *validation.Validator) []*camunda.Worker {
	zbc := eng.zeebe.GetClient()

	var workers []*camunda.Worker
	start := func(taskType string, handler camunda.JobHandler, wcfg config.WorkerConfig) {
		if w := camunda.StartWorker(zbc, taskType, wcfg, handler, eng.logger); w != nil {
			workers = append(workers, w)
		}
	}

	evalCfg := config.GetWorkerConfig(eng.cfg, evaluatejobbids.TaskType)
	start(evaluatejobbids.TaskType,
		evaluatejobbids.NewHandler(evaluatejobbids.LoadConfig(evalCfg), eng.orchestrator, validator, eng.obs, eng.logger),
		evalCfg)

	transCfg := config.GetWorkerConfig(eng.cfg, transitionjobstatus.TaskType)
	start(transitionjobstatus.TaskType,
		transitionjobstatus.NewHandler(transitionjobstatus.LoadConfig(transCfg), eng.transitions, validator, eng.obs, eng.logger),
		transCfg)

	return workers
}

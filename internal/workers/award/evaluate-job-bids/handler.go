// internal/workers/award/evaluate-job-bids/handler.go
package evaluatejobbids

import (
	"context"
	"encoding/json"
	"time"

	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"
	"award-engine/internal/common/observability"
	"award-engine/internal/common/validation"
	"award-engine/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "evaluate-job-bids"
)

type Evaluator interface {
	Evaluate(ctx context.Context, jobID string, trigger models.EvaluationTrigger) (*models.EvaluationResult, error)
}

type Handler struct {
	config       *Config
	evaluator    Evaluator
	validator    *validation.Validator
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, evaluator Evaluator, validator *validation.Validator, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		evaluator:    evaluator,
		validator:    validator,
		errorHandler: apperrors.NewErrorHandler(log),
		obs:          obs,
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	defer func() { h.obs.RecordJobDuration(ctx, TaskType, time.Since(start)) }()

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	res, err := h.validator.ValidateJSON(validation.SchemaEvaluateJobInput, []byte(variables))
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	if !res.Valid {
		return nil, apperrors.NewInvalidInputError(res.Error())
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidInputError("parse input: " + err.Error())
	}
	return &input, nil
}

// Execute runs an operator-requested evaluation of the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.evaluator.Evaluate(ctx, input.JobID, models.TriggerManual)
	if err != nil {
		return nil, err
	}

	h.logger.Info("evaluation completed", map[string]interface{}{
		"jobId":       input.JobID,
		"requestedBy": input.RequestedBy,
		"outcome":     result.Outcome,
		"score":       result.WinningScore,
	})

	return &Output{
		JobID:        result.JobID,
		Outcome:      string(result.Outcome),
		WinningBidID: result.WinningBidID,
		WinningScore: result.WinningScore,
		BidCount:     len(result.Ranking),
		Reason:       result.Reason,
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

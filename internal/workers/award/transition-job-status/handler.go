// internal/workers/award/transition-job-status/handler.go
package transitionjobstatus

import (
	"context"
	"encoding/json"
	"time"

	"award-engine/internal/award/transition"
	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"
	"award-engine/internal/common/observability"
	"award-engine/internal/common/validation"
	"award-engine/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "transition-job-status"
)

type Transitioner interface {
	Transition(ctx context.Context, jobID string, to models.JobStatus, actorID, notes string) (*models.Job, error)
}

type Handler struct {
	config       *Config
	transitioner Transitioner
	validator    *validation.Validator
	errorHandler *apperrors.ErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

func NewHandler(config *Config, transitioner Transitioner, validator *validation.Validator, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		transitioner: transitioner,
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

	var input Input
	if err := h.decode(job.Variables, &input); err != nil {
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.completeJob(ctx, client, job, output)
}

func (h *Handler) decode(variables string, input *Input) error {
	res, err := h.validator.ValidateJSON(validation.SchemaTransitionInput, []byte(variables))
	if err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	if !res.Valid {
		return apperrors.NewInvalidInputError(res.Error())
	}
	if err := json.Unmarshal([]byte(variables), input); err != nil {
		return apperrors.NewInvalidInputError("parse input: " + err.Error())
	}
	return nil
}

// Execute applies the requested status change. An illegal move surfaces as
// an ILLEGAL_TRANSITION BPMN error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	job, err := h.transitioner.Transition(ctx, input.JobID, models.JobStatus(input.ToStatus), input.ActorID, input.Notes)
	if err != nil {
		return nil, err
	}

	out := &Output{
		JobID:       job.ID,
		Status:      string(job.Status),
		AllowedNext: []string{},
	}
	if job.AssignedContractorID != nil {
		out.AssignedContractorID = *job.AssignedContractorID
	}
	for _, s := range transition.AllowedTargets(job.Status) {
		out.AllowedNext = append(out.AllowedNext, string(s))
	}

	h.logger.Info("job status transitioned", map[string]interface{}{
		"jobId":   job.ID,
		"status":  job.Status,
		"actorId": input.ActorID,
	})
	return out, nil
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

// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"award-engine/internal/common/config"
	"award-engine/internal/common/logger"
	"award-engine/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// MessageEvaluationCompleted is published after every evaluation so award
// processes waiting on a job can continue.
const MessageEvaluationCompleted = "bid-evaluation-completed"

// Client wraps the Zeebe gRPC client.
type Client struct {
	client  zbc.Client
	timeout time.Duration
	logger  logger.Logger
}

// RetryConfig defines retry behaviour for transient broker failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries: 5,
	BaseDelay:  time.Second,
	MaxDelay:   10 * time.Second,
}

// NewClient connects to the broker and waits for a topology response,
// retrying transient failures with exponential backoff.
func NewClient(ctx context.Context, cfg config.CamundaConfig, retry RetryConfig, log logger.Logger) (*Client, error) {
	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         cfg.BrokerAddress,
		UsePlaintextConnection: cfg.Plaintext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	c := &Client{
		client:  zeebeClient,
		timeout: config.GetDuration(cfg.RequestTimeout),
		logger:  logger.Component(log, "camunda"),
	}

	err = withRetry(ctx, retry, func(ctx context.Context) error {
		return c.HealthCheck(ctx)
	})
	if err != nil {
		_ = zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", cfg.BrokerAddress, err)
	}
	return c, nil
}

func withRetry(ctx context.Context, retry RetryConfig, op func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= retry.MaxRetries; attempt++ {
		if lastErr = op(ctx); lastErr == nil {
			return nil
		}
		if !isRetryableZeebeError(lastErr) || attempt == retry.MaxRetries {
			break
		}

		delay := retry.BaseDelay * time.Duration(1<<attempt)
		if delay > retry.MaxDelay {
			delay = retry.MaxDelay
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("cancelled after %d attempts: %w", attempt+1, ctx.Err())
		}
	}
	return lastErr
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}

// GetClient returns the raw Zeebe client for job workers.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck asks the broker for its topology.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout())
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

// ObserveEvaluation publishes the evaluation outcome correlated by job ID.
// Failures are logged only.
func (c *Client) ObserveEvaluation(ctx context.Context, record models.EvaluationRecord) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout())
	defer cancel()

	cmd, err := c.client.NewPublishMessageCommand().
		MessageName(MessageEvaluationCompleted).
		CorrelationKey(record.JobID).
		VariablesFromObject(evaluationVariables(record))
	if err != nil {
		c.logger.Warn("failed to encode evaluation message", map[string]interface{}{
			"jobId": record.JobID,
			"error": err,
		})
		return
	}

	if _, err := cmd.MessageId(record.ID).TimeToLive(time.Hour).Send(ctx); err != nil {
		c.logger.Warn("failed to publish evaluation message", map[string]interface{}{
			"jobId": record.JobID,
			"error": err,
		})
	}
}

func (c *Client) requestTimeout() time.Duration {
	if c.timeout <= 0 {
		return 30 * time.Second
	}
	return c.timeout
}

type evaluationMessage struct {
	JobID        string  `json:"jobId"`
	Outcome      string  `json:"outcome"`
	Trigger      string  `json:"trigger"`
	WinningBidID string  `json:"winningBidId,omitempty"`
	WinningScore float64 `json:"winningScore"`
	BidCount     int     `json:"bidCount"`
}

func evaluationVariables(record models.EvaluationRecord) evaluationMessage {
	return evaluationMessage{
		JobID:        record.JobID,
		Outcome:      string(record.Outcome),
		Trigger:      string(record.Trigger),
		WinningBidID: record.WinningBidID,
		WinningScore: record.WinningScore,
		BidCount:     len(record.Ranking),
	}
}

// internal/transport/rabbitmq/consumer.go

// Package rabbitmq consumes bid-submitted events and hands them to the
// evaluation scheduler.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"award-engine/internal/common/config"
	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"
	"award-engine/internal/common/validation"

	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueue = "bid.submitted"

// BidSubmitted is the event published after a bid is persisted.
type BidSubmitted struct {
	BidID       string    `json:"bidId"`
	JobID       string    `json:"jobId,omitempty"`
	SubmittedAt time.Time `json:"submittedAt,omitempty"`
}

type BidHandler interface {
	OnBidSubmitted(ctx context.Context, bidID string) error
}

type Consumer struct {
	cfg       config.RabbitMQConfig
	conn      *amqp.Connection
	channel   *amqp.Channel
	handler   BidHandler
	validator *validation.Validator
	timeout   time.Duration
	logger    logger.Logger
}

// Dial connects, declares the durable queue and applies the prefetch limit.
func Dial(cfg config.RabbitMQConfig, handler BidHandler, validator *validation.Validator, log logger.Logger) (*Consumer, error) {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	if cfg.Prefetch > 0 {
		if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set prefetch: %w", err)
		}
	}

	c := newConsumer(cfg, handler, validator, log)
	c.conn = conn
	c.channel = ch
	return c, nil
}

func newConsumer(cfg config.RabbitMQConfig, handler BidHandler, validator *validation.Validator, log logger.Logger) *Consumer {
	return &Consumer{
		cfg:       cfg,
		handler:   handler,
		validator: validator,
		timeout:   10 * time.Second,
		logger:    logger.Component(log, "rabbitmq").WithFields(map[string]interface{}{"queue": cfg.Queue}),
	}
}

// Run consumes with manual acks until ctx is cancelled or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	deliveries, err := c.channel.Consume(
		c.cfg.Queue,
		c.cfg.Consumer,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("consumer started", map[string]interface{}{"prefetch": c.cfg.Prefetch})
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopped", nil)
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery acks handled events, rejects malformed or stale ones and
// requeues transient failures. A redelivered message that fails again for a
// non-retryable reason is dropped.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	res, err := c.validator.ValidateJSON(validation.SchemaBidSubmitted, d.Body)
	if err != nil || !res.Valid {
		reason := "malformed json"
		if err == nil {
			reason = res.Error()
		}
		c.logger.Warn("rejecting invalid bid event", map[string]interface{}{
			"deliveryTag": d.DeliveryTag,
			"reason":      reason,
		})
		c.reject(d)
		return
	}

	var msg BidSubmitted
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.logger.Warn("rejecting undecodable bid event", map[string]interface{}{
			"deliveryTag": d.DeliveryTag,
			"error":       err,
		})
		c.reject(d)
		return
	}

	hctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err = c.handler.OnBidSubmitted(hctx, msg.BidID)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.Error("failed to ack", map[string]interface{}{"bidId": msg.BidID, "error": ackErr})
		}
	case apperrors.IsNotFound(err):
		c.logger.Warn("bid event for unknown record", map[string]interface{}{
			"bidId": msg.BidID,
			"error": err,
		})
		c.reject(d)
	case apperrors.IsRetryable(err) || !d.Redelivered:
		c.logger.Warn("requeueing bid event", map[string]interface{}{
			"bidId":       msg.BidID,
			"redelivered": d.Redelivered,
			"error":       err,
		})
		if nackErr := d.Nack(false, true); nackErr != nil {
			c.logger.Error("failed to nack", map[string]interface{}{"bidId": msg.BidID, "error": nackErr})
		}
	default:
		c.logger.Error("dropping bid event after redelivery", map[string]interface{}{
			"bidId": msg.BidID,
			"error": err,
		})
		c.reject(d)
	}
}

func (c *Consumer) reject(d amqp.Delivery) {
	if err := d.Reject(false); err != nil {
		c.logger.Error("failed to reject", map[string]interface{}{
			"deliveryTag": d.DeliveryTag,
			"error":       err,
		})
	}
}

func (c *Consumer) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

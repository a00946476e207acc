// internal/transport/rabbitmq/consumer_test.go
package rabbitmq

import (
	"context"
	"errors"
	"testing"

	"award-engine/internal/common/config"
	apperrors "award-engine/internal/common/errors"
	"award-engine/internal/common/logger"
	"award-engine/internal/common/validation"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fake Implementations
// ==========================

type fakeAcknowledger struct {
	acked    int
	nacked   int
	rejected int
	requeue  bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked++
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.rejected++
	a.requeue = requeue
	return nil
}

type handlerFunc func(ctx context.Context, bidID string) error

func (f handlerFunc) OnBidSubmitted(ctx context.Context, bidID string) error {
	return f(ctx, bidID)
}

// ==========================
// Test Helper Functions
// ==========================

func newTestConsumer(t *testing.T, h BidHandler) *Consumer {
	v, err := validation.NewValidator()
	require.NoError(t, err)
	return newConsumer(config.RabbitMQConfig{Queue: DefaultQueue}, h, v, logger.NewTestLogger(t))
}

func delivery(ack amqp.Acknowledger, body string, redelivered bool) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(body), Redelivered: redelivered}
}

// ==========================
// Test Cases
// ==========================

func TestHandleDelivery(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		redelivered bool
		handlerErr  error
		wantAck     int
		wantNack    int
		wantReject  int
		wantCalled  bool
	}{
		{name: "handled", body: `{"bidId":"bid-1","jobId":"job-1"}`, wantAck: 1, wantCalled: true},
		{name: "invalid payload", body: `{"jobId":"job-1"}`, wantReject: 1},
		{name: "malformed json", body: `{bidId`, wantReject: 1},
		{name: "unknown bid", body: `{"bidId":"bid-1"}`, handlerErr: apperrors.NewBidNotFoundError("bid-1"), wantReject: 1, wantCalled: true},
		{name: "retryable failure", body: `{"bidId":"bid-1"}`, redelivered: true,
			handlerErr: apperrors.NewDatabaseOperationFailedError("arm trigger", errors.New("conn reset")), wantNack: 1, wantCalled: true},
		{name: "first unknown failure requeues", body: `{"bidId":"bid-1"}`, handlerErr: errors.New("boom"), wantNack: 1, wantCalled: true},
		{name: "repeated unknown failure drops", body: `{"bidId":"bid-1"}`, redelivered: true, handlerErr: errors.New("boom"), wantReject: 1, wantCalled: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			c := newTestConsumer(t, handlerFunc(func(ctx context.Context, bidID string) error {
				called = true
				assert.Equal(t, "bid-1", bidID)
				return tt.handlerErr
			}))
			ack := &fakeAcknowledger{}

			c.handleDelivery(context.Background(), delivery(ack, tt.body, tt.redelivered))

			assert.Equal(t, tt.wantCalled, called)
			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, tt.wantNack, ack.nacked)
			assert.Equal(t, tt.wantReject, ack.rejected)
			if tt.wantNack > 0 {
				assert.True(t, ack.requeue)
			}
			if tt.wantReject > 0 {
				assert.False(t, ack.requeue)
			}
		})
	}
}

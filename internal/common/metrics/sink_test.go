// internal/common/metrics/sink_test.go
package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusSink_EvaluationCompleted(t *testing.T) {
	sink := NewPrometheusSink()
	before := testutil.ToFloat64(EvaluationsTotal.WithLabelValues("threshold", "awarded"))

	sink.EvaluationCompleted("threshold", "awarded", 20*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(EvaluationsTotal.WithLabelValues("threshold", "awarded")))
}

func TestPrometheusSink_NotificationStatus(t *testing.T) {
	sink := NewPrometheusSink()
	sent := testutil.ToFloat64(NotificationsTotal.WithLabelValues("email", "sent"))
	failed := testutil.ToFloat64(NotificationsTotal.WithLabelValues("email", "failed"))

	sink.NotificationDelivered("email", nil)
	sink.NotificationDelivered("email", errors.New("throttled"))

	assert.Equal(t, sent+1, testutil.ToFloat64(NotificationsTotal.WithLabelValues("email", "sent")))
	assert.Equal(t, failed+1, testutil.ToFloat64(NotificationsTotal.WithLabelValues("email", "failed")))
}

func TestPrometheusSink_QueueDepth(t *testing.T) {
	NewPrometheusSink().QueueDepth(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(DispatchQueueDepth))
}

func TestNoopSink(t *testing.T) {
	var s Sink = NoopSink{}
	assert.NotPanics(t, func() {
		s.EvaluationCompleted("manual", "skipped", time.Second)
		s.BestScore(70)
		s.TriggerArmed()
		s.TriggerDispatched("window")
		s.QueueDepth(1)
		s.NotificationDelivered("sms", nil)
		s.LockWait(time.Millisecond)
	})
}

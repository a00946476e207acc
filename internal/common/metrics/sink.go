// internal/common/metrics/sink.go
package metrics

import "time"

// Sink records engine metrics. Implementations must not block.
type Sink interface {
	EvaluationCompleted(trigger, outcome string, duration time.Duration)
	BestScore(score float64)
	TriggerArmed()
	TriggerDispatched(trigger string)
	QueueDepth(depth int)
	NotificationDelivered(channel string, err error)
	LockWait(duration time.Duration)
}

// PrometheusSink implements Sink on the promauto collectors.
type PrometheusSink struct{}

func NewPrometheusSink() *PrometheusSink {
	return &PrometheusSink{}
}

func (PrometheusSink) EvaluationCompleted(trigger, outcome string, duration time.Duration) {
	EvaluationsTotal.WithLabelValues(trigger, outcome).Inc()
	EvaluationDuration.WithLabelValues(trigger).Observe(duration.Seconds())
}

func (PrometheusSink) BestScore(score float64) {
	WinningScore.Observe(score)
}

func (PrometheusSink) TriggerArmed() {
	TriggersArmed.Inc()
}

func (PrometheusSink) TriggerDispatched(trigger string) {
	TriggersDispatched.WithLabelValues(trigger).Inc()
}

func (PrometheusSink) QueueDepth(depth int) {
	DispatchQueueDepth.Set(float64(depth))
}

func (PrometheusSink) NotificationDelivered(channel string, err error) {
	status := "sent"
	if err != nil {
		status = "failed"
	}
	NotificationsTotal.WithLabelValues(channel, status).Inc()
}

func (PrometheusSink) LockWait(duration time.Duration) {
	LockWaitDuration.Observe(duration.Seconds())
}

// NoopSink discards everything.
type NoopSink struct{}

func (NoopSink) EvaluationCompleted(string, string, time.Duration) {}
func (NoopSink) BestScore(float64)                                 {}
func (NoopSink) TriggerArmed()                                     {}
func (NoopSink) TriggerDispatched(string)                          {}
func (NoopSink) QueueDepth(int)                                    {}
func (NoopSink) NotificationDelivered(string, error)               {}
func (NoopSink) LockWait(time.Duration)                            {}

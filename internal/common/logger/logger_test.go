// internal/common/logger/logger_test.go
package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestZapWrapper_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core))

	child := Component(log, "scheduler").WithFields(map[string]interface{}{"jobId": "job-1"})
	child.Warn("stale trigger", map[string]interface{}{"error": errors.New("job not found")})

	entries := logs.All()
	assert.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "scheduler", ctx["component"])
	assert.Equal(t, "job-1", ctx["jobId"])
	assert.Equal(t, "job not found", ctx["error"])
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestComponent_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		Component(nil, "x").Info("hello", nil)
	})
}

func TestNewFromConfig_Stderr(t *testing.T) {
	log := NewFromConfig("debug", "json", "stderr")
	assert.NotNil(t, log)
	assert.NotPanics(t, func() { log.Debug("ok", nil) })
}

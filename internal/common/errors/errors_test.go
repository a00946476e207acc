// internal/common/errors/errors_test.go
package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_IsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("select best: %w", NewJobNotFoundError("job-1"))

	assert.True(t, stderrors.Is(err, ErrJobNotFound))
	assert.False(t, stderrors.Is(err, ErrBidNotFound))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsIllegalTransition(err))
}

func TestStandardError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewDatabaseOperationFailedError("get job", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "DATABASE_OPERATION_FAILED")
}

func TestNewIllegalTransitionError(t *testing.T) {
	err := NewIllegalTransitionError("COMPLETED", "OPEN")

	assert.True(t, IsIllegalTransition(err))
	assert.False(t, err.Retryable)
	assert.Equal(t, "COMPLETED", err.Metadata["from"])
	assert.Equal(t, "OPEN", err.Metadata["to"])
}

func TestNewAwardRequiresEvaluationError(t *testing.T) {
	err := NewAwardRequiresEvaluationError("job-1", "OPEN")

	assert.True(t, IsIllegalTransition(err))
	assert.Equal(t, "AWARDED", err.Metadata["to"])
	assert.Contains(t, err.Details, "run an evaluation")
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantCode    string
		wantRetries int
	}{
		{"commit failure retries", NewAwardCommitFailedError("job-1", stderrors.New("deadlock")), "EVALUATION_FAILED", 3},
		{"lock failure retries less", NewLockAcquireFailedError("job-1", stderrors.New("timeout")), "EVALUATION_FAILED", 2},
		{"job not found throws", NewJobNotFoundError("job-1"), "JOB_NOT_FOUND", 0},
		{"invalid input throws", NewInvalidInputError("jobId missing"), "INVALID_INPUT", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
			assert.Equal(t, tt.wantCode, vars["errorCode"])
		})
	}
}

func TestNormalize(t *testing.T) {
	std := NewBidNotFoundError("bid-1")
	assert.Same(t, std, Normalize(fmt.Errorf("wrapped: %w", std)))

	plain := Normalize(stderrors.New("boom"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "NOT_FOUND", GetErrorCategory(ErrCodeProfessionalNotFound))
	assert.Equal(t, "STATE", GetErrorCategory(ErrCodeIllegalTransition))
	assert.Equal(t, "STATE", GetErrorCategory(ErrCodeStatusConflict))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeLockAcquireFailed))
	assert.Equal(t, "SIDE_EFFECT", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

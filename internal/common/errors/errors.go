// internal/common/errors/errors.go

// Package errors provides the structured error taxonomy of the award engine
// and its mapping onto BPMN errors for workflow-driven evaluations.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeJobNotFound          ErrorCode = "JOB_NOT_FOUND"
	ErrCodeBidNotFound          ErrorCode = "BID_NOT_FOUND"
	ErrCodeProfessionalNotFound ErrorCode = "PROFESSIONAL_NOT_FOUND"
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"

	ErrCodeIllegalTransition ErrorCode = "ILLEGAL_TRANSITION"
	ErrCodeStatusConflict    ErrorCode = "STATUS_CONFLICT"
	ErrCodeAwardCommitFailed ErrorCode = "AWARD_COMMIT_FAILED"

	ErrCodeDatabaseOperationFailed ErrorCode = "DATABASE_OPERATION_FAILED"
	ErrCodeLockAcquireFailed       ErrorCode = "LOCK_ACQUIRE_FAILED"
	ErrCodeNotificationSendFailed  ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeAuditIndexFailed        ErrorCode = "AUDIT_INDEX_FAILED"
	ErrCodeInvalidInput            ErrorCode = "INVALID_INPUT"
	ErrCodeInternal                ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches another StandardError by code, so errors.Is works against the
// sentinel values below.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata returns the error with an extra metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Sentinels for errors.Is.
var (
	ErrJobNotFound          = &StandardError{Code: ErrCodeJobNotFound}
	ErrBidNotFound          = &StandardError{Code: ErrCodeBidNotFound}
	ErrProfessionalNotFound = &StandardError{Code: ErrCodeProfessionalNotFound}
	ErrUserNotFound         = &StandardError{Code: ErrCodeUserNotFound}
	ErrIllegalTransition    = &StandardError{Code: ErrCodeIllegalTransition}
	ErrStatusConflict       = &StandardError{Code: ErrCodeStatusConflict}
	ErrLockAcquireFailed    = &StandardError{Code: ErrCodeLockAcquireFailed}
	ErrInvalidInput         = &StandardError{Code: ErrCodeInvalidInput}
)

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for job fail/throw variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewJobNotFoundError reports a job missing at evaluation time.
func NewJobNotFoundError(jobID string) *StandardError {
	return newError(ErrCodeJobNotFound, "Job not found", "jobId: "+jobID, false, nil)
}

// NewBidNotFoundError reports a bid missing at evaluation time.
func NewBidNotFoundError(bidID string) *StandardError {
	return newError(ErrCodeBidNotFound, "Bid not found", "bidId: "+bidID, false, nil)
}

// NewProfessionalNotFoundError reports a bidding professional with no profile.
func NewProfessionalNotFoundError(professionalID string) *StandardError {
	return newError(ErrCodeProfessionalNotFound, "Professional profile not found", "professionalId: "+professionalID, false, nil)
}

// NewUserNotFoundError reports a notification recipient with no contact record.
func NewUserNotFoundError(userID string) *StandardError {
	return newError(ErrCodeUserNotFound, "User not found", "userId: "+userID, false, nil)
}

// NewIllegalTransitionError reports a status change outside the transition table.
func NewIllegalTransitionError(from, to string) *StandardError {
	return newError(ErrCodeIllegalTransition, "Illegal job status transition",
		fmt.Sprintf("from: %s, to: %s", from, to), false, nil).
		WithMetadata("from", from).
		WithMetadata("to", to)
}

// NewAwardRequiresEvaluationError reports a manual move to AWARDED. Awards
// are committed only by bid evaluation, which also accepts the winning bid.
func NewAwardRequiresEvaluationError(jobID, from string) *StandardError {
	return newError(ErrCodeIllegalTransition, "Job can only be awarded by bid evaluation",
		fmt.Sprintf("jobId: %s, from: %s; run an evaluation instead", jobID, from), false, nil).
		WithMetadata("from", from).
		WithMetadata("to", "AWARDED")
}

// NewStatusConflictError reports that the stored status no longer matches
// the status the caller validated against.
func NewStatusConflictError(jobID, expected string) *StandardError {
	return newError(ErrCodeStatusConflict, "Job status changed concurrently",
		fmt.Sprintf("jobId: %s, expected: %s", jobID, expected), false, nil)
}

// NewAwardCommitFailedError wraps a failed award transaction.
func NewAwardCommitFailedError(jobID string, err error) *StandardError {
	return newError(ErrCodeAwardCommitFailed, "Award transaction failed",
		fmt.Sprintf("jobId: %s, error: %v", jobID, err), true, err)
}

// NewDatabaseOperationFailedError wraps a failed store operation.
func NewDatabaseOperationFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeDatabaseOperationFailed, "Database operation failed",
		fmt.Sprintf("operation: %s, error: %v", operation, err), true, err)
}

// NewLockAcquireFailedError reports that the per-job lock could not be taken.
func NewLockAcquireFailedError(key string, err error) *StandardError {
	return newError(ErrCodeLockAcquireFailed, "Failed to acquire evaluation lock",
		fmt.Sprintf("key: %s, error: %v", key, err), true, err)
}

// NewNotificationSendFailedError wraps a failed delivery on one channel.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %v", channel, err), true, err)
}

// NewAuditIndexFailedError wraps a failed audit write.
func NewAuditIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeAuditIndexFailed, "Audit record indexing failed",
		fmt.Sprintf("index: %s, error: %v", index, err), true, err)
}

// NewInvalidInputError reports a malformed request or payload.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid input", details, false, nil)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal codes to the BPMN error codes modelled in
// the award process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeJobNotFound:             "JOB_NOT_FOUND",
	ErrCodeBidNotFound:             "BID_NOT_FOUND",
	ErrCodeProfessionalNotFound:    "EVALUATION_ABORTED",
	ErrCodeIllegalTransition:       "ILLEGAL_TRANSITION",
	ErrCodeStatusConflict:          "EVALUATION_ABORTED",
	ErrCodeInvalidInput:            "INVALID_INPUT",
	ErrCodeAwardCommitFailed:       "EVALUATION_FAILED",
	ErrCodeDatabaseOperationFailed: "EVALUATION_FAILED",
	ErrCodeLockAcquireFailed:       "EVALUATION_FAILED",
}

// GetRetryCount returns how many workflow retries a code deserves.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseOperationFailed,
		ErrCodeAwardCommitFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeAuditIndexFailed:
		return 3
	case ErrCodeLockAcquireFailed:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, ok := BPMNErrorMapping[stdErr.Code]
	if !ok {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandard extracts a StandardError from an error chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is any of the not-found codes.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrJobNotFound) ||
		stderrors.Is(err, ErrBidNotFound) ||
		stderrors.Is(err, ErrProfessionalNotFound) ||
		stderrors.Is(err, ErrUserNotFound)
}

// IsIllegalTransition reports whether err came from the transition guard.
func IsIllegalTransition(err error) bool {
	return stderrors.Is(err, ErrIllegalTransition)
}

// IsRetryable reports whether err is marked retryable.
func IsRetryable(err error) bool {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr.Retryable
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasSuffix(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "TRANSITION") || strings.Contains(codeStr, "CONFLICT"):
		return "STATE"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "COMMIT") || strings.Contains(codeStr, "LOCK"):
		return "STORAGE"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "AUDIT"):
		return "SIDE_EFFECT"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

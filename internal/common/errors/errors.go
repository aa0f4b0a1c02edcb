// Package errors provides standardized error handling for the agent pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrCodeClassificationAmbiguous ErrorCode = "CLASSIFICATION_AMBIGUOUS"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeStorageUnavailable       ErrorCode = "STORAGE_UNAVAILABLE"
	ErrCodeRecordNotFound           ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"

	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionConflict    ErrorCode = "SESSION_CONFLICT"
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"

	ErrCodeReportGenerationFailed ErrorCode = "REPORT_GENERATION_FAILED"
	ErrCodeReportNotFound         ErrorCode = "REPORT_NOT_FOUND"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeCSVLoadFailed          ErrorCode = "CSV_LOAD_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// UserMessage returns the natural-language text shown to the end user.
// Internal detail never leaks past this boundary.
func (e *StandardError) UserMessage() string {
	switch e.Code {
	case ErrCodeValidationFailed:
		return "Some of the details you provided don't look right. " + e.Message
	case ErrCodeStorageUnavailable, ErrCodeDatabaseConnectionFailed:
		return "I couldn't save your request right now. Your details are kept, please try again in a moment."
	case ErrCodeReportGenerationFailed:
		return "I couldn't generate the report. Please try again."
	default:
		return "Something went wrong processing your message. Please try again."
	}
}

// Error Constructors

// NewValidationFailedError creates a non-retryable slot validation error.
func NewValidationFailedError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   fmt.Sprintf("Invalid value for %s", field),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewClassificationAmbiguousError creates a non-retryable low-confidence error.
func NewClassificationAmbiguousError(confidence float64) *StandardError {
	return &StandardError{
		Code:      ErrCodeClassificationAmbiguous,
		Message:   "Could not determine what you'd like to do",
		Details:   fmt.Sprintf("confidence: %.2f", confidence),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageUnavailableError creates a retryable storage error. The in-flight
// record is preserved so the caller can simply retry.
func NewStorageUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageUnavailable,
		Message:   "Could not persist the return record",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordNotFoundError creates a non-retryable lookup error.
func NewRecordNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordNotFound,
		Message:   "Return record not found",
		Details:   fmt.Sprintf("recordId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query error.
func NewQueryExecutionFailedError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", op, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError creates a non-retryable session error. Callers
// recover by starting a fresh collecting session.
func NewSessionNotFoundError(key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "Session is no longer tracked",
		Details:   fmt.Sprintf("sessionKey: %s", key),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionConflictError creates a retryable concurrent-update error.
func NewSessionConflictError(key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionConflict,
		Message:   "Session was updated concurrently",
		Details:   fmt.Sprintf("sessionKey: %s", key),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionStoreFailedError creates a retryable session backend error.
func NewSessionStoreFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStoreFailed,
		Message:   "Session store error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportGenerationFailedError creates a retryable report error.
func NewReportGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportGenerationFailed,
		Message:   "Report generation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportNotFoundError creates a non-retryable report lookup error.
func NewReportNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportNotFound,
		Message:   "Report file not found",
		Details:   fmt.Sprintf("reportId: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCSVLoadFailedError creates a non-retryable CSV ingestion error.
func NewCSVLoadFailedError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCSVLoadFailed,
		Message:   "CSV data load failed",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeStorageUnavailable,
		ErrCodeQueryExecutionFailed,
		ErrCodeSessionStoreFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeReportGenerationFailed:
		return 3

	case ErrCodeSessionConflict:
		return 5 // CAS loop, cheap to retry

	default:
		return 0 // business errors: no retry
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SESSION"):
		return "SESSION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "STORAGE") ||
		strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "RECORD") ||
		strings.Contains(codeStr, "CSV"):
		return "STORAGE"
	case strings.Contains(codeStr, "REPORT"):
		return "REPORT"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "CLASSIFICATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

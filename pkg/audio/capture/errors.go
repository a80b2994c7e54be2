package capture

import (
	"errors"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
)

func (e *CaptureError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// CaptureError represents frame-source errors
type CaptureError struct {
	Type    SourceType     `json:"type"`
	Source  string         `json:"source"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Fields  logging.Fields `json:"fields,omitempty"`
	Cause   error          `json:"-"`
}

func (e *CaptureError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeAcquire       = "ACQUIRE_FAILED"
	ErrCodeUnavailable   = "CAPABILITY_UNAVAILABLE"
	ErrCodeExhausted     = "SOURCE_EXHAUSTED"
	ErrCodeInvalidFormat = "INVALID_FORMAT"
	ErrCodeInvalidConfig = "INVALID_CONFIG"
	ErrCodeUnsupported   = "UNSUPPORTED_SOURCE"
)

// NewCaptureError creates a new capture error
func NewCaptureError(sourceType SourceType, source, code, message string, cause error) *CaptureError {
	return &CaptureError{
		Type:    sourceType,
		Source:  source,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewCaptureErrorWithFields creates a new capture error carrying structured context
func NewCaptureErrorWithFields(sourceType SourceType, source, code, message string, cause error, fields logging.Fields) *CaptureError {
	return &CaptureError{
		Type:    sourceType,
		Source:  source,
		Code:    code,
		Message: message,
		Fields:  fields,
		Cause:   cause,
	}
}

// IsCapabilityUnavailable reports whether err marks a source that could not
// be acquired or has stopped serving frames
func IsCapabilityUnavailable(err error) bool {
	var captureErr *CaptureError
	if errors.As(err, &captureErr) {
		switch captureErr.Code {
		case ErrCodeAcquire, ErrCodeUnavailable, ErrCodeExhausted:
			return true
		}
	}
	return false
}

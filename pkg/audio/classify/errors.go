package classify

import "fmt"

// Error implements the error interface
func (e *InferenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// InferenceError represents a classifier-specific error
type InferenceError struct {
	Stage   string `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"cause,omitempty"`
}

// Unwrap returns the underlying cause
func (e *InferenceError) Unwrap() error {
	return e.Cause
}

// Classifier lifecycle stages for error reporting
const (
	StageInit = "init"
	StageRun  = "run"
)

// Common classifier error codes
const (
	ErrCodeConfig    = "INVALID_CONFIG"
	ErrCodeInput     = "INVALID_INPUT"
	ErrCodeLabels    = "LABELS_LOAD_FAILED"
	ErrCodeModel     = "MODEL_LOAD_FAILED"
	ErrCodeInference = "INFERENCE_FAILED"
)

// NewInferenceError creates a new inference error
func NewInferenceError(stage, code, message string, cause error) *InferenceError {
	return &InferenceError{
		Stage:   stage,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

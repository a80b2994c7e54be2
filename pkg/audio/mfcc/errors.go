package mfcc

import "errors"

// FeatureError represents feature extraction errors
type FeatureError struct {
	Stage   string `json:"stage"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *FeatureError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *FeatureError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeConfig          = "INVALID_CONFIG"
	ErrCodeDegenerateInput = "DEGENERATE_INPUT"
	ErrCodeNonFinite       = "NON_FINITE_INPUT"
	ErrCodeNegativeInput   = "NEGATIVE_INPUT"
)

// Pipeline stages for error attribution
const (
	StageFilterBank = "filter_bank"
	StageCepstrum   = "cepstrum"
)

// NewFeatureError creates a new feature extraction error
func NewFeatureError(stage, code, message string, cause error) *FeatureError {
	return &FeatureError{
		Stage:   stage,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsConfigError reports whether err is a parameter rejection raised before
// any computation ran.
func IsConfigError(err error) bool {
	var fe *FeatureError
	return errors.As(err, &fe) && fe.Code == ErrCodeConfig
}

// IsDegenerateInputError reports whether err was caused by an input too
// short for the configured band layout.
func IsDegenerateInputError(err error) bool {
	var fe *FeatureError
	return errors.As(err, &fe) && fe.Code == ErrCodeDegenerateInput
}

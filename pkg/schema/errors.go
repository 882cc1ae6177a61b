package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeDecode            = "DECODE_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeExpression        = "EXPRESSION_ERROR"
	ErrCodeHistory           = "HISTORY_ERROR"
)

// TraceError is the structured error type returned by the host-side packages.
// The reducer and the layout engine never produce one.
type TraceError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	StepID  string         `json:"step_id,omitempty"`
	Cause   error          `json:"-"`
}

func (e *TraceError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("[%s] step %s: %s", e.Code, e.StepID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *TraceError) Unwrap() error {
	return e.Cause
}

// NewError creates a new TraceError.
func NewError(code, message string) *TraceError {
	return &TraceError{Code: code, Message: message}
}

// NewErrorf creates a new TraceError with a formatted message.
func NewErrorf(code, format string, args ...any) *TraceError {
	return &TraceError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithStep attaches a step ID to the error.
func (e *TraceError) WithStep(stepID StepID) *TraceError {
	e.StepID = string(stepID)
	return e
}

// WithCause attaches an underlying cause.
func (e *TraceError) WithCause(err error) *TraceError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *TraceError) WithDetails(details map[string]any) *TraceError {
	e.Details = details
	return e
}

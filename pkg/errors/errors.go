package errors

import "fmt"

// ErrorType classifies failures by how the run must react to them
type ErrorType string

const (
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeNavigation   ErrorType = "navigation"
	ErrorTypeAuth         ErrorType = "auth"
	ErrorTypeExtraction   ErrorType = "extraction"
	ErrorTypeCheckpointIO ErrorType = "checkpoint_io"
	ErrorTypeSinkIO       ErrorType = "sink_io"
	ErrorTypeUnknown      ErrorType = "unknown"
)

// Error carries the failure class alongside the underlying cause
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error without an underlying cause
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a typed error around an underlying cause
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// IsFatal reports whether an error type must terminate the run.
// Extraction errors are recovered per item; checkpoint IO errors demote
// persistence to best-effort but never stop collection.
func IsFatal(t ErrorType) bool {
	switch t {
	case ErrorTypeConfig, ErrorTypeNavigation, ErrorTypeAuth:
		return true
	case ErrorTypeExtraction, ErrorTypeCheckpointIO, ErrorTypeSinkIO:
		return false
	default:
		return false
	}
}

// IsRetryable reports whether an operation that failed with this type is
// worth attempting again. Only transient transport-level failures qualify.
func IsRetryable(t ErrorType) bool {
	switch t {
	case ErrorTypeNavigation:
		return true
	default:
		return false
	}
}

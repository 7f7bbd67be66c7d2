package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorDetails represents detailed information about an error.
type ErrorDetails struct {
	// Message (required) is the error message.
	Message string

	// Code (required) is one of the ErrorCode values.
	Code string

	// Field (optional) names what the error occurred on, usually a series key.
	Field string

	// Cause (optional) is the underlying driver or transport error.
	Cause error
}

// NewErrorDetails creates a new ErrorDetails struct with the given parameters.
func NewErrorDetails(message, code, field string) *ErrorDetails {
	return &ErrorDetails{
		Message: message,
		Code:    code,
		Field:   field,
	}
}

// NewErrorDetailsWithCause creates ErrorDetails that keeps err reachable through errors.Unwrap.
func NewErrorDetailsWithCause(code ErrorCode, field string, err error) *ErrorDetails {
	return &ErrorDetails{
		Message: fmt.Sprintf("%s: %v", code, err),
		Code:    code.String(),
		Field:   field,
		Cause:   err,
	}
}

// Error() is used to implement the Golang `error` interface.
func (e *ErrorDetails) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any.
func (e *ErrorDetails) Unwrap() error {
	return e.Cause
}

// ErrorCodeEquals checks whether a given `error`, or any error it wraps, is an
// ErrorDetails with a specific code.
func ErrorCodeEquals(err error, code string) bool {
	var errDetails *ErrorDetails
	if !stderrors.As(err, &errDetails) {
		return false
	}

	return errDetails.Code == code
}

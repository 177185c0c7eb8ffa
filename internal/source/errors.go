// internal/source/errors.go
package source

import (
	"context"
	"errors"
	"fmt"
)

// Common source errors
var (
	ErrNetwork   = errors.New("network error")
	ErrTimeout   = errors.New("timeout")
	ErrParse     = errors.New("failed to parse response")
	ErrIntegrity = errors.New("page content failed integrity check")
)

// ErrorCode represents a specific failure class of a source read
type ErrorCode string

const (
	ErrCodeNetwork   ErrorCode = "NETWORK_ERROR"
	ErrCodeTimeout   ErrorCode = "TIMEOUT"
	ErrCodeParse     ErrorCode = "PARSE_ERROR"
	ErrCodeIntegrity ErrorCode = "INTEGRITY_ERROR"
)

var sentinels = map[ErrorCode]error{
	ErrCodeNetwork:   ErrNetwork,
	ErrCodeTimeout:   ErrTimeout,
	ErrCodeParse:     ErrParse,
	ErrCodeIntegrity: ErrIntegrity,
}

// Error wraps a source failure with its code and optional details
type Error struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches another *Error by code, the sentinel for this code, or the underlying error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	if s, ok := sentinels[e.Code]; ok && s == target {
		return true
	}
	return errors.Is(e.Underlying, target)
}

// NewError creates a new Error
func NewError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.Details[key] = value
	return e
}

// CodeOf returns the code of the first *Error in err's chain.
// Deadline errors that were never classified count as timeouts.
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	return ErrCodeNetwork
}

// Classify wraps a transport-level err, turning deadline expiry into a timeout
func Classify(message string, err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	if isTimeout(err) {
		return NewError(ErrCodeTimeout, message, err)
	}
	return NewError(ErrCodeNetwork, message, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

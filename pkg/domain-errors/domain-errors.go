package domainerrors

import "errors"

// Code represents a client error category independent of transport layer.
// These codes describe what went wrong in business-logic terms, not HTTP terms.
type Code string

const (
	CodeValidation      Code = "validation_failed" // local pre-network rejection, recoverable by user correction
	CodeUnauthorized    Code = "unauthorized"
	CodeNotFound        Code = "not_found"
	CodeConflict        Code = "conflict"
	CodeUnavailable     Code = "service_unavailable" // retryable 5xx family (502/503/504)
	CodeTransport       Code = "transport_failure"   // request never reached the server
	CodeRetryExhausted  Code = "retry_exhausted"
	CodeConsentDeclined Code = "consent_declined" // terminal for the session
	CodeInternal        Code = "internal_error"
)

// Error wraps domain or infrastructure failures with a stable code.
// It is transport-agnostic and can be used across service, store, and client layers.
type Error struct {
	Code     Code
	Message  string
	Endpoint string // attempted endpoint, set on network failures to aid diagnosis
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

// Unwrap implements error unwrapping for error chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is enables errors.Is() to match errors by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new domain error with the given code and message.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap creates a new domain error wrapping an existing error.
// If the wrapped error is already a domain error, the original code is preserved.
func Wrap(code Code, msg string, err error) error {
	var existing *Error
	if errors.As(err, &existing) {
		return &Error{Code: existing.Code, Message: msg, Endpoint: existing.Endpoint, Err: err}
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// NewNetwork creates a domain error that records the attempted endpoint.
// User-visible network failures must always name the endpoint they tried.
func NewNetwork(code Code, msg, endpoint string, err error) error {
	return &Error{Code: code, Message: msg, Endpoint: endpoint, Err: err}
}

// HasCode checks if an error is a domain error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// EndpointOf returns the attempted endpoint recorded on a network error,
// or the empty string when none was recorded.
func EndpointOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Endpoint
	}
	return ""
}

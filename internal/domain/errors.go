package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned when an AI-backed operation runs without
	// a configured Gemini API key. It halts the whole pipeline.
	ErrMissingAPIKey = errors.New("GEMINI API key is not configured")

	// ErrTransient marks a retryable upstream failure (timeout, 5xx, 429)
	ErrTransient = errors.New("transient upstream failure")

	// ErrFatalCall marks a non-retryable upstream failure (4xx, bad request)
	ErrFatalCall = errors.New("upstream rejected the request")

	// ErrMalformedResponse is returned when model output does not have the expected shape
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrExhaustedRetries is returned after the retry budget is spent on transient failures
	ErrExhaustedRetries = errors.New("retries exhausted")

	// ErrEmptyResult is returned when a stage legitimately produced nothing
	ErrEmptyResult = errors.New("stage produced no results")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrListNotFound is returned when an inventory list id is unknown
	ErrListNotFound = errors.New("inventory list not found")
)

// CallError describes a single failed call to the AI service.
type CallError struct {
	StatusCode int
	Body       string
	Err        error // ErrTransient or ErrFatalCall
}

func (e *CallError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%v: %s", e.Err, e.Body)
	}
	return fmt.Sprintf("%v: status %d: %s", e.Err, e.StatusCode, e.Body)
}

func (e *CallError) Unwrap() error { return e.Err }

// MalformedResponseError keeps the raw model text for diagnostics.
type MalformedResponseError struct {
	Raw    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMalformedResponse, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error { return ErrMalformedResponse }

// NewMalformed builds a MalformedResponseError with a formatted reason.
func NewMalformed(raw, format string, args ...any) *MalformedResponseError {
	return &MalformedResponseError{Raw: raw, Reason: fmt.Sprintf(format, args...)}
}

// ExhaustedRetriesError is returned once every attempt failed transiently.
type ExhaustedRetriesError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("%v after %d attempts: %v", ErrExhaustedRetries, e.Attempts, e.Last)
}

// Unwrap exposes both the sentinel and the last underlying failure.
func (e *ExhaustedRetriesError) Unwrap() []error {
	return []error{ErrExhaustedRetries, e.Last}
}

// RawOutput returns the raw model text attached to err, if any.
func RawOutput(err error) string {
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return malformed.Raw
	}
	return ""
}

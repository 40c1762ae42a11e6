// Package errors provides domain-specific error types and sentinel errors
// for the scan and activity dispatch core.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotFound indicates a requested catalog or backend resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidActivity indicates an activity identifier is malformed or
	// names an unknown activity type.
	ErrInvalidActivity = errors.New("invalid activity identifier")

	// ErrUnknownScanOutcome indicates a scan response carried none of the
	// recognized outcome shapes.
	ErrUnknownScanOutcome = errors.New("unknown scan outcome")

	// ErrMissingPayload indicates an inbound event carried no usable payload.
	ErrMissingPayload = errors.New("missing event payload")
)

// BackendError represents a failed request to the backend domain service.
type BackendError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("backend error (endpoint=%s, status=%d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("backend error (endpoint=%s): %v", e.Endpoint, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError creates a new backend error.
func NewBackendError(endpoint string, statusCode int, err error) *BackendError {
	return &BackendError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Err:        err,
	}
}

// DeliveryError represents a failed reply send through the hosting runtime.
type DeliveryError struct {
	Template string
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery error (template=%s): %v", e.Template, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// NewDeliveryError creates a new delivery error.
func NewDeliveryError(template string, err error) *DeliveryError {
	return &DeliveryError{Template: template, Err: err}
}

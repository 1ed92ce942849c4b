package console

import (
	"errors"
	"fmt"
)

var (
	// ErrInFlight is returned when confirming a workflow whose request has
	// not resolved yet. The confirmation has no effect.
	ErrInFlight = errors.New("console: workflow request already in flight")
	// ErrWorkflowBusy is returned when opening a flow that still has a
	// request in flight.
	ErrWorkflowBusy = errors.New("console: flow has a request in flight")
	// ErrNoWorkflow is returned for events addressed to an idle flow.
	ErrNoWorkflow = errors.New("console: no active workflow")
	// ErrInvalidTransition is returned when an event does not apply to the
	// workflow's current phase or action kind.
	ErrInvalidTransition = errors.New("console: invalid workflow transition")
	// ErrStaleWorkflow marks a response for a workflow that was replaced or
	// cancelled while its request was in flight.
	ErrStaleWorkflow = errors.New("console: workflow superseded")

	errMissingUserSource      = errors.New("console: user source not configured")
	errMissingAnalyticsSource = errors.New("console: analytics source not configured")
	errMissingHistorySource   = errors.New("console: history source not configured")
)

// ConnectivityError reports a request that never got a response.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("console: %s: connectivity: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// UnauthorizedError reports an HTTP 401 from the admin API.
type UnauthorizedError struct {
	Op      string
	Message string
}

func (e *UnauthorizedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("console: %s: unauthorized: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("console: %s: unauthorized", e.Op)
}

// ApplicationError reports any other non-2xx answer. Message holds the
// server-supplied explanation when the body carried one.
type ApplicationError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ApplicationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("console: %s: remote error %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("console: %s: remote error %d", e.Op, e.StatusCode)
}

// ValidationError rejects operator input before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "console: invalid input: " + e.Message
	}
	return fmt.Sprintf("console: invalid %s: %s", e.Field, e.Message)
}

// IsUnauthorized reports whether err carries an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}

// IsConnectivity reports whether err carries a ConnectivityError.
func IsConnectivity(err error) bool {
	var target *ConnectivityError
	return errors.As(err, &target)
}

// FeedbackMessage picks the operator-facing text for a failed action: the
// server's message when one was supplied, the fallback otherwise.
func FeedbackMessage(err error, fallback string) string {
	var appErr *ApplicationError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	var validation *ValidationError
	if errors.As(err, &validation) && validation.Message != "" {
		return validation.Message
	}
	return fallback
}

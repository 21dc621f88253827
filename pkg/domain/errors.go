package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for malformed inputs (e.g. a missing container).
var ErrInvalidArgument = errors.New("invalid argument")

// ErrRemoteQuery marks failures of an individual dataset fetch.
var ErrRemoteQuery = errors.New("remote query failed")

// ErrBusy is returned when Show is called while another Show is in flight.
var ErrBusy = errors.New("chart is busy")

// ErrDefinitionNotFound is returned when a definition ID cannot be found in a store.
var ErrDefinitionNotFound = errors.New("definition not found")

// ErrUnsupportedType is returned by renderers for chart types they cannot draw.
var ErrUnsupportedType = errors.New("unsupported chart type")

// ErrUnsupportedFormat is returned when no renderer handles a container's format.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// QueryError wraps the failure of one remote dataset request.
type QueryError struct {
	Key string // Result key of the dataset
	URL string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query dataset %q (%s): %v", e.Key, e.URL, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrRemoteQuery) true for every QueryError.
func (e *QueryError) Is(target error) bool {
	return target == ErrRemoteQuery
}

// ValidationError represents a single definition validation failure.
type ValidationError struct {
	Key    string // Path of the offending field, e.g. "datasets[1].url"
	Reason string
	Value  any
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %v)", e.Key, e.Reason, e.Value)
}

// Is lets validation failures match ErrInvalidArgument.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors
var (
	ErrTickerNotFound       = errors.New("ticker not found")
	ErrEmptySeries          = errors.New("price series is empty")
	ErrFetchFailed          = errors.New("price fetch failed")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrMalformedOutput      = errors.New("malformed model output")
	ErrInsufficientData     = errors.New("insufficient data for calculation")
	ErrInputValidation      = errors.New("input validation failed")
	ErrConfigInvalid        = errors.New("invalid configuration")
	ErrAlreadySubscribed    = errors.New("already subscribed")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUnauthorized         = errors.New("unauthorized")
)

// Kind is a stable, machine-distinguishable error category.
type Kind string

const (
	KindUpstreamUnavailable  Kind = "UPSTREAM_UNAVAILABLE"
	KindMalformedModelOutput Kind = "MALFORMED_MODEL_OUTPUT"
	KindInvalidInstrument    Kind = "INVALID_INSTRUMENT"
	KindComputation          Kind = "COMPUTATION_ERROR"
	KindInvalidInput         Kind = "INVALID_INPUT"
	KindConflict             Kind = "CONFLICT"
	KindNotFound             Kind = "NOT_FOUND"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindInternal             Kind = "INTERNAL"
)

// KindOf classifies err. A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	switch {
	case errors.Is(err, ErrTickerNotFound), errors.Is(err, ErrEmptySeries):
		return KindInvalidInstrument
	case errors.Is(err, ErrMalformedOutput):
		return KindMalformedModelOutput
	case errors.Is(err, ErrUpstreamUnavailable), errors.Is(err, ErrFetchFailed):
		return KindUpstreamUnavailable
	case errors.Is(err, ErrInsufficientData):
		return KindComputation
	case errors.Is(err, ErrAlreadySubscribed):
		return KindConflict
	case errors.Is(err, ErrSubscriptionNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrInputValidation), errors.As(err, &validationErr):
		return KindInvalidInput
	default:
		return KindInternal
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Violation is one broken constraint found while validating model output.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// SchemaError reports every constraint a model response failed.
type SchemaError struct {
	Source     string
	Violations []Violation
}

func (e *SchemaError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return fmt.Sprintf("schema error [%s]: %s", e.Source, strings.Join(parts, "; "))
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrMalformedOutput
}

// Fields returns the names of the offending fields in order.
func (e *SchemaError) Fields() []string {
	out := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		out[i] = v.Field
	}
	return out
}

// NewSchemaError creates a new SchemaError.
func NewSchemaError(source string, violations []Violation) *SchemaError {
	return &SchemaError{
		Source:     source,
		Violations: violations,
	}
}

// UpstreamError represents a failed call to an external service.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
	Err     error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("upstream error [%s]", e.Service)
	if e.Status != 0 {
		msg += fmt.Sprintf(" status %d", e.Status)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// NewUpstreamError creates a new UpstreamError.
func NewUpstreamError(service string, status int, body string, err error) *UpstreamError {
	return &UpstreamError{
		Service: service,
		Status:  status,
		Body:    body,
		Err:     err,
	}
}

// ModelOutputError means no usable JSON object could be recovered from a model response.
type ModelOutputError struct {
	Source string
	Raw    string
	Err    error
}

func (e *ModelOutputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model output error [%s]: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("model output error [%s]", e.Source)
}

func (e *ModelOutputError) Unwrap() error {
	return e.Err
}

func (e *ModelOutputError) Is(target error) bool {
	return target == ErrMalformedOutput
}

// NewModelOutputError creates a new ModelOutputError.
func NewModelOutputError(source, raw string, err error) *ModelOutputError {
	return &ModelOutputError{
		Source: source,
		Raw:    raw,
		Err:    err,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

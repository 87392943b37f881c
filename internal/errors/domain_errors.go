package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNoMatch        ErrorType = "NO_MATCH"
	ErrTypeArityMismatch  ErrorType = "ARITY_MISMATCH"
	ErrTypeDuplicateLabel ErrorType = "DUPLICATE_LABEL"
	ErrTypeNonPositiveLog ErrorType = "NON_POSITIVE_LOG_VALUE"
	ErrTypeUnitMismatch   ErrorType = "UNIT_MISMATCH"
	ErrTypeParsing        ErrorType = "PARSING"
	ErrTypeValidation     ErrorType = "VALIDATION"
	ErrTypeNotFound       ErrorType = "NOT_FOUND"
	ErrTypeConfig         ErrorType = "CONFIG"
)

// NoMatchError reports a group that has observations but no simulated samples
// to match against. Matching across groups instead would be a defect, so the
// whole alignment step aborts.
type NoMatchError struct {
	Group        string
	Observations int
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("[%s] group %q has %d observations but no simulated samples", ErrTypeNoMatch, e.Group, e.Observations)
}

// ArityMismatchError reports parallel lists whose lengths disagree.
type ArityMismatchError struct {
	Operation string
	Counts    map[string]int
}

func (e *ArityMismatchError) Error() string {
	return fmt.Sprintf("[%s] %s called with mismatched list lengths: %v", ErrTypeArityMismatch, e.Operation, e.Counts)
}

// DuplicateLabelError reports a series label collision on insert. Overwrite
// must go through an explicit replace operation.
type DuplicateLabelError struct {
	Label string
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("[%s] series label %q already present", ErrTypeDuplicateLabel, e.Label)
}

// NonPositiveLogValueError reports a log-scaled axis that would have to
// display a zero or negative value.
type NonPositiveLogValueError struct {
	Axis   string
	Series string
	Value  float64
}

func (e *NonPositiveLogValueError) Error() string {
	return fmt.Sprintf("[%s] series %q has non-positive value %g on log-scaled %s axis", ErrTypeNonPositiveLog, e.Series, e.Value, e.Axis)
}

// UnitMismatchError reports inconsistent time units between observed and
// simulated data handed to the alignment step.
type UnitMismatchError struct {
	Group     string
	Observed  string
	Simulated string
}

func (e *UnitMismatchError) Error() string {
	return fmt.Sprintf("[%s] group %q: observed time unit %q, simulated time unit %q", ErrTypeUnitMismatch, e.Group, e.Observed, e.Simulated)
}

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

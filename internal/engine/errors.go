package engine

import (
	"errors"
	"fmt"
)

// ErrEmptyQueue is returned by Queue.Pop when the queue holds no entries.
// The run loop checks Len first, so it never surfaces from Run.
var ErrEmptyQueue = errors.New("engine: pop from empty queue")

// ConfigErrorCode categorizes construction failures.
type ConfigErrorCode string

const (
	// ErrCodeInvalidState indicates a transition triple that does not name a
	// valid link state.
	ErrCodeInvalidState ConfigErrorCode = "INVALID_STATE"

	// ErrCodeInvalidRate indicates a transition rate that is not strictly
	// positive and finite.
	ErrCodeInvalidRate ConfigErrorCode = "INVALID_RATE"

	// ErrCodeInvalidTopology indicates topology input the engine cannot use.
	ErrCodeInvalidTopology ConfigErrorCode = "INVALID_TOPOLOGY"

	// ErrCodeInvalidInitialState indicates a malformed initial node-state
	// array.
	ErrCodeInvalidInitialState ConfigErrorCode = "INVALID_INITIAL_STATE"

	// ErrCodeInvalidProperty indicates inconsistent property data or index.
	ErrCodeInvalidProperty ConfigErrorCode = "INVALID_PROPERTY"
)

// ConfigError is returned when an engine, classifier or transition table
// cannot be constructed. Construction is all-or-nothing: no engine exists
// after a ConfigError.
type ConfigError struct {
	// Code identifies the error category.
	Code ConfigErrorCode

	// Message is a human-readable description.
	Message string

	// Index is the offending transition, node or link index, or -1.
	Index int

	// Name is the offending transition's name, if any.
	Name string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (index=%d, name=%s)", e.Code, e.Message, e.Index, e.Name)
	}
	if e.Index >= 0 {
		return fmt.Sprintf("%s: %s (index=%d)", e.Code, e.Message, e.Index)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigError returns true if err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// HasConfigCode returns true if err is or wraps a ConfigError with code.
func HasConfigCode(err error, code ConfigErrorCode) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func newConfigError(code ConfigErrorCode, index int, format string, args ...any) *ConfigError {
	return &ConfigError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Index:   index,
	}
}

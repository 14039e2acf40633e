package dereferrors

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrReference indicates a reference resolution failure.
	ErrReference = errors.New("reference error")

	// ErrCircularReference indicates a circular $ref was detected.
	ErrCircularReference = errors.New("circular reference")

	// ErrMissingReference indicates a $ref target could not be found.
	ErrMissingReference = errors.New("missing reference")

	// ErrInput indicates the input document could not be used.
	ErrInput = errors.New("input error")

	// ErrLoader indicates an external loader failed.
	ErrLoader = errors.New("loader error")

	// ErrPathTraversal indicates a path traversal attempt was blocked.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrResourceLimit indicates a resource limit was exceeded.
	ErrResourceLimit = errors.New("resource limit exceeded")

	// ErrConfig indicates an invalid configuration.
	ErrConfig = errors.New("configuration error")
)

// ReferenceError represents a failure to resolve a $ref.
type ReferenceError struct {
	// Ref is the reference string that failed to resolve
	Ref string
	// RefType indicates the reference kind: "local", or the loader kind ("file", "jsonnet", ...)
	RefType string
	// IsCircular is true if the reference revisits one already being resolved
	IsCircular bool
	// IsMissing is true if the reference target could not be found
	IsMissing bool
	// Chain holds the visitation markers that led to a circular reference, outermost first
	Chain []string
	// Message provides additional context about the failure
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ReferenceError) Error() string {
	msg := "reference error"
	if e.IsCircular {
		msg = "circular reference"
	} else if e.IsMissing {
		msg = "missing reference"
	}
	if e.Ref != "" {
		msg += ": " + e.Ref
	}
	if len(e.Chain) > 0 {
		msg += " (chain: " + strings.Join(e.Chain, " -> ") + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
// Matches ErrReference, and also ErrCircularReference or ErrMissingReference
// when the matching flag is set.
func (e *ReferenceError) Is(target error) bool {
	if target == ErrReference {
		return true
	}
	if target == ErrCircularReference && e.IsCircular {
		return true
	}
	if target == ErrMissingReference && e.IsMissing {
		return true
	}
	return false
}

// InputError represents an input document that cannot be dereferenced,
// typically because it holds values outside the JSON data model.
type InputError struct {
	// Message describes the problem
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *InputError) Error() string {
	msg := "input error"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *InputError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *InputError) Is(target error) bool {
	return target == ErrInput
}

// LoaderError represents a failure reported by an external document loader.
//
// A LoaderError with Fatal=false is treated like a missing reference.
// Fatal errors abort dereferencing regardless of strict mode.
type LoaderError struct {
	// Kind is the loader kind, e.g. "file"
	Kind string
	// Target is the external target that failed to load
	Target string
	// Fatal marks failures that must abort the whole call
	Fatal bool
	// IsPathTraversal is true if the target escapes the loader's root
	IsPathTraversal bool
	// Message provides additional context
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *LoaderError) Error() string {
	msg := "loader error"
	if e.IsPathTraversal {
		msg = "path traversal detected"
	}
	if e.Kind != "" {
		msg += " (" + e.Kind + ")"
	}
	if e.Target != "" {
		msg += ": " + e.Target
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *LoaderError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *LoaderError) Is(target error) bool {
	if target == ErrLoader {
		return true
	}
	return target == ErrPathTraversal && e.IsPathTraversal
}

// ResourceLimitError represents a resource exhaustion condition.
type ResourceLimitError struct {
	// ResourceType identifies what limit was exceeded
	// Common values: "ref_depth", "cached_documents", "file_size"
	ResourceType string
	// Limit is the configured maximum value
	Limit int64
	// Actual is the value that exceeded the limit (may be 0 if unknown)
	Actual int64
	// Message provides additional context
	Message string
}

// Error returns a human-readable error message.
func (e *ResourceLimitError) Error() string {
	msg := "resource limit exceeded"
	if e.ResourceType != "" {
		msg += ": " + e.ResourceType
	}
	if e.Limit > 0 {
		msg += fmt.Sprintf(" (limit: %d", e.Limit)
		if e.Actual > 0 {
			msg += fmt.Sprintf(", actual: %d", e.Actual)
		}
		msg += ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *ResourceLimitError) Is(target error) bool {
	return target == ErrResourceLimit
}

// ConfigError represents an invalid configuration or input option.
type ConfigError struct {
	// Option is the name of the problematic configuration option
	Option string
	// Value is the invalid value that was provided (may be nil)
	Value any
	// Message describes the configuration error
	Message string
	// Cause is the underlying error, if any
	Cause error
}

// Error returns a human-readable error message.
func (e *ConfigError) Error() string {
	msg := "configuration error"
	if e.Option != "" {
		msg += " for " + e.Option
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *ConfigError) Is(target error) bool {
	return target == ErrConfig
}

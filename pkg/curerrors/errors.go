// Package curerrors provides structured error handling for curate with rich
// context, stack traces, and error categorization. It enables consistent
// error handling patterns across the entire codebase.
//
// # Overview
//
// The curerrors package extends Go's standard error handling with:
//   - Error categorization through ErrorType
//   - Structured context with key-value details
//   - Automatic stack trace capture
//   - Error wrapping with cause preservation
//
// # Basic Usage
//
//	// Create a new error
//	err := curerrors.New(curerrors.ErrorTypeValidation, "value does not match field kind")
//
//	// Add context
//	err = err.WithDetail("field", "ground_truth").
//	         WithDetail("kind", "int")
//
//	// Wrap existing errors
//	if err := dec.Decode(&objs); err != nil {
//	    return curerrors.Wrap(err, curerrors.ErrorTypeData, "failed to decode detections").
//	        WithDetail("path", path)
//	}
//
// # Error Types
//
// Every failure mode of the schema registry, the sample API, the parser
// protocol, and the ingestion pipeline has its own ErrorType, so callers can
// branch on the category with IsType without string matching.
//
// # Thread Safety
//
// Error instances are not thread-safe for modification. Create new instances
// or use WithDetail before sharing across goroutines.
package curerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error, used for error handling
// strategies and monitoring.
type ErrorType string

const (
	// ErrorTypeDuplicateField indicates an attempt to add a schema field
	// whose name is already registered.
	ErrorTypeDuplicateField ErrorType = "duplicate_field"
	// ErrorTypeInvalidKind indicates an unrecognized field kind tag.
	ErrorTypeInvalidKind ErrorType = "invalid_kind"
	// ErrorTypeUninferableType indicates that no field kind could be
	// inferred from a value.
	ErrorTypeUninferableType ErrorType = "uninferable_type"
	// ErrorTypeReservedName indicates a field name using the reserved prefix
	// or shadowing a built-in sample attribute.
	ErrorTypeReservedName ErrorType = "reserved_name"
	// ErrorTypeUnknownField indicates a write to a field that is not in the
	// schema and was not authorized for creation.
	ErrorTypeUnknownField ErrorType = "unknown_field"
	// ErrorTypeValidation indicates a value that does not match its field's
	// declared kind.
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNoCurrentRecord indicates a parser accessor called while the
	// parser is not positioned on a record.
	ErrorTypeNoCurrentRecord ErrorType = "no_current_record"
	// ErrorTypeUnsupportedCapability indicates a parser accessor gated by a
	// capability flag the parser does not declare.
	ErrorTypeUnsupportedCapability ErrorType = "unsupported_capability"
	// ErrorTypeIncompatibleParser indicates a parser whose type or
	// capabilities do not match what an ingestion operation requires.
	ErrorTypeIncompatibleParser ErrorType = "incompatible_parser"
	// ErrorTypeNotAPath indicates a path accessor on a record that carries
	// an in-memory image rather than a file path.
	ErrorTypeNotAPath ErrorType = "not_a_path"

	// ErrorTypeInternal represents internal system errors.
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeNotFound represents resource not found errors.
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeConflict represents uniqueness conflicts at the store.
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeConnection represents store connection errors.
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeConfig represents configuration errors.
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeData represents data decoding/processing errors.
	ErrorTypeData ErrorType = "data"
	// ErrorTypeFile represents file operation errors.
	ErrorTypeFile ErrorType = "file"
)

// Error represents a structured error with context.
//
// Fields:
//   - Type: Categorizes the error for handling strategies
//   - Message: Human-readable error description
//   - Cause: The underlying error that caused this error
//   - Details: Key-value pairs providing additional context
//   - Stack: Call stack at the point of error creation
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface, returning a formatted error message
// that includes the error type, message, and cause (if present).
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error, enabling compatibility with errors.Is
// and errors.As for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. This method can be
// chained for adding multiple details.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message, automatically
// capturing the call stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context, preserving the
// original error as the cause. If the error is already a structured Error,
// its stack trace is preserved. Returns nil if the input error is nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	return Wrap(err, errType, fmt.Sprintf(format, args...))
}

// IsType checks if the error is of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal if err is not a
// structured Error.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// captureStack captures the current call stack up to maxFrames deep,
// skipping the specified number of frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}

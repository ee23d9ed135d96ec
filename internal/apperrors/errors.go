// Package apperrors provides structured application errors with HTTP status mapping.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for classification via errors.Is().
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")

	// ErrEngineUnavailable marks probe failures: the container engine itself
	// was unreachable, as opposed to the run failing.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrImagePull marks failures reported while pulling an image.
	ErrImagePull = errors.New("image pull failed")

	// ErrExecution marks failures reported from inside the container's
	// command, as opposed to failures orchestrating the container.
	ErrExecution = errors.New("execution failed")
)

// Error provides structured error with context.
type Error struct {
	Sentinel error  // Wrapped sentinel for errors.Is() classification
	Message  string // Human-readable message
	Field    string // For validation errors (e.g., "image", "inputDir")
	Resource string // For not found/conflict (e.g., "run")
	Op       string // Operation that failed (e.g., "engine.run")
	Cause    error  // Underlying error
}

// Error returns the human-readable error message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the sentinel error for errors.Is() classification.
func (e *Error) Unwrap() error {
	return e.Sentinel
}

// Validation creates a validation error for a specific field.
func Validation(field, message string) error {
	return &Error{
		Sentinel: ErrValidation,
		Message:  message,
		Field:    field,
	}
}

// NotFound creates a not found error for a resource.
func NotFound(resource, id string) error {
	return &Error{
		Sentinel: ErrNotFound,
		Message:  fmt.Sprintf("%s %s not found", resource, id),
		Resource: resource,
	}
}

// Conflict creates a conflict error for a resource.
func Conflict(resource, id, reason string) error {
	return &Error{
		Sentinel: ErrConflict,
		Message:  reason,
		Resource: resource,
	}
}

// Internal creates an internal error wrapping an underlying cause.
func Internal(op string, cause error) error {
	return &Error{
		Sentinel: ErrInternal,
		Message:  fmt.Sprintf("%s: %v", op, cause),
		Op:       op,
		Cause:    cause,
	}
}

// EngineUnavailable creates an error for a failed engine liveness probe.
// The message identifies the engine as the failing party so operators can
// tell it apart from a failed run.
func EngineUnavailable(cause error) error {
	return &Error{
		Sentinel: ErrEngineUnavailable,
		Message:  fmt.Sprintf("container engine unreachable: %v", cause),
		Op:       "engine.ping",
		Cause:    cause,
	}
}

// ImagePull creates an error for a failed image pull.
func ImagePull(image string, cause error) error {
	return &Error{
		Sentinel: ErrImagePull,
		Message:  fmt.Sprintf("failed to pull image %s: %v", image, cause),
		Op:       "engine.pull",
		Cause:    cause,
	}
}

// Execution creates an error for a failure reported from inside the
// container. The reported text is surfaced verbatim.
func Execution(message string) error {
	return &Error{
		Sentinel: ErrExecution,
		Message:  message,
		Op:       "engine.run",
	}
}

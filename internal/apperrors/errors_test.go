package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestValidation(t *testing.T) {
	t.Parallel()
	err := Validation("image", "image is required")

	if !errors.Is(err, ErrValidation) {
		t.Error("expected error to match ErrValidation")
	}
	if err.Error() != "image is required" {
		t.Errorf("expected message 'image is required', got %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Field != "image" {
		t.Errorf("expected field 'image', got %q", appErr.Field)
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()
	err := NotFound("run", "abc123")

	if !errors.Is(err, ErrNotFound) {
		t.Error("expected error to match ErrNotFound")
	}
	if err.Error() != "run abc123 not found" {
		t.Errorf("expected message 'run abc123 not found', got %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Resource != "run" {
		t.Errorf("expected resource 'run', got %q", appErr.Resource)
	}
}

func TestConflict(t *testing.T) {
	t.Parallel()
	err := Conflict("run", "abc123", "run already exists")

	if !errors.Is(err, ErrConflict) {
		t.Error("expected error to match ErrConflict")
	}
	if err.Error() != "run already exists" {
		t.Errorf("expected message 'run already exists', got %q", err.Error())
	}
}

func TestInternal(t *testing.T) {
	t.Parallel()
	cause := fmt.Errorf("connection refused")
	err := Internal("engine.run", cause)

	if !errors.Is(err, ErrInternal) {
		t.Error("expected error to match ErrInternal")
	}
	if err.Error() != "engine.run: connection refused" {
		t.Errorf("unexpected message %q", err.Error())
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected error to be *Error")
	}
	if appErr.Op != "engine.run" {
		t.Errorf("expected op 'engine.run', got %q", appErr.Op)
	}
	if appErr.Cause != cause {
		t.Error("expected cause to be preserved")
	}
}

func TestEngineUnavailable(t *testing.T) {
	t.Parallel()
	cause := fmt.Errorf("a docker error")
	err := EngineUnavailable(cause)

	if !errors.Is(err, ErrEngineUnavailable) {
		t.Error("expected error to match ErrEngineUnavailable")
	}
	if err.Error() != "container engine unreachable: a docker error" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestImagePull(t *testing.T) {
	t.Parallel()
	err := ImagePull("org/image", fmt.Errorf("manifest unknown"))

	if !errors.Is(err, ErrImagePull) {
		t.Error("expected error to match ErrImagePull")
	}
	if err.Error() != "failed to pull image org/image: manifest unknown" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestExecution(t *testing.T) {
	t.Parallel()
	err := Execution("boom")

	if !errors.Is(err, ErrExecution) {
		t.Error("expected error to match ErrExecution")
	}
	// The in-container error text must come through verbatim.
	if err.Error() != "boom" {
		t.Errorf("expected message 'boom', got %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("image", "image is required"), http.StatusBadRequest},
		{"not found", NotFound("run", "x"), http.StatusNotFound},
		{"conflict", Conflict("run", "x", "exists"), http.StatusConflict},
		{"engine unavailable", EngineUnavailable(fmt.Errorf("down")), http.StatusServiceUnavailable},
		{"internal", Internal("engine.run", fmt.Errorf("boom")), http.StatusInternalServerError},
		{"execution", Execution("boom"), http.StatusInternalServerError},
		{"plain error", fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, got)
			}
		})
	}
}

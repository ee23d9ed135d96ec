package run

import (
	"io"

	"runbox/internal/engine"
)

// Request describes one containerized command execution.
type Request struct {
	ID        string             `json:"id,omitempty"`
	Image     string             `json:"image"`
	Args      []string           `json:"args"`
	InputDir  string             `json:"inputDir"`
	OutputDir string             `json:"outputDir"`
	Pull      engine.PullOptions `json:"pull,omitzero"`

	// LogSink receives the container's combined output. Nil means stdout.
	// Not part of the wire format; the service substitutes its own buffer.
	LogSink io.Writer `json:"-"`
}

// Result is the terminal state of a successful execution.
type Result struct {
	ExitCode int `json:"exitCode"`
}

// Response represents the response when a run is accepted.
type Response struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "accepted"
}

// Status represents the current status of a run.
type Status struct {
	ID       string `json:"id"`
	State    string `json:"status"`
	ExitCode *int   `json:"exitCode,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ListResponse represents the response for listing runs.
type ListResponse struct {
	Runs []Status `json:"runs"`
}

// State constants
const (
	StateAccepted  = "accepted"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

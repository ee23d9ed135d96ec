// Package engine defines the container engine capability used by the run
// orchestrator. Implementations handle all direct communication with a
// container engine: liveness probing, image pulls, and container runs.
package engine

import (
	"context"
	"io"
)

// Engine is the injected engine client collaborator. Implementations must be
// safe for concurrent use by independent invocations.
type Engine interface {
	// Ping verifies the engine is reachable and responsive.
	Ping(ctx context.Context) error

	// Pull ensures the named image is available locally, returning once the
	// engine reports the pull as fully complete or failed.
	Pull(ctx context.Context, image string, opts PullOptions) error

	// Run starts a container from image with the given argument sequence and
	// configuration, streams its combined output to sink, and blocks until
	// the container has exited.
	//
	// The returned error covers failures orchestrating the run itself
	// (creation, start, wait). An error reported by the engine as occurring
	// inside the container is carried in RunResult.Err instead.
	Run(ctx context.Context, image string, args []string, sink io.Writer, cfg RunConfig) (RunResult, error)
}

// PullOptions is a pass-through configuration surface for image pulls.
// The zero value requests a plain pull.
type PullOptions struct {
	RegistryAuth string `json:"registryAuth,omitempty"` // base64-encoded registry credentials
	Platform     string `json:"platform,omitempty"`     // e.g. "linux/amd64"
}

// RunConfig holds the derived per-invocation container configuration.
type RunConfig struct {
	Binds       []string // host-path:container-path bind mounts
	MountPoints []string // container paths always declared as mount points
	User        string   // "uid:gid" run identity, empty to use the engine default
	Env         []string // KEY=VALUE environment entries
}

// RunResult is the terminal state the engine reports for a completed run.
type RunResult struct {
	ExitCode int
	Err      error // error reported from inside the container, if any
}

// Package run implements the orchestration policy for containerized command
// execution: derive the run configuration from a request, drive the engine
// through probe, pull, and run, and map the terminal container state to a
// single outcome.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"runbox/internal/apperrors"
	"runbox/internal/engine"
	"runbox/internal/observability"
)

// Fixed in-container paths the executed command can rely on unconditionally.
const (
	ContainerInputPath  = "/input"
	ContainerOutputPath = "/output"
)

// Executor executes one run to completion.
type Executor interface {
	Execute(ctx context.Context, req *Request) (*Result, error)
}

// Runner orchestrates a single containerized execution against an injected
// engine. It is stateless between invocations and safe for concurrent use.
type Runner struct {
	engine   engine.Engine
	identity IdentityProvider
	metrics  *observability.Metrics
}

// NewRunner creates a runner. A nil identity provider defaults to the host
// process identity; metrics are optional.
func NewRunner(eng engine.Engine, identity IdentityProvider, metrics *observability.Metrics) *Runner {
	if identity == nil {
		identity = HostIdentity{}
	}
	return &Runner{
		engine:   eng,
		identity: identity,
		metrics:  metrics,
	}
}

// Execute runs the request's command in an ephemeral container and blocks
// until it has exited. The phases are strictly sequential: engine probe,
// image pull, run configuration derivation, container run. Each failure kind
// carries a message that identifies its source; no retries happen here.
func (r *Runner) Execute(ctx context.Context, req *Request) (*Result, error) {
	logger := slog.With("runId", req.ID, "image", req.Image)

	if err := r.engine.Ping(ctx); err != nil {
		return nil, apperrors.EngineUnavailable(err)
	}

	pullStart := time.Now()
	if err := r.engine.Pull(ctx, req.Image, req.Pull); err != nil {
		r.recordPull(ctx, req.Image, false, time.Since(pullStart))
		return nil, apperrors.ImagePull(req.Image, err)
	}
	r.recordPull(ctx, req.Image, true, time.Since(pullStart))

	cfg, err := r.buildRunConfig(req)
	if err != nil {
		return nil, err
	}

	sink := req.LogSink
	if sink == nil {
		sink = os.Stdout
	}

	logger.Info("Starting container", "binds", cfg.Binds, "user", cfg.User)

	runStart := time.Now()
	result, err := r.engine.Run(ctx, req.Image, req.Args, sink, cfg)
	if err != nil {
		r.recordRun(ctx, req.Image, false, time.Since(runStart))
		return nil, apperrors.Internal("engine.run", err)
	}

	if result.Err != nil {
		// Failure inside the container's command; surface the engine-reported
		// text verbatim so operators can diagnose the command itself.
		r.recordRun(ctx, req.Image, false, time.Since(runStart))
		return nil, apperrors.Execution(result.Err.Error())
	}

	// A non-zero exit code without an engine-reported error is not treated as
	// failure; the exit code is handed back to the caller as-is.
	r.recordRun(ctx, req.Image, true, time.Since(runStart))
	logger.Info("Container exited", "exitCode", result.ExitCode)

	return &Result{ExitCode: result.ExitCode}, nil
}

// buildRunConfig derives binds, mount points, and identity from the request.
// Host directories are resolved to their symlink-free absolute paths before
// being bound; they must already exist and are never created here.
func (r *Runner) buildRunConfig(req *Request) (engine.RunConfig, error) {
	inputDir, err := resolveDir("inputDir", req.InputDir)
	if err != nil {
		return engine.RunConfig{}, err
	}
	outputDir, err := resolveDir("outputDir", req.OutputDir)
	if err != nil {
		return engine.RunConfig{}, err
	}

	cfg := engine.RunConfig{
		Binds: []string{
			inputDir + ":" + ContainerInputPath,
			outputDir + ":" + ContainerOutputPath,
		},
		// Declared unconditionally so the container filesystem always
		// exposes both paths.
		MountPoints: []string{ContainerInputPath, ContainerOutputPath},
	}

	if id, ok := r.identity.Identity(); ok {
		cfg.User = id
	}

	return cfg, nil
}

// resolveDir resolves a host directory to its real absolute path.
func resolveDir(field, dir string) (string, error) {
	if dir == "" {
		return "", apperrors.Validation(field, fmt.Sprintf("%s is required", field))
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", apperrors.Validation(field, fmt.Sprintf("invalid %s %q: %v", field, dir, err))
	}

	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", apperrors.Validation(field, fmt.Sprintf("cannot resolve %s %q: %v", field, dir, err))
	}

	info, err := os.Stat(real)
	if err != nil {
		return "", apperrors.Validation(field, fmt.Sprintf("cannot access %s %q: %v", field, dir, err))
	}
	if !info.IsDir() {
		return "", apperrors.Validation(field, fmt.Sprintf("%s %q is not a directory", field, dir))
	}

	return real, nil
}

func (r *Runner) recordPull(ctx context.Context, image string, success bool, d time.Duration) {
	if r.metrics != nil {
		r.metrics.RecordPull(ctx, image, success, d.Seconds())
	}
}

func (r *Runner) recordRun(ctx context.Context, image string, success bool, d time.Duration) {
	if r.metrics != nil {
		r.metrics.RecordRunCompleted(ctx, image, success, d.Seconds())
	}
}

// Verify Runner implements Executor
var _ Executor = (*Runner)(nil)

package run

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"runbox/internal/apperrors"
	"runbox/internal/observability"
)

// Validation limits
const (
	maxRunIDLength = 128
	maxArgs        = 1024
)

// runIDPattern allows alphanumeric, hyphens, and underscores
var runIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ServiceConfig holds configuration for the run service.
type ServiceConfig struct {
	MaxConcurrent int           // cap on simultaneously executing runs (default 8)
	Retention     time.Duration // how long to keep finished run records (default 15m)
	SweepInterval time.Duration // how often to prune expired records (default 1m)
}

// withDefaults fills in zero values with defaults.
func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 8
	}
	if c.Retention <= 0 {
		c.Retention = 15 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = time.Minute
	}
	return c
}

// Service accepts run submissions, executes them asynchronously through an
// Executor, and tracks per-run state and logs until the retention period
// expires. All state lives in memory; the executor itself is stateless.
type Service struct {
	executor Executor
	metrics  *observability.Metrics
	state    *stateRepo
	slots    chan struct{}

	cancelSweep context.CancelFunc
	wg          sync.WaitGroup
}

// NewService creates a run service and starts its retention sweeper.
func NewService(executor Executor, metrics *observability.Metrics, cfg ServiceConfig) *Service {
	cfg = cfg.withDefaults()

	s := &Service{
		executor: executor,
		metrics:  metrics,
		state:    newStateRepo(),
		slots:    make(chan struct{}, cfg.MaxConcurrent),
	}

	sweepCtx, cancel := context.WithCancel(context.Background())
	s.cancelSweep = cancel
	go s.runSweeper(sweepCtx, cfg.SweepInterval, cfg.Retention)

	return s
}

// Submit validates a request and starts executing it in the background.
// The returned response carries the run's ID (generated when absent).
func (s *Service) Submit(ctx context.Context, req *Request) (*Response, error) {
	applyDefaults(req)
	if err := validate(req); err != nil {
		return nil, err
	}

	select {
	case s.slots <- struct{}{}:
	default:
		return nil, apperrors.Conflict("run", req.ID, "too many concurrent runs")
	}

	logs := NewLogBuffer()
	if err := s.state.reserve(req.ID, logs); err != nil {
		<-s.slots
		return nil, err
	}
	req.LogSink = logs

	if s.metrics != nil {
		s.metrics.RecordRunCreated(ctx, req.Image)
	}

	slog.Info("Run accepted", "runId", req.ID, "image", req.Image)

	s.wg.Add(1)
	go s.execute(req, logs)

	return &Response{ID: req.ID, Status: StateAccepted}, nil
}

// execute drives one run to completion and records its terminal state.
// It runs detached from the submitting request's context.
func (s *Service) execute(req *Request, logs *LogBuffer) {
	defer s.wg.Done()
	defer func() { <-s.slots }()
	if s.metrics != nil {
		defer s.metrics.RecordRunDone(context.Background(), req.Image)
	}

	logger := slog.With("runId", req.ID, "image", req.Image)
	s.state.markRunning(req.ID)

	result, err := s.executor.Execute(context.Background(), req)
	logs.Close()

	if err != nil {
		s.state.finish(req.ID, nil, err.Error())
		logger.Error("Run failed", "error", err)
		return
	}

	exitCode := result.ExitCode
	s.state.finish(req.ID, &exitCode, "")
	logger.Info("Run finished", "exitCode", exitCode)
}

// Get returns the status of a run.
func (s *Service) Get(ctx context.Context, runID string) (*Status, error) {
	status, exists := s.state.status(runID)
	if !exists {
		return nil, apperrors.NotFound("run", runID)
	}
	return status, nil
}

// List returns all tracked runs and their statuses.
func (s *Service) List(ctx context.Context) (*ListResponse, error) {
	return &ListResponse{Runs: s.state.list()}, nil
}

// Logs returns the log buffer for a run, for replay and live following.
func (s *Service) Logs(ctx context.Context, runID string) (*LogBuffer, error) {
	logs, exists := s.state.logsOf(runID)
	if !exists {
		return nil, apperrors.NotFound("run", runID)
	}
	return logs, nil
}

// Close stops the retention sweeper and waits for in-flight runs to finish.
func (s *Service) Close() {
	s.cancelSweep()
	s.wg.Wait()
}

// runSweeper periodically prunes finished runs past the retention period.
func (s *Service) runSweeper(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired := s.state.expired(retention)
			for _, id := range expired {
				s.state.release(id)
			}
			if len(expired) > 0 {
				slog.Debug("Pruned expired runs", "count", len(expired))
			}
		}
	}
}

// applyDefaults sets default values for unspecified request fields.
func applyDefaults(req *Request) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
}

// validate checks a run request. Does not modify the request. Directory
// existence is re-verified with symlink resolution at execution time; the
// check here gives submitters fast feedback.
func validate(req *Request) error {
	if len(req.ID) > maxRunIDLength {
		return apperrors.Validation("id", fmt.Sprintf("run ID exceeds maximum length of %d", maxRunIDLength))
	}
	if !runIDPattern.MatchString(req.ID) {
		return apperrors.Validation("id", "run ID must be alphanumeric (hyphens and underscores allowed, cannot start with hyphen/underscore)")
	}

	if req.Image == "" {
		return apperrors.Validation("image", "image is required")
	}

	if len(req.Args) > maxArgs {
		return apperrors.Validation("args", fmt.Sprintf("args exceed maximum of %d entries", maxArgs))
	}

	for _, dir := range []struct{ field, path string }{
		{"inputDir", req.InputDir},
		{"outputDir", req.OutputDir},
	} {
		if dir.path == "" {
			return apperrors.Validation(dir.field, fmt.Sprintf("%s is required", dir.field))
		}
		info, err := os.Stat(dir.path)
		if err != nil {
			return apperrors.Validation(dir.field, fmt.Sprintf("cannot access %s %q: %v", dir.field, dir.path, err))
		}
		if !info.IsDir() {
			return apperrors.Validation(dir.field, fmt.Sprintf("%s %q is not a directory", dir.field, dir.path))
		}
	}

	return nil
}

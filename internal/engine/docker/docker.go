// Package docker implements the engine.Engine interface using the Docker API.
// Containers run directly on the host Docker daemon and are removed after
// they exit.
package docker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"runbox/internal/engine"
	"runbox/pkg/backoff"
)

// Client wraps the Docker SDK client as an engine.Engine.
type Client struct {
	cli *client.Client
}

// New creates a Docker engine client from the standard environment
// (DOCKER_HOST etc.) with API version negotiation.
func New() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &Client{cli: cli}, nil
}

// Ping checks if the Docker daemon is reachable and responsive.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.cli.Ping(ctx)
	return err
}

// pullAttempts bounds registry pull retries for transient failures.
const pullAttempts = 3

// Pull ensures the image is available locally. Images already present are not
// re-pulled. The pull progress stream is drained to completion; a stream
// error fails the pull. Failed pulls are retried with exponential backoff.
func (c *Client) Pull(ctx context.Context, imageName string, opts engine.PullOptions) error {
	if _, err := c.cli.ImageInspect(ctx, imageName); err == nil {
		return nil
	}

	var lastErr error
	for attempt := 1; attempt <= pullAttempts; attempt++ {
		if attempt > 1 {
			slog.Debug("Retrying image pull", "image", imageName, "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff.Exponential(attempt-1, nil)):
			}
		}

		lastErr = c.pullOnce(ctx, imageName, opts)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) pullOnce(ctx context.Context, imageName string, opts engine.PullOptions) error {
	reader, err := c.cli.ImagePull(ctx, imageName, image.PullOptions{
		RegistryAuth: opts.RegistryAuth,
		Platform:     opts.Platform,
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	_, err = io.Copy(io.Discard, reader)
	return err
}

// Run creates and starts a container, copies its combined output to sink, and
// blocks until it exits. The container is removed afterwards regardless of
// outcome.
func (c *Client) Run(ctx context.Context, imageName string, args []string, sink io.Writer, cfg engine.RunConfig) (engine.RunResult, error) {
	mountPoints := make(map[string]struct{}, len(cfg.MountPoints))
	for _, p := range cfg.MountPoints {
		mountPoints[p] = struct{}{}
	}

	containerConfig := &container.Config{
		Image:   imageName,
		Cmd:     args,
		Env:     cfg.Env,
		User:    cfg.User,
		Volumes: mountPoints,
		Labels: map[string]string{
			"managed-by": "runbox",
		},
	}

	hostConfig := &container.HostConfig{
		Binds: cfg.Binds,
	}

	resp, err := c.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return engine.RunResult{}, fmt.Errorf("failed to create container: %w", err)
	}
	defer c.remove(resp.ID)

	if err := c.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return engine.RunResult{}, fmt.Errorf("failed to start container: %w", err)
	}

	// Stream logs concurrently; the reader hits EOF once the container exits.
	logDone := make(chan struct{})
	go func() {
		defer close(logDone)
		c.copyLogs(ctx, resp.ID, sink)
	}()

	exitCode, runErr, waitErr := c.waitForExit(ctx, resp.ID)
	<-logDone
	if waitErr != nil {
		return engine.RunResult{}, waitErr
	}

	return engine.RunResult{ExitCode: exitCode, Err: runErr}, nil
}

// Close releases the underlying Docker client.
func (c *Client) Close() error {
	return c.cli.Close()
}

// waitForExit blocks until the container stops. It returns the exit code, the
// error the engine reported for the containerized command (if any), and any
// error encountered waiting itself.
func (c *Client) waitForExit(ctx context.Context, containerID string) (int, error, error) {
	statusCh, errCh := c.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)

	select {
	case <-ctx.Done():
		return -1, nil, ctx.Err()
	case err := <-errCh:
		return -1, nil, err
	case status := <-statusCh:
		if status.Error != nil {
			return int(status.StatusCode), fmt.Errorf("%s", status.Error.Message), nil
		}
		return int(status.StatusCode), nil, nil
	}
}

// copyLogs follows the container's combined output and demultiplexes it into
// sink until the stream ends.
func (c *Client) copyLogs(ctx context.Context, containerID string, sink io.Writer) {
	logs, err := c.cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		slog.Error("Failed to get container logs", "containerId", containerID, "error", err)
		return
	}
	defer logs.Close()

	if err := demuxLogs(logs, sink); err != nil && ctx.Err() == nil {
		slog.Debug("Log stream ended", "containerId", containerID, "error", err)
	}
}

// demuxLogs decodes Docker's multiplexed log stream, writing raw payload
// bytes to sink. Each frame carries an 8-byte header whose last four bytes
// hold the big-endian payload size.
func demuxLogs(r io.Reader, sink io.Writer) error {
	header := make([]byte, 8)

	for {
		if _, err := io.ReadFull(r, header); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		size := int(header[4])<<24 | int(header[5])<<16 | int(header[6])<<8 | int(header[7])
		if size == 0 {
			continue
		}

		if _, err := io.CopyN(sink, r, int64(size)); err != nil {
			return err
		}
	}
}

func (c *Client) remove(containerID string) {
	// Detached context: removal should proceed even if the caller's context
	// was cancelled mid-run.
	if err := c.cli.ContainerRemove(context.Background(), containerID, container.RemoveOptions{Force: true}); err != nil {
		slog.Warn("Failed to remove container", "containerId", containerID, "error", err)
	}
}

// Verify Client implements engine.Engine
var _ engine.Engine = (*Client)(nil)

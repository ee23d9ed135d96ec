// runbox runs a single command inside an ephemeral container, with a host
// input directory mounted read-visible at /input and a host output
// directory at /output. Container output streams to stdout; the process
// exits with the container's exit code.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runbox/internal/engine"
	"runbox/internal/engine/docker"
	"runbox/internal/run"
	"syscall"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	var (
		image    = flag.String("image", "", "container image to run (required)")
		inputDir = flag.String("input", "", "host directory mounted at /input (required)")
		output   = flag.String("output", "", "host directory mounted at /output (required)")
		platform = flag.String("platform", "", "platform to pull for, e.g. linux/amd64")
		verbose  = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] -- command [args...]\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if *image == "" || *inputDir == "" || *output == "" {
		flag.Usage()
		return 2
	}
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "a command to run is required")
		flag.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := docker.New()
	if err != nil {
		slog.Error("Failed to create engine client", "error", err)
		return 1
	}
	defer eng.Close()

	runner := run.NewRunner(eng, run.HostIdentity{}, nil)

	result, err := runner.Execute(ctx, &run.Request{
		Image:     *image,
		Args:      args,
		InputDir:  *inputDir,
		OutputDir: *output,
		Pull:      engine.PullOptions{Platform: *platform},
		LogSink:   os.Stdout,
	})
	if err != nil {
		slog.Error("Run failed", "error", err)
		return 1
	}

	if result.ExitCode != 0 {
		slog.Debug("Command exited non-zero", "exitCode", result.ExitCode)
	}
	return result.ExitCode
}

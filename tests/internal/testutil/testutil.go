//go:build integration

// Package testutil provides shared helpers for integration test packages.
package testutil

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/giantswarm/cmdtee"
)

// nameCounter is an atomic counter used by UniqueName to generate marker
// strings that are unique across parallel test goroutines.
var nameCounter atomic.Int64

// UniqueName returns a marker string that is unique across all parallel
// tests. Use it wherever a test needs to recognize its own output.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, nameCounter.Add(1))
}

// RunShell executes script with sh -c on the given runner and fails the test
// when the run itself errors. A non-zero child exit is returned in the
// Result, not treated as a failure.
func RunShell(ctx context.Context, t *testing.T, r cmdtee.Runner, script string) cmdtee.Result {
	t.Helper()

	res, err := r.Run(ctx, cmdtee.Command{Argv: []string{"sh", "-c", script}})
	if err != nil {
		t.Fatalf("run %q: %v", script, err)
	}

	return res
}

// SetupTestLogging configures slog based on the CMDTEE_LOG_LEVEL environment
// variable. This only affects test runs; the library itself inherits the
// application's logging config.
func SetupTestLogging() {
	levelStr := os.Getenv("CMDTEE_LOG_LEVEL")
	if levelStr == "" {
		levelStr = "INFO"
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	cmdtee.SetLogger(slog.Default().With("component", "cmdtee"))
}

// RequireShellOrExit checks that sh is available, exiting the process if
// not. This is used in TestMain where *testing.T is not available.
func RequireShellOrExit() {
	if _, err := exec.LookPath("sh"); err != nil {
		fmt.Fprintln(os.Stderr, "sh binary not found in PATH; the integration suite needs a POSIX shell")
		os.Exit(1)
	}
}

// RunTestMain sets up signal handling for graceful shutdown, runs all tests,
// then performs cleanup (runner close + temp dir removal). Returns the exit
// code.
func RunTestMain(m *testing.M, r cmdtee.Runner, tmpDir string) int {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			signal.Stop(sigCh) // Restore default handler so a second signal force-kills
			fmt.Fprintf(os.Stderr, "\nReceived %s, shutting down...\n", sig)
			if err := r.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Close error: %v\n", err)
			}
			_ = os.RemoveAll(tmpDir)
			os.Exit(1)
		case <-done:
			return
		}
	}()

	code := m.Run()

	signal.Stop(sigCh)
	close(done)
	if err := r.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Close error: %v\n", err)
	}
	_ = os.RemoveAll(tmpDir)

	return code
}

// SetupAndRun handles the standard TestMain boilerplate: flag parsing,
// logging setup, shell check, temp dir creation, runner creation with the
// base directory and discarded mirrors prepended, test execution, and
// cleanup. The created runner is assigned to *r so tests can reference it.
// This function calls os.Exit and never returns.
//
//nolint:gocritic // ptrToRefParam: pointer-to-interface needed to assign the created runner back to the caller's variable.
func SetupAndRun(m *testing.M, r *cmdtee.Runner, prefix string, opts ...cmdtee.Option) {
	SetupAndRunWithHook(m, r, prefix, nil, opts...)
}

// SetupHook is called after temp dir creation, allowing custom setup that
// depends on the temp dir path. It returns additional runner options.
type SetupHook func(tmpDir string) ([]cmdtee.Option, error)

// SetupAndRunWithHook is like SetupAndRun but calls hook after temp dir
// creation, prepending the returned options before opts.
//
//nolint:gocritic // ptrToRefParam: pointer-to-interface needed to assign the created runner back to the caller's variable.
func SetupAndRunWithHook(m *testing.M, r *cmdtee.Runner, prefix string, hook SetupHook, opts ...cmdtee.Option) {
	flag.Parse()
	SetupTestLogging()
	RequireShellOrExit()

	tmpDir, err := os.MkdirTemp("", prefix)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	baseOpts := []cmdtee.Option{
		cmdtee.WithBaseDir(tmpDir),
		cmdtee.WithStdout(io.Discard),
		cmdtee.WithStderr(io.Discard),
	}

	if hook != nil {
		extra, hookErr := hook(tmpDir)
		if hookErr != nil {
			fmt.Fprintf(os.Stderr, "setup hook failed: %v\n", hookErr)
			os.Exit(1)
		}

		baseOpts = append(baseOpts, extra...)
	}

	baseOpts = append(baseOpts, opts...)

	created := cmdtee.New(baseOpts...)
	*r = created

	os.Exit(RunTestMain(m, created, tmpDir))
}

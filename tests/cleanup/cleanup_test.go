//go:build integration

package cmdtee_cleanup_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/giantswarm/cmdtee"
)

// The tests in this package run serially against one base directory so they
// can assert on the exact disk state between runs.

// assertNoRunDirs fails the test when any per-run sink directory is still
// present under the base directory.
func assertNoRunDirs(t *testing.T) {
	t.Helper()

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		t.Fatalf("read base dir: %v", err)
	}
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "run-") {
			t.Errorf("leftover run directory %s", e.Name())
		}
	}
}

// TestSuccessfulRunLeavesNoSinkDirectories verifies the happy-path cleanup.
func TestSuccessfulRunLeavesNoSinkDirectories(t *testing.T) {
	if _, err := sharedRunner.Run(context.Background(), cmdtee.Command{
		Argv: []string{"echo", "ok"},
	}); err != nil {
		t.Fatalf("run: %v", err)
	}

	assertNoRunDirs(t)
}

// TestFailingRunLeavesNoSinkDirectories verifies cleanup when the child
// exits non-zero.
func TestFailingRunLeavesNoSinkDirectories(t *testing.T) {
	res, err := sharedRunner.Run(context.Background(), cmdtee.Command{
		Argv: []string{"sh", "-c", "exit 5"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 5 {
		t.Fatalf("exit code = %d, want 5", res.ExitCode)
	}

	assertNoRunDirs(t)
}

// TestTimedOutRunLeavesNoSinkDirectories verifies cleanup on the timeout
// path, where the result is discarded.
func TestTimedOutRunLeavesNoSinkDirectories(t *testing.T) {
	_, err := sharedRunner.Run(context.Background(), cmdtee.Command{
		Argv:    []string{"sleep", "60"},
		Timeout: 300 * time.Millisecond,
	})
	if !errors.Is(err, cmdtee.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}

	assertNoRunDirs(t)
}

// TestSpawnFailureLeavesNoSinkDirectories verifies cleanup when the child
// never starts.
func TestSpawnFailureLeavesNoSinkDirectories(t *testing.T) {
	_, err := sharedRunner.Run(context.Background(), cmdtee.Command{
		Argv: []string{"definitely-not-a-real-binary-9c2e"},
	})
	if !errors.Is(err, cmdtee.ErrSpawn) {
		t.Fatalf("err = %v, want ErrSpawn", err)
	}

	assertNoRunDirs(t)
}

// TestPurgeFindsNothingAfterCleanRuns verifies that finished runs leave no
// journal entries or directories for purge to reclaim.
func TestPurgeFindsNothingAfterCleanRuns(t *testing.T) {
	for range 3 {
		if _, err := sharedRunner.Run(context.Background(), cmdtee.Command{
			Argv: []string{"echo", "clean"},
		}); err != nil {
			t.Fatalf("run: %v", err)
		}
	}

	removed, err := sharedRunner.Purge(context.Background())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0 after clean runs", removed)
	}
}

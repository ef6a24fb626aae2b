//go:build integration

package cmdtee_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/giantswarm/cmdtee"
)

// TestContextCancelKillsChild verifies that canceling the run context
// terminates the child process, not just the drain loop.
func TestContextCancelKillsChild(t *testing.T) {
	t.Parallel()

	pidFile := filepath.Join(t.TempDir(), "pid")
	script := fmt.Sprintf("echo $$ > %s; exec sleep 60", pidFile)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	_, err := sharedRunner.Run(ctx, cmdtee.Command{Argv: []string{"sh", "-c", script}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	data, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("read pid file: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("parse pid: %v", err)
	}

	waitErr := wait.PollUntilContextTimeout(context.Background(), 20*time.Millisecond, 10*time.Second, true,
		func(context.Context) (bool, error) {
			return syscall.Kill(pid, 0) != nil, nil
		})
	if waitErr != nil {
		t.Errorf("child pid %d still alive after cancel: %v", pid, waitErr)
	}
}

// TestPerCommandTimeoutFires verifies the timeout path end to end through
// the public API, including how long the kill takes.
func TestPerCommandTimeoutFires(t *testing.T) {
	t.Parallel()

	start := time.Now()
	_, err := sharedRunner.Run(context.Background(), cmdtee.Command{
		Argv:    []string{"sleep", "60"},
		Timeout: 300 * time.Millisecond,
	})

	if !errors.Is(err, cmdtee.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("timeout took %s to act", elapsed)
	}
}

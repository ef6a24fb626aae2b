//go:build integration

package cmdtee_test

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// commandDeadline is a safety timeout for e2e child commands that wait on
// test-controlled conditions. It only fires when a test is wedged.
const commandDeadline = 30 * time.Second

// safeBuffer is a bytes.Buffer that can be written by the runner goroutine
// and read by the test goroutine at the same time.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// waitForMirror polls until the mirror contains marker, failing the test on
// timeout.
func waitForMirror(t *testing.T, mirror *safeBuffer, marker string) {
	t.Helper()

	err := wait.PollUntilContextTimeout(context.Background(), 10*time.Millisecond, commandDeadline, true,
		func(context.Context) (bool, error) {
			return strings.Contains(mirror.String(), marker), nil
		})
	if err != nil {
		t.Fatalf("marker %q never appeared on the mirror: %v", marker, err)
	}
}

func touchFile(t *testing.T, path string) {
	t.Helper()

	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
}

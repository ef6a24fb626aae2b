package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/giantswarm/cmdtee/internal/sentinel"
)

// ErrInvalidCommand is returned by Run and RunQuiet when the command fails
// validation before any process is spawned.
const ErrInvalidCommand = sentinel.Error("invalid command")

// ErrSpawn is returned when the child process cannot be started. The
// underlying cause (e.g. exec.ErrNotFound) is wrapped alongside it, so both
// errors.Is(err, ErrSpawn) and errors.Is(err, exec.ErrNotFound) hold.
const ErrSpawn = sentinel.Error("cannot spawn child process")

// ErrTimeout matches TimeoutError values via errors.Is. Use errors.As with
// *TimeoutError to recover the command and the timeout that expired.
const ErrTimeout = sentinel.Error("command timed out")

// TimeoutError reports that a child exceeded its wall-clock timeout and was
// forcibly killed. The output collected up to that point is discarded; the
// zero Result returned alongside holds nothing.
type TimeoutError struct {
	// Command is the argv of the command that timed out.
	Command []string
	// Timeout is the effective wall-clock limit that was exceeded.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("command %q timed out after %s", strings.Join(e.Command, " "), e.Timeout)
}

// Is reports ErrTimeout as a match, so callers can test the failure mode with
// errors.Is(err, ErrTimeout) without naming the struct type.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

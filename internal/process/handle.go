package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/giantswarm/cmdtee/internal/sentinel"
)

// ErrEmptyArgv is returned when Start is called with an empty argument vector
// or an empty program name.
const ErrEmptyArgv = sentinel.Error("argv must not be empty")

// ErrReapTimeout is returned when the wait goroutine does not deliver the
// child's exit status within the allowed bound. SIGKILL cannot be caught, so
// hitting this bound indicates stuck I/O or a kernel-level problem, not a
// slow child.
const ErrReapTimeout = sentinel.Error("timed out waiting for process exit")

// Handle owns a started child process. It exposes non-blocking liveness, a
// broadcast exit channel, forceful termination, and exactly-once collection
// of the exit status.
//
// Handle is not safe for concurrent use. The drain loop that owns it runs in
// a single control flow, so no synchronization is provided.
type Handle struct {
	cmd     *exec.Cmd
	done    <-chan error    // receives the cmd.Wait result; consumed once by Reap
	exited  <-chan struct{} // closed when the child exits; readable by any goroutine
	argv0   string          // program name for error messages
	reaped  bool
	waitErr error
}

// Start spawns argv[0] with the given arguments, working directory, extra
// environment (appended to the parent's), and stdout/stderr redirected to the
// given files. A nil file leaves the corresponding stream discarded.
//
// Exactly one goroutine calling cmd.Wait is started per child, so the wait
// happens once no matter which path later collects the status. Two channels
// are created:
//   - done (buffered 1): receives the Wait error, consumed once by Reap.
//   - exited (closed on exit): broadcast signal readable by any number of
//     goroutines, used for non-blocking liveness checks.
func Start(argv []string, dir string, env []string, stdout, stderr *os.File) (*Handle, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrEmptyArgv
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = dir
	if len(env) > 0 {
		cmd.Env = append(os.Environ(), env...)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	Configure(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}

	done := make(chan error, 1)
	exited := make(chan struct{})
	go func() {
		done <- cmd.Wait()
		close(exited)
	}()

	return &Handle{cmd: cmd, done: done, exited: exited, argv0: argv[0]}, nil
}

// Pid returns the operating system process id of the child.
func (h *Handle) Pid() int {
	return h.cmd.Process.Pid
}

// Alive reports whether the child has not yet exited. It never blocks.
func (h *Handle) Alive() bool {
	select {
	case <-h.exited:
		return false
	default:
		return true
	}
}

// Exited returns a channel that is closed when the child exits. It is safe
// to select on from any number of goroutines.
func (h *Handle) Exited() <-chan struct{} {
	return h.exited
}

// Reap collects the child's exit status from the wait goroutine, blocking at
// most bound. Exit statuses are data, including deaths by signal: they are
// recorded and readable via ExitCode, and Reap returns nil. A non-exit error
// from cmd.Wait (broken plumbing rather than a child outcome) is returned
// wrapped. Reap is idempotent; calls after a successful reap return nil
// immediately.
func (h *Handle) Reap(bound time.Duration) error {
	if h.reaped {
		return nil
	}
	ok, err := drainDone(h.done, bound)
	if !ok {
		return fmt.Errorf("%s: %w", h.argv0, ErrReapTimeout)
	}
	h.reaped = true
	h.waitErr = err

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return fmt.Errorf("wait for %s: %w", h.argv0, err)
	}
	return nil
}

// Kill forcefully terminates the child and blocks until the wait goroutine
// delivers the exit status, bounded by grace. There is no graceful phase:
// the deadline has already been spent by the time Kill is called.
//
// Kill on an already-exited child is a no-op that still reaps.
func (h *Handle) Kill(grace time.Duration) error {
	if h.reaped {
		return nil
	}
	// Kill after the child has exited returns "process already finished",
	// which is harmless; the wait goroutine delivers the status either way.
	_ = h.cmd.Process.Kill()
	return h.Reap(grace)
}

// ExitCode returns the child's exit code. It is meaningful only after Reap
// has succeeded. Children terminated by a signal report -1, matching
// os.ProcessState.
func (h *Handle) ExitCode() int {
	if h.cmd.ProcessState == nil {
		return -1
	}
	return h.cmd.ProcessState.ExitCode()
}

// drainDone reads from the done channel with timeout as a hard upper bound.
// cmd.Wait normally returns almost immediately once the process exits, so
// the timeout is a safety net against indefinite blocking, not an expected
// path. Returns true and the cmd.Wait error if the channel delivered in
// time, or false and a nil error if the timeout elapsed.
func drainDone(done <-chan error, timeout time.Duration) (bool, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case err := <-done:
		return true, err
	case <-t.C:
		return false, nil
	}
}

package core

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// NoTimeout disables the wall-clock deadline. It is valid both as a Config
// default and as a per-command override.
const NoTimeout time.Duration = -1

// Command describes one child process invocation.
type Command struct {
	// Argv is the program and its arguments. Argv[0] is resolved via PATH
	// unless it contains a path separator.
	Argv []string

	// Dir is the child's working directory. Empty means inherit the
	// parent's.
	Dir string

	// Env is appended to the parent's environment. Nil appends nothing.
	Env []string

	// Timeout is the wall-clock limit for this command. Zero means use the
	// runner's default; NoTimeout disables the deadline for this command;
	// any other negative value is a validation error.
	Timeout time.Duration
}

// validate checks the command before any process is spawned. All violations
// are joined and wrapped with ErrInvalidCommand.
func (c Command) validate() error {
	var errs []error

	if len(c.Argv) == 0 {
		errs = append(errs, errors.New("argv must not be empty"))
	} else if c.Argv[0] == "" {
		errs = append(errs, errors.New("argv program name must not be empty"))
	}
	if c.Timeout < 0 && c.Timeout != NoTimeout {
		errs = append(errs, fmt.Errorf("timeout must be positive, zero, or NoTimeout, got %s", c.Timeout))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	return nil
}

// Result is the outcome of a run that reached child exit.
type Result struct {
	// ExitCode is the child's exit status. -1 means the child was
	// terminated by a signal.
	ExitCode int

	// Stdout and Stderr hold the complete captured streams, each in the
	// order the child wrote it. Interleaving across the two streams is not
	// reconstructed.
	Stdout []byte
	Stderr []byte

	// Duration is the wall-clock time from spawn to reap.
	Duration time.Duration
}

// Config holds configuration for Runner instances.
//
// Concurrency contract: all fields are immutable after construction via
// NewRunner. Run, RunQuiet, and Purge read them without synchronization,
// relying on this guarantee.
type Config struct {
	// Timeout is the default wall-clock limit applied to commands that do
	// not set their own. NoTimeout disables the default deadline.
	Timeout time.Duration

	// BaseDir is the directory holding per-run sink directories and the run
	// journal. It is created on first use.
	BaseDir string

	// ChunkSize is the per-stream read size of one drain step. Bounding the
	// step keeps a fast-writing child from starving the deadline check.
	ChunkSize int

	// PollInterval is how long the drain loop sleeps when both sinks read
	// empty while the child is still running. The loop wakes early on child
	// exit or context cancellation.
	PollInterval time.Duration

	// KillGrace bounds how long a forceful kill waits for the child to be
	// reaped before the child is declared unkillable and abandoned.
	KillGrace time.Duration

	// Stdout and Stderr receive the live copy of the child's corresponding
	// stream. A nil writer disables live duplication for that stream;
	// capture is unaffected.
	Stdout io.Writer
	Stderr io.Writer

	// Journal enables recording runs in the on-disk journal so Purge can
	// reclaim sink directories leaked by dead runner processes.
	Journal bool
}

// Validate checks all Config invariants and returns an error describing every
// violation found. It uses errors.Join to report multiple issues at once,
// allowing callers to fix all problems in a single pass rather than playing
// whack-a-mole with one error at a time.
//
// Validate is called by NewRunner, which panics on error, since invalid
// config is a programmer error.
func (c Config) Validate() error {
	var errs []error

	if c.Timeout != NoTimeout && c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be greater than 0 or NoTimeout, got %s", c.Timeout))
	}
	if c.BaseDir == "" {
		errs = append(errs, errors.New("base directory must not be empty"))
	}
	if c.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk size must be greater than 0, got %d", c.ChunkSize))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be greater than 0, got %s", c.PollInterval))
	}
	if c.KillGrace <= 0 {
		errs = append(errs, fmt.Errorf("kill grace must be greater than 0, got %s", c.KillGrace))
	}

	return errors.Join(errs...)
}

package cmdtee

import "context"

// Runner executes child processes with live-duplicated, captured output.
//
// A Runner is safe for concurrent use; any number of runs may be in flight at
// once. Close releases the run journal when the runner is no longer needed.
type Runner interface {
	// Run executes cmd, forwarding its output to the runner's stdout and
	// stderr writers while it runs and returning the complete capture in
	// the Result. The child is killed when cmd's effective timeout expires
	// (the Result is discarded and the error matches ErrTimeout) or when
	// ctx is canceled.
	Run(ctx context.Context, cmd Command) (Result, error)

	// RunQuiet executes cmd and captures its output without forwarding it
	// to the runner's writers. Timeouts and cancellation behave exactly as
	// in Run.
	RunQuiet(ctx context.Context, cmd Command) (Result, error)

	// Purge removes leftover run directories underneath the runner's base
	// directory whose owning process no longer exists, and reports how
	// many were removed. It is safe to call while runs are in flight, also
	// from other processes sharing the base directory.
	Purge(ctx context.Context) (int, error)

	// Close releases the run journal. It does not affect runs that are
	// still in flight, but no new journal entries are recorded afterwards.
	Close() error
}

package cmdtee

import (
	"fmt"
	"io"
	"time"
)

// Option configures a Runner during construction with New.
type Option func(*runnerConfig)

// requirePositive panics when v is not strictly positive. Option misuse is a
// programmer error, so it surfaces at construction time rather than being
// deferred to the first run.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("cmdtee: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics when v is empty.
func requireNonEmpty(name, v string) {
	if v == "" {
		panic(fmt.Sprintf("cmdtee: %s must not be empty", name))
	}
}

// WithTimeout sets the runner-wide wall-clock timeout applied to commands
// that do not carry their own. Pass NoTimeout to leave runs unbounded, which
// is the default.
//
// Panics if d is zero or a negative value other than NoTimeout.
func WithTimeout(d time.Duration) Option {
	if d != NoTimeout && d <= 0 {
		panic(fmt.Sprintf("cmdtee: timeout must be greater than 0 or NoTimeout, got %v", d))
	}

	return func(c *runnerConfig) {
		c.Timeout = d
	}
}

// WithBaseDir sets the directory that holds per-run sink directories (named
// "run-<id>") and the run journal. It is created on first use. The default
// is a directory named DefaultBaseDirName under os.TempDir.
//
// Panics if dir is empty.
func WithBaseDir(dir string) Option {
	requireNonEmpty("base directory", dir)

	return func(c *runnerConfig) {
		c.BaseDir = dir
	}
}

// WithChunkSize sets the maximum number of bytes read from one sink per
// drain step. Larger chunks mean fewer reads for bulky output; smaller
// chunks lower the latency between a child write and its appearance on the
// parent's streams.
//
// Panics if n is not positive.
func WithChunkSize(n int) Option {
	requirePositive("chunk size", n)

	return func(c *runnerConfig) {
		c.ChunkSize = n
	}
}

// WithPollInterval sets the sleep between drain passes that found no new
// output.
//
// Panics if d is not positive.
func WithPollInterval(d time.Duration) Option {
	requirePositive("poll interval", d)

	return func(c *runnerConfig) {
		c.PollInterval = d
	}
}

// WithKillGrace sets how long the runner waits for a killed child to be
// reaped before giving up on it.
//
// Panics if d is not positive.
func WithKillGrace(d time.Duration) Option {
	requirePositive("kill grace", d)

	return func(c *runnerConfig) {
		c.KillGrace = d
	}
}

// WithStdout sets the writer that receives the child's stdout as it appears.
// The default is os.Stdout. A nil writer disables live duplication of
// stdout; the stream is still captured in the Result.
func WithStdout(w io.Writer) Option {
	return func(c *runnerConfig) {
		c.Stdout = w
	}
}

// WithStderr sets the writer that receives the child's stderr as it appears.
// The default is os.Stderr. A nil writer disables live duplication of
// stderr; the stream is still captured in the Result.
func WithStderr(w io.Writer) Option {
	return func(c *runnerConfig) {
		c.Stderr = w
	}
}

// WithoutJournal disables the on-disk run journal. Runs are then invisible
// to Purge's liveness check, so directories leaked by a crashed parent are
// only swept once they age past the orphan threshold.
func WithoutJournal() Option {
	return func(c *runnerConfig) {
		c.Journal = false
	}
}

package cmdtee

import (
	"io"
	"time"
)

// ConfigSnapshot is a copy of the assembled runner configuration, exported
// for tests only so that the external test package can verify option
// application without reaching into internals.
type ConfigSnapshot struct {
	Timeout      time.Duration
	BaseDir      string
	ChunkSize    int
	PollInterval time.Duration
	KillGrace    time.Duration
	Stdout       io.Writer
	Stderr       io.Writer
	Journal      bool
}

// ApplyOptionsForTesting builds the default configuration, applies opts in
// order, and returns a snapshot of the outcome. It does not construct a
// Runner.
func ApplyOptionsForTesting(opts ...Option) ConfigSnapshot {
	cfg := defaultRunnerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return ConfigSnapshot{
		Timeout:      cfg.Timeout,
		BaseDir:      cfg.BaseDir,
		ChunkSize:    cfg.ChunkSize,
		PollInterval: cfg.PollInterval,
		KillGrace:    cfg.KillGrace,
		Stdout:       cfg.Stdout,
		Stderr:       cfg.Stderr,
		Journal:      cfg.Journal,
	}
}

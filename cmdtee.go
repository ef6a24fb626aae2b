package cmdtee

import (
	"context"
	"os"
	"path/filepath"

	"github.com/giantswarm/cmdtee/internal/core"
)

// Compile-time interface satisfaction check.
var _ Runner = (*runnerWrapper)(nil)

// defaultRunnerConfig returns the configuration New starts from before
// options are applied.
func defaultRunnerConfig() runnerConfig {
	return runnerConfig{core.Config{
		Timeout:      DefaultTimeout,
		BaseDir:      filepath.Join(os.TempDir(), DefaultBaseDirName),
		ChunkSize:    DefaultChunkSize,
		PollInterval: DefaultPollInterval,
		KillGrace:    DefaultKillGrace,
		Stdout:       os.Stdout,
		Stderr:       os.Stderr,
		Journal:      true,
	}}
}

// New creates a Runner with the given options. Construction performs no I/O;
// the base directory and the run journal appear on first use. Runners are
// independent, and any number may coexist, even when sharing a base
// directory.
//
// Invalid option values panic. That is a programmer error surfaced at
// construction, similar to regexp.MustCompile with a malformed pattern.
//
//nolint:ireturn // Returns the Runner interface so callers can substitute fakes.
func New(opts ...Option) Runner {
	cfg := defaultRunnerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &runnerWrapper{r: core.NewRunner(cfg.toCoreConfig())}
}

// runnerWrapper adapts core.Runner to the public Runner interface.
//
// The core runner is held in a named unexported field rather than embedded
// so that callers cannot reach internal methods through type assertions.
type runnerWrapper struct {
	r *core.Runner
}

func (w *runnerWrapper) Run(ctx context.Context, cmd Command) (Result, error) {
	return w.r.Run(ctx, cmd)
}

func (w *runnerWrapper) RunQuiet(ctx context.Context, cmd Command) (Result, error) {
	return w.r.RunQuiet(ctx, cmd)
}

func (w *runnerWrapper) Purge(ctx context.Context) (int, error) {
	return w.r.Purge(ctx)
}

func (w *runnerWrapper) Close() error {
	return w.r.Close()
}

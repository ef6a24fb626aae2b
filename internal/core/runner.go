package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/giantswarm/cmdtee/internal/process"
	"github.com/giantswarm/cmdtee/internal/registry"
	"github.com/giantswarm/cmdtee/internal/sink"
)

// Runner executes child processes while duplicating their output. It is safe
// for concurrent use by multiple goroutines: configuration is immutable after
// construction and the run journal is opened once behind a sync.Once.
type Runner struct {
	cfg Config

	// journalOnce guards the lazy open of the run journal. NewRunner performs
	// no I/O; the journal (and the base directory) appear on first use.
	journalOnce sync.Once
	journal     *registry.Registry
}

// NewRunner creates a Runner with the provided configuration. This performs
// no I/O operations.
//
// Panics if cfg.Validate() reports any errors. Invalid configuration is a
// programmer error that should be caught at construction time, similar to
// regexp.MustCompile.
func NewRunner(cfg Config) *Runner {
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("cmdtee: invalid runner config: %v", err))
	}
	return &Runner{cfg: cfg}
}

// Run executes the command with live output duplication. The child's stdout
// and stderr are redirected into file-backed sinks; a single-threaded drain
// loop moves the sink contents to the configured parent streams in bounded
// chunks while accumulating a complete copy, checking the wall-clock deadline
// once per iteration.
//
// On completion the returned Result holds the child's exit code and the full
// captured streams; a non-zero exit code is data, not an error. On deadline
// the child is killed, reaped, and a TimeoutError is returned with a zero
// Result. Sink storage is released on every path.
func (r *Runner) Run(ctx context.Context, cmd Command) (Result, error) {
	if err := cmd.validate(); err != nil {
		return Result{}, err
	}

	log := Logger()
	timeout := r.effectiveTimeout(cmd)
	runID := uuid.NewString()

	pair, err := sink.NewPair(r.cfg.BaseDir, runID)
	if err != nil {
		return Result{}, fmt.Errorf("allocate stream sinks: %w", err)
	}
	defer r.releaseSinks(pair, log)

	started := time.Now()
	h, err := process.Start(cmd.Argv, cmd.Dir, cmd.Env, pair.Stdout().WriteEnd(), pair.Stderr().WriteEnd())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	r.recordRun(ctx, runID, h.Pid(), pair.Dir(), cmd, started, log)
	defer r.forgetRun(runID, log)

	var deadline time.Time
	if timeout != NoTimeout {
		deadline = started.Add(timeout)
	}

	log.Debug("child started", "run", runID, "pid", h.Pid(), "command", cmd.Argv[0], "timeout", timeout)

	out := newDrainer("stdout", pair.Stdout(), r.cfg.Stdout, r.cfg.ChunkSize, log)
	errs := newDrainer("stderr", pair.Stderr(), r.cfg.Stderr, r.cfg.ChunkSize, log)

	// Reused across idle iterations to avoid a per-iteration timer allocation.
	idleTimer := time.NewTimer(r.cfg.PollInterval)
	idleTimer.Stop()
	defer idleTimer.Stop()

	for h.Alive() {
		if ctxErr := ctx.Err(); ctxErr != nil {
			r.killAndReap(h, log)
			return Result{}, fmt.Errorf("run canceled: %w", ctxErr)
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			r.killAndReap(h, log)
			return Result{}, &TimeoutError{Command: cmd.Argv, Timeout: timeout}
		}

		n, err := out.step()
		if err != nil {
			r.killAndReap(h, log)
			return Result{}, err
		}
		m, err := errs.step()
		if err != nil {
			r.killAndReap(h, log)
			return Result{}, err
		}

		// A zero-byte drain on both sinks is normal: the child simply has
		// not written since the last step. Sleep one poll interval, waking
		// early if the child exits or the context is canceled.
		if n == 0 && m == 0 {
			idle(ctx, h.Exited(), idleTimer, r.cfg.PollInterval)
		}
	}

	if err := h.Reap(r.cfg.KillGrace); err != nil {
		return Result{}, fmt.Errorf("wait for %s: %w", cmd.Argv[0], err)
	}

	// Final drain: the liveness check and the drain are separate operations,
	// so the child can write between the last in-loop step and its exit. One
	// unconditional pass to end-of-data picks those bytes up.
	if err := out.finish(); err != nil {
		return Result{}, err
	}
	if err := errs.finish(); err != nil {
		return Result{}, err
	}

	res := Result{
		ExitCode: h.ExitCode(),
		Stdout:   out.bytes(),
		Stderr:   errs.bytes(),
		Duration: time.Since(started),
	}

	log.Debug("child finished",
		"run", runID,
		"exit_code", res.ExitCode,
		"stdout_bytes", len(res.Stdout),
		"stderr_bytes", len(res.Stderr),
		"duration", res.Duration,
	)

	return res, nil
}

// Close releases the run journal if it was opened. Call it after all Run
// calls have returned; runs started afterwards skip journaling.
func (r *Runner) Close() error {
	// Running the no-op Do synchronizes with a concurrent first open: once
	// it returns, any in-flight open has completed and r.journal is visible.
	r.journalOnce.Do(func() {})
	if r.journal == nil {
		return nil
	}
	return r.journal.Close()
}

// effectiveTimeout resolves the per-command timeout against the runner
// default. cmd.Timeout has already been validated.
func (r *Runner) effectiveTimeout(cmd Command) time.Duration {
	if cmd.Timeout == 0 {
		return r.cfg.Timeout
	}
	return cmd.Timeout
}

// killAndReap forcefully terminates the child and blocks until it is reaped,
// bounded by the kill grace period. An unkillable child is logged and
// abandoned rather than hanging the caller forever.
func (r *Runner) killAndReap(h *process.Handle, log *slog.Logger) {
	if err := h.Kill(r.cfg.KillGrace); err != nil {
		log.Warn("child did not exit after kill", "pid", h.Pid(), "error", err)
	}
}

// releaseSinks removes the run's sink storage. Cleanup is best-effort: a
// failure is logged, never returned, so it cannot mask the primary result.
func (r *Runner) releaseSinks(p *sink.Pair, log *slog.Logger) {
	if err := p.Release(); err != nil {
		log.Warn("failed to release stream sinks", "dir", p.Dir(), "error", err)
	}
}

// journalHandle lazily opens the run journal on first use. Returns nil when
// journaling is disabled or the open failed (Warn-logged once).
func (r *Runner) journalHandle(ctx context.Context, log *slog.Logger) *registry.Registry {
	if !r.cfg.Journal {
		return nil
	}
	r.journalOnce.Do(func() {
		j, err := registry.Open(ctx, r.cfg.BaseDir)
		if err != nil {
			log.Warn("run journal unavailable", "error", err)
			return
		}
		r.journal = j
	})
	return r.journal
}

// recordRun inserts the run into the journal. Best-effort: journal failures
// are logged and never fail the run.
func (r *Runner) recordRun(
	ctx context.Context,
	id string,
	pid int,
	dir string,
	cmd Command,
	started time.Time,
	log *slog.Logger,
) {
	j := r.journalHandle(ctx, log)
	if j == nil {
		return
	}
	entry := registry.Entry{
		ID:        id,
		PID:       pid,
		Dir:       dir,
		Command:   strings.Join(cmd.Argv, " "),
		StartedAt: started,
	}
	if err := j.Record(ctx, entry); err != nil {
		log.Warn("failed to record run in journal", "run", id, "error", err)
	}
}

// forgetRun deletes the run's journal row. It uses a fresh context because it
// runs on cleanup paths where the caller's context may already be canceled.
func (r *Runner) forgetRun(id string, log *slog.Logger) {
	if r.journal == nil {
		return
	}
	if err := r.journal.Forget(context.Background(), id); err != nil {
		log.Warn("failed to forget run in journal", "run", id, "error", err)
	}
}

// idle sleeps one poll interval between empty drain steps, waking early if
// the child exits or the context is canceled. Stop and Reset need no channel
// drain under the go1.23 timer semantics.
func idle(ctx context.Context, exited <-chan struct{}, t *time.Timer, d time.Duration) {
	t.Reset(d)
	select {
	case <-t.C:
	case <-exited:
		t.Stop()
	case <-ctx.Done():
		t.Stop()
	}
}

// flusher is implemented by buffered writers (e.g. *bufio.Writer) that need
// an explicit flush for forwarded output to become visible immediately.
type flusher interface {
	Flush() error
}

// drainer moves one stream from its sink to the parent-side mirror writer in
// bounded chunks, accumulating a complete copy along the way.
type drainer struct {
	name   string
	src    *sink.Sink
	mirror io.Writer
	log    *slog.Logger

	buf []byte
	acc bytes.Buffer

	// mirrorBroken is set after the first mirror write failure; capture
	// continues, live duplication stops for this stream.
	mirrorBroken bool
}

func newDrainer(name string, src *sink.Sink, mirror io.Writer, chunkSize int, log *slog.Logger) *drainer {
	return &drainer{
		name:   name,
		src:    src,
		mirror: mirror,
		log:    log,
		buf:    make([]byte, chunkSize),
	}
}

// step reads at most one chunk from the sink, forwards it to the mirror, and
// appends it to the accumulator. A (0, nil) return means no new data was
// available.
func (d *drainer) step() (int, error) {
	n, err := d.src.Drain(d.buf)
	if err != nil {
		return 0, fmt.Errorf("drain %s sink: %w", d.name, err)
	}
	if n == 0 {
		return 0, nil
	}

	chunk := d.buf[:n]
	d.acc.Write(chunk)
	d.forward(chunk)

	return n, nil
}

// finish drains the sink to end-of-data in bounded chunks.
func (d *drainer) finish() error {
	for {
		n, err := d.step()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

// bytes returns the accumulated stream contents.
func (d *drainer) bytes() []byte {
	return d.acc.Bytes()
}

// forward writes the chunk to the mirror and flushes writers that support it.
// A mirror failure disables further forwarding for this stream; the
// accumulator keeps the complete capture either way.
func (d *drainer) forward(chunk []byte) {
	if d.mirror == nil || d.mirrorBroken {
		return
	}

	_, err := d.mirror.Write(chunk)
	if err == nil {
		if f, ok := d.mirror.(flusher); ok {
			err = f.Flush()
		}
	}
	if err != nil {
		d.mirrorBroken = true
		d.log.Warn("live duplication stopped after write failure", "stream", d.name, "error", err)
	}
}

package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/giantswarm/cmdtee/internal/process"
)

// RunQuiet executes the command to completion, collecting stdout and stderr
// into in-memory buffers with no live duplication and no on-disk sinks. The
// timeout semantics and error taxonomy match Run: a non-zero exit code is
// data, a deadline produces a TimeoutError with a zero Result, and spawn
// failures wrap ErrSpawn.
func (r *Runner) RunQuiet(ctx context.Context, cmd Command) (Result, error) {
	if err := cmd.validate(); err != nil {
		return Result{}, err
	}

	timeout := r.effectiveTimeout(cmd)

	runCtx := ctx
	if timeout != NoTimeout {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, cmd.Argv[0], cmd.Argv[1:]...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	// Context cancellation kills the child; WaitDelay bounds the subsequent
	// wait so an output-holding grandchild cannot stall Wait forever.
	c.WaitDelay = r.cfg.KillGrace
	process.Configure(c)

	started := time.Now()
	if err := c.Start(); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	Logger().Debug("child started", "pid", c.Process.Pid, "command", cmd.Argv[0], "timeout", timeout, "quiet", true)

	if waitErr := c.Wait(); waitErr != nil {
		// Distinguish the per-command deadline from cancellation of the
		// caller's context: both surface through runCtx.
		if timeout != NoTimeout && runCtx.Err() != nil && ctx.Err() == nil {
			return Result{}, &TimeoutError{Command: cmd.Argv, Timeout: timeout}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("run canceled: %w", ctxErr)
		}

		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			return Result{}, fmt.Errorf("wait for %s: %w", cmd.Argv[0], waitErr)
		}
		// Fall through: a non-zero exit status is data, not an error.
	}

	return Result{
		ExitCode: c.ProcessState.ExitCode(),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(started),
	}, nil
}

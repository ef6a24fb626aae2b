package cmdtee_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/giantswarm/cmdtee"
)

// newTestRunner builds a Runner confined to a per-test temp directory, with
// the live mirrors wired to in-memory buffers.
func newTestRunner(t *testing.T) (cmdtee.Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var out, errOut bytes.Buffer
	r := cmdtee.New(
		cmdtee.WithBaseDir(t.TempDir()),
		cmdtee.WithPollInterval(5*time.Millisecond),
		cmdtee.WithStdout(&out),
		cmdtee.WithStderr(&errOut),
	)
	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Errorf("close runner: %v", err)
		}
	})

	return r, &out, &errOut
}

func TestRunner_RunEchoesAndCaptures(t *testing.T) {
	t.Parallel()

	r, out, errOut := newTestRunner(t)

	res, err := r.Run(context.Background(), cmdtee.Command{
		Argv: []string{"echo", "hello"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.ExitCode != 0 {
		t.Errorf("exit code = %d, want 0", res.ExitCode)
	}
	if got := string(res.Stdout); got != "hello\n" {
		t.Errorf("stdout = %q, want %q", got, "hello\n")
	}
	if got := out.String(); got != "hello\n" {
		t.Errorf("stdout mirror = %q, want %q", got, "hello\n")
	}
	if errOut.Len() != 0 {
		t.Errorf("stderr mirror = %q, want empty", errOut.String())
	}
}

func TestRunner_RunReportsChildFailureAsData(t *testing.T) {
	t.Parallel()

	r, _, errOut := newTestRunner(t)

	res, err := r.Run(context.Background(), cmdtee.Command{
		Argv: []string{"sh", "-c", "echo oops >&2; exit 3"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if res.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", res.ExitCode)
	}
	if got := string(res.Stderr); got != "oops\n" {
		t.Errorf("stderr = %q, want %q", got, "oops\n")
	}
	if got := errOut.String(); got != "oops\n" {
		t.Errorf("stderr mirror = %q, want %q", got, "oops\n")
	}
}

func TestRunner_TimeoutDiscardsOutput(t *testing.T) {
	t.Parallel()

	r := cmdtee.New(
		cmdtee.WithBaseDir(t.TempDir()),
		cmdtee.WithTimeout(300*time.Millisecond),
		cmdtee.WithPollInterval(5*time.Millisecond),
		cmdtee.WithStdout(io.Discard),
		cmdtee.WithStderr(io.Discard),
	)
	defer r.Close() //nolint:errcheck // Nothing useful to do with a close error here.

	res, err := r.Run(context.Background(), cmdtee.Command{
		Argv: []string{"sh", "-c", "echo partial; sleep 60"},
	})
	if !errors.Is(err, cmdtee.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}

	var te *cmdtee.TimeoutError
	if !errors.As(err, &te) {
		t.Fatal("err is not a TimeoutError")
	}
	if te.Timeout != 300*time.Millisecond {
		t.Errorf("TimeoutError.Timeout = %v, want 300ms", te.Timeout)
	}
	if len(res.Stdout) != 0 {
		t.Errorf("partial stdout was not discarded: %q", res.Stdout)
	}
}

func TestRunner_PerCommandTimeoutOverridesDefault(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRunner(t)

	_, err := r.Run(context.Background(), cmdtee.Command{
		Argv:    []string{"sleep", "60"},
		Timeout: 300 * time.Millisecond,
	})
	if !errors.Is(err, cmdtee.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestRunner_RunQuietLeavesMirrorsUntouched(t *testing.T) {
	t.Parallel()

	r, out, errOut := newTestRunner(t)

	res, err := r.RunQuiet(context.Background(), cmdtee.Command{
		Argv: []string{"sh", "-c", "echo quiet; echo hush >&2"},
	})
	if err != nil {
		t.Fatalf("run quiet: %v", err)
	}

	if got := string(res.Stdout); got != "quiet\n" {
		t.Errorf("stdout = %q, want %q", got, "quiet\n")
	}
	if got := string(res.Stderr); got != "hush\n" {
		t.Errorf("stderr = %q, want %q", got, "hush\n")
	}
	if out.Len() != 0 || errOut.Len() != 0 {
		t.Errorf("mirrors received output: stdout=%q stderr=%q", out.String(), errOut.String())
	}
}

func TestRunner_ValidationError(t *testing.T) {
	t.Parallel()

	r, _, _ := newTestRunner(t)

	_, err := r.Run(context.Background(), cmdtee.Command{})
	if !errors.Is(err, cmdtee.ErrInvalidCommand) {
		t.Fatalf("err = %v, want ErrInvalidCommand", err)
	}
}

func TestRunner_PurgeSweepsAgedOrphans(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	r := cmdtee.New(
		cmdtee.WithBaseDir(base),
		cmdtee.WithStdout(nil),
		cmdtee.WithStderr(nil),
	)
	defer r.Close() //nolint:errcheck // Nothing useful to do with a close error here.

	stale := filepath.Join(base, "run-stale")
	if err := os.MkdirAll(stale, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stale, "stdout.log"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	fresh := filepath.Join(base, "run-fresh")
	if err := os.MkdirAll(fresh, 0o700); err != nil {
		t.Fatal(err)
	}

	removed, err := r.Purge(context.Background())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("aged orphan directory survived the purge")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh directory was swept: %v", err)
	}
}

func TestNew_RunnersAreIndependent(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	var outA, outB bytes.Buffer

	a := cmdtee.New(cmdtee.WithBaseDir(base), cmdtee.WithStdout(&outA), cmdtee.WithStderr(io.Discard))
	b := cmdtee.New(cmdtee.WithBaseDir(base), cmdtee.WithStdout(&outB), cmdtee.WithStderr(io.Discard))
	defer a.Close() //nolint:errcheck // Nothing useful to do with a close error here.
	defer b.Close() //nolint:errcheck // Nothing useful to do with a close error here.

	if _, err := a.Run(context.Background(), cmdtee.Command{Argv: []string{"echo", "a"}}); err != nil {
		t.Fatalf("runner a: %v", err)
	}
	if _, err := b.Run(context.Background(), cmdtee.Command{Argv: []string{"echo", "b"}}); err != nil {
		t.Fatalf("runner b: %v", err)
	}

	if outA.String() != "a\n" || outB.String() != "b\n" {
		t.Errorf("mirrors crossed: a=%q b=%q", outA.String(), outB.String())
	}
}

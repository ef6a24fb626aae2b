package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/giantswarm/cmdtee/internal/fileutil"
)

const (
	stdoutName = "stdout.log"
	stderrName = "stderr.log"

	// dirPrefix is the name prefix of per-run sink directories under the
	// base directory. Purge relies on it to recognize leaked directories.
	dirPrefix = "run-"
)

// DirPrefix returns the name prefix of per-run sink directories.
func DirPrefix() string {
	return dirPrefix
}

// Sink is one stream's file-backed intermediate storage. The file is opened
// twice: a write end that is handed to the child process as its stdout or
// stderr, and an independent read handle used by the drain loop. The two
// handles have separate file offsets, so the child appends and the drainer
// reads without any coordination.
type Sink struct {
	path string
	w    *os.File
	r    *os.File
}

// newSink creates the backing file and opens the read handle.
// Both handles are assigned only after both opens succeed.
func newSink(path string) (*Sink, error) {
	w, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create sink %s: %w", path, err)
	}
	r, err := os.Open(path)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("open sink %s for reading: %w", path, err)
	}
	return &Sink{path: path, w: w, r: r}, nil
}

// WriteEnd returns the file handle the child process writes into.
// It is assigned to exec.Cmd Stdout or Stderr before Start.
func (s *Sink) WriteEnd() *os.File {
	return s.w
}

// Path returns the absolute path of the backing file.
func (s *Sink) Path() string {
	return s.path
}

// Drain reads at most len(buf) bytes of data the child has written since the
// previous Drain call. Reaching the current end of data is normal and reported
// as a zero-count read, not an error; the child may append more afterwards.
// Drain never blocks waiting for the child.
func (s *Sink) Drain(buf []byte) (int, error) {
	n, err := s.r.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("drain sink %s: %w", s.path, err)
	}
	return n, nil
}

// close closes both handles and nils them to prevent double-close.
func (s *Sink) close() error {
	var errs []error
	if s.w != nil {
		if err := s.w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sink write end %s: %w", s.path, err))
		}
		s.w = nil
	}
	if s.r != nil {
		if err := s.r.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sink read end %s: %w", s.path, err))
		}
		s.r = nil
	}
	return errors.Join(errs...)
}

// Pair holds the stdout and stderr sinks of one run, both backed by files in
// a dedicated per-run directory.
type Pair struct {
	dir    string
	stdout *Sink
	stderr *Sink
}

// NewPair creates the per-run directory under baseDir and both sinks inside
// it. On any failure, whatever was created is closed and removed before the
// error is returned.
func NewPair(baseDir, runID string) (*Pair, error) {
	if err := fileutil.EnsureDir(baseDir); err != nil {
		return nil, err
	}
	dir := filepath.Join(baseDir, dirPrefix+runID)
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create run directory %s: %w", dir, err)
	}

	stdout, err := newSink(filepath.Join(dir, stdoutName))
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	stderr, err := newSink(filepath.Join(dir, stderrName))
	if err != nil {
		_ = stdout.close()
		_ = os.RemoveAll(dir)
		return nil, err
	}

	return &Pair{dir: dir, stdout: stdout, stderr: stderr}, nil
}

// Dir returns the per-run directory holding both backing files.
func (p *Pair) Dir() string {
	return p.dir
}

// Stdout returns the sink receiving the child's standard output.
func (p *Pair) Stdout() *Sink {
	return p.stdout
}

// Stderr returns the sink receiving the child's standard error.
func (p *Pair) Stderr() *Sink {
	return p.stderr
}

// Release closes all handles and removes the per-run directory. It is safe to
// call more than once. All failures are collected and returned; callers treat
// them as best-effort cleanup problems, not as run failures. The child may
// still hold its own descriptors; unlinking is safe regardless.
func (p *Pair) Release() error {
	var errs []error
	if p.stdout != nil {
		errs = append(errs, p.stdout.close())
	}
	if p.stderr != nil {
		errs = append(errs, p.stderr.close())
	}
	if p.dir != "" {
		if err := os.RemoveAll(p.dir); err != nil {
			errs = append(errs, fmt.Errorf("remove run directory %s: %w", p.dir, err))
		}
		p.dir = ""
	}
	return errors.Join(errs...)
}

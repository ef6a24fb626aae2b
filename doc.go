// Package cmdtee runs external commands while duplicating their output.
//
// A Runner spawns the child process with stdout and stderr redirected into
// file-backed sinks, then drains those sinks in bounded chunks. Each chunk is
// forwarded to the parent's own streams the moment it is read, and appended to
// an in-memory copy that is returned in full when the child exits. The caller
// sees the child's output live, and still gets the complete byte-exact capture
// afterwards.
//
// An optional wall-clock timeout bounds the whole run. When it expires the
// child is killed, its partial output is discarded, and Run returns a
// TimeoutError that matches ErrTimeout under errors.Is.
//
// # Basic Usage
//
//	runner := cmdtee.New(cmdtee.WithTimeout(2 * time.Minute))
//	defer runner.Close()
//
//	res, err := runner.Run(ctx, cmdtee.Command{
//		Argv: []string{"make", "test"},
//	})
//	if err != nil {
//		// Spawn failure, timeout, or canceled context.
//	}
//	fmt.Printf("exit %d, %d bytes of stdout\n", res.ExitCode, len(res.Stdout))
//
// A non-zero exit code is not an error. It is reported in Result.ExitCode so
// that callers can treat child failure as data; Run returns a non-nil error
// only when the run itself could not complete.
//
// # Quiet Mode
//
// RunQuiet captures output without forwarding it anywhere. It skips the
// file-backed sinks entirely and buffers the child's streams in memory, which
// suits programmatic callers that only want the bytes.
//
// # Leak Recovery
//
// Sink directories live under the runner's base directory and are removed
// when each run finishes. If the parent process dies mid-run the directory
// survives; Purge scans the base directory and the run journal kept beside
// it, and removes leftovers whose owning process is gone.
package cmdtee

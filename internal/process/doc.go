// Package process manages the lifecycle of a single child process.
//
// Handle wraps a started exec.Cmd with non-blocking liveness checks, a
// broadcast exit channel, forceful kill, and exactly-once exit status
// collection through a dedicated wait goroutine. Configure applies
// platform-specific SysProcAttr settings and is shared with code paths that
// build their own exec.Cmd.
package process

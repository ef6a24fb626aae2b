package cmdtee

import "github.com/giantswarm/cmdtee/internal/core"

// NoTimeout disables the wall-clock deadline. It is valid as the runner-wide
// timeout (WithTimeout) and as a per-command override (Command.Timeout).
const NoTimeout = core.NoTimeout

// Command describes one child process to execute.
//
// Command is a type alias (not a named type) so that values constructed here
// flow into [Runner.Run] without conversion.
type Command = core.Command

// Result holds the outcome of a finished run: the child's exit code, the
// complete stdout and stderr captures, and how long the run took.
//
// Result is a type alias (not a named type) so that values returned by the
// internal runner satisfy the [Runner] interface directly.
type Result = core.Result

// TimeoutError reports that a run was killed because its wall-clock timeout
// expired. It records the command and the timeout that was exceeded, and
// matches ErrTimeout under errors.Is.
//
// TimeoutError is a type alias (not a named type) so that the underlying
// [core.TimeoutError] methods are part of the public API.
type TimeoutError = core.TimeoutError

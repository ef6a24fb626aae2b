package cmdtee

import "github.com/giantswarm/cmdtee/internal/core"

// Sentinel errors for error inspection with errors.Is. These are immutable
// constants and survive wrapping.
const (
	// ErrInvalidCommand is returned when a Command fails validation, for
	// example an empty argv or a negative timeout that is not NoTimeout.
	ErrInvalidCommand = core.ErrInvalidCommand

	// ErrSpawn is returned when the child process cannot be started at
	// all, for example when the program does not exist.
	ErrSpawn = core.ErrSpawn

	// ErrTimeout matches the TimeoutError returned when a run is killed
	// because its wall-clock timeout expired.
	ErrTimeout = core.ErrTimeout
)

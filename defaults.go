package cmdtee

import "time"

// Default configuration values used by New when the corresponding option is
// not given.
const (
	// DefaultTimeout is the default per-run wall-clock timeout. Runs are
	// unbounded unless a timeout is set with WithTimeout or per command.
	DefaultTimeout = NoTimeout

	// DefaultChunkSize is the default maximum number of bytes read from
	// one sink per drain step.
	DefaultChunkSize = 32 * 1024

	// DefaultPollInterval is the default sleep between drain passes that
	// found no new output.
	DefaultPollInterval = 10 * time.Millisecond

	// DefaultKillGrace is the default time to wait for a killed child to
	// be reaped before giving up on it.
	DefaultKillGrace = 10 * time.Second

	// DefaultBaseDirName is the directory created under os.TempDir to
	// hold per-run sink directories and the run journal.
	DefaultBaseDirName = "cmdtee"
)

package cmdtee

import (
	"log/slog"

	"github.com/giantswarm/cmdtee/internal/core"
)

// SetLogger replaces the package-level logger used by all Runner operations.
//
// Passing nil restores the default logger, which is slog.Default with a
// component attribute. Safe to call concurrently with in-flight runs.
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}

package cmdtee

import "github.com/giantswarm/cmdtee/internal/core"

// runnerConfig holds all configuration assembled from Option values.
//
// It embeds core.Config so option setters can write the fields directly.
type runnerConfig struct {
	core.Config
}

// toCoreConfig returns the core-level view of the configuration.
func (c runnerConfig) toCoreConfig() core.Config {
	return c.Config
}

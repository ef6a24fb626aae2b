// Package core provides the internal implementation of the cmdtee runner.
// It contains the Runner (sink allocation, child spawning, the single-threaded
// drain loop with timeout enforcement, and the quiet in-memory variant),
// command and config validation, and the purge sweep that reclaims sink
// directories leaked by runner processes that died mid-run.
package core

// Package fileutil provides directory helpers used when preparing run
// directories: the base directory that holds per-run stream sinks and the
// run journal, and parent directories for files created inside them.
package fileutil

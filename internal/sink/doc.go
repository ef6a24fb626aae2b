// Package sink provides file-backed intermediate storage for a child
// process's stdout and stderr streams.
//
// Each stream's sink is a regular file opened twice: the write end goes to
// the child, the read end stays with the drain loop. Separate file offsets
// let the child write at its own rate while the drainer reads in bounded
// chunks, with no locking between the two processes. File backing (rather
// than a pipe) means a fast child is never blocked on a full buffer and the
// drainer can always catch up later.
package sink

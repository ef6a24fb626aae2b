// Package sentinel provides a const-declarable error type for sentinel errors.
//
// The exported error constants of cmdtee (timeout, spawn failure, invalid
// command) are declared with sentinel.Error so they stay immutable while
// remaining comparable through wrapped error chains with errors.Is.
package sentinel

//go:build unix

package core

import (
	"errors"
	"syscall"
)

// pidAlive reports whether a process with the given pid currently exists.
// Signal 0 performs the existence check without delivering anything; EPERM
// means the process exists but belongs to another user.
func pidAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}

//go:build !unix

package core

// pidAlive conservatively reports every pid as alive on platforms without a
// cheap existence probe, so Purge never removes a directory that might still
// be in use. Aged orphan directories are still swept.
func pidAlive(pid int) bool {
	return true
}

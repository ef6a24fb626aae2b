//go:build linux

package process

import (
	"os/exec"
	"syscall"
)

// Configure sets Linux-specific process attributes on cmd. Pdeathsig ensures
// the child receives SIGKILL when its parent dies, preventing orphaned
// children if the calling process is killed abruptly mid-run.
func Configure(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGKILL,
	}
}

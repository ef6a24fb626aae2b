//go:build !linux

package process

import "os/exec"

// Configure is a no-op on non-Linux platforms.
// Pdeathsig (parent-death signal) is a Linux-only kernel feature.
func Configure(_ *exec.Cmd) {}

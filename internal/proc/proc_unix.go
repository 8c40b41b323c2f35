//go:build !windows

// Package proc answers whether a process is still running.
package proc

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Alive reports whether a process with the given pid exists. Signal 0
// performs the existence check without delivering anything; EPERM means
// the process exists but belongs to someone else.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, unix.EPERM)
}

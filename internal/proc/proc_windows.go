//go:build windows

// Package proc answers whether a process is still running.
package proc

import "os"

// Alive reports whether a process with the given pid exists. On Windows,
// FindProcess fails for pids that no longer have an open handle.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	_ = p.Release()
	return true
}

//go:build !windows

package process

import "syscall"

// KillBrowserTree sends SIGKILL to the process group led by pid, taking the
// headless browser's renderer and GPU helpers down with it.
// Non-positive pids are ignored: -0 would target our own group.
func KillBrowserTree(pid int) {
	if pid <= 0 {
		return
	}
	// Best effort; the launcher's own Kill runs afterwards.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}

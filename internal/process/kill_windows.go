//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// KillBrowserTree terminates pid and its children with taskkill /F /T.
// Non-positive pids are ignored.
func KillBrowserTree(pid int) {
	if pid <= 0 {
		return
	}
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}

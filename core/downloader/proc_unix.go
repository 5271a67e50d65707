//go:build unix

package downloader

import (
	"os/exec"
	"syscall"
)

// configureProcessGroup starts the script in its own process group so that
// cancellation also kills whatever the script spawned.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}

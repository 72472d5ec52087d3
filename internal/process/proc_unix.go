//go:build !windows

package process

import (
	"errors"
	"io/fs"
	"os/exec"
	"syscall"
)

// ExecutableSuffix is appended to compiled artifacts on this platform.
const ExecutableSuffix = ".out"

// setProcAttrs puts the child in its own process group so a timeout can
// kill everything it spawned.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killTree(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
}

// isAccessDenied matches the errors seen while a just-written binary is
// still held open by its writer.
func isAccessDenied(err error) bool {
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.ETXTBSY)
}

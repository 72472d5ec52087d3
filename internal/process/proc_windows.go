//go:build windows

package process

import (
	"errors"
	"io/fs"
	"os/exec"
	"syscall"
)

// ExecutableSuffix is appended to compiled artifacts on this platform.
const ExecutableSuffix = ".exe"

const errorSharingViolation = syscall.Errno(32)

func setProcAttrs(cmd *exec.Cmd) {}

func killTree(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

func isAccessDenied(err error) bool {
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, errorSharingViolation)
}

//go:build linux

package process

import (
	"os/exec"
	"syscall"
)

// setPlatformAttrs asks the kernel to SIGKILL the child if the coordinator
// dies first, so workers never outlive it.
func setPlatformAttrs(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Pdeathsig = syscall.SIGKILL
}

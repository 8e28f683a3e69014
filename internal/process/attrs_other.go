//go:build !linux

package process

import "os/exec"

func setPlatformAttrs(cmd *exec.Cmd) {}

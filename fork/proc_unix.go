// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build unix

package fork

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// setNewProcessGroup places the child in its own process group so that any
// processes the JVM spawns are terminated with it.
func setNewProcessGroup(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// killProcessTree SIGKILLs the process group led by proc.
func killProcessTree(proc *os.Process) error {
	if err := syscall.Kill(-proc.Pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("failed to kill forked service: %w", err)
	}
	return nil
}

// shutdownProcess asks the JVM to shut down; Spring Boot stops gracefully on
// SIGTERM.
func shutdownProcess(proc *os.Process) error {
	if err := proc.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package fork

import (
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Handle is a running forked service. Its owner must call Abort exactly once
// when done with it; further calls are harmless.
type Handle struct {
	logger  hclog.Logger
	cmd     *exec.Cmd
	grace   time.Duration
	logFile *os.File

	// doneCh is closed once the process has been reaped.
	doneCh  chan struct{}
	waitErr error

	abortOnce sync.Once
	abortErr  error
}

func newHandle(logger hclog.Logger, cmd *exec.Cmd, grace time.Duration, logFile *os.File) *Handle {
	h := &Handle{
		logger:  logger,
		cmd:     cmd,
		grace:   grace,
		logFile: logFile,
		doneCh:  make(chan struct{}),
	}
	go h.wait()
	return h
}

func (h *Handle) wait() {
	h.waitErr = h.cmd.Wait()
	closeQuietly(h.logFile)
	close(h.doneCh)
}

// Pid of the forked process, zero for a nil handle.
func (h *Handle) Pid() int {
	if h == nil || h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

// Done is closed when the forked process exits. A nil handle returns a nil
// channel.
func (h *Handle) Done() <-chan struct{} {
	if h == nil {
		return nil
	}
	return h.doneCh
}

// Exited reports whether the process has exited.
func (h *Handle) Exited() bool {
	if h == nil {
		return true
	}
	select {
	case <-h.doneCh:
		return true
	default:
		return false
	}
}

// Abort terminates the forked process tree and waits for it to be reaped.
// Calling Abort on a nil handle, or more than once, is a no-op.
func (h *Handle) Abort() error {
	if h == nil {
		return nil
	}
	h.abortOnce.Do(func() {
		h.abortErr = h.abort()
	})
	return h.abortErr
}

func (h *Handle) abort() error {
	if h.Exited() {
		h.logger.Debug("forked service already exited", "pid", h.Pid(), "error", h.waitErr)
		return nil
	}

	proc := h.cmd.Process

	if h.grace > 0 {
		h.logger.Debug("interrupting forked service", "pid", proc.Pid, "grace", h.grace)
		if err := shutdownProcess(proc); err != nil {
			h.logger.Warn("failed to interrupt forked service", "pid", proc.Pid, "error", err)
		} else {
			select {
			case <-h.doneCh:
				h.logger.Info("forked service stopped", "pid", proc.Pid)
				return nil
			case <-time.After(h.grace):
			}
		}
	}

	h.logger.Info("killing forked service", "pid", proc.Pid)
	if err := killProcessTree(proc); err != nil {
		return err
	}
	<-h.doneCh
	return nil
}

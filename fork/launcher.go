// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package fork launches the service under documentation as a forked JVM and
// owns the resulting process until it is aborted.
package fork

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Config is the fork configuration of a single invocation. It is built from
// the user configuration and discarded once the process is started.
type Config struct {
	// Executable is the java executable. JavaExecutable() is used when empty.
	Executable string

	// JVMArgs are placed before the classpath, e.g. -Xmx512m.
	JVMArgs []string

	// Properties is the raw fork properties value, see ExtractProperties.
	Properties any

	// MainClass is the entry point, typically the Spring Boot launcher.
	MainClass string

	// Args are passed to the application after the main class.
	Args []string

	// Env is appended to the environment of the current process.
	Env []string

	// Dir is the working directory of the child.
	Dir string

	// LogFile receives the child's stdout and stderr when set. Otherwise
	// they are inherited.
	LogFile string

	// ShutdownGrace is how long Abort waits after an interrupt before
	// killing the process tree. Zero kills immediately.
	ShutdownGrace time.Duration

	// MinJavaVersion, when set, is checked before launching.
	MinJavaVersion string
}

// CommandLine assembles the argument vector for artifact:
// [java, jvm args..., -cp, artifact, -Dflags..., main class, args...].
func CommandLine(logger hclog.Logger, cfg *Config, artifact string) []string {
	executable := cfg.Executable
	if executable == "" {
		executable = JavaExecutable()
	}

	cmd := []string{executable}
	cmd = append(cmd, cfg.JVMArgs...)
	cmd = append(cmd, "-cp", artifact)
	cmd = append(cmd, ExtractProperties(logger, cfg.Properties)...)
	cmd = append(cmd, cfg.MainClass)
	cmd = append(cmd, cfg.Args...)
	return cmd
}

// Launcher forks the service from a built artifact.
type Launcher struct {
	logger hclog.Logger
	config *Config
}

func NewLauncher(logger hclog.Logger, cfg *Config) *Launcher {
	return &Launcher{
		logger: logger.Named("fork"),
		config: cfg,
	}
}

// Fork starts the child without waiting for it. The launch only happens when
// the artifact exists; otherwise the fork is skipped and a nil handle is
// returned without error.
func (l *Launcher) Fork(ctx context.Context, artifact string) (*Handle, error) {
	if ok, err := artifactReady(artifact); !ok {
		l.logger.Warn("artifact not available, skipping fork", "artifact", artifact, "error", err)
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if l.config.MinJavaVersion != "" {
		executable := l.config.Executable
		if executable == "" {
			executable = JavaExecutable()
		}
		if err := CheckJavaVersion(executable, l.config.MinJavaVersion); err != nil {
			return nil, err
		}
	}

	argv := CommandLine(l.logger, l.config, artifact)
	l.logger.Info("starting forked service", "command", argv)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = l.config.Dir
	cmd.Env = append(os.Environ(), l.config.Env...)

	var logFile *os.File
	if l.config.LogFile != "" {
		f, err := os.OpenFile(l.config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open fork log file: %w", err)
		}
		logFile = f
		cmd.Stdout = f
		cmd.Stderr = f
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	setNewProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		closeQuietly(logFile)
		return nil, fmt.Errorf("failed to start forked service: %w", err)
	}

	h := newHandle(l.logger, cmd, l.config.ShutdownGrace, logFile)
	l.logger.Debug("forked service started", "pid", h.Pid())
	return h, nil
}

// artifactReady is the readiness predicate guarding the fork.
func artifactReady(artifact string) (bool, error) {
	if artifact == "" {
		return false, errors.New("no artifact")
	}
	fi, err := os.Stat(artifact)
	if err != nil {
		return false, err
	}
	if fi.IsDir() {
		return false, fmt.Errorf("%s is a directory", artifact)
	}
	return true, nil
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}

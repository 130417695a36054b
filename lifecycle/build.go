// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	glob "github.com/ryanuber/go-glob"
)

// BuildConfig describes how the runnable artifact is produced and found.
type BuildConfig struct {
	// Command builds the artifact, e.g. ["./gradlew", "bootJar"]. When empty
	// the artifact is expected to exist already.
	Command []string

	// Dir is the working directory of Command and the base of Artifact.
	Dir string

	// Env is appended to the environment of Command.
	Env []string

	// Artifact is a path or filepath.Glob pattern of the built jar.
	Artifact string

	// Exclude lists glob patterns of file names that are never picked, such
	// as the plain jar Spring Boot builds next to the executable one.
	Exclude []string
}

// CommandBuilder runs an external build command and locates its artifact.
type CommandBuilder struct {
	logger hclog.Logger
	config *BuildConfig
}

func NewCommandBuilder(logger hclog.Logger, cfg *BuildConfig) *CommandBuilder {
	return &CommandBuilder{
		logger: logger.Named("build"),
		config: cfg,
	}
}

// Build runs the build command, if any, and returns the artifact path. A
// missing artifact is not an error here; the fork stage skips it.
func (b *CommandBuilder) Build(ctx context.Context) (string, error) {
	if len(b.config.Command) > 0 {
		if err := b.run(ctx); err != nil {
			return "", err
		}
	}
	return b.locate()
}

func (b *CommandBuilder) run(ctx context.Context) error {
	b.logger.Info("running build command", "command", b.config.Command, "dir", b.config.Dir)

	out := b.logger.StandardWriter(&hclog.StandardLoggerOptions{InferLevels: true})

	cmd := exec.CommandContext(ctx, b.config.Command[0], b.config.Command[1:]...)
	cmd.Dir = b.config.Dir
	cmd.Env = append(os.Environ(), b.config.Env...)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("build command failed: %w", err)
	}
	return nil
}

func (b *CommandBuilder) locate() (string, error) {
	pattern := b.config.Artifact
	if !filepath.IsAbs(pattern) && b.config.Dir != "" {
		pattern = filepath.Join(b.config.Dir, pattern)
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("invalid artifact pattern %q: %w", b.config.Artifact, err)
	}

	var (
		newest    string
		newestMod int64
	)
	for _, m := range matches {
		if b.excluded(m) {
			b.logger.Trace("artifact excluded", "path", m)
			continue
		}
		fi, err := os.Stat(m)
		if err != nil || fi.IsDir() {
			continue
		}
		if mod := fi.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest, newestMod = m, mod
		}
	}

	if newest == "" {
		b.logger.Warn("no artifact matched", "pattern", pattern)
		return pattern, nil
	}

	b.logger.Debug("found artifact", "path", newest, "candidates", len(matches))
	return newest, nil
}

func (b *CommandBuilder) excluded(path string) bool {
	name := filepath.Base(path)
	for _, pattern := range b.config.Exclude {
		if glob.Glob(pattern, name) {
			return true
		}
	}
	return false
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package lifecycle sequences a documentation run: build the artifact, fork
// the service, generate the documents and always terminate the fork.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// ErrProcessExited cancels generation when the forked service exits before
// generation is over.
var ErrProcessExited = errors.New("forked service exited")

// Builder produces the runnable artifact.
type Builder interface {
	Build(ctx context.Context) (artifact string, err error)
}

// Process is a forked service owned by the coordinator.
type Process interface {
	// Abort terminates the process. It must be safe to call on an already
	// terminated process.
	Abort() error

	// Done is closed when the process exits.
	Done() <-chan struct{}
}

// Forker starts the service from the artifact. A nil Process with a nil
// error means the fork was skipped.
type Forker interface {
	Fork(ctx context.Context, artifact string) (Process, error)
}

// Generator fetches and writes the API documents.
type Generator interface {
	Generate(ctx context.Context) error
}

// Stage names, used in logs and errors.
const (
	StageBuild    = "build"
	StageFork     = "fork"
	StageGenerate = "generate"
	StageFinalize = "finalize"
)

// StageError records which stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Coordinator runs the stages strictly in order. Once the fork stage has
// returned, finalize runs on every exit path of the generate stage.
type Coordinator struct {
	logger    hclog.Logger
	builder   Builder
	forker    Forker
	generator Generator
}

func NewCoordinator(logger hclog.Logger, b Builder, f Forker, g Generator) *Coordinator {
	return &Coordinator{
		logger:    logger.Named("lifecycle"),
		builder:   b,
		forker:    f,
		generator: g,
	}
}

// Run executes build, fork, generate and finalize. The returned error
// combines a generate failure with a failure to terminate the fork.
func (c *Coordinator) Run(ctx context.Context) (err error) {
	artifact, err := c.stage(StageBuild, func() (string, error) {
		return c.builder.Build(ctx)
	})
	if err != nil {
		return err
	}

	var proc Process
	if _, err := c.stage(StageFork, func() (string, error) {
		p, err := c.forker.Fork(ctx, artifact)
		proc = p
		return "", err
	}); err != nil {
		return err
	}

	defer func() {
		if _, ferr := c.stage(StageFinalize, func() (string, error) {
			if proc == nil {
				return "", nil
			}
			return "", proc.Abort()
		}); ferr != nil {
			err = multierror.Append(err, ferr)
		}
	}()

	if proc == nil {
		c.logger.Warn("no forked service, generating against whatever is listening")
	}

	genCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	if proc != nil {
		go func() {
			select {
			case <-proc.Done():
				cancel(ErrProcessExited)
			case <-genCtx.Done():
			}
		}()
	}

	_, err = c.stage(StageGenerate, func() (string, error) {
		return "", c.generator.Generate(genCtx)
	})
	return err
}

// stage runs fn, logging its duration and wrapping its error.
func (c *Coordinator) stage(name string, fn func() (string, error)) (string, error) {
	logger := c.logger.With("stage", name)
	logger.Debug("stage starting")
	start := time.Now()

	out, err := fn()
	if err != nil {
		logger.Error("stage failed", "error", err, "duration", time.Since(start))
		return "", &StageError{Stage: name, Err: err}
	}

	logger.Debug("stage finished", "duration", time.Since(start))
	return out, nil
}

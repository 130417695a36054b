// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"context"

	"github.com/hashicorp/openapi-fork/fork"
)

// ForkFunc adapts a function to Forker.
type ForkFunc func(ctx context.Context, artifact string) (Process, error)

func (f ForkFunc) Fork(ctx context.Context, artifact string) (Process, error) {
	return f(ctx, artifact)
}

// GenerateFunc adapts a function to Generator.
type GenerateFunc func(ctx context.Context) error

func (f GenerateFunc) Generate(ctx context.Context) error {
	return f(ctx)
}

// LauncherForker forks through l. A skipped fork is reported as a nil
// Process rather than a Process wrapping a nil handle.
func LauncherForker(l *fork.Launcher) Forker {
	return ForkFunc(func(ctx context.Context, artifact string) (Process, error) {
		h, err := l.Fork(ctx, artifact)
		if err != nil || h == nil {
			return nil, err
		}
		return h, nil
	})
}

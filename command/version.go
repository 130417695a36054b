// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"github.com/hashicorp/cli"
	"github.com/hashicorp/openapi-fork/version"
)

// VersionCommand is a Command implementation prints the version.
type VersionCommand struct {
	Version *version.Info
	Ui      cli.Ui
}

func (c *VersionCommand) Help() string {
	return "Usage: openapi-fork version\n\n  Prints the version of openapi-fork."
}

func (c *VersionCommand) Name() string { return "version" }

func (c *VersionCommand) Run(_ []string) int {
	c.Ui.Output(c.Version.String())
	return 0
}

func (c *VersionCommand) Synopsis() string {
	return "Prints the openapi-fork version"
}

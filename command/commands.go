// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"os"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/openapi-fork/version"
	colorable "github.com/mattn/go-colorable"
)

// Commands returns the mapping of CLI commands. The meta parameter lets you
// set meta options for all commands.
func Commands(metaPtr *Meta) map[string]cli.CommandFactory {
	if metaPtr == nil {
		metaPtr = new(Meta)
	}

	meta := *metaPtr
	if meta.Ui == nil {
		meta.Ui = &cli.BasicUi{
			Reader:      os.Stdin,
			Writer:      colorable.NewColorableStdout(),
			ErrorWriter: colorable.NewColorableStderr(),
		}
	}

	return map[string]cli.CommandFactory{
		"generate": func() (cli.Command, error) {
			return &GenerateCommand{
				Meta: meta,
			}, nil
		},
		"java": func() (cli.Command, error) {
			return &JavaCommand{
				Meta: meta,
			}, nil
		},
		"version": func() (cli.Command, error) {
			return &VersionCommand{
				Version: version.Get(),
				Ui:      meta.Ui,
			}, nil
		},
	}
}

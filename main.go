// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/openapi-fork/command"
	"github.com/hashicorp/openapi-fork/version"
)

func main() {
	os.Exit(Run(os.Args[1:]))
}

func Run(args []string) int {
	meta := new(command.Meta)
	meta.SetupUi(args)

	commands := command.Commands(meta)

	cli := &cli.CLI{
		Name:                       "openapi-fork",
		Version:                    version.Get().Number(),
		Args:                       args,
		Commands:                   commands,
		Autocomplete:               true,
		AutocompleteNoDefaultFlags: true,
		HelpFunc:                   helpFunc(commands),
		HelpWriter:                 os.Stdout,
	}

	exitCode, err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err.Error())
		return 1
	}

	return exitCode
}

func helpFunc(commands map[string]cli.CommandFactory) cli.HelpFunc {
	return func(map[string]cli.CommandFactory) string {
		names := make([]string, 0, len(commands))
		width := 0
		for name := range commands {
			names = append(names, name)
			width = max(width, len(name))
		}
		sort.Strings(names)

		var b strings.Builder
		b.WriteString("Usage: openapi-fork [-version] [-help] [-autocomplete-(un)install] <command> [args]\n\n")
		b.WriteString("Available commands are:\n")
		for _, name := range names {
			cmd, err := commands[name]()
			if err != nil {
				continue
			}
			fmt.Fprintf(&b, "    %s    %s\n", name+strings.Repeat(" ", width-len(name)), cmd.Synopsis())
		}
		return b.String()
	}
}

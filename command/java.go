// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"fmt"
	"strings"

	"github.com/hashicorp/openapi-fork/fork"
	"github.com/posener/complete"
)

type JavaCommand struct {
	Meta
}

func (c *JavaCommand) Help() string {
	helpText := `
Usage: openapi-fork java [options]

  Shows the java executable used to fork services and the version it
  reports. Without -java-home the executable is resolved from JAVA_HOME and
  then the PATH.

General Options:

  ` + generalOptionsUsage() + `

Java Options:

  -java-home=<dir>
    Resolve the executable from this JDK or JRE instead.

  -min-version=<version>
    Exit with an error when the java version is older than this.
`
	return strings.TrimSpace(helpText)
}

func (c *JavaCommand) Synopsis() string {
	return "Show the java executable used for forks"
}

func (c *JavaCommand) Name() string { return "java" }

func (c *JavaCommand) AutocompleteFlags() complete.Flags {
	return mergeAutocompleteFlags(c.Meta.AutocompleteFlags(),
		complete.Flags{
			"-java-home":   complete.PredictDirs("*"),
			"-min-version": complete.PredictAnything,
		})
}

func (c *JavaCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *JavaCommand) Run(args []string) int {
	var javaHome, minVersion string

	flags := c.Meta.FlagSet(c.Name())
	flags.Usage = func() { c.Ui.Output(c.Help()) }
	flags.StringVar(&javaHome, "java-home", "", "")
	flags.StringVar(&minVersion, "min-version", "", "")

	if err := flags.Parse(args); err != nil {
		return 1
	}

	if len(flags.Args()) != 0 {
		c.Ui.Error("This command takes no arguments")
		c.Ui.Error(commandErrorText(c))
		return 1
	}

	executable := fork.JavaExecutable()
	if javaHome != "" {
		executable = fork.FindJavaExecutable(javaHome)
	}

	info, err := fork.JavaVersionInfo(executable)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error querying %s: %s", executable, err))
		return 1
	}

	c.Ui.Output(formatKV([]string{
		fmt.Sprintf("Executable|%s", executable),
		fmt.Sprintf("Version|%s", info.Version),
		fmt.Sprintf("Runtime|%s", info.Runtime),
		fmt.Sprintf("VM|%s", info.VM),
	}))

	if minVersion != "" {
		if err := fork.CheckJavaVersion(executable, minVersion); err != nil {
			c.Ui.Error(err.Error())
			return 1
		}
	}
	return 0
}

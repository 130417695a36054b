// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/openapi-fork/apidocs"
	"github.com/hashicorp/openapi-fork/config"
	"github.com/hashicorp/openapi-fork/fork"
	"github.com/hashicorp/openapi-fork/lifecycle"
	"github.com/posener/complete"
)

// DefaultConfigFile is loaded when present and no -config flag is given.
const DefaultConfigFile = "openapi-fork.hcl"

type GenerateCommand struct {
	Meta
}

func (c *GenerateCommand) Help() string {
	helpText := `
Usage: openapi-fork generate [options]

  Builds the service artifact, forks it as a child JVM, waits for the
  OpenAPI endpoint to answer and writes the document to disk. The forked
  service is always terminated before the command exits, whether the
  generation succeeded or not.

General Options:

  ` + generalOptionsUsage() + `

Generate Options:

  -config=<path>
    HCL or JSON configuration file. Defaults to ./openapi-fork.hcl when it
    exists.

  -artifact=<pattern>
    Path or glob of the runnable jar. Default = build/libs/*.jar

  -build-command=<command>
    Command that builds the artifact, e.g. "./gradlew bootJar".

  -api-docs-url=<url>
    URL of the OpenAPI document served by the forked service.

  -output-dir=<dir>
    Directory the document is written to. Default = build

  -output-file=<name>
    File name of the document. A .yaml or .yml suffix writes YAML.

  -group=<url>=<file>
    Fetch url into file. May be repeated and replaces -api-docs-url.

  -wait=<duration>
    How long to wait for the service to become ready. Default = 30s

  -fork-properties=<props>
    System properties passed to the fork, e.g. "-Dspring.profiles.active=docs".

  -main-class=<class>
    Main class started from the artifact.

  -java-home=<dir>
    JDK or JRE used for the fork. Defaults to JAVA_HOME, then the PATH.

  -jvm-arg=<arg>
    Extra JVM argument. May be repeated.

  -env=<key>=<value>
    Environment variable set for the fork. May be repeated.

  -env-file=<path>
    File of KEY=value lines added to the environment of the fork. Values
    given with -env take precedence.

  -fork-log-file=<path>
    Append the output of the fork to this file instead of the terminal.

  -strict
    Fail when a fetched document is not a valid OpenAPI document.
`
	return strings.TrimSpace(helpText)
}

func (c *GenerateCommand) Synopsis() string {
	return "Generate the OpenAPI document of a forked service"
}

func (c *GenerateCommand) Name() string { return "generate" }

func (c *GenerateCommand) AutocompleteFlags() complete.Flags {
	return mergeAutocompleteFlags(c.Meta.AutocompleteFlags(),
		complete.Flags{
			"-config":          complete.PredictFiles("*.hcl"),
			"-artifact":        complete.PredictFiles("*.jar"),
			"-build-command":   complete.PredictAnything,
			"-api-docs-url":    complete.PredictAnything,
			"-output-dir":      complete.PredictDirs("*"),
			"-output-file":     complete.PredictAnything,
			"-group":           complete.PredictAnything,
			"-wait":            complete.PredictAnything,
			"-fork-properties": complete.PredictAnything,
			"-main-class":      complete.PredictAnything,
			"-java-home":       complete.PredictDirs("*"),
			"-jvm-arg":         complete.PredictAnything,
			"-env":             complete.PredictAnything,
			"-env-file":        complete.PredictFiles("*"),
			"-fork-log-file":   complete.PredictFiles("*"),
			"-strict":          complete.PredictNothing,
		})
}

func (c *GenerateCommand) AutocompleteArgs() complete.Predictor {
	return complete.PredictNothing
}

func (c *GenerateCommand) Run(args []string) int {
	var (
		configPath, buildCommand, forkProps string
		wait                                time.Duration
		jvmArgs                             stringSliceFlag
	)
	flagCfg := &config.Config{
		GroupedAPIMappings: map[string]string{},
		Build:              &config.Build{},
		Fork:               &config.Fork{Environment: map[string]string{}},
	}

	flags := c.Meta.FlagSet(c.Name())
	flags.Usage = func() { c.Ui.Output(c.Help()) }
	flags.StringVar(&configPath, "config", "", "")
	flags.StringVar(&flagCfg.Build.Artifact, "artifact", "", "")
	flags.StringVar(&buildCommand, "build-command", "", "")
	flags.StringVar(&flagCfg.APIDocsURL, "api-docs-url", "", "")
	flags.StringVar(&flagCfg.OutputDir, "output-dir", "", "")
	flags.StringVar(&flagCfg.OutputFileName, "output-file", "", "")
	flags.Var(mapFlag(flagCfg.GroupedAPIMappings, true), "group", "")
	flags.DurationVar(&wait, "wait", 0, "")
	flags.StringVar(&forkProps, "fork-properties", "", "")
	flags.StringVar(&flagCfg.Fork.MainClass, "main-class", "", "")
	flags.StringVar(&flagCfg.Fork.JavaHome, "java-home", "", "")
	flags.Var(&jvmArgs, "jvm-arg", "")
	flags.Var(mapFlag(flagCfg.Fork.Environment, false), "env", "")
	flags.StringVar(&flagCfg.Fork.EnvFile, "env-file", "", "")
	flags.StringVar(&flagCfg.Fork.LogFile, "fork-log-file", "", "")
	flags.BoolVar(&flagCfg.Strict, "strict", false, "")

	if err := flags.Parse(args); err != nil {
		return 1
	}

	if len(flags.Args()) != 0 {
		c.Ui.Error("This command takes no arguments")
		c.Ui.Error(commandErrorText(c))
		return 1
	}

	if wait < 0 {
		c.Ui.Error("The -wait duration cannot be negative")
		return 1
	}
	flagCfg.WaitTime = wait
	flagCfg.Build.Command = strings.Fields(buildCommand)
	flagCfg.Fork.JVMArgs = jvmArgs
	if forkProps != "" {
		flagCfg.Fork.Properties = forkProps
	}

	cfg, err := c.loadConfig(configPath, flagCfg)
	if err != nil {
		c.Ui.Error(fmt.Sprintf("Error loading configuration: %s", err))
		return 1
	}

	logger := c.Meta.Logger("openapi-fork", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator := lifecycle.NewCoordinator(logger,
		lifecycle.NewCommandBuilder(logger, cfg.BuildConfig()),
		lifecycle.LauncherForker(fork.NewLauncher(logger, cfg.ForkConfig())),
		apidocs.NewGenerator(logger, cfg.GeneratorConfig()),
	)

	if err := coordinator.Run(ctx); err != nil {
		if errors.Is(err, lifecycle.ErrProcessExited) {
			c.Ui.Error(wrapAtLength("The forked service exited before the OpenAPI " +
				"document was fetched. Check the service output above, or the fork " +
				"log file when one is configured."))
		}
		c.Ui.Error(fmt.Sprintf("Error generating OpenAPI document: %s", err))
		return 1
	}

	for _, target := range cfg.GeneratorConfig().Targets() {
		c.Ui.Output(c.Colorize().Color(fmt.Sprintf(
			"[bold][green]==> Wrote %s[reset]", filepath.Join(cfg.OutputDir, target.FileName))))
	}
	return 0
}

// loadConfig layers the config file, the environment and the flags over the
// defaults and validates the result.
func (c *GenerateCommand) loadConfig(path string, flagCfg *config.Config) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		fileCfg, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		cfg = cfg.Merge(fileCfg)
	}

	envCfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	cfg = cfg.Merge(envCfg).Merge(flagCfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

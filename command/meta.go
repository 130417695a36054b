// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"flag"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/go-hclog"
	colorable "github.com/mattn/go-colorable"
	"github.com/mitchellh/colorstring"
	"github.com/posener/complete"
	"golang.org/x/term"
)

const (
	// EnvCLINoColor is an env var that toggles colored UI output.
	EnvCLINoColor = `OPENAPI_FORK_CLI_NO_COLOR`

	// EnvCLIForceColor is an env var that forces colored UI output.
	EnvCLIForceColor = `OPENAPI_FORK_CLI_FORCE_COLOR`
)

// Meta contains the options and functionality shared by every command.
type Meta struct {
	Ui cli.Ui

	// LogOutput receives log lines. Defaults to stderr.
	LogOutput io.Writer

	logLevel   string
	noColor    bool
	forceColor bool
}

// FlagSet returns a FlagSet with the common flags every command implements.
func (m *Meta) FlagSet(n string) *flag.FlagSet {
	f := flag.NewFlagSet(n, flag.ContinueOnError)

	f.StringVar(&m.logLevel, "log-level", "", "")
	f.BoolVar(&m.noColor, "no-color", false, "")
	f.BoolVar(&m.forceColor, "force-color", false, "")

	f.SetOutput(&uiErrorWriter{ui: m.Ui})
	return f
}

// AutocompleteFlags returns the completions of the common flags.
func (m *Meta) AutocompleteFlags() complete.Flags {
	return complete.Flags{
		"-log-level":   complete.PredictSet("trace", "debug", "info", "warn", "error"),
		"-no-color":    complete.PredictNothing,
		"-force-color": complete.PredictNothing,
	}
}

// Logger builds the root logger. The level comes from -log-level, then
// fallback, then INFO.
func (m *Meta) Logger(name, fallback string) hclog.Logger {
	level := m.logLevel
	if level == "" {
		level = fallback
	}

	out := m.LogOutput
	if out == nil {
		out = os.Stderr
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  hclog.LevelFromString(level),
		Output: out,
		Color:  m.logColor(),
	})
}

func (m *Meta) logColor() hclog.ColorOption {
	if m.noColor || m.LogOutput != nil {
		return hclog.ColorOff
	}
	if m.forceColor {
		return hclog.ForceColor
	}
	return hclog.AutoColor
}

func (m *Meta) Colorize() *colorstring.Colorize {
	_, coloredUi := m.Ui.(*cli.ColoredUi)

	return &colorstring.Colorize{
		Colors:  colorstring.DefaultColors,
		Disable: !coloredUi,
		Reset:   true,
	}
}

// SetupUi picks a plain or colored UI from the color flags, the color env
// vars and whether stdout is a terminal.
func (m *Meta) SetupUi(args []string) {
	noColor := os.Getenv(EnvCLINoColor) != ""
	forceColor := os.Getenv(EnvCLIForceColor) != ""

	for _, arg := range args {
		if arg == "-no-color" || arg == "--no-color" {
			noColor = true
		} else if arg == "-force-color" || arg == "--force-color" {
			forceColor = true
		}
	}
	m.noColor, m.forceColor = noColor, forceColor

	m.Ui = &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      colorable.NewColorableStdout(),
		ErrorWriter: colorable.NewColorableStderr(),
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	if !noColor && (isTerminal || forceColor) {
		m.Ui = &cli.ColoredUi{
			ErrorColor: cli.UiColorRed,
			WarnColor:  cli.UiColorYellow,
			InfoColor:  cli.UiColorGreen,
			Ui:         m.Ui,
		}
	}
}

// generalOptionsUsage returns the help string for the common flags.
func generalOptionsUsage() string {
	helpText := `
  -log-level=<level>
    Log verbosity: trace, debug, info, warn or error. Overrides
    OPENAPI_FORK_LOG_LEVEL and the log_level config setting. Default = info

  -no-color
    Disables colored command output. Alternatively, OPENAPI_FORK_CLI_NO_COLOR
    may be set. This option takes precedence over -force-color.

  -force-color
    Forces colored command output. This can be used in cases where the usual
    terminal detection fails. Alternatively, OPENAPI_FORK_CLI_FORCE_COLOR may
    be set.
`
	return strings.TrimSpace(helpText)
}

// funcVar is a flag whose value is handed to a function.
type funcVar func(s string) error

func (f funcVar) Set(s string) error { return f(s) }
func (f funcVar) String() string     { return "" }
func (f funcVar) IsBoolFlag() bool   { return false }

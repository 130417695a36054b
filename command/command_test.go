// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"os"
	"strings"
	"testing"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/openapi-fork/ci"
	"github.com/hashicorp/openapi-fork/helper/testtask"
	"github.com/hashicorp/openapi-fork/version"
	"github.com/shoenig/test/must"
)

func TestMain(m *testing.M) {
	if !testtask.Run() {
		os.Exit(m.Run())
	}
}

func TestCommands(t *testing.T) {
	ci.Parallel(t)

	ui := cli.NewMockUi()
	commands := Commands(&Meta{Ui: ui})
	must.MapContainsKeys(t, commands, []string{"generate", "java", "version"})

	for name, factory := range commands {
		cmd, err := factory()
		must.NoError(t, err)
		must.NotEq(t, "", cmd.Synopsis(), must.Sprintf("synopsis of %s", name))
		must.StrContains(t, cmd.Help(), "Usage: openapi-fork "+name)
	}
}

func TestVersionCommand(t *testing.T) {
	ci.Parallel(t)

	ui := cli.NewMockUi()
	cmd := &VersionCommand{Ui: ui, Version: &version.Info{Version: "1.0.0"}}

	must.Zero(t, cmd.Run(nil))
	must.Eq(t, "openapi-fork v1.0.0\n", ui.OutputWriter.String())
}

func TestHelpers_FormatKV(t *testing.T) {
	ci.Parallel(t)

	out := formatKV([]string{"Executable|/usr/bin/java", "VM|"})
	must.StrContains(t, out, "Executable = /usr/bin/java")
	must.StrContains(t, out, "VM         = <none>")
}

func TestHelpers_WrapAtLength(t *testing.T) {
	ci.Parallel(t)

	in := strings.Repeat("the forked service exited early ", 10)
	lines := strings.Split(wrapAtLength(in), "\n")
	must.Greater(t, 1, len(lines))
	for _, line := range lines {
		must.LessEq(t, maxLineLength, len(line))
	}
	must.Eq(t, strings.Fields(in), strings.Fields(strings.Join(lines, " ")))

	must.Eq(t, "    short", wrapAtLengthWithPadding("short", 4))
}

func TestHelpers_UiErrorWriter(t *testing.T) {
	ci.Parallel(t)

	ui := cli.NewMockUi()
	w := &uiErrorWriter{ui: ui}

	_, err := w.Write([]byte("flag provided but "))
	must.NoError(t, err)
	must.Eq(t, "", ui.ErrorWriter.String())

	_, err = w.Write([]byte("not defined: -x\nnext"))
	must.NoError(t, err)
	must.Eq(t, "flag provided but not defined: -x\n", ui.ErrorWriter.String())
}

func TestHelpers_MapFlag(t *testing.T) {
	ci.Parallel(t)

	env := map[string]string{}
	set := mapFlag(env, false)
	must.NoError(t, set.Set("JAVA_TOOL_OPTIONS=-Dfile.encoding=UTF-8"))
	must.NoError(t, set.Set("EMPTY="))
	must.Eq(t, map[string]string{
		"JAVA_TOOL_OPTIONS": "-Dfile.encoding=UTF-8",
		"EMPTY":             "",
	}, env)

	must.ErrorContains(t, set.Set("NOVALUE"), "expected key=value")
	must.ErrorContains(t, set.Set("=value"), "expected key=value")

	groups := map[string]string{}
	set = mapFlag(groups, true)
	must.NoError(t, set.Set("http://localhost:8080/v3/api-docs?group=admin=admin.json"))
	must.Eq(t, "admin.json", groups["http://localhost:8080/v3/api-docs?group=admin"])
	must.ErrorContains(t, set.Set("http://localhost:8080/v3/api-docs"), "expected key=value")
}

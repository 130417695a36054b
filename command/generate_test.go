// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/cli"
	"github.com/hashicorp/openapi-fork/ci"
	"github.com/hashicorp/openapi-fork/helper/testlog"
	"github.com/hashicorp/openapi-fork/helper/testtask"
	"github.com/shoenig/test/must"
)

var _ cli.Command = (*GenerateCommand)(nil)

func newGenerateCommand(t *testing.T) (*cli.MockUi, *GenerateCommand) {
	ui := cli.NewMockUi()
	return ui, &GenerateCommand{Meta: Meta{Ui: ui, LogOutput: testlog.NewWriter(t)}}
}

func writeJar(t *testing.T, dir string) string {
	jar := filepath.Join(dir, "pets-0.0.1.jar")
	must.NoError(t, os.WriteFile(jar, []byte("PK"), 0644))
	return jar
}

func TestGenerateCommand_Fails(t *testing.T) {
	ci.Parallel(t)

	cases := []struct {
		name string
		args []string
		msg  string
	}{
		{
			name: "extra args",
			args: []string{"some", "bad", "args"},
			msg:  "For additional help try 'openapi-fork generate -help'",
		},
		{
			name: "bad flag",
			args: []string{"-unknown"},
			msg:  "flag provided but not defined",
		},
		{
			name: "negative wait",
			args: []string{"-wait=-1s"},
			msg:  "cannot be negative",
		},
		{
			name: "invalid url",
			args: []string{"-api-docs-url=not a url"},
			msg:  "invalid configuration",
		},
		{
			name: "env without value",
			args: []string{"-env=SPRING_PROFILES_ACTIVE"},
			msg:  "expected key=value",
		},
		{
			name: "group without file",
			args: []string{"-group=http://localhost:8080/v3/api-docs/admin"},
			msg:  "expected key=value",
		},
		{
			name: "missing config file",
			args: []string{"-config=/does/not/exist.hcl"},
			msg:  "failed to load /does/not/exist.hcl",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ui, cmd := newGenerateCommand(t)
			must.One(t, cmd.Run(tc.args))
			must.StrContains(t, ui.ErrorWriter.String(), tc.msg)
		})
	}
}

func TestGenerateCommand_Run(t *testing.T) {
	testtask.SetEnv(t)
	home := testtask.JavaHome(t)

	dir := t.TempDir()
	jar := writeJar(t, dir)
	port := ci.FreePort()

	ui, cmd := newGenerateCommand(t)
	code := cmd.Run([]string{
		"-java-home", home,
		"-artifact", jar,
		"-fork-properties", fmt.Sprintf("-Dserver.port=%d -Dclasspath=/elsewhere", port),
		"-api-docs-url", fmt.Sprintf("http://127.0.0.1:%d/v3/api-docs", port),
		"-output-dir", filepath.Join(dir, "docs"),
		"-output-file", "pets.yaml",
		"-wait", "20s",
		"-strict",
	})
	must.Zero(t, code, must.Sprint(ui.ErrorWriter.String()))

	out, err := os.ReadFile(filepath.Join(dir, "docs", "pets.yaml"))
	must.NoError(t, err)
	must.StrContains(t, string(out), "title: fake")
	must.StrContains(t, ui.OutputWriter.String(), "pets.yaml")
}

func TestGenerateCommand_Run_Grouped(t *testing.T) {
	testtask.SetEnv(t)
	home := testtask.JavaHome(t)

	dir := t.TempDir()
	jar := writeJar(t, dir)
	port := ci.FreePort()
	base := fmt.Sprintf("http://127.0.0.1:%d/v3/api-docs", port)

	ui, cmd := newGenerateCommand(t)
	code := cmd.Run([]string{
		"-java-home", home,
		"-artifact", jar,
		"-fork-properties", fmt.Sprintf("-Dserver.port=%d", port),
		"-group", base + "/admin=admin.json",
		"-group", base + "/public=public.json",
		"-group", base + ".yaml=from-yaml.json",
		"-output-dir", dir,
	})
	must.Zero(t, code, must.Sprint(ui.ErrorWriter.String()))

	out, err := os.ReadFile(filepath.Join(dir, "from-yaml.json"))
	must.NoError(t, err)
	must.StrContains(t, string(out), `"openapi": "3.0.1"`)

	for _, group := range []string{"admin", "public"} {
		out, err := os.ReadFile(filepath.Join(dir, group+".json"))
		must.NoError(t, err)
		must.StrContains(t, string(out), fmt.Sprintf(`"title": %q`, group))
	}
}

func TestGenerateCommand_ServiceExits(t *testing.T) {
	testtask.SetEnv(t)
	home := testtask.JavaHome(t)

	dir := t.TempDir()
	jar := writeJar(t, dir)

	ui, cmd := newGenerateCommand(t)
	code := cmd.Run([]string{
		"-java-home", home,
		"-artifact", jar,
		"-fork-properties", "-Dtesttask.exit=3",
		"-api-docs-url", fmt.Sprintf("http://127.0.0.1:%d/v3/api-docs", ci.FreePort()),
		"-output-dir", dir,
		"-wait", "20s",
	})
	must.One(t, code)
	must.StrContains(t, ui.ErrorWriter.String(), "exited before the OpenAPI")
	must.FileNotExists(t, filepath.Join(dir, "openapi.json"))
}

func TestGenerateCommand_NoArtifact(t *testing.T) {
	ci.Parallel(t)

	dir := t.TempDir()

	ui, cmd := newGenerateCommand(t)
	code := cmd.Run([]string{
		"-artifact", filepath.Join(dir, "build", "libs", "*.jar"),
		"-api-docs-url", fmt.Sprintf("http://127.0.0.1:%d/v3/api-docs", ci.FreePort()),
		"-output-dir", dir,
		"-wait", "300ms",
	})
	must.One(t, code)
	must.StrContains(t, ui.ErrorWriter.String(), "did not become ready")
}

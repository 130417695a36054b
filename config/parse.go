// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	hcljson "github.com/hashicorp/hcl/v2/json"
	"github.com/hashicorp/openapi-fork/fork"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

type fileConfig struct {
	APIDocsURL         string            `hcl:"api_docs_url,optional"`
	OutputDir          string            `hcl:"output_dir,optional"`
	OutputFileName     string            `hcl:"output_file_name,optional"`
	GroupedAPIMappings map[string]string `hcl:"grouped_api_mappings,optional"`
	WaitTime           string            `hcl:"wait_time,optional"`
	PollInterval       string            `hcl:"poll_interval,optional"`
	Strict             bool              `hcl:"strict,optional"`
	LogLevel           string            `hcl:"log_level,optional"`

	Build *fileBuild `hcl:"build,block"`
	Fork  *fileFork  `hcl:"fork,block"`
}

type fileBuild struct {
	Command  []string          `hcl:"command,optional"`
	Dir      string            `hcl:"dir,optional"`
	Artifact string            `hcl:"artifact,optional"`
	Exclude  []string          `hcl:"exclude,optional"`
	Env      map[string]string `hcl:"env,optional"`
}

type fileFork struct {
	JavaHome       string            `hcl:"java_home,optional"`
	MainClass      string            `hcl:"main_class,optional"`
	Properties     cty.Value         `hcl:"properties,optional"`
	JVMArgs        []string          `hcl:"jvm_args,optional"`
	Args           []string          `hcl:"args,optional"`
	Environment    map[string]string `hcl:"environment,optional"`
	EnvFile        string            `hcl:"env_file,optional"`
	WorkingDir     string            `hcl:"working_dir,optional"`
	LogFile        string            `hcl:"log_file,optional"`
	ShutdownGrace  string            `hcl:"shutdown_grace,optional"`
	MinJavaVersion string            `hcl:"min_java_version,optional"`
}

// LoadConfigFile reads and parses the configuration file at path.
func LoadConfigFile(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(path, src)
}

// Parse decodes an HCL or JSON configuration. The syntax is picked from the
// content so files need no particular extension.
func Parse(filename string, src []byte) (*Config, error) {
	var (
		file  *hcl.File
		diags hcl.Diagnostics
	)
	if isJSON(src) {
		file, diags = hcljson.Parse(src, filename)
	} else {
		file, diags = hclsyntax.ParseConfig(src, filename, hcl.Pos{Line: 1, Column: 1})
	}
	if diags.HasErrors() {
		return nil, diags
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, diags
	}

	return fc.toConfig()
}

func isJSON(src []byte) bool {
	for _, c := range src {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c == '{'
	}
	return false
}

func (fc *fileConfig) toConfig() (*Config, error) {
	var err error
	c := &Config{
		APIDocsURL:         fc.APIDocsURL,
		OutputDir:          fc.OutputDir,
		OutputFileName:     fc.OutputFileName,
		GroupedAPIMappings: fc.GroupedAPIMappings,
		Strict:             fc.Strict,
		LogLevel:           fc.LogLevel,
	}
	if c.WaitTime, err = parseDuration("wait_time", fc.WaitTime); err != nil {
		return nil, err
	}
	if c.PollInterval, err = parseDuration("poll_interval", fc.PollInterval); err != nil {
		return nil, err
	}

	if b := fc.Build; b != nil {
		c.Build = &Build{
			Command:  b.Command,
			Dir:      b.Dir,
			Artifact: b.Artifact,
			Exclude:  b.Exclude,
			Env:      b.Env,
		}
	}

	if f := fc.Fork; f != nil {
		c.Fork = &Fork{
			JavaHome:       f.JavaHome,
			MainClass:      f.MainClass,
			Properties:     forkProperties(f.Properties),
			JVMArgs:        f.JVMArgs,
			Args:           f.Args,
			Environment:    f.Environment,
			EnvFile:        f.EnvFile,
			WorkingDir:     f.WorkingDir,
			LogFile:        f.LogFile,
			MinJavaVersion: f.MinJavaVersion,
		}
		if c.Fork.ShutdownGrace, err = parseDuration("fork.shutdown_grace", f.ShutdownGrace); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func parseDuration(name, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, s, err)
	}
	if d < 0 {
		return 0, errors.New(name + " cannot be negative")
	}
	return d, nil
}

// forkProperties converts the decoded properties attribute into the value
// fork.ExtractProperties understands. A string stays a string. Objects and
// maps become a fork.Properties in cty iteration order, which sorts by key,
// not by declaration. Anything else is passed through so the launcher can
// report it.
func forkProperties(v cty.Value) any {
	if v.IsNull() || !v.IsKnown() {
		return nil
	}

	ty := v.Type()
	switch {
	case ty.Equals(cty.String):
		return v.AsString()

	case ty.IsObjectType() || ty.IsMapType():
		props := make(fork.Properties, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			props = append(props, fork.Property{
				Key:   k.AsString(),
				Value: ctyString(ev),
			})
		}
		return props

	default:
		return ctyGoValue(v)
	}
}

// ctyString renders a primitive property value. Values that cannot be
// represented as a string fall back to their cty representation.
func ctyString(v cty.Value) string {
	if v.IsNull() {
		return ""
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil || !s.IsKnown() {
		return v.GoString()
	}
	return s.AsString()
}

// ctyGoValue maps an unsupported properties value onto a plain Go value so
// the warning names a familiar type.
func ctyGoValue(v cty.Value) any {
	ty := v.Type()
	switch {
	case ty.Equals(cty.Number):
		f, _ := v.AsBigFloat().Float64()
		return f
	case ty.Equals(cty.Bool):
		return v.True()
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, ctyString(ev))
		}
		return out
	default:
		return v.GoString()
	}
}

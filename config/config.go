// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package config loads the openapi-fork configuration. Values come from, in
// increasing precedence, built in defaults, an HCL or JSON file, OPENAPI_FORK_
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-version"
	"github.com/hashicorp/openapi-fork/apidocs"
	"github.com/hashicorp/openapi-fork/fork"
	"github.com/hashicorp/openapi-fork/lifecycle"
)

const (
	DefaultAPIDocsURL     = "http://localhost:8080/v3/api-docs"
	DefaultOutputDir      = "build"
	DefaultOutputFileName = "openapi.json"
	DefaultWaitTime       = 30 * time.Second
	DefaultPollInterval   = time.Second
	DefaultArtifact       = "build/libs/*.jar"
	DefaultMainClass      = "org.springframework.boot.loader.launch.PropertiesLauncher"
	DefaultLogLevel       = "INFO"
)

// Config is the complete configuration of a generate run.
type Config struct {
	APIDocsURL         string
	OutputDir          string
	OutputFileName     string
	GroupedAPIMappings map[string]string
	WaitTime           time.Duration
	PollInterval       time.Duration
	Strict             bool
	LogLevel           string

	Build *Build
	Fork  *Fork
}

// Build configures the artifact stage.
type Build struct {
	Command  []string
	Dir      string
	Artifact string
	Exclude  []string
	Env      map[string]string
}

// Fork configures the forked service.
type Fork struct {
	JavaHome  string
	MainClass string

	// Properties is a -D string, a fork.Properties list, or an unsupported
	// value that is reported and ignored.
	Properties any

	JVMArgs     []string
	Args        []string
	Environment map[string]string

	// EnvFile is a KEY=value file loaded into Environment by Resolve.
	EnvFile string

	WorkingDir     string
	LogFile        string
	ShutdownGrace  time.Duration
	MinJavaVersion string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		APIDocsURL:     DefaultAPIDocsURL,
		OutputDir:      DefaultOutputDir,
		OutputFileName: DefaultOutputFileName,
		WaitTime:       DefaultWaitTime,
		PollInterval:   DefaultPollInterval,
		LogLevel:       DefaultLogLevel,
		Build: &Build{
			Artifact: DefaultArtifact,
			Exclude:  []string{"*-plain.jar"},
		},
		Fork: &Fork{
			MainClass: DefaultMainClass,
		},
	}
}

// Merge returns a new config with the set values of b layered over c.
func (c *Config) Merge(b *Config) *Config {
	result := *c
	if b == nil {
		return &result
	}

	if b.APIDocsURL != "" {
		result.APIDocsURL = b.APIDocsURL
	}
	if b.OutputDir != "" {
		result.OutputDir = b.OutputDir
	}
	if b.OutputFileName != "" {
		result.OutputFileName = b.OutputFileName
	}
	if len(b.GroupedAPIMappings) != 0 {
		result.GroupedAPIMappings = make(map[string]string, len(b.GroupedAPIMappings))
		for k, v := range b.GroupedAPIMappings {
			result.GroupedAPIMappings[k] = v
		}
	}
	if b.WaitTime != 0 {
		result.WaitTime = b.WaitTime
	}
	if b.PollInterval != 0 {
		result.PollInterval = b.PollInterval
	}
	if b.Strict {
		result.Strict = true
	}
	if b.LogLevel != "" {
		result.LogLevel = b.LogLevel
	}

	result.Build = result.Build.Merge(b.Build)
	result.Fork = result.Fork.Merge(b.Fork)
	return &result
}

func (b *Build) Merge(o *Build) *Build {
	if b == nil {
		b = &Build{}
	}
	result := *b
	if o == nil {
		return &result
	}

	if len(o.Command) != 0 {
		result.Command = append([]string(nil), o.Command...)
	}
	if o.Dir != "" {
		result.Dir = o.Dir
	}
	if o.Artifact != "" {
		result.Artifact = o.Artifact
	}
	if len(o.Exclude) != 0 {
		result.Exclude = append([]string(nil), o.Exclude...)
	}
	result.Env = mergeMap(result.Env, o.Env)
	return &result
}

func (f *Fork) Merge(o *Fork) *Fork {
	if f == nil {
		f = &Fork{}
	}
	result := *f
	if o == nil {
		return &result
	}

	if o.JavaHome != "" {
		result.JavaHome = o.JavaHome
	}
	if o.MainClass != "" {
		result.MainClass = o.MainClass
	}
	if o.Properties != nil {
		result.Properties = o.Properties
	}
	if len(o.JVMArgs) != 0 {
		result.JVMArgs = append([]string(nil), o.JVMArgs...)
	}
	if len(o.Args) != 0 {
		result.Args = append([]string(nil), o.Args...)
	}
	result.Environment = mergeMap(result.Environment, o.Environment)
	if o.EnvFile != "" {
		result.EnvFile = o.EnvFile
	}
	if o.WorkingDir != "" {
		result.WorkingDir = o.WorkingDir
	}
	if o.LogFile != "" {
		result.LogFile = o.LogFile
	}
	if o.ShutdownGrace != 0 {
		result.ShutdownGrace = o.ShutdownGrace
	}
	if o.MinJavaVersion != "" {
		result.MinJavaVersion = o.MinJavaVersion
	}
	return &result
}

func mergeMap(a, b map[string]string) map[string]string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var mErr *multierror.Error

	single := len(c.GroupedAPIMappings) == 0
	err := validation.ValidateStruct(c,
		validation.Field(&c.APIDocsURL, validation.When(single, validation.Required, is.RequestURL)),
		validation.Field(&c.OutputFileName, validation.When(single, validation.Required)),
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.WaitTime, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.PollInterval, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.GroupedAPIMappings, validation.By(validateMappings)),
	)
	if err != nil {
		mErr = multierror.Append(mErr, err)
	}

	if c.Build == nil {
		mErr = multierror.Append(mErr, errors.New("build: missing configuration"))
	} else if err := c.Build.Validate(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("build: %w", err))
	}
	if c.Fork == nil {
		mErr = multierror.Append(mErr, errors.New("fork: missing configuration"))
	} else if err := c.Fork.Validate(); err != nil {
		mErr = multierror.Append(mErr, fmt.Errorf("fork: %w", err))
	}
	return mErr.ErrorOrNil()
}

func validateMappings(value any) error {
	mappings, _ := value.(map[string]string)

	urls := make([]string, 0, len(mappings))
	for url := range mappings {
		urls = append(urls, url)
	}
	sort.Strings(urls)

	for _, url := range urls {
		if err := is.RequestURL.Validate(url); err != nil {
			return fmt.Errorf("%q: %w", url, err)
		}
		if strings.TrimSpace(mappings[url]) == "" {
			return fmt.Errorf("%q: output file name cannot be blank", url)
		}
	}
	return nil
}

func (b *Build) Validate() error {
	return validation.ValidateStruct(b,
		validation.Field(&b.Artifact, validation.Required),
	)
}

func (f *Fork) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.MainClass, validation.Required),
		validation.Field(&f.ShutdownGrace, validation.Min(time.Duration(0))),
		validation.Field(&f.MinJavaVersion, validation.By(func(value any) error {
			s, _ := value.(string)
			if s == "" {
				return nil
			}
			_, err := version.NewVersion(s)
			return err
		})),
	)
}

// GeneratorConfig is the configuration of the generate stage.
func (c *Config) GeneratorConfig() *apidocs.Config {
	return &apidocs.Config{
		APIDocsURL:         c.APIDocsURL,
		OutputFileName:     c.OutputFileName,
		GroupedAPIMappings: c.GroupedAPIMappings,
		OutputDir:          c.OutputDir,
		WaitTime:           c.WaitTime,
		PollInterval:       c.PollInterval,
		Strict:             c.Strict,
	}
}

// BuildConfig is the configuration of the build stage.
func (c *Config) BuildConfig() *lifecycle.BuildConfig {
	return &lifecycle.BuildConfig{
		Command:  c.Build.Command,
		Dir:      c.Build.Dir,
		Env:      envList(c.Build.Env),
		Artifact: c.Build.Artifact,
		Exclude:  c.Build.Exclude,
	}
}

// ForkConfig is the configuration of the fork stage.
func (c *Config) ForkConfig() *fork.Config {
	var executable string
	if c.Fork.JavaHome != "" {
		executable = fork.FindJavaExecutable(c.Fork.JavaHome)
	}

	return &fork.Config{
		Executable:     executable,
		JVMArgs:        c.Fork.JVMArgs,
		Properties:     c.Fork.Properties,
		MainClass:      c.Fork.MainClass,
		Args:           c.Fork.Args,
		Env:            envList(c.Fork.Environment),
		Dir:            c.Fork.WorkingDir,
		LogFile:        c.Fork.LogFile,
		ShutdownGrace:  c.Fork.ShutdownGrace,
		MinJavaVersion: c.Fork.MinJavaVersion,
	}
}

// envList renders m as sorted KEY=value entries.
func envList(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by FromEnv.
const EnvPrefix = "OPENAPI_FORK_"

type envConfig struct {
	APIDocsURL     string        `env:"API_DOCS_URL"`
	OutputDir      string        `env:"OUTPUT_DIR"`
	OutputFileName string        `env:"OUTPUT_FILE_NAME"`
	WaitTime       time.Duration `env:"WAIT_TIME"`
	PollInterval   time.Duration `env:"POLL_INTERVAL"`
	Strict         bool          `env:"STRICT"`
	LogLevel       string        `env:"LOG_LEVEL"`

	BuildCommand []string `env:"BUILD_COMMAND" envSeparator:" "`
	BuildDir     string   `env:"BUILD_DIR"`
	Artifact     string   `env:"ARTIFACT"`

	JavaHome       string            `env:"JAVA_HOME"`
	MainClass      string            `env:"MAIN_CLASS"`
	ForkProperties string            `env:"FORK_PROPERTIES"`
	JVMArgs        []string          `env:"JVM_ARGS" envSeparator:" "`
	Environment    map[string]string `env:"FORK_ENV"`
	EnvFile        string            `env:"FORK_ENV_FILE"`
	WorkingDir     string            `env:"WORKING_DIR"`
	LogFile        string            `env:"FORK_LOG_FILE"`
	ShutdownGrace  time.Duration     `env:"SHUTDOWN_GRACE"`
	MinJavaVersion string            `env:"MIN_JAVA_VERSION"`
}

// FromEnv reads the OPENAPI_FORK_ variables of the process environment.
func FromEnv() (*Config, error) {
	return FromEnvironment(env.ToMap(os.Environ()))
}

// FromEnvironment reads the OPENAPI_FORK_ variables of environ. Unset
// variables leave the matching fields empty so the result can be merged.
func FromEnvironment(environ map[string]string) (*Config, error) {
	var e envConfig
	err := env.ParseWithOptions(&e, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	c := &Config{
		APIDocsURL:     e.APIDocsURL,
		OutputDir:      e.OutputDir,
		OutputFileName: e.OutputFileName,
		WaitTime:       e.WaitTime,
		PollInterval:   e.PollInterval,
		Strict:         e.Strict,
		LogLevel:       e.LogLevel,
		Build: &Build{
			Command:  e.BuildCommand,
			Dir:      e.BuildDir,
			Artifact: e.Artifact,
		},
		Fork: &Fork{
			JavaHome:       e.JavaHome,
			MainClass:      e.MainClass,
			JVMArgs:        e.JVMArgs,
			Environment:    e.Environment,
			EnvFile:        e.EnvFile,
			WorkingDir:     e.WorkingDir,
			LogFile:        e.LogFile,
			ShutdownGrace:  e.ShutdownGrace,
			MinJavaVersion: e.MinJavaVersion,
		},
	}
	if e.ForkProperties != "" {
		c.Fork.Properties = e.ForkProperties
	}
	return c, nil
}

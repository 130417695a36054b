// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-envparse"
	"github.com/mitchellh/go-homedir"
)

// Resolve expands ~ in path settings and loads fork.env_file. Variables set
// in fork.environment win over the ones read from the file.
func (c *Config) Resolve() error {
	paths := []*string{&c.OutputDir}
	if c.Build != nil {
		paths = append(paths, &c.Build.Dir, &c.Build.Artifact)
	}
	if c.Fork != nil {
		paths = append(paths, &c.Fork.JavaHome, &c.Fork.WorkingDir, &c.Fork.LogFile, &c.Fork.EnvFile)
	}
	for _, p := range paths {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand %q: %w", *p, err)
		}
		*p = expanded
	}

	if c.Fork == nil || c.Fork.EnvFile == "" {
		return nil
	}

	vars, err := readEnvFile(c.Fork.EnvFile)
	if err != nil {
		return err
	}
	c.Fork.Environment = mergeMap(vars, c.Fork.Environment)
	return nil
}

func readEnvFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open env file: %w", err)
	}
	defer f.Close()

	vars, err := envparse.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse env file %s: %w", path, err)
	}
	return vars, nil
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package fork

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/hashicorp/go-version"
)

const (
	// javaCommand is used when no java executable is found under the java
	// home, leaving the lookup to PATH.
	javaCommand = "java"
)

// javaExecutableNames are tried in order inside <java home>/bin.
var javaExecutableNames = []string{"java", "java.exe"}

// JavaExecutable is the java executable derived from JAVA_HOME. It is
// resolved on first use and reused for the rest of the process.
var JavaExecutable = sync.OnceValue(func() string {
	return FindJavaExecutable(os.Getenv("JAVA_HOME"))
})

// FindJavaExecutable returns the absolute path of the java executable in the
// bin directory of javaHome, or "java" when there is none.
func FindJavaExecutable(javaHome string) string {
	if javaHome == "" {
		return javaCommand
	}

	binDir := filepath.Join(javaHome, "bin")
	for _, name := range javaExecutableNames {
		candidate := filepath.Join(binDir, name)
		fi, err := os.Stat(candidate)
		if err != nil || fi.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(candidate); err == nil {
			return abs
		}
		return candidate
	}
	return javaCommand
}

// JavaVersion describes the output of `java -version`.
type JavaVersion struct {
	Version string
	Runtime string
	VM      string
}

// javaVersionCommand is overridden in tests.
var javaVersionCommand = func(executable string) []string {
	return []string{executable, "-version"}
}

var javaVersionRe = regexp.MustCompile(`version "([^"]*)"`)

// JavaVersionInfo runs `java -version` for executable and parses its output.
func JavaVersionInfo(executable string) (*JavaVersion, error) {
	var out bytes.Buffer

	args := javaVersionCommand(executable)
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to check java version: %w", err)
	}

	v, rt, vm := parseJavaVersionOutput(out.String())
	return &JavaVersion{Version: v, Runtime: rt, VM: vm}, nil
}

// parseJavaVersionOutput extracts the version, runtime and vm lines. Output
// that does not look like `java -version` yields empty strings.
func parseJavaVersionOutput(output string) (ver, runtime, vm string) {
	output = strings.TrimSpace(output)

	lines := strings.Split(output, "\n")
	for len(lines) > 0 && strings.Contains(lines[0], "Picked up _JAVA_OPTIONS") {
		lines = lines[1:]
	}

	if len(lines) < 3 {
		return "", "", ""
	}

	first := strings.TrimSpace(lines[0])
	if match := javaVersionRe.FindStringSubmatch(first); len(match) == 2 {
		ver = match[1]
	} else if fields := strings.Fields(first); len(fields) > 1 {
		ver = fields[1]
	}

	runtime = strings.TrimSpace(lines[1])
	vm = strings.TrimSpace(lines[2])
	return ver, runtime, vm
}

// normalizeJavaVersion maps legacy "1.8.0_192" style versions onto the
// modern numbering so they compare naturally with "17".
func normalizeJavaVersion(v string) string {
	v = strings.ReplaceAll(v, "_", ".")
	if strings.HasPrefix(v, "1.") {
		v = strings.TrimPrefix(v, "1.")
	}
	return v
}

// CheckJavaVersion fails when the installed java is older than minimum.
func CheckJavaVersion(executable, minimum string) error {
	want, err := version.NewVersion(minimum)
	if err != nil {
		return fmt.Errorf("invalid minimum java version %q: %w", minimum, err)
	}

	info, err := JavaVersionInfo(executable)
	if err != nil {
		return err
	}
	if info.Version == "" {
		return fmt.Errorf("unable to determine version of %s", executable)
	}

	have, err := version.NewVersion(normalizeJavaVersion(info.Version))
	if err != nil {
		return fmt.Errorf("unable to parse java version %q: %w", info.Version, err)
	}

	if have.LessThan(want) {
		return fmt.Errorf("java %s is older than the required %s", info.Version, minimum)
	}
	return nil
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package testtask turns the running test binary into a stand-in for a
// forked Spring Boot JVM. Tests point the fork executable at Path() and add
// Env() to the child environment; TestMain must call Run first thing.
//
// The fake JVM understands the same command line as java:
//
//	[jvm args...] -cp <artifact> [-Dkey=value...] <main class> [args...]
//
// and the following system properties:
//
//	server.port           serve OpenAPI documents on 127.0.0.1:<port>
//	testtask.argsfile     write the received argument vector as JSON
//	testtask.startdelay   wait before listening
//	testtask.exit         exit immediately with the given code
//	testtask.lifetime     exit after this long (default 1m)
package testtask

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"
)

const envKey = "OPENAPI_FORK_TEST_TASK"

// Document is the OpenAPI document served by the fake JVM. Grouped
// documents replace the title with the group name.
const Document = `{"openapi":"3.0.1","info":{"title":"%s","version":"v0"},"paths":{"/pets":{"get":{"responses":{"200":{"description":"ok"}}}}}}`

// YAMLDocument is served for the .yaml variant of the docs endpoint.
const YAMLDocument = `openapi: 3.0.1
info:
  title: %s
  version: v0
paths:
  /pets:
    get:
      responses:
        "200":
          description: ok
`

// Path returns the path to the currently running executable.
func Path() string {
	path, err := os.Executable()
	if err != nil {
		panic(err)
	}
	return path
}

// Env returns the environment entries that make Run act as a JVM.
func Env() []string {
	return []string{envKey + "=jvm"}
}

// SetEnv makes processes started by the test, including JavaHome's java,
// act as the fake JVM.
func SetEnv(t testing.TB) {
	t.Setenv(envKey, "jvm")
}

// JavaHome lays out a JAVA_HOME whose bin/java is the test binary.
func JavaHome(t testing.TB) string {
	home := t.TempDir()
	bin := filepath.Join(home, "bin")
	if err := os.MkdirAll(bin, 0755); err != nil {
		t.Fatalf("failed to create java home: %v", err)
	}

	name := "java"
	if runtime.GOOS == "windows" {
		name = "java.exe"
	}
	if err := os.Symlink(Path(), filepath.Join(bin, name)); err != nil {
		t.Skipf("cannot link fake java: %v", err)
	}
	return home
}

// Run interprets os.Args as a java command line if the current program was
// launched with Env. It returns false if the environment was not set by this
// package.
func Run() bool {
	switch mode := os.Getenv(envKey); mode {
	case "":
		return false
	case "jvm":
		os.Exit(jvm(os.Args[1:]))
		return true
	default:
		fmt.Fprintf(os.Stderr, "unexpected value for %s, %q\n", envKey, mode)
		os.Exit(1)
		return true
	}
}

// CommandLine is the parsed java command line.
type CommandLine struct {
	JVMArgs    []string          `json:"jvm_args"`
	Classpath  string            `json:"classpath"`
	Properties map[string]string `json:"properties"`
	Flags      []string          `json:"flags"`
	MainClass  string            `json:"main_class"`
	Args       []string          `json:"args"`
}

// Parse splits a java argument vector into its parts.
func Parse(args []string) (*CommandLine, error) {
	cl := &CommandLine{Properties: map[string]string{}}

	i := 0
	for ; i < len(args) && args[i] != "-cp"; i++ {
		cl.JVMArgs = append(cl.JVMArgs, args[i])
	}
	if i+1 >= len(args) {
		return nil, fmt.Errorf("missing -cp in %q", args)
	}
	cl.Classpath = args[i+1]
	i += 2

	for ; i < len(args) && strings.HasPrefix(args[i], "-D"); i++ {
		cl.Flags = append(cl.Flags, args[i])
		key, value, _ := strings.Cut(strings.TrimPrefix(args[i], "-D"), "=")
		cl.Properties[key] = value
	}
	if i >= len(args) {
		return nil, fmt.Errorf("missing main class in %q", args)
	}
	cl.MainClass = args[i]
	cl.Args = args[i+1:]
	return cl, nil
}

func jvm(args []string) int {
	if len(args) == 1 && args[0] == "-version" {
		printVersion()
		return 0
	}

	cl, err := Parse(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	props := cl.Properties

	if path := props["testtask.argsfile"]; path != "" {
		b, _ := json.Marshal(cl)
		if err := os.WriteFile(path, b, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write args file: %v\n", err)
			return 1
		}
	}

	if code := props["testtask.exit"]; code != "" {
		n, _ := strconv.Atoi(code)
		return n
	}

	if d := duration(props["testtask.startdelay"], 0); d > 0 {
		time.Sleep(d)
	}

	if port := props["server.port"]; port != "" {
		ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", port))
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to listen: %v\n", err)
			return 1
		}
		go http.Serve(ln, handler())
	}

	time.Sleep(duration(props["testtask.lifetime"], time.Minute))
	return 0
}

// JavaVersion is reported by `-version` unless overridden through the
// OPENAPI_FORK_TEST_JAVA_VERSION environment variable.
const JavaVersion = "17.0.9"

func printVersion() {
	v := os.Getenv("OPENAPI_FORK_TEST_JAVA_VERSION")
	if v == "" {
		v = JavaVersion
	}
	fmt.Fprintf(os.Stderr, "openjdk version %q 2023-10-17\n", v)
	fmt.Fprintf(os.Stderr, "OpenJDK Runtime Environment Temurin-%s+9 (build %s+9)\n", v, v)
	fmt.Fprintf(os.Stderr, "OpenJDK 64-Bit Server VM Temurin-%s+9 (build %s+9, mixed mode, sharing)\n", v, v)
}

func handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/api-docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, Document, "fake")
	})
	mux.HandleFunc("/v3/api-docs.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.oai.openapi")
		fmt.Fprintf(w, YAMLDocument, "fake")
	})
	mux.HandleFunc("/v3/api-docs/{group}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, Document, r.PathValue("group"))
	})
	return mux
}

func duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

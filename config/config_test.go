// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/openapi-fork/ci"
	"github.com/hashicorp/openapi-fork/fork"
	"github.com/shoenig/test/must"
)

const sampleHCL = `
api_docs_url     = "http://localhost:9090/v3/api-docs"
output_dir       = "docs"
output_file_name = "pets.yaml"
wait_time        = "45s"
strict           = true

build {
  command  = ["./gradlew", "bootJar"]
  artifact = "build/libs/pets-*.jar"
  exclude  = ["*-plain.jar", "*-sources.jar"]
}

fork {
  main_class     = "com.example.PetsApplication"
  jvm_args       = ["-Xmx256m"]
  shutdown_grace = "5s"
  environment = {
    SPRING_PROFILES_ACTIVE = "docs"
  }
  properties = {
    "server.port"     = 9090
    "spring.main.lazy-initialization" = true
  }
}
`

const sampleJSON = `{
  "api_docs_url": "http://localhost:9090/v3/api-docs",
  "grouped_api_mappings": {
    "http://localhost:9090/v3/api-docs/admin": "admin.json",
    "http://localhost:9090/v3/api-docs/public": "public.json"
  },
  "fork": {
    "properties": "-Dspring.profiles.active=docs -Dserver.port=9090"
  }
}`

func TestParse_HCL(t *testing.T) {
	ci.Parallel(t)

	c, err := Parse("openapi-fork.hcl", []byte(sampleHCL))
	must.NoError(t, err)

	must.Eq(t, "http://localhost:9090/v3/api-docs", c.APIDocsURL)
	must.Eq(t, "docs", c.OutputDir)
	must.Eq(t, "pets.yaml", c.OutputFileName)
	must.Eq(t, 45*time.Second, c.WaitTime)
	must.True(t, c.Strict)

	must.Eq(t, []string{"./gradlew", "bootJar"}, c.Build.Command)
	must.Eq(t, "build/libs/pets-*.jar", c.Build.Artifact)
	must.Eq(t, []string{"*-plain.jar", "*-sources.jar"}, c.Build.Exclude)

	must.Eq(t, "com.example.PetsApplication", c.Fork.MainClass)
	must.Eq(t, []string{"-Xmx256m"}, c.Fork.JVMArgs)
	must.Eq(t, 5*time.Second, c.Fork.ShutdownGrace)
	must.Eq(t, map[string]string{"SPRING_PROFILES_ACTIVE": "docs"}, c.Fork.Environment)
	must.Eq[any](t, fork.Properties{
		{Key: "server.port", Value: "9090"},
		{Key: "spring.main.lazy-initialization", Value: "true"},
	}, c.Fork.Properties)
}

func TestParse_JSON(t *testing.T) {
	ci.Parallel(t)

	c, err := Parse("openapi-fork.json", []byte(sampleJSON))
	must.NoError(t, err)

	must.MapLen(t, 2, c.GroupedAPIMappings)
	must.Eq(t, "admin.json", c.GroupedAPIMappings["http://localhost:9090/v3/api-docs/admin"])
	must.Eq[any](t, "-Dspring.profiles.active=docs -Dserver.port=9090", c.Fork.Properties)
	must.Nil(t, c.Build)
}

func TestParse_UnsupportedProperties(t *testing.T) {
	ci.Parallel(t)

	c, err := Parse("bad.hcl", []byte(`
fork {
  properties = 8080
}
`))
	must.NoError(t, err)
	must.Eq[any](t, float64(8080), c.Fork.Properties)

	c, err = Parse("list.hcl", []byte(`
fork {
  properties = ["-Da=b"]
}
`))
	must.NoError(t, err)
	must.Eq[any](t, []any{"-Da=b"}, c.Fork.Properties)
}

func TestParse_Errors(t *testing.T) {
	ci.Parallel(t)

	cases := []struct {
		name string
		src  string
		msg  string
	}{
		{
			name: "syntax",
			src:  `api_docs_url = `,
			msg:  "syntax.hcl:1",
		},
		{
			name: "unknown attribute",
			src:  `api_docs_path = "/v3/api-docs"`,
			msg:  "Unsupported argument",
		},
		{
			name: "bad duration",
			src:  `wait_time = "soon"`,
			msg:  "invalid wait_time",
		},
		{
			name: "negative grace",
			src:  "fork {\n  shutdown_grace = \"-1s\"\n}",
			msg:  "fork.shutdown_grace cannot be negative",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.name+".hcl", []byte(tc.src))
			must.ErrorContains(t, err, tc.msg)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	ci.Parallel(t)

	path := filepath.Join(t.TempDir(), "openapi-fork.hcl")
	must.NoError(t, os.WriteFile(path, []byte(sampleHCL), 0644))

	c, err := LoadConfigFile(path)
	must.NoError(t, err)
	must.Eq(t, "docs", c.OutputDir)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.hcl"))
	must.ErrorContains(t, err, "failed to read config file")
}

func TestConfig_Merge(t *testing.T) {
	ci.Parallel(t)

	file, err := Parse("openapi-fork.hcl", []byte(sampleHCL))
	must.NoError(t, err)

	env, err := FromEnvironment(map[string]string{
		"OPENAPI_FORK_OUTPUT_DIR":      "generated",
		"OPENAPI_FORK_FORK_PROPERTIES": "-Dserver.port=7070",
	})
	must.NoError(t, err)

	c := DefaultConfig().Merge(file).Merge(env)

	// env wins over the file, the file over the defaults
	must.Eq(t, "generated", c.OutputDir)
	must.Eq(t, "pets.yaml", c.OutputFileName)
	must.Eq[any](t, "-Dserver.port=7070", c.Fork.Properties)
	must.Eq(t, "com.example.PetsApplication", c.Fork.MainClass)
	must.Eq(t, DefaultPollInterval, c.PollInterval)
	must.True(t, c.Strict)

	// merging does not alias the defaults
	must.Eq(t, DefaultOutputDir, DefaultConfig().OutputDir)
	must.NoError(t, c.Validate())
}

func TestFromEnvironment(t *testing.T) {
	ci.Parallel(t)

	c, err := FromEnvironment(map[string]string{
		"OPENAPI_FORK_API_DOCS_URL":   "http://127.0.0.1:8081/v3/api-docs",
		"OPENAPI_FORK_WAIT_TIME":      "2m",
		"OPENAPI_FORK_STRICT":         "true",
		"OPENAPI_FORK_BUILD_COMMAND":  "./gradlew bootJar",
		"OPENAPI_FORK_JVM_ARGS":       "-Xms64m -Xmx128m",
		"OPENAPI_FORK_FORK_ENV":       "A:1,B:2",
		"OPENAPI_FORK_SHUTDOWN_GRACE": "3s",
		"JAVA_HOME":                   "/ignored/without/prefix",
	})
	must.NoError(t, err)

	must.Eq(t, "http://127.0.0.1:8081/v3/api-docs", c.APIDocsURL)
	must.Eq(t, 2*time.Minute, c.WaitTime)
	must.True(t, c.Strict)
	must.Eq(t, []string{"./gradlew", "bootJar"}, c.Build.Command)
	must.Eq(t, []string{"-Xms64m", "-Xmx128m"}, c.Fork.JVMArgs)
	must.Eq(t, map[string]string{"A": "1", "B": "2"}, c.Fork.Environment)
	must.Eq(t, 3*time.Second, c.Fork.ShutdownGrace)
	must.Eq(t, "", c.Fork.JavaHome)
	must.Nil(t, c.Fork.Properties)
}

func TestFromEnvironment_Invalid(t *testing.T) {
	ci.Parallel(t)

	_, err := FromEnvironment(map[string]string{
		"OPENAPI_FORK_WAIT_TIME": "forever",
	})
	must.ErrorContains(t, err, "failed to parse environment")
}

func TestConfig_Validate(t *testing.T) {
	ci.Parallel(t)

	must.NoError(t, DefaultConfig().Validate())

	c := DefaultConfig()
	c.APIDocsURL = "not a url"
	c.Fork.MainClass = ""
	c.Fork.MinJavaVersion = "seventeen"
	c.Build.Artifact = ""

	err := c.Validate()
	must.ErrorContains(t, err, "APIDocsURL")
	must.ErrorContains(t, err, "build:")
	must.ErrorContains(t, err, "fork:")
}

func TestConfig_Validate_Grouped(t *testing.T) {
	ci.Parallel(t)

	c := DefaultConfig()
	c.APIDocsURL = ""
	c.OutputFileName = ""
	c.GroupedAPIMappings = map[string]string{
		"http://localhost:8080/v3/api-docs/public": "public.json",
	}
	must.NoError(t, c.Validate())

	c.GroupedAPIMappings["http://localhost:8080/v3/api-docs/admin"] = " "
	must.ErrorContains(t, c.Validate(), "output file name cannot be blank")
}

func TestConfig_Conversions(t *testing.T) {
	ci.Parallel(t)

	c := DefaultConfig()
	c.Build.Env = map[string]string{"B": "2", "A": "1"}
	c.Fork.JavaHome = "/opt/jdk"
	c.Fork.Environment = map[string]string{"SPRING_PROFILES_ACTIVE": "docs"}
	c.Fork.Properties = "-Dserver.port=8080"

	bc := c.BuildConfig()
	must.Eq(t, []string{"A=1", "B=2"}, bc.Env)
	must.Eq(t, DefaultArtifact, bc.Artifact)

	fc := c.ForkConfig()
	must.Eq(t, fork.FindJavaExecutable("/opt/jdk"), fc.Executable)
	must.Eq(t, []string{"SPRING_PROFILES_ACTIVE=docs"}, fc.Env)
	must.Eq(t, DefaultMainClass, fc.MainClass)
	must.Eq[any](t, "-Dserver.port=8080", fc.Properties)

	gc := c.GeneratorConfig()
	must.Eq(t, DefaultAPIDocsURL, gc.APIDocsURL)
	must.Eq(t, DefaultWaitTime, gc.WaitTime)
}

func TestConfig_Resolve(t *testing.T) {
	ci.Parallel(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, "fork.env")
	must.NoError(t, os.WriteFile(envFile, []byte(`
# spring settings
SPRING_PROFILES_ACTIVE=docs
SERVER_SHUTDOWN="graceful"
`), 0644))

	c := DefaultConfig()
	c.Fork.EnvFile = envFile
	c.Fork.Environment = map[string]string{"SPRING_PROFILES_ACTIVE": "openapi"}
	c.Fork.LogFile = "~/fork.log"

	must.NoError(t, c.Resolve())
	must.Eq(t, map[string]string{
		"SPRING_PROFILES_ACTIVE": "openapi",
		"SERVER_SHUTDOWN":        "graceful",
	}, c.Fork.Environment)
	must.StrNotHasPrefix(t, "~", c.Fork.LogFile)
	must.StrHasSuffix(t, "fork.log", c.Fork.LogFile)
	must.Eq(t, DefaultOutputDir, c.OutputDir)
}

func TestConfig_Resolve_MissingEnvFile(t *testing.T) {
	ci.Parallel(t)

	c := DefaultConfig()
	c.Fork.EnvFile = filepath.Join(t.TempDir(), "missing.env")
	must.ErrorContains(t, c.Resolve(), "failed to open env file")
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package fork

import (
	"testing"

	"github.com/hashicorp/openapi-fork/ci"
	"github.com/hashicorp/openapi-fork/helper/testlog"
	"github.com/shoenig/test/must"
)

func TestExtractProperties_String(t *testing.T) {
	ci.Parallel(t)

	cases := []struct {
		name  string
		input string
		exp   []string
	}{
		{
			name:  "classpath dropped",
			input: "-Dfoo=bar -Dclasspath=ignored -Dbaz=qux",
			exp:   []string{"-Dfoo=bar", "-Dbaz=qux"},
		},
		{
			name:  "classpath any case",
			input: "-DCLASSPATH=foo -Da=1",
			exp:   []string{"-Da=1"},
		},
		{
			name:  "jvm classpath property",
			input: "-Djava.class.path=/tmp/x.jar -Dspring.profiles.active=docs",
			exp:   []string{"-Dspring.profiles.active=docs"},
		},
		{
			name:  "order kept",
			input: "-Dz=1 -Dy=2 -Dx=3",
			exp:   []string{"-Dz=1", "-Dy=2", "-Dx=3"},
		},
		{
			name:  "whitespace and empty fragments",
			input: "  -Dfoo=bar   -D  -Dbaz=qux  ",
			exp:   []string{"-Dfoo=bar", "-Dbaz=qux"},
		},
		{
			name:  "empty",
			input: "",
			exp:   nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			must.Eq(t, tc.exp, ExtractProperties(testlog.HCLogger(t), tc.input))
		})
	}
}

func TestExtractProperties_Mapping(t *testing.T) {
	ci.Parallel(t)

	logger := testlog.HCLogger(t)

	t.Run("map", func(t *testing.T) {
		got := ExtractProperties(logger, map[string]string{"alpha": "1", "Classpath": "x"})
		must.Eq(t, []string{"-Dalpha=1"}, got)
	})

	t.Run("map sorted", func(t *testing.T) {
		got := ExtractProperties(logger, map[string]string{"b": "2", "a": "1", "CLASSPATH": "foo"})
		must.Eq(t, []string{"-Da=1", "-Db=2"}, got)
	})

	t.Run("any values", func(t *testing.T) {
		got := ExtractProperties(logger, map[string]any{"port": 8081, "debug": true})
		must.Eq(t, []string{"-Ddebug=true", "-Dport=8081"}, got)
	})

	t.Run("properties keep order", func(t *testing.T) {
		props := Properties{
			{Key: "server.port", Value: "8081"},
			{Key: "java.class.path", Value: "/evil.jar"},
			{Key: "app.name", Value: "pets"},
		}
		got := ExtractProperties(logger, props)
		must.Eq(t, []string{"-Dserver.port=8081", "-Dapp.name=pets"}, got)
		must.Len(t, 3, props)
	})
}

func TestExtractProperties_Unsupported(t *testing.T) {
	ci.Parallel(t)

	logger, buf := testlog.CaptureLogger(t)

	got := ExtractProperties(logger, 42)
	must.SliceEmpty(t, got)
	must.StrContains(t, buf.String(), "[WARN]")
	must.StrContains(t, buf.String(), "type=int")
}

func TestExtractProperties_Nil(t *testing.T) {
	ci.Parallel(t)

	logger, buf := testlog.CaptureLogger(t)
	must.SliceEmpty(t, ExtractProperties(logger, nil))
	must.Eq(t, "", buf.String())
}

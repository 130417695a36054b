// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package command

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/hashicorp/cli"
	"github.com/kr/text"
	"github.com/posener/complete"
	"github.com/ryanuber/columnize"
)

// maxLineLength is the maximum width of any line.
const maxLineLength int = 78

// wrapAtLengthWithPadding wraps the given text at the maxLineLength, taking
// into account any provided left padding.
func wrapAtLengthWithPadding(s string, pad int) string {
	wrapped := text.Wrap(s, maxLineLength-pad)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = strings.Repeat(" ", pad) + line
	}
	return strings.Join(lines, "\n")
}

func wrapAtLength(s string) string {
	return wrapAtLengthWithPadding(s, 0)
}

// formatKV takes a set of strings and formats them into properly
// aligned k = v pairs using the columnize library.
func formatKV(in []string) string {
	columnConf := columnize.DefaultConfig()
	columnConf.Empty = "<none>"
	columnConf.Glue = " = "
	return columnize.Format(in, columnConf)
}

// uiErrorWriter sends flag parsing output to the UI error stream one line
// at a time.
type uiErrorWriter struct {
	ui  cli.Ui
	buf bytes.Buffer
}

func (w *uiErrorWriter) Write(data []byte) (int, error) {
	read := 0
	for len(data) != 0 {
		a, token, err := bufio.ScanLines(data, false)
		if err != nil {
			return read, err
		}

		if a == 0 {
			r, err := w.buf.Write(data)
			return read + r, err
		}

		w.ui.Error(w.buf.String() + string(token))
		data = data[a:]
		w.buf.Reset()
		read += a
	}

	return read, nil
}

// mapFlag collects repeated key=value flags into m. With splitLast the pair
// is split at the last '=', which keeps query strings in URL keys intact.
func mapFlag(m map[string]string, splitLast bool) funcVar {
	return func(v string) error {
		i := strings.Index(v, "=")
		if splitLast {
			i = strings.LastIndex(v, "=")
		}
		if i <= 0 {
			return fmt.Errorf("expected key=value, got %q", v)
		}
		m[v[:i]] = v[i+1:]
		return nil
	}
}

// stringSliceFlag collects repeated flags in order.
type stringSliceFlag []string

func (s *stringSliceFlag) String() string { return strings.Join(*s, " ") }

func (s *stringSliceFlag) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// NamedCommand is a command that knows its own name.
type NamedCommand interface {
	Name() string
}

// commandErrorText is used to easily render the same messaging across commands
// when an error is printed.
func commandErrorText(cmd NamedCommand) string {
	return fmt.Sprintf("For additional help try 'openapi-fork %s -help'", cmd.Name())
}

func mergeAutocompleteFlags(flags ...complete.Flags) complete.Flags {
	merged := make(map[string]complete.Predictor, len(flags))
	for _, f := range flags {
		for k, v := range f {
			merged[k] = v
		}
	}
	return merged
}

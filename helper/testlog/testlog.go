// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package testlog creates hclog loggers backed by testing.T to ease logging
// in tests.
package testlog

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// LogPrinter is the methods of testing.T (or testing.B) needed by the test
// logger.
type LogPrinter interface {
	Logf(format string, args ...interface{})
}

// writer implements io.Writer on top of a LogPrinter.
type writer struct {
	t LogPrinter
}

// Write to an underlying LogPrinter. Never returns an error.
func (w *writer) Write(p []byte) (n int, err error) {
	w.t.Logf("%s", bytes.TrimRight(p, "\n"))
	return len(p), nil
}

// NewWriter returns an io.Writer that logs each write through t.
func NewWriter(t LogPrinter) io.Writer {
	return &writer{t: t}
}

// HCLogger returns a logger writing to t at Trace level, or at the level
// named by OPENAPI_FORK_TEST_LOG_LEVEL.
func HCLogger(t LogPrinter) hclog.Logger {
	level := hclog.Trace
	if env := os.Getenv("OPENAPI_FORK_TEST_LOG_LEVEL"); env != "" {
		level = hclog.LevelFromString(env)
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "test",
		Level:  level,
		Output: NewWriter(t),
	})
}

// Buffer is a concurrency safe sink for log lines that tests want to
// inspect.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CaptureLogger returns a logger whose output is recorded in the returned
// Buffer as well as written to t.
func CaptureLogger(t LogPrinter) (hclog.Logger, *Buffer) {
	buf := new(Buffer)
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "test",
		Level:  hclog.Trace,
		Output: io.MultiWriter(buf, NewWriter(t)),
	})
	return logger, buf
}

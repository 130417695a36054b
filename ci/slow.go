// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package ci

import (
	"os"
	"strconv"
	"testing"
)

// Parallel runs t in parallel, unless CI is set to a true value.
//
// Tests that fork child processes are noisy neighbours on shared CI runners,
// so there they run serially.
func Parallel(t *testing.T) {
	value := os.Getenv("CI")
	isCI, err := strconv.ParseBool(value)
	if !isCI || err != nil {
		t.Parallel()
	}
}

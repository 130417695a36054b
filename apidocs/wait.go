// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package apidocs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-retryablehttp"
)

// ErrNotReady is returned when the service did not serve its API docs
// within the wait time.
var ErrNotReady = errors.New("service did not become ready")

// WaitForReady polls url every interval until it answers 200 OK, the
// timeout elapses or ctx is cancelled.
func WaitForReady(ctx context.Context, logger hclog.Logger, url string, timeout, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := retryablehttp.NewClient()
	client.HTTPClient = cleanhttp.DefaultClient()
	client.Logger = logger
	client.RetryWaitMin = interval
	client.RetryWaitMax = interval
	client.RetryMax = int(timeout/interval) + 1
	client.CheckRetry = readyRetryPolicy
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid api docs url %q: %w", url, err)
	}

	logger.Info("waiting for service", "url", url, "timeout", timeout)
	start := time.Now()

	resp, err := client.Do(req)
	if resp != nil {
		resp.Body.Close()
	}

	switch {
	case err == nil && resp.StatusCode == http.StatusOK:
	case context.Cause(ctx) != nil:
		return fmt.Errorf("%w at %s: %w", ErrNotReady, url, context.Cause(ctx))
	case err != nil:
		return fmt.Errorf("%w at %s: %w", ErrNotReady, url, err)
	default:
		return fmt.Errorf("%w at %s: unexpected status %s", ErrNotReady, url, resp.Status)
	}

	logger.Info("service ready", "url", url, "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

// readyRetryPolicy retries until a 200 OK arrives. Connection errors are
// expected while the service starts.
func readyRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	return resp.StatusCode != http.StatusOK, nil
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package apidocs fetches OpenAPI documents from a running service and
// writes them to disk.
package apidocs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
)

// Config controls which documents are fetched and where they are written.
type Config struct {
	// APIDocsURL is fetched into OutputFileName unless GroupedAPIMappings
	// is set.
	APIDocsURL     string
	OutputFileName string

	// GroupedAPIMappings maps docs URLs to output file names.
	GroupedAPIMappings map[string]string

	OutputDir string

	// WaitTime bounds how long the service may take to become ready.
	WaitTime time.Duration

	// PollInterval is the gap between readiness probes.
	PollInterval time.Duration

	// Strict fails generation on documents that are not valid OpenAPI 3.
	// Otherwise validation problems are logged.
	Strict bool
}

// Target is a single document to fetch.
type Target struct {
	URL      string
	FileName string
}

// Targets returns the documents to fetch, grouped mappings in URL order.
func (c *Config) Targets() []Target {
	if len(c.GroupedAPIMappings) == 0 {
		return []Target{{URL: c.APIDocsURL, FileName: c.OutputFileName}}
	}

	targets := make([]Target, 0, len(c.GroupedAPIMappings))
	for url, name := range c.GroupedAPIMappings {
		targets = append(targets, Target{URL: url, FileName: name})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].URL < targets[j].URL })
	return targets
}

// Generator writes the OpenAPI documents of a running service.
type Generator struct {
	logger hclog.Logger
	config *Config
	client *http.Client
}

func NewGenerator(logger hclog.Logger, cfg *Config) *Generator {
	return &Generator{
		logger: logger.Named("apidocs"),
		config: cfg,
		client: cleanhttp.DefaultClient(),
	}
}

// Generate waits for the service and writes every target document. Each
// document is fetched exactly once.
func (g *Generator) Generate(ctx context.Context) error {
	targets := g.config.Targets()

	if err := WaitForReady(ctx, g.logger.Named("wait"), targets[0].URL, g.config.WaitTime, g.config.PollInterval); err != nil {
		return err
	}

	for _, target := range targets {
		if err := g.generate(ctx, target); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) generate(ctx context.Context, target Target) error {
	body, err := g.fetch(ctx, target.URL)
	if err != nil {
		return err
	}

	if err := Validate(ctx, body); err != nil {
		if g.config.Strict {
			return fmt.Errorf("%s: %w", target.URL, err)
		}
		g.logger.Warn("fetched document failed validation", "url", target.URL, "error", err)
	}

	format := FormatFor(target.FileName)
	out, err := Render(body, format)
	if err != nil {
		return fmt.Errorf("%s: %w", target.URL, err)
	}

	path := filepath.Join(g.config.OutputDir, target.FileName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	g.logger.Info("wrote OpenAPI document", "url", target.URL, "path", path,
		"format", format, "size", humanize.Bytes(uint64(len(out))))
	return nil
}

func (g *Generator) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid api docs url %q: %w", url, err)
	}
	req.Header.Set("Accept", "application/json, application/vnd.oai.openapi, application/yaml;q=0.9, */*;q=0.8")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %s", url, resp.Status)
	}
	return body, nil
}

// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package apidocs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a written OpenAPI document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	default:
		return "json"
	}
}

// FormatFor picks the output format from the file extension.
func FormatFor(fileName string) Format {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// isJSON reports whether the body is a JSON document rather than YAML.
func isJSON(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed)
}

// Render converts a fetched document into target. JSON is pretty printed;
// YAML bodies written as YAML are kept verbatim.
func Render(body []byte, target Format) ([]byte, error) {
	switch {
	case isJSON(body) && target == FormatJSON:
		var buf bytes.Buffer
		if err := json.Indent(&buf, bytes.TrimSpace(body), "", "  "); err != nil {
			return nil, fmt.Errorf("failed to indent document: %w", err)
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil

	case isJSON(body):
		var node yaml.Node
		if err := yaml.Unmarshal(body, &node); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		blockStyle(&node)

		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return nil, fmt.Errorf("failed to encode document as yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case target == FormatJSON:
		var node yaml.Node
		if err := yaml.Unmarshal(body, &node); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		doc, err := jsonValue(&node)
		if err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode document as json: %w", err)
		}
		return append(out, '\n'), nil

	default:
		return body, nil
	}
}

// blockStyle drops the flow style that JSON input carries so the document
// is written as conventional block YAML. Quoting of scalars is left to the
// encoder, which keeps strings such as "200" quoted.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// jsonValue converts a YAML node into a value encoding/json accepts. Mapping
// keys are taken verbatim, so unquoted keys such as 200 become "200".
func jsonValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return jsonValue(n.Content[0])

	case yaml.AliasNode:
		return jsonValue(n.Alias)

	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind == yaml.ScalarNode && k.Tag == "!!merge" {
				merged, err := jsonValue(v)
				if err != nil {
					return nil, err
				}
				if m, ok := merged.(map[string]any); ok {
					for mk, mv := range m {
						if _, set := out[mk]; !set {
							out[mk] = mv
						}
					}
				}
				continue
			}
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping key is not a scalar", k.Line)
			}
			value, err := jsonValue(v)
			if err != nil {
				return nil, err
			}
			out[k.Value] = value
		}
		return out, nil

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			value, err := jsonValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil

	default:
		var value any
		if err := n.Decode(&value); err != nil {
			return nil, err
		}
		return value, nil
	}
}

// Validate loads body as an OpenAPI 3 document and validates it.
func Validate(ctx context.Context, body []byte) error {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(body)
	if err != nil {
		return fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return nil
}

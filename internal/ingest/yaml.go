package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLExtractor handles .yaml and .yml files.
type YAMLExtractor struct{}

// CanHandle returns true for YAML file extensions.
func (y *YAMLExtractor) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Extract parses a YAML file the same way the JSON extractor does: a
// top-level sequence of mappings becomes a cell matrix, anything else
// becomes flattened free text. Only the first document of a multi-document
// file is read.
func (y *YAMLExtractor) Extract(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrEmptyDocument
	}

	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	doc := documentFromValue(normalizeYAML(raw), path, "yaml")
	if doc == nil || doc.Empty() {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

// normalizeYAML converts yaml.v3 trees, which may carry non-string map
// keys, into the JSON-shaped form documentFromValue reads.
func normalizeYAML(val interface{}) interface{} {
	switch v := val.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = normalizeYAML(inner)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = normalizeYAML(inner)
		}
		return out
	default:
		return v
	}
}

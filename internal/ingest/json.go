package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/norm"
)

// JSONExtractor handles .json files, the shape row exports from academic
// portals come in.
type JSONExtractor struct{}

// CanHandle returns true for the JSON file extension.
func (j *JSONExtractor) CanHandle(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".json"
}

// Extract parses a JSON file into a single-page document.
// - Array of objects: rebuilt as a cell matrix with a header row, so the
//   rule extractors see the same table a CSV would give them.
// - Single object: flattened to "key: value" lines of free text.
func (j *JSONExtractor) Extract(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrEmptyDocument
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid JSON in %s: %w", path, err)
	}

	doc := documentFromValue(raw, path, "json")
	if doc == nil || doc.Empty() {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

// documentFromValue turns a decoded JSON or YAML value into a Document.
func documentFromValue(raw interface{}, path, fileType string) *Document {
	doc := &Document{
		Path:     path,
		FileType: fileType,
		Title:    titleFromPath(path),
	}

	switch v := raw.(type) {
	case []interface{}:
		columns, cells := tableFromObjects(v)
		if len(cells) == 0 {
			return nil
		}
		var lines []string
		for _, row := range cells {
			if txt := norm.RowToText(row); txt != "" {
				lines = append(lines, txt)
			}
		}
		text := strings.Join(lines, "\n")
		doc.Columns = columns
		doc.Pages = []PageContent{{Page: 1, RawText: text, RoughTableText: text}}
		doc.Tables = []extract.TablePage{{Page: 1, Tables: [][][]string{cells}, Text: text}}
		doc.Text = text
		doc.RowsCount = len(cells) - 1

	case map[string]interface{}:
		flat := map[string]string{}
		for k, inner := range v {
			flattenValue(k, inner, flat)
		}
		keys := make([]string, 0, len(flat))
		for k := range flat {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var lines []string
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %s", k, flat[k]))
		}
		text := strings.Join(lines, "\n")
		doc.Pages = []PageContent{{Page: 1, RawText: text}}
		doc.Tables = []extract.TablePage{{Page: 1, Text: text}}
		doc.Text = text

	default:
		text := norm.Text(fmt.Sprintf("%v", v))
		doc.Pages = []PageContent{{Page: 1, RawText: text}}
		doc.Tables = []extract.TablePage{{Page: 1, Text: text}}
		doc.Text = text
	}
	return doc
}

// tableFromObjects rebuilds an array of flat objects as a header row plus
// data rows. Column order is the sorted union of keys, for determinism.
func tableFromObjects(items []interface{}) ([]string, [][]string) {
	seen := map[string]bool{}
	var columns []string
	objs := make([]map[string]string, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		flat := map[string]string{}
		for k, inner := range obj {
			flattenValue(k, inner, flat)
		}
		for k := range flat {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
		objs = append(objs, flat)
	}
	if len(objs) == 0 {
		return nil, nil
	}
	sort.Strings(columns)

	cells := make([][]string, 0, len(objs)+1)
	cells = append(cells, columns)
	for _, obj := range objs {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = obj[col]
		}
		cells = append(cells, row)
	}
	return columns, cells
}

// flattenValue recursively flattens a decoded value into dot-notation
// key-value pairs.
func flattenValue(prefix string, val interface{}, out map[string]string) {
	switch v := val.(type) {
	case map[string]interface{}:
		for k, inner := range v {
			flattenValue(prefix+"."+k, inner, out)
		}
	case []interface{}:
		for i, elem := range v {
			flattenValue(fmt.Sprintf("%s[%d]", prefix, i), elem, out)
		}
	case string:
		out[prefix] = v
	case float64:
		out[prefix] = fmt.Sprintf("%g", v)
	case int:
		out[prefix] = fmt.Sprintf("%d", v)
	case bool:
		out[prefix] = fmt.Sprintf("%t", v)
	case nil:
	default:
		out[prefix] = fmt.Sprintf("%v", v)
	}
}

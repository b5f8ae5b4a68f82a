package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/akadex/akadex/internal/norm"
)

// MarkdownExtractor handles .md and .markdown files. Pipe tables are parsed
// into cell matrices so the schedule walk sees them the same way it sees
// tables lifted from a PDF.
type MarkdownExtractor struct{}

// CanHandle returns true for markdown file extensions.
func (m *MarkdownExtractor) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// Extract parses a markdown file. Form feeds delimit pages, pipe tables
// become cell matrices, and the first heading becomes the title.
func (m *MarkdownExtractor) Extract(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	pages, tables := pagesFromText(content)
	for i := range tables {
		matrices := pipeTables(tables[i].Text)
		tables[i].Tables = matrices
		if len(matrices) > 0 {
			var parts []string
			for _, tbl := range matrices {
				for _, row := range tbl {
					if txt := norm.RowToText(row); txt != "" {
						parts = append(parts, txt)
					}
				}
			}
			pages[i].RoughTableText = strings.Join(parts, "\n")
		}
	}

	doc := &Document{
		Path:     path,
		FileType: "md",
		Title:    markdownTitle(content, path),
		Pages:    pages,
		Tables:   tables,
		Text:     strings.TrimSpace(strings.ReplaceAll(content, "\f", "\n")),
	}
	if doc.Empty() {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

// markdownTitle returns the first ATX heading, or the file name.
func markdownTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		}
	}
	return titleFromPath(path)
}

// pipeTables collects contiguous pipe-table blocks as cell matrices.
// Separator rows (|---|---|) are dropped.
func pipeTables(text string) [][][]string {
	var out [][][]string
	var current [][]string
	flush := func() {
		if len(current) > 0 {
			out = append(out, current)
			current = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "|") {
			flush()
			continue
		}
		if isSeparatorRow(trimmed) {
			continue
		}
		cells := strings.Split(strings.Trim(trimmed, "|"), "|")
		row := make([]string, len(cells))
		for i, c := range cells {
			row[i] = strings.TrimSpace(c)
		}
		current = append(current, row)
	}
	flush()
	return out
}

func isSeparatorRow(line string) bool {
	stripped := strings.NewReplacer("|", "", "-", "", ":", "", " ", "").Replace(line)
	return stripped == "" && strings.Contains(line, "-")
}

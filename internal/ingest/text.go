package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// TextExtractor handles .txt, .log, and any unrecognized text format.
type TextExtractor struct{}

// CanHandle returns true for plain text extensions. Also acts as fallback.
func (t *TextExtractor) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".log" || ext == ""
}

// Extract reads a plain text file. Form feeds delimit pages; a file without
// them is a single page.
func (t *TextExtractor) Extract(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := string(data)
	pages, tables := pagesFromText(content)
	doc := &Document{
		Path:     path,
		FileType: "txt",
		Title:    titleFromPath(path),
		Pages:    pages,
		Tables:   tables,
		Text:     strings.TrimSpace(strings.ReplaceAll(content, "\f", "\n")),
	}
	if doc.Empty() {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

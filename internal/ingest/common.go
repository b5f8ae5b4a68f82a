// Package ingest extracts page-oriented content from input documents.
// It parses files in multiple formats into per-page raw text, rough table
// text, and cell matrices, preserving provenance (source path, page number,
// detected columns) for the extraction pipeline downstream.
package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/norm"
)

// ErrEmptyDocument is returned when a document yields no extractable text
// after every fallback. Nothing is written to the store for such documents.
var ErrEmptyDocument = errors.New("empty document")

// PageContent is the per-page payload handed to capability parsers.
// Defined in norm so that capability and ingest can share it without an
// import cycle.
type PageContent = norm.PageContent

// Document is the parsed form of one input file.
type Document struct {
	Path      string
	FileType  string
	Title     string
	Pages     []PageContent
	Tables    []extract.TablePage
	Text      string
	Columns   []string
	RowsCount int
}

// Empty reports whether the document carries no extractable content.
func (d *Document) Empty() bool {
	if strings.TrimSpace(d.Text) != "" {
		return false
	}
	for _, p := range d.Pages {
		if strings.TrimSpace(p.RawText) != "" || strings.TrimSpace(p.RoughTableText) != "" {
			return false
		}
	}
	return true
}

// Extractor handles a specific file format.
type Extractor interface {
	// CanHandle returns true if this extractor supports the given file path.
	CanHandle(path string) bool

	// Extract parses the file into a page-oriented document.
	Extract(ctx context.Context, path string) (*Document, error)
}

// DefaultExtractors returns the built-in format adapters in match order.
// The plain-text extractor goes last because it accepts unknown extensions.
func DefaultExtractors() []Extractor {
	return []Extractor{
		&PDFExtractor{},
		&XLSXExtractor{},
		&CSVExtractor{},
		&JSONExtractor{},
		&YAMLExtractor{},
		&MarkdownExtractor{},
		&TextExtractor{},
	}
}

// FindExtractor picks the first extractor that handles path, or nil.
func FindExtractor(extractors []Extractor, path string) Extractor {
	for _, e := range extractors {
		if e.CanHandle(path) {
			return e
		}
	}
	return nil
}

// titleFromPath derives a document title from the file name.
func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// pagesFromText splits free text into pages on form feeds and builds both
// the capability payload and the table-walk input for each page.
func pagesFromText(text string) ([]PageContent, []extract.TablePage) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, "\f")
	var pages []PageContent
	var tables []extract.TablePage
	n := 0
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		n++
		pages = append(pages, PageContent{Page: n, RawText: norm.Text(part)})
		tables = append(tables, extract.TablePage{Page: n, Text: part})
	}
	return pages, tables
}

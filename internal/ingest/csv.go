package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/norm"
)

// CSVExtractor handles .csv and .tsv files.
type CSVExtractor struct{}

// CanHandle returns true for CSV/TSV file extensions.
func (c *CSVExtractor) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".csv" || ext == ".tsv"
}

// Extract parses a delimited file into a single-page document. Comma is
// tried first, then semicolon, then a lenient pass with ragged rows
// allowed. The first record becomes the detected columns.
func (c *CSVExtractor) Extract(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := string(data)

	sep := ','
	if strings.ToLower(filepath.Ext(path)) == ".tsv" {
		sep = '\t'
	}

	records, err := readDelimited(content, sep, false)
	if err != nil {
		records, err = readDelimited(content, ';', false)
	}
	if err != nil {
		records, err = readDelimited(content, sep, true)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing CSV %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyDocument
	}

	var columns []string
	for _, h := range records[0] {
		if v := norm.Text(h); v != "" {
			columns = append(columns, v)
		}
	}

	var lines []string
	for _, rec := range records {
		if txt := norm.RowToText(rec); txt != "" {
			lines = append(lines, txt)
		}
	}
	text := strings.Join(lines, "\n")

	doc := &Document{
		Path:      path,
		FileType:  "csv",
		Title:     titleFromPath(path),
		Pages:     []PageContent{{Page: 1, RawText: text, RoughTableText: text}},
		Tables:    []extract.TablePage{{Page: 1, Tables: [][][]string{records}, Text: text}},
		Text:      text,
		Columns:   columns,
		RowsCount: len(records) - 1,
	}
	if doc.Empty() {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

func readDelimited(content string, sep rune, lenient bool) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = sep
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	if lenient {
		reader.FieldsPerRecord = -1
	}
	return reader.ReadAll()
}

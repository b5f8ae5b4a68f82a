package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/norm"
)

// XLSXExtractor handles Excel workbooks. Each non-empty sheet becomes one
// page with its full cell matrix.
type XLSXExtractor struct{}

// CanHandle returns true for Excel file extensions.
func (x *XLSXExtractor) CanHandle(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".xlsx" || ext == ".xlsm"
}

// Extract reads every sheet into a page. The first row of the first
// non-empty sheet becomes the detected columns.
func (x *XLSXExtractor) Extract(ctx context.Context, path string) (*Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer f.Close()

	var (
		pages     []PageContent
		tables    []extract.TablePage
		textParts []string
		columns   []string
	)
	page := 0
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		var lines []string
		for _, row := range rows {
			if txt := norm.RowToText(row); txt != "" {
				lines = append(lines, txt)
			}
		}
		if len(lines) == 0 {
			continue
		}
		page++
		text := strings.Join(lines, "\n")
		pages = append(pages, PageContent{Page: page, RawText: text, RoughTableText: text})
		tables = append(tables, extract.TablePage{Page: page, Tables: [][][]string{rows}, Text: text})
		textParts = append(textParts, text)
		if len(columns) == 0 {
			for _, h := range rows[0] {
				if v := norm.Text(h); v != "" {
					columns = append(columns, v)
				}
			}
		}
	}

	doc := &Document{
		Path:     path,
		FileType: "xlsx",
		Title:    titleFromPath(path),
		Pages:    pages,
		Tables:   tables,
		Text:     strings.Join(textParts, "\n"),
		Columns:  columns,
	}
	if doc.Empty() {
		return nil, ErrEmptyDocument
	}
	return doc, nil
}

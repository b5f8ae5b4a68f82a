package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/akadex/akadex/internal/extract"
)

// cellGapPoints is the horizontal gap that starts a new cell when words are
// regrouped into rough table rows.
const cellGapPoints = 8.0

// rowTolerancePoints groups words whose baselines are this close into the
// same visual row.
const rowTolerancePoints = 2.0

// PDFExtractor handles .pdf files. Pages come back with both the rendered
// plain text and a rough cell matrix rebuilt from word positions, so the
// table walk downstream sees PDFs the same way it sees spreadsheets.
type PDFExtractor struct{}

// CanHandle returns true for the PDF file extension.
func (p *PDFExtractor) CanHandle(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".pdf"
}

// Extract parses the file page by page.
func (p *PDFExtractor) Extract(ctx context.Context, path string) (*Document, error) {
	return FromPageSource(ctx, &pdfPageSource{path: path}, nil, path)
}

type pdfPageSource struct {
	path string
}

// Pages reads every page. A page whose text rendering fails contributes an
// empty entry rather than aborting the document.
func (s *pdfPageSource) Pages(ctx context.Context) ([]extract.TablePage, error) {
	f, r, err := pdf.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	var pages []extract.TablePage
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tp := extract.TablePage{Page: i}
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, tp)
			continue
		}
		if text, err := page.GetPlainText(nil); err == nil {
			tp.Text = text
		}
		if cells := roughCells(page.Content().Text); len(cells) > 0 {
			tp.Tables = [][][]string{cells}
		}
		pages = append(pages, tp)
	}
	return pages, nil
}

// roughCells rebuilds a cell matrix from positioned words: words sharing a
// baseline form a row, and a horizontal gap wider than cellGapPoints starts
// a new cell.
func roughCells(words []pdf.Text) [][]string {
	if len(words) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		if diff := sorted[i].Y - sorted[j].Y; diff > rowTolerancePoints || diff < -rowTolerancePoints {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var (
		rows    [][]string
		cells   []string
		cell    strings.Builder
		lastY   float64
		lastEnd float64
		started bool
	)
	flushCell := func() {
		if v := strings.TrimSpace(cell.String()); v != "" {
			cells = append(cells, v)
		}
		cell.Reset()
	}
	flushRow := func() {
		flushCell()
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
		cells = nil
	}

	for _, w := range sorted {
		if w.S == "" {
			continue
		}
		if started && lastY-w.Y > rowTolerancePoints {
			flushRow()
			lastEnd = 0
		} else if started && w.X-lastEnd > cellGapPoints {
			flushCell()
		}
		cell.WriteString(w.S)
		lastY = w.Y
		lastEnd = w.X + w.W
		started = true
	}
	flushRow()
	return rows
}

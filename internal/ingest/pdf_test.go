package ingest

import (
	"testing"

	"github.com/ledongthuc/pdf"
)

func word(s string, x, y, w float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: y, W: w}
}

func TestRoughCellsRowsAndColumns(t *testing.T) {
	// Two visual rows; in each, the wide gap after the first word starts a
	// second cell.
	words := []pdf.Text{
		word("Senin", 10, 700, 30),
		word("Kalkulus", 120, 700, 50),
		word("Selasa", 10, 680, 32),
		word("Fisika", 120, 680, 30),
		word("Dasar", 152, 680, 28),
	}
	rows := roughCells(words)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][0] != "Senin" || rows[0][1] != "Kalkulus" {
		t.Errorf("row 0 = %v", rows[0])
	}
	// Adjacent words in the same cell are concatenated the way a PDF
	// renderer splits one string into positioned runs.
	if rows[1][1] != "FisikaDasar" {
		t.Errorf("row 1 = %v", rows[1])
	}
}

func TestRoughCellsBaselineJitter(t *testing.T) {
	// Words within the row tolerance stay on one row.
	words := []pdf.Text{
		word("Jam", 10, 700.5, 20),
		word("07:00", 60, 699.2, 25),
	}
	rows := roughCells(words)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
}

func TestRoughCellsEmpty(t *testing.T) {
	if rows := roughCells(nil); rows != nil {
		t.Errorf("rows = %v, want nil", rows)
	}
}

func TestPDFExtractorCanHandle(t *testing.T) {
	e := &PDFExtractor{}
	if !e.CanHandle("khs.PDF") {
		t.Error("pdf extension should match case-insensitively")
	}
	if e.CanHandle("khs.txt") {
		t.Error("txt must not match")
	}
}

package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/akadex/akadex/internal/extract"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTextExtractorPages(t *testing.T) {
	path := writeTemp(t, "jadwal.txt", "halaman satu\fhalaman dua")
	doc, err := (&TextExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(doc.Pages))
	}
	if doc.Pages[0].RawText != "halaman satu" || doc.Pages[1].Page != 2 {
		t.Errorf("pages = %+v", doc.Pages)
	}
	if doc.Title != "jadwal" {
		t.Errorf("title = %q", doc.Title)
	}
}

func TestTextExtractorEmpty(t *testing.T) {
	path := writeTemp(t, "kosong.txt", "   \n\t\n")
	_, err := (&TextExtractor{}).Extract(context.Background(), path)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("err = %v, want ErrEmptyDocument", err)
	}
}

func TestCSVExtractor(t *testing.T) {
	path := writeTemp(t, "krs.csv", "Hari,Jam,Mata Kuliah\nSenin,07:00-07:50,Kalkulus\n")
	doc, err := (&CSVExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Columns) != 3 || doc.Columns[0] != "Hari" {
		t.Errorf("columns = %v", doc.Columns)
	}
	if doc.RowsCount != 1 {
		t.Errorf("rows = %d, want 1", doc.RowsCount)
	}
	if len(doc.Tables) != 1 || len(doc.Tables[0].Tables) != 1 {
		t.Fatalf("tables = %+v", doc.Tables)
	}
	if doc.Tables[0].Tables[0][1][2] != "Kalkulus" {
		t.Errorf("cell = %q", doc.Tables[0].Tables[0][1][2])
	}
}

func TestCSVExtractorSemicolonRetry(t *testing.T) {
	// A stray comma gives the comma pass a ragged record so the
	// semicolon retry has to succeed instead.
	path := writeTemp(t, "krs.csv", "Hari;Jam;Mata Kuliah\nSenin,pagi;07:00;Kalkulus\n")
	doc, err := (&CSVExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.RowsCount != 1 {
		t.Errorf("rows = %d, want 1", doc.RowsCount)
	}
}

func TestMarkdownExtractorPipeTable(t *testing.T) {
	content := "# Jadwal Kuliah\n\n| Hari | Jam |\n|------|-----|\n| Senin | 07:00-07:50 |\n"
	path := writeTemp(t, "jadwal.md", content)
	doc, err := (&MarkdownExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Jadwal Kuliah" {
		t.Errorf("title = %q", doc.Title)
	}
	if len(doc.Tables) != 1 || len(doc.Tables[0].Tables) != 1 {
		t.Fatalf("tables = %+v", doc.Tables)
	}
	tbl := doc.Tables[0].Tables[0]
	if len(tbl) != 2 {
		t.Fatalf("table rows = %d, want 2 (separator dropped)", len(tbl))
	}
	if tbl[1][0] != "Senin" {
		t.Errorf("cell = %q", tbl[1][0])
	}
	if doc.Pages[0].RoughTableText == "" {
		t.Error("expected rough table text for pipe table")
	}
}

func TestFindExtractor(t *testing.T) {
	extractors := DefaultExtractors()
	if e := FindExtractor(extractors, "a.csv"); e == nil {
		t.Error("no extractor for csv")
	}
	if _, ok := FindExtractor(extractors, "a.md").(*MarkdownExtractor); !ok {
		t.Error("markdown file should pick MarkdownExtractor")
	}
	if _, ok := FindExtractor(extractors, "noext").(*TextExtractor); !ok {
		t.Error("unknown file should fall back to TextExtractor")
	}
}

type fakeSource struct {
	pages []extract.TablePage
	err   error
}

func (f *fakeSource) Pages(ctx context.Context) ([]extract.TablePage, error) {
	return f.pages, f.err
}

type fakeRecoverer struct{ byPage map[int]string }

func (f *fakeRecoverer) PageText(ctx context.Context, page int) (string, error) {
	return f.byPage[page], nil
}

func TestFromPageSourceRecovery(t *testing.T) {
	src := &fakeSource{pages: []extract.TablePage{
		{Page: 1, Text: "halaman satu"},
		{Page: 2}, // sparse page, primary extraction came back empty
	}}
	rec := &fakeRecoverer{byPage: map[int]string{2: "halaman dua dari OCR"}}
	doc, err := FromPageSource(context.Background(), src, rec, "dok.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Pages[1].RawText != "halaman dua dari OCR" {
		t.Errorf("recovered text = %q", doc.Pages[1].RawText)
	}
	if doc.Tables[1].Text != "halaman dua dari OCR" {
		t.Errorf("table page text not backfilled: %q", doc.Tables[1].Text)
	}
}

func TestFromPageSourceEmpty(t *testing.T) {
	src := &fakeSource{pages: []extract.TablePage{{Page: 1}}}
	_, err := FromPageSource(context.Background(), src, nil, "dok.pdf")
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("err = %v, want ErrEmptyDocument", err)
	}
}

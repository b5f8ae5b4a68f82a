package ingest

import (
	"context"
	"errors"
	"testing"
)

func TestJSONExtractorArrayOfObjects(t *testing.T) {
	content := `[
		{"hari": "Senin", "jam": "07:00-08:40", "mata_kuliah": "Kalkulus"},
		{"hari": "Selasa", "jam": "09:00-10:40", "mata_kuliah": "Fisika Dasar", "ruang": "B201"}
	]`
	path := writeTemp(t, "krs.json", content)
	doc, err := (&JSONExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.RowsCount != 2 {
		t.Errorf("rows = %d, want 2", doc.RowsCount)
	}
	// Column union is sorted, and includes the key only the second row has.
	want := []string{"hari", "jam", "mata_kuliah", "ruang"}
	if len(doc.Columns) != len(want) {
		t.Fatalf("columns = %v", doc.Columns)
	}
	for i, col := range want {
		if doc.Columns[i] != col {
			t.Errorf("columns[%d] = %q, want %q", i, doc.Columns[i], col)
		}
	}
	cells := doc.Tables[0].Tables[0]
	if len(cells) != 3 {
		t.Fatalf("cell rows = %d, want 3 (header + 2)", len(cells))
	}
	if cells[1][0] != "Senin" || cells[2][3] != "B201" {
		t.Errorf("cells = %v", cells)
	}
	if cells[1][3] != "" {
		t.Errorf("missing key should leave an empty cell, got %q", cells[1][3])
	}
}

func TestJSONExtractorObject(t *testing.T) {
	content := `{"nama": "Budi", "akademik": {"ipk": 3.42}}`
	path := writeTemp(t, "profil.json", content)
	doc, err := (&JSONExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.RowsCount != 0 || len(doc.Tables[0].Tables) != 0 {
		t.Errorf("object input should not build a table: %+v", doc.Tables)
	}
	wantLines := "akademik.ipk: 3.42\nnama: Budi"
	if doc.Text != wantLines {
		t.Errorf("text = %q, want %q", doc.Text, wantLines)
	}
}

func TestJSONExtractorInvalid(t *testing.T) {
	path := writeTemp(t, "rusak.json", "{not json")
	if _, err := (&JSONExtractor{}).Extract(context.Background(), path); err == nil {
		t.Error("expected parse error")
	}
}

func TestYAMLExtractorSequence(t *testing.T) {
	content := "- hari: Senin\n  mata_kuliah: Kalkulus\n- hari: Selasa\n  mata_kuliah: Algoritma\n"
	path := writeTemp(t, "krs.yaml", content)
	doc, err := (&YAMLExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.RowsCount != 2 {
		t.Errorf("rows = %d, want 2", doc.RowsCount)
	}
	cells := doc.Tables[0].Tables[0]
	if cells[0][0] != "hari" || cells[2][1] != "Algoritma" {
		t.Errorf("cells = %v", cells)
	}
}

func TestYAMLExtractorEmpty(t *testing.T) {
	path := writeTemp(t, "kosong.yaml", "\n")
	_, err := (&YAMLExtractor{}).Extract(context.Background(), path)
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("err = %v, want ErrEmptyDocument", err)
	}
}

package extract

import (
	"testing"
)

func schedulePage() TablePage {
	return TablePage{
		Page: 1,
		Tables: [][][]string{
			{
				{"No", "Hari", "Sesi", "Jam", "Kode MK", "Mata Kuliah", "SKS", "Kelas", "Ruang", "Dosen Pengampu"},
				{"1", "Senin", "I", "07.00-07.50", "IF101", "Kalkulus", "3", "A", "E2.3", "Budi Santoso, M.Kom"},
				{"2", "", "", "08.00-08.50", "IF102", "Algoritma", "3", "A", "E2.3", "Siti Rahma, M.T"},
				{"3", "Selasa", "II", "09.00-09.50", "IF103", "Basis Data", "2", "B", "E1.1", "Andi Wijaya, S.Kom"},
			},
		},
	}
}

func TestScheduleFromPagesCarryForward(t *testing.T) {
	res := ScheduleFromPages([]TablePage{schedulePage()}, 0)
	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(res.Rows))
	}
	second := res.Rows[1]
	if second.Day != "Senin" {
		t.Errorf("carry-forward day = %q, want Senin", second.Day)
	}
	if second.Session != "I" {
		t.Errorf("carry-forward session = %q, want I", second.Session)
	}
	if second.Time != "08:00-08:50" {
		t.Errorf("time = %q, want 08:00-08:50", second.Time)
	}
	if res.Rows[2].Day != "Selasa" {
		t.Errorf("explicit day = %q, want Selasa", res.Rows[2].Day)
	}
}

func TestScheduleFromPagesCarryAcrossPages(t *testing.T) {
	page2 := TablePage{
		Page: 2,
		Tables: [][][]string{
			{
				{"Hari", "Jam", "Mata Kuliah", "SKS"},
				{"", "10.00-10.50", "Jaringan Komputer", "3"},
			},
		},
	}
	res := ScheduleFromPages([]TablePage{schedulePage(), page2}, 0)
	last := res.Rows[len(res.Rows)-1]
	if last.Day != "Selasa" {
		t.Errorf("cross-page carry day = %q, want Selasa", last.Day)
	}
	if last.Page != 2 {
		t.Errorf("page = %d, want 2", last.Page)
	}
}

func TestScheduleFromPagesDetectedColumns(t *testing.T) {
	res := ScheduleFromPages([]TablePage{schedulePage()}, 0)
	want := []string{"Hari", "Sesi", "Jam", "Kode", "Mata Kuliah", "SKS", "Kelas", "Ruang", "Dosen Pengampu"}
	if len(res.Columns) != len(want) {
		t.Fatalf("columns = %v, want %v", res.Columns, want)
	}
	for i, c := range want {
		if res.Columns[i] != c {
			t.Errorf("column[%d] = %q, want %q", i, res.Columns[i], c)
		}
	}
}

func TestScheduleFromPagesNormalizesTime(t *testing.T) {
	res := ScheduleFromPages([]TablePage{schedulePage()}, 0)
	if res.Rows[0].Time != "07:00-07:50" {
		t.Errorf("time = %q, want 07:00-07:50", res.Rows[0].Time)
	}
}

func TestScheduleFromPagesPageTextRecovery(t *testing.T) {
	page := TablePage{
		Page: 3,
		Text: "Perkuliahan hari Rabu dimulai pukul 13.00-14.40 di ruang E1.2",
	}
	res := ScheduleFromPages([]TablePage{page}, 0)
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 recovered row, got %d", len(res.Rows))
	}
	r := res.Rows[0]
	if r.Fallback != "page_text" {
		t.Errorf("fallback = %q, want page_text", r.Fallback)
	}
	if r.Day != "Rabu" {
		t.Errorf("day = %q, want Rabu", r.Day)
	}
	if r.Time != "13:00-14:40" {
		t.Errorf("time = %q, want 13:00-14:40", r.Time)
	}
}

func TestScheduleFromPagesDedup(t *testing.T) {
	page := schedulePage()
	// Same table twice on the same page collapses to one copy of each row.
	page.Tables = append(page.Tables, page.Tables[0])
	res := ScheduleFromPages([]TablePage{page}, 0)
	if len(res.Rows) != 3 {
		t.Errorf("expected 3 deduped rows, got %d", len(res.Rows))
	}
}

func TestScheduleFromPagesRowCap(t *testing.T) {
	res := ScheduleFromPages([]TablePage{schedulePage()}, 2)
	if len(res.Rows) > 2 {
		t.Errorf("expected at most 2 rows, got %d", len(res.Rows))
	}
}

func TestScheduleFromPagesSkipsNoiseRows(t *testing.T) {
	page := TablePage{
		Page: 1,
		Tables: [][][]string{
			{
				{"Hari", "Jam", "Mata Kuliah", "SKS", "Ruang"},
				{"1", "2", "3", "4", "5"},
				{"Senin", "07.00-07.50", "Kalkulus", "3", "E2.3"},
			},
		},
	}
	res := ScheduleFromPages([]TablePage{page}, 0)
	if len(res.Rows) != 1 {
		t.Fatalf("expected numbering row skipped, got %d rows", len(res.Rows))
	}
	if res.Rows[0].Course != "Kalkulus" {
		t.Errorf("course = %q", res.Rows[0].Course)
	}
}

func TestGuessLecturer(t *testing.T) {
	page := TablePage{
		Page: 1,
		Tables: [][][]string{
			{
				{"Hari", "Jam", "Mata Kuliah", "SKS"},
				{"Senin", "07.00-07.50", "Kalkulus", "3", "Dr. Budi Santoso"},
			},
		},
	}
	res := ScheduleFromPages([]TablePage{page}, 0)
	if len(res.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(res.Rows))
	}
	if res.Rows[0].Lecturer != "Dr. Budi Santoso" {
		t.Errorf("lecturer = %q, want Dr. Budi Santoso", res.Rows[0].Lecturer)
	}
}

func TestRowConfidencePartialIssues(t *testing.T) {
	full := ScheduleRow{
		Day: "Senin", Session: "I", Time: "07:00-07:50",
		Course: "Kalkulus", Lecturer: "Budi", Room: "E2.3", Class: "A", Semester: "3",
	}
	score, issues := RowConfidence(full)
	if score != 1.0 || len(issues) != 0 {
		t.Errorf("full row: score=%v issues=%v", score, issues)
	}

	partial := ScheduleRow{Day: "Senin", Time: "07:00-07:50", Course: "Kalkulus"}
	score, issues = RowConfidence(partial)
	if score >= 1.0 {
		t.Errorf("partial row should lose score, got %v", score)
	}
	found := map[string]bool{}
	for _, i := range issues {
		found[i] = true
	}
	for _, want := range []string{"missing_sesi", "missing_dosen", "missing_ruang", "missing_kelas", "missing_semester"} {
		if !found[want] {
			t.Errorf("missing issue %q in %v", want, issues)
		}
	}
}

func TestDetectDocTypeVariants(t *testing.T) {
	if got := DetectDocType([]string{"Hari", "Jam"}, nil); got != "schedule" {
		t.Errorf("DetectDocType = %q, want schedule", got)
	}
	if got := DetectDocType(nil, []ScheduleRow{{Day: "Senin"}}); got != "schedule" {
		t.Errorf("DetectDocType = %q, want schedule", got)
	}
	if got := DetectDocType([]string{"Nilai", "Bobot"}, nil); got != "transcript" {
		t.Errorf("DetectDocType = %q, want transcript", got)
	}
	if got := DetectDocType([]string{"Judul"}, nil); got != "general" {
		t.Errorf("DetectDocType = %q, want general", got)
	}
}

func TestCandidateClassification(t *testing.T) {
	if !IsScheduleCandidate("Jadwal Kuliah Semester 3", nil) {
		t.Error("jadwal title should be a schedule candidate")
	}
	if !IsScheduleCandidate("dokumen", []string{"Hari", "Jam"}) {
		t.Error("hari/jam columns should be a schedule candidate")
	}
	if !IsTranscriptCandidate("KHS Semester 2", nil) {
		t.Error("khs title should be a transcript candidate")
	}
	if IsTranscriptCandidate("catatan rapat", []string{"Agenda"}) {
		t.Error("unrelated doc should not be a transcript candidate")
	}
}

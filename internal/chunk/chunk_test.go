package chunk

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/akadex/akadex/internal/extract"
)

func sampleScheduleRows() []extract.ScheduleRow {
	return []extract.ScheduleRow{
		{
			Page: 1, Day: "senin", Session: "I", Time: "07.00-08.40", Code: "IF21101",
			Course: "Kalkulus", Credits: "3", Class: "A", Room: "Lab. Komputer 2",
			Lecturer: "Dr. Budi Santoso", Semester: "3",
		},
		{
			Page: 1, Day: "Senin", Session: "II", Time: "09:00-10:40", Code: "IF21102",
			Course: "Fisika Dasar", Credits: "2", Class: "A", Room: "B201",
			Lecturer: "Ir. Sari Dewi, M.T.", Semester: "3",
		},
		{
			Page: 2, Day: "Selasa", Time: "13:00-14:40", Code: "IF21103",
			Course: "Algoritma", Credits: "4", Class: "B", Room: "B202",
			Lecturer: "Prof. Andi", Semester: "3",
		},
	}
}

func TestScheduleRowsToCSV(t *testing.T) {
	text, rows, cols := ScheduleRowsToCSV(sampleScheduleRows())
	if rows != 3 || cols != 10 {
		t.Fatalf("rows=%d cols=%d", rows, cols)
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d:\n%s", len(lines), text)
	}
	if lines[0] != "NO,HARI,SESI,JAM,Ruang,SMT,MATA_KULIAH,SKS,KLS,DOSEN_PENGAMPU_TEAM_TEACHING" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,SENIN,I,07:00-08:40,") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.Contains(lines[2], `"Ir. Sari Dewi, M.T."`) {
		t.Errorf("lecturer with comma not quoted: %q", lines[2])
	}
}

func TestScheduleRowsToCSVSkipsNamelessRows(t *testing.T) {
	rows := append(sampleScheduleRows(), extract.ScheduleRow{Page: 3, Day: "Rabu", Time: "07:00-08:40"})
	_, n, _ := ScheduleRowsToCSV(rows)
	if n != 3 {
		t.Errorf("rows = %d, want nameless row dropped", n)
	}
}

func TestScheduleRowChunkRoundTrip(t *testing.T) {
	chunks := ScheduleRowChunks(sampleScheduleRows(), 0)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0], "CSV_ROW 1: ") {
		t.Fatalf("prefix: %q", chunks[0])
	}
	fields, ok := ParseRowChunk(chunks[0])
	if !ok {
		t.Fatal("parse failed")
	}
	want := map[string]string{
		"hari": "senin", "sesi": "I", "jam": "07.00-08.40", "kode": "IF21101",
		"mata_kuliah": "Kalkulus", "sks": "3", "kelas": "A", "ruang": "Lab. Komputer 2",
		"dosen": "Dr. Budi Santoso", "semester": "3", "page": "1",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("%s = %q, want %q", k, fields[k], v)
		}
	}
}

func TestScheduleRowChunksCanonicalOrder(t *testing.T) {
	chunks := ScheduleRowChunks(sampleScheduleRows(), 0)
	body := strings.TrimPrefix(chunks[0], "CSV_ROW 1: ")
	var keys []string
	for _, cell := range strings.Split(body, " | ") {
		k, _, _ := strings.Cut(cell, "=")
		keys = append(keys, k)
	}
	want := []string{"hari", "sesi", "jam", "kode", "mata_kuliah", "sks", "kelas", "ruang", "dosen", "semester", "page"}
	if len(keys) != len(want) {
		t.Fatalf("keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("key[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestScheduleRowChunksSkipsSparseRows(t *testing.T) {
	rows := []extract.ScheduleRow{{Day: "Senin"}}
	if got := ScheduleRowChunks(rows, 0); len(got) != 0 {
		t.Errorf("chunks = %v, want none for single-field row", got)
	}
}

func TestScheduleRowChunksLimit(t *testing.T) {
	var rows []extract.ScheduleRow
	for i := 0; i < 10; i++ {
		rows = append(rows, extract.ScheduleRow{Day: "Senin", Time: "07:00-08:40", Course: fmt.Sprintf("MK %d", i)})
	}
	if got := ScheduleRowChunks(rows, 4); len(got) != 4 {
		t.Errorf("chunks = %d, want 4", len(got))
	}
}

func TestTranscriptRowChunksAndRoundTrip(t *testing.T) {
	rows := []extract.TranscriptRow{
		{Semester: 1, Course: "Kalkulus", Credits: 3, Grade: "A", Page: 2},
		{Semester: 2, Course: "Fisika", Credits: 2, Grade: extract.PendingGrade},
		{Semester: 2, Course: "", Credits: 2, Grade: "B"},
	}
	chunks := TranscriptRowChunks(rows, 0)
	if len(chunks) != 2 {
		t.Fatalf("chunks = %v", chunks)
	}
	fields, ok := ParseRowChunk(chunks[0])
	if !ok || fields["mata_kuliah"] != "Kalkulus" || fields["nilai_huruf"] != "A" ||
		fields["semester"] != "1" || fields["sks"] != "3" || fields["page"] != "2" {
		t.Errorf("fields = %v", fields)
	}
}

func TestTranscriptRowsToCSV(t *testing.T) {
	rows := []extract.TranscriptRow{
		{Semester: 1, Course: "Kalkulus", Credits: 3, Grade: "b+"},
	}
	text, n, cols := TranscriptRowsToCSV(rows)
	if n != 1 || cols != 5 {
		t.Fatalf("n=%d cols=%d", n, cols)
	}
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if lines[0] != "NO,SEMESTER,MATA_KULIAH,SKS,NILAI_HURUF" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "1,1,Kalkulus,3,B+" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestParseRowChunkRejectsOtherText(t *testing.T) {
	for _, text := range []string{"", "plain paragraph", "PARENT_SCHEDULE page=1 hari=SENIN"} {
		if _, ok := ParseRowChunk(text); ok {
			t.Errorf("parsed %q as row chunk", text)
		}
	}
}

func TestParseRowChunkBarePipes(t *testing.T) {
	fields, ok := ParseRowChunk("CSV_ROW 1: hari=Senin|jam=07:00-08:40|mata_kuliah=Kalkulus")
	if !ok {
		t.Fatal("bare-pipe chunk not parsed")
	}
	if fields["hari"] != "Senin" || fields["jam"] != "07:00-08:40" || fields["mata_kuliah"] != "Kalkulus" {
		t.Errorf("fields = %v", fields)
	}
}

func TestParseRowChunkNormalizesKeys(t *testing.T) {
	fields, ok := ParseRowChunk("Row 7: Semester=2 | MATA_KULIAH=Kalkulus | Nilai_Huruf=B+")
	if !ok {
		t.Fatal("chunk with foreign label not parsed")
	}
	if fields["semester"] != "2" || fields["mata_kuliah"] != "Kalkulus" || fields["nilai_huruf"] != "B+" {
		t.Errorf("fields = %v", fields)
	}
	if _, bad := fields["MATA_KULIAH"]; bad {
		t.Error("keys must come back lowercased")
	}
}

func TestScheduleRowChunksRawStaysParseable(t *testing.T) {
	rows := []extract.ScheduleRow{{
		Day:  "Senin",
		Time: "07.00-08.40",
		Raw:  "Senin | 07.00-08.40 | Kalkulus",
	}}
	chunks := ScheduleRowChunks(rows, 0)
	if len(chunks) != 1 {
		t.Fatalf("chunks = %v", chunks)
	}
	fields, ok := ParseRowChunk(chunks[0])
	if !ok {
		t.Fatal("row chunk not parseable")
	}
	if fields["hari"] != "Senin" || fields["jam"] != "07.00-08.40" {
		t.Errorf("fields = %v", fields)
	}
	if fields["raw"] != "Senin / 07.00-08.40 / Kalkulus" {
		t.Errorf("raw = %q", fields["raw"])
	}
}

func TestScheduleParentChunksGrouping(t *testing.T) {
	payloads := ScheduleParentChunks(sampleScheduleRows(), 0)
	if len(payloads) != 2 {
		t.Fatalf("payloads = %d:\n%+v", len(payloads), payloads)
	}
	first := payloads[0]
	if !strings.HasPrefix(first.Text, "PARENT_SCHEDULE page=1 hari=SENIN\n") {
		t.Errorf("header: %q", first.Text)
	}
	if first.Section != "hari:senin" || first.Page != 1 {
		t.Errorf("payload = %+v", first)
	}
	if strings.Count(first.Text, "- ") != 2 {
		t.Errorf("expected two bullet lines:\n%s", first.Text)
	}
	if !strings.Contains(payloads[1].Text, "hari=SELASA") {
		t.Errorf("second group: %q", payloads[1].Text)
	}
}

func TestScheduleParentChunksSplitOnTarget(t *testing.T) {
	var rows []extract.ScheduleRow
	for i := 0; i < 12; i++ {
		rows = append(rows, extract.ScheduleRow{
			Page: 1, Day: "Senin", Time: "07:00-08:40",
			Course:   fmt.Sprintf("Mata Kuliah Panjang Nomor %02d", i),
			Lecturer: "Dr. Nama Dosen Yang Cukup Panjang, M.Kom.",
		})
	}
	payloads := ScheduleParentChunks(rows, 200)
	if len(payloads) < 2 {
		t.Fatalf("expected split, got %d payloads", len(payloads))
	}
	for _, p := range payloads {
		if !strings.HasPrefix(p.Text, "PARENT_SCHEDULE page=1 hari=SENIN") {
			t.Errorf("missing header: %q", p.Text)
		}
	}
}

func TestSplitTextShortPassThrough(t *testing.T) {
	got := SplitText("  halo dunia  ", 820, 100)
	if len(got) != 1 || got[0] != "halo dunia" {
		t.Errorf("got %v", got)
	}
	if got := SplitText("   ", 820, 100); got != nil {
		t.Errorf("blank input should yield nil, got %v", got)
	}
}

func TestSplitTextSizesAndOverlap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 200; i++ {
		fmt.Fprintf(&sb, "kalimat nomor %d tentang jadwal kuliah. ", i)
	}
	chunks := SplitText(sb.String(), 300, 60)
	if len(chunks) < 2 {
		t.Fatalf("chunks = %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 300+60 {
			t.Errorf("chunk %d too large: %d chars", i, len(c))
		}
	}
	// Overlap carries the tail of one chunk into the next.
	tail := chunks[0][len(chunks[0])-20:]
	if !strings.Contains(chunks[1], strings.TrimSpace(tail)) {
		t.Errorf("no overlap between chunks:\n%q\n%q", chunks[0], chunks[1])
	}
}

func TestSplitTextEnforcesFloors(t *testing.T) {
	text := strings.Repeat("kata ", 100)
	chunks := SplitText(text, 50, 10)
	for i, c := range chunks {
		if i < len(chunks)-1 && len(c) < MinTextChunkOverlap {
			t.Errorf("chunk %d suspiciously small: %q", i, c)
		}
		if len(c) > MinTextChunkSize+MinTextChunkOverlap {
			t.Errorf("floor not applied, chunk %d = %d chars", i, len(c))
		}
	}
}

func TestBuildPayloadsOrderAndDedup(t *testing.T) {
	rows := sampleScheduleRows()
	rowChunks := ScheduleRowChunks(rows, 0)
	rowChunks = append(rowChunks, rowChunks[0]) // duplicate must be dropped
	payloads := BuildPayloads(BuildInput{
		DocType:      "schedule",
		RowChunks:    rowChunks,
		ScheduleRows: rows,
		Text:         "Jadwal kuliah semester ganjil untuk kelas A.",
	})
	var kinds []string
	for _, p := range payloads {
		kinds = append(kinds, p.Kind)
	}
	wantKinds := []string{KindRow, KindRow, KindRow, KindParent, KindParent, KindText}
	if len(kinds) != len(wantKinds) {
		t.Fatalf("kinds = %v", kinds)
	}
	for i := range wantKinds {
		if kinds[i] != wantKinds[i] {
			t.Errorf("kind[%d] = %q, want %q", i, kinds[i], wantKinds[i])
		}
	}
	if payloads[0].Page != 1 || payloads[2].Page != 2 {
		t.Errorf("row pages = %d, %d", payloads[0].Page, payloads[2].Page)
	}
}

func TestBuildPayloadsNonScheduleSkipsParents(t *testing.T) {
	payloads := BuildPayloads(BuildInput{
		DocType:      "transcript",
		RowChunks:    []string{"TRANSCRIPT_ROW 1: semester=1 | mata_kuliah=Kalkulus | sks=3 | nilai_huruf=A"},
		ScheduleRows: sampleScheduleRows(),
		Text:         "Kartu hasil studi.",
	})
	for _, p := range payloads {
		if p.Kind == KindParent {
			t.Errorf("unexpected parent chunk: %+v", p)
		}
	}
}

func TestBaseMetadata(t *testing.T) {
	base := BaseMetadata(DocumentMeta{
		OwnerID:      "u1",
		DocID:        "d1",
		Source:       "krs.pdf",
		FileType:     "pdf",
		DocType:      "schedule",
		Columns:      []string{"Hari", "Jam"},
		ScheduleRows: sampleScheduleRows(),
		Semester:     3,
		HybridRepair: true,
	})
	if base["user_id"] != "u1" || base["doc_id"] != "d1" || base["doc_type"] != "schedule" {
		t.Errorf("base = %v", base)
	}
	if base["table_format"] != "csv_canonical" {
		t.Errorf("table_format = %q", base["table_format"])
	}
	if base["hybrid_repair"] != "on" || base["chunk_profile"] != "off" {
		t.Errorf("flags = %q / %q", base["hybrid_repair"], base["chunk_profile"])
	}
	if base["semester"] != "3" {
		t.Errorf("semester = %q", base["semester"])
	}
	var cols []string
	if err := json.Unmarshal([]byte(base["columns"]), &cols); err != nil || len(cols) != 2 {
		t.Errorf("columns = %q (%v)", base["columns"], err)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(base["schedule_rows"]), &rows); err != nil || len(rows) != 3 {
		t.Fatalf("schedule_rows = %q (%v)", base["schedule_rows"], err)
	}
	if rows[0]["mata_kuliah"] != "Kalkulus" {
		t.Errorf("row[0] = %v", rows[0])
	}
}

func TestBaseMetadataCapsRows(t *testing.T) {
	var many []extract.TranscriptRow
	for i := 0; i < MetadataRowCap+50; i++ {
		many = append(many, extract.TranscriptRow{Semester: 1, Course: fmt.Sprintf("MK %d", i), Credits: 2, Grade: "A"})
	}
	base := BaseMetadata(DocumentMeta{OwnerID: "u1", DocID: "d1", TranscriptRows: many})
	var rows []map[string]any
	if err := json.Unmarshal([]byte(base["transcript_rows"]), &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != MetadataRowCap {
		t.Errorf("rows = %d, want cap %d", len(rows), MetadataRowCap)
	}
}

func TestChunkMetadatas(t *testing.T) {
	base := map[string]string{"user_id": "u1", "doc_id": "d1"}
	payloads := []Payload{
		{Text: "CSV_ROW 1: hari=senin | jam=07:00-08:40", Kind: KindRow, Page: 1},
		{Text: "PARENT_SCHEDULE page=1 hari=SENIN\n- x", Kind: KindParent, Page: 1, Section: "hari:senin"},
		{Text: "teks bebas", Kind: KindText},
	}
	metas := ChunkMetadatas(base, payloads)
	if len(metas) != 3 {
		t.Fatalf("metas = %d", len(metas))
	}
	if metas[0]["chunk_kind"] != KindRow || metas[0]["page"] != "1" {
		t.Errorf("meta[0] = %v", metas[0])
	}
	if metas[1]["section"] != "hari:senin" {
		t.Errorf("meta[1] = %v", metas[1])
	}
	if _, ok := metas[2]["page"]; ok {
		t.Errorf("text chunk should not carry page: %v", metas[2])
	}
	if metas[2]["user_id"] != "u1" {
		t.Errorf("base not copied: %v", metas[2])
	}
	// Mutating one meta must not leak into the shared base.
	metas[0]["user_id"] = "other"
	if base["user_id"] != "u1" {
		t.Error("base mutated")
	}
}

// Package chunk serializes extracted rows into the canonical blocks and
// retrievable chunks written to the fact store: a CSV block per document,
// one row chunk per canonical row, parent chunks grouped by day, and plain
// text chunks for everything else.
package chunk

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/norm"
)

// Row chunk limits. Serialized row lists in metadata are capped separately.
const (
	ScheduleRowChunkLimit   = 2000
	TranscriptRowChunkLimit = 2500
	MetadataRowCap          = 1200
)

var scheduleCSVHeader = []string{
	"NO", "HARI", "SESI", "JAM", "Ruang", "SMT", "MATA_KULIAH", "SKS", "KLS", "DOSEN_PENGAMPU_TEAM_TEACHING",
}

// ScheduleRowsToCSV renders schedule rows as the canonical CSV block.
// Rows without a course name or code are dropped; days are uppercased and
// times normalized so the block is stable across extraction runs. Returns
// the CSV text plus the row and column counts.
func ScheduleRowsToCSV(rows []extract.ScheduleRow) (string, int, int) {
	var records [][]string
	no := 0
	for _, r := range rows {
		mk := norm.Text(r.Course)
		if mk == "" && norm.Text(r.Code) == "" {
			continue
		}
		no++
		hari := strings.ToUpper(norm.Day(r.Day))
		records = append(records, []string{
			strconv.Itoa(no),
			hari,
			norm.Text(r.Session),
			norm.TimeRange(r.Time),
			norm.RoomText(r.Room),
			norm.Text(r.Semester),
			mk,
			norm.Text(r.Credits),
			norm.Text(r.Class),
			norm.Text(r.Lecturer),
		})
	}
	if len(records) == 0 {
		return "", 0, 0
	}
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Write(scheduleCSVHeader)
	w.WriteAll(records)
	return sb.String(), len(records), len(scheduleCSVHeader)
}

// ScheduleRowChunks renders one retrievable chunk per schedule row in
// canonical field order ("CSV_ROW n: k=v | ..."). Rows with fewer than two
// populated fields are skipped; the numbering still follows the input order.
func ScheduleRowChunks(rows []extract.ScheduleRow, limit int) []string {
	if limit <= 0 {
		limit = ScheduleRowChunkLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	var out []string
	for i, r := range rows {
		var cells []string
		for _, key := range extract.ScheduleCanonOrder {
			if key == "page" {
				if r.Page > 0 {
					cells = append(cells, "page="+strconv.Itoa(r.Page))
				}
				continue
			}
			if val := norm.Text(r.Get(key)); val != "" {
				cells = append(cells, key+"="+val)
			}
		}
		if val := wireSafe(r.Raw); val != "" {
			cells = append(cells, "raw="+val)
		}
		if val := wireSafe(r.Fallback); val != "" {
			cells = append(cells, "fallback="+val)
		}
		if len(cells) >= 2 {
			out = append(out, fmt.Sprintf("CSV_ROW %d: %s", i+1, strings.Join(cells, " | ")))
		}
	}
	return out
}

// wireSafe strips the row chunk field separator out of a free-text value.
// Raw and fallback payloads come from norm.RowToText, whose cells are
// pipe-joined, and an embedded pipe would cut the value short on read-back.
func wireSafe(s string) string {
	return norm.Text(strings.ReplaceAll(s, "|", "/"))
}

// TranscriptRowChunks renders one retrievable chunk per transcript row
// ("TRANSCRIPT_ROW n: k=v | ...").
func TranscriptRowChunks(rows []extract.TranscriptRow, limit int) []string {
	if limit <= 0 {
		limit = TranscriptRowChunkLimit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	var out []string
	for i, r := range rows {
		mk := norm.Text(r.Course)
		grade := strings.ToUpper(norm.Text(r.Grade))
		if mk == "" || grade == "" {
			continue
		}
		cells := []string{
			"semester=" + strconv.Itoa(r.Semester),
			"mata_kuliah=" + mk,
			"sks=" + strconv.Itoa(r.Credits),
			"nilai_huruf=" + grade,
		}
		if r.Page > 0 {
			cells = append(cells, "page="+strconv.Itoa(r.Page))
		}
		out = append(out, fmt.Sprintf("TRANSCRIPT_ROW %d: %s", i+1, strings.Join(cells, " | ")))
	}
	return out
}

// TranscriptRowsToCSV renders transcript rows as the canonical CSV block.
func TranscriptRowsToCSV(rows []extract.TranscriptRow) (string, int, int) {
	var records [][]string
	for i, r := range rows {
		mk := norm.Text(r.Course)
		grade := strings.ReplaceAll(strings.ToUpper(norm.Text(r.Grade)), " ", "")
		if mk == "" || grade == "" {
			continue
		}
		records = append(records, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.Semester),
			mk,
			strconv.Itoa(r.Credits),
			grade,
		})
	}
	if len(records) == 0 {
		return "", 0, 0
	}
	header := []string{"NO", "SEMESTER", "MATA_KULIAH", "SKS", "NILAI_HURUF"}
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Write(header)
	w.WriteAll(records)
	return sb.String(), len(records), len(header)
}

package extract

import (
	"strings"

	"github.com/akadex/akadex/internal/norm"
)

var transcriptTitleHints = []string{
	"khs", "transkrip", "hasil studi", "kartu hasil studi", "nilai", "huruf mutu", "ipk", "ips",
}

var transcriptColHints = []string{"grade", "huruf mutu", "bobot", "kredit", "nilai", "ips", "ipk"}

var scheduleTitleHints = []string{
	"jadwal", "krs", "rencana studi", "perkuliahan", "kuliah", "schedule", "timetable",
}

var scheduleColHints = []string{
	"hari", "day", "jam", "waktu", "time", "mata kuliah", "matakuliah", "ruang", "room", "kelas", "krs",
}

// IsTranscriptCandidate reports whether a document looks like a grade
// transcript, judged by its title and detected column labels.
func IsTranscriptCandidate(title string, columns []string) bool {
	return matchesHints(title, columns, transcriptTitleHints, transcriptColHints)
}

// IsScheduleCandidate reports whether a document looks like a class schedule.
func IsScheduleCandidate(title string, columns []string) bool {
	return matchesHints(title, columns, scheduleTitleHints, scheduleColHints)
}

func matchesHints(title string, columns []string, titleHints, colHints []string) bool {
	titleL := strings.ToLower(norm.Text(title))
	for _, h := range titleHints {
		if strings.Contains(titleL, h) {
			return true
		}
	}
	parts := make([]string, 0, len(columns))
	for _, c := range columns {
		if v := norm.Text(c); v != "" {
			parts = append(parts, strings.ToLower(v))
		}
	}
	colsL := strings.Join(parts, " ")
	for _, h := range colHints {
		if strings.Contains(colsL, h) {
			return true
		}
	}
	return false
}

// DetectDocType classifies a document as "schedule", "transcript", or
// "general" from its detected columns and extracted schedule rows. Schedule
// signals win ties because schedule tables also carry grade-like columns on
// some layouts.
func DetectDocType(columns []string, scheduleRows []ScheduleRow) string {
	cols := make(map[string]bool, len(columns))
	for _, c := range columns {
		cols[strings.ToLower(c)] = true
	}
	if cols["hari"] || cols["jam"] || cols["ruang"] || cols["kelas"] {
		return "schedule"
	}
	if len(scheduleRows) > 0 {
		return "schedule"
	}
	for _, h := range []string{"grade", "bobot", "nilai", "ips", "ipk"} {
		if cols[h] {
			return "transcript"
		}
	}
	return "general"
}

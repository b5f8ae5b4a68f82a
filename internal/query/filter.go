package query

import (
	"regexp"
	"sort"
	"strings"

	"github.com/akadex/akadex/internal/norm"
)

// GradePriority ranks letter grades for dedup tie-breaks. Unknown grades
// score -1 and always lose.
var GradePriority = map[string]int{
	"A": 100, "A-": 96, "AB": 94,
	"B+": 90, "B": 86, "B-": 82, "BC": 80,
	"C+": 76, "C": 72, "C-": 68, "CD": 66,
	"D+": 62, "D": 58, "D-": 54,
	"E": 0,
}

// DefaultLowGrades is the grade set the low-grade filter matches.
var DefaultLowGrades = map[string]bool{
	"C": true, "D": true, "E": true, "CD": true, "D+": true, "D-": true,
}

var dayRank = map[string]int{
	"Senin": 0, "Selasa": 1, "Rabu": 2, "Kamis": 3, "Jumat": 4, "Sabtu": 5, "Minggu": 6,
}

func gradeScore(grade string) int {
	if score, ok := GradePriority[strings.ToUpper(strings.TrimSpace(grade))]; ok {
		return score
	}
	return -1
}

// DedupeTranscriptLatest keeps one row per lowercased course name: the row
// with the highest semester wins, grade priority breaks semester ties.
// First-seen course order is preserved.
func DedupeTranscriptLatest(rows []TranscriptFact) []TranscriptFact {
	var order []string
	slot := map[string]TranscriptFact{}
	for _, row := range rows {
		key := strings.ToLower(norm.Text(row.MataKuliah))
		if key == "" {
			continue
		}
		current, seen := slot[key]
		if !seen {
			slot[key] = row
			order = append(order, key)
			continue
		}
		switch {
		case row.Semester > current.Semester:
			slot[key] = row
		case row.Semester == current.Semester && gradeScore(row.NilaiHuruf) > gradeScore(current.NilaiHuruf):
			slot[key] = row
		}
	}
	out := make([]TranscriptFact, 0, len(order))
	for _, key := range order {
		out = append(out, slot[key])
	}
	return out
}

var lowGradePhrases = []string{
	"nilai rendah", "nilai jelek", "yang rendah", "tidak lulus", "ngulang", "ulang matkul",
}

// IsLowGradeQuery reports whether the question asks about weak grades.
func IsLowGradeQuery(query string) bool {
	ql := strings.ToLower(query)
	for _, p := range lowGradePhrases {
		if strings.Contains(ql, p) {
			return true
		}
	}
	return false
}

var recapWords = []string{"rekap", "ringkas", "rangkum", "semua", "daftar"}

// IsCourseRecapQuery reports whether the question asks for a course list
// or general recap.
func IsCourseRecapQuery(query string) bool {
	ql := strings.ToLower(query)
	if strings.Contains(ql, "mata kuliah") || strings.Contains(ql, "matakuliah") {
		return true
	}
	return isFullRecapQuery(query)
}

func isFullRecapQuery(query string) bool {
	ql := strings.ToLower(query)
	for _, w := range recapWords {
		if strings.Contains(ql, w) {
			return true
		}
	}
	return false
}

var semesterFilterRE = regexp.MustCompile(`\bsemester\s*(\d{1,2})\b`)

// ExtractSemesterFilter pulls an explicit semester number out of the query.
func ExtractSemesterFilter(query string) (int, bool) {
	m := semesterFilterRE.FindStringSubmatch(strings.ToLower(query))
	if m == nil {
		return 0, false
	}
	n, ok := parseInt(m[1])
	return n, ok
}

// ExtractDayFilter resolves an explicit weekday mention, or "hari ini" /
// "today" against the router clock, to a canonical day name.
func (r *Router) ExtractDayFilter(query string) string {
	ql := strings.ToLower(query)
	for _, word := range norm.DayWords {
		if strings.Contains(ql, word) {
			return norm.Day(word)
		}
	}
	if strings.Contains(ql, "hari ini") || strings.Contains(ql, "today") {
		days := []string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}
		return days[int(r.now().In(r.location()).Weekday())]
	}
	return ""
}

var (
	quotedTermRE  = regexp.MustCompile(`['"]([^'"]{3,120})['"]`)
	courseTermREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:nilai|matakuliah|mata kuliah|mk)\s+(?:untuk|dari|pada)?\s*([a-z0-9 .\-]{4,120})`),
		regexp.MustCompile(`(?i)(?:bagaimana|gimana|rekap)\s+(?:nilai|hasil)\s+([a-z0-9 .\-]{4,120})`),
	}
	courseLeadRE = regexp.MustCompile(`(?i)^(mata\s+kuliah|matakuliah)\s+`)
)

var courseStopSuffixes = []string{
	" saya berapa", " berapa", " saya", " ku", " ini", " dong", " ya", " sekarang", " ?", ",",
}

// ExtractCourseTerm guesses the course name a question is about. Quoted
// terms win; otherwise a few phrase patterns are tried and trailing filler
// words trimmed. Empty means no course focus detected.
func ExtractCourseTerm(query string) string {
	q := norm.Text(query)
	if q == "" {
		return ""
	}
	if m := quotedTermRE.FindStringSubmatch(q); m != nil {
		return norm.Text(m[1])
	}
	ql := strings.ToLower(q)
	for _, re := range courseTermREs {
		m := re.FindStringSubmatch(ql)
		if m == nil {
			continue
		}
		term := norm.Text(m[1])
		if term == "" {
			continue
		}
		for _, suffix := range courseStopSuffixes {
			term = strings.TrimSpace(strings.TrimSuffix(term, suffix))
		}
		term = norm.Text(courseLeadRE.ReplaceAllString(term, ""))
		if len(term) >= 4 {
			return term
		}
	}
	return ""
}

func filterTranscriptSemester(rows []TranscriptFact, semester int) []TranscriptFact {
	var out []TranscriptFact
	for _, row := range rows {
		if row.Semester == semester {
			out = append(out, row)
		}
	}
	return out
}

func filterTranscriptLowGrades(rows []TranscriptFact, lowGrades map[string]bool) []TranscriptFact {
	var out []TranscriptFact
	for _, row := range rows {
		if lowGrades[strings.ToUpper(strings.TrimSpace(row.NilaiHuruf))] {
			out = append(out, row)
		}
	}
	return out
}

func filterTranscriptCourse(rows []TranscriptFact, term string) []TranscriptFact {
	termLC := strings.ToLower(term)
	var out []TranscriptFact
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.MataKuliah), termLC) {
			out = append(out, row)
		}
	}
	return out
}

func filterScheduleDay(rows []ScheduleFact, day string) []ScheduleFact {
	var out []ScheduleFact
	for _, row := range rows {
		if strings.EqualFold(row.Hari, day) {
			out = append(out, row)
		}
	}
	return out
}

// sortScheduleFacts orders rows by weekday, then start time, then course.
// Days outside the canonical seven sort last, alphabetically.
func sortScheduleFacts(rows []ScheduleFact) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, iKnown := dayRank[rows[i].Hari]
		rj, jKnown := dayRank[rows[j].Hari]
		if iKnown != jKnown {
			return iKnown
		}
		if iKnown && ri != rj {
			return ri < rj
		}
		if !iKnown && rows[i].Hari != rows[j].Hari {
			return rows[i].Hari < rows[j].Hari
		}
		if rows[i].JamMulai != rows[j].JamMulai {
			return rows[i].JamMulai < rows[j].JamMulai
		}
		return rows[i].MataKuliah < rows[j].MataKuliah
	})
}

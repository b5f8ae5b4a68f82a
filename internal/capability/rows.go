package capability

import (
	"strconv"
	"strings"

	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/norm"
)

// CanonicalScheduleRow is the schedule shape capability parsers return:
// split start/end times instead of a combined range.
type CanonicalScheduleRow struct {
	Hari       string
	JamMulai   string
	JamSelesai string
	MataKuliah string
	Ruangan    string
	Semester   int // -1 = unknown
	Page       int
}

// safeInt coerces a loosely typed JSON value to an int. ok is false for
// null, booleans, and anything that does not carry a number.
func safeInt(v any) (int, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case bool:
		return 0, false
	case float64:
		return int(t + 0.5), true
	case int:
		return t, true
	case string:
		return norm.Int(t)
	default:
		return norm.Int(anyText(v))
	}
}

func anyText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return norm.Text(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func firstText(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if v := norm.Text(anyText(row[k])); v != "" {
			return v
		}
	}
	return ""
}

// NormalizeTranscriptRows validates raw capability rows into transcript
// rows. Course name, usable credits (clamped 0..12), and a whitelisted
// grade are mandatory; duplicates within the run are dropped.
func NormalizeTranscriptRows(rows []map[string]any, fallbackSemester int) []extract.TranscriptRow {
	var out []extract.TranscriptRow
	seen := map[string]bool{}
	for _, row := range rows {
		if row == nil {
			continue
		}
		semester, ok := safeInt(row["semester"])
		if !ok {
			semester = fallbackSemester
		}
		course := firstText(row, "mata_kuliah")
		if course == "" {
			continue
		}
		credits, ok := safeInt(row["sks"])
		if !ok {
			continue
		}
		if credits < 0 {
			credits = 0
		}
		if credits > 12 {
			credits = 12
		}
		grade := strings.ReplaceAll(strings.ToUpper(norm.Text(anyText(row["nilai_huruf"]))), " ", "")
		if !extract.GradeWhitelist[grade] {
			continue
		}
		item := extract.TranscriptRow{
			Semester: semester,
			Course:   course,
			Credits:  credits,
			Grade:    grade,
		}
		if page, ok := safeInt(row["page"]); ok && page > 0 {
			item.Page = page
		}
		key := strings.Join([]string{
			strconv.Itoa(item.Semester), strings.ToLower(item.Course), strconv.Itoa(item.Credits), item.Grade,
		}, "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// NormalizeScheduleRows validates raw capability rows into canonical
// schedule rows. Day, course, and a full start/end time are mandatory; a
// combined "jam" range is split when the explicit fields are absent.
func NormalizeScheduleRows(rows []map[string]any, fallbackSemester int) []CanonicalScheduleRow {
	var out []CanonicalScheduleRow
	seen := map[string]bool{}
	for _, row := range rows {
		if row == nil {
			continue
		}
		hari := norm.Day(firstText(row, "hari", "day", "hari_kuliah"))
		course := firstText(row, "mata_kuliah", "matakuliah", "course_name", "nama_mata_kuliah")
		room := firstText(row, "ruangan", "ruang", "room", "lokasi")
		semester, semOK := safeInt(row["semester"])
		if !semOK {
			if fallbackSemester > 0 {
				semester, semOK = fallbackSemester, true
			} else {
				semester = -1
			}
		}
		start := norm.HHMM(anyText(row["jam_mulai"]))
		end := norm.HHMM(anyText(row["jam_selesai"]))
		if start == "" || end == "" {
			jam := norm.TimeRange(firstText(row, "jam", "waktu"))
			if m := norm.TimeRangeRE.FindStringSubmatch(jam); m != nil {
				start = norm.HHMM(m[1])
				end = norm.HHMM(m[2])
			}
		}
		if course == "" || hari == "" || start == "" || end == "" {
			continue
		}
		item := CanonicalScheduleRow{
			Hari:       hari,
			JamMulai:   start,
			JamSelesai: end,
			MataKuliah: course,
			Ruangan:    room,
			Semester:   -1,
		}
		if semOK {
			if semester < 0 {
				semester = 0
			}
			item.Semester = semester
		}
		if page, ok := safeInt(row["page"]); ok && page > 0 {
			item.Page = page
		}
		sem := 0
		if item.Semester > 0 {
			sem = item.Semester
		}
		key := strings.Join([]string{
			strings.ToLower(item.Hari), item.JamMulai, item.JamSelesai,
			strings.ToLower(item.MataKuliah), strings.ToLower(item.Ruangan), strconv.Itoa(sem),
		}, "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

// ToLegacyRows converts canonical schedule rows to the wide row shape the
// chunk builder serializes.
func ToLegacyRows(rows []CanonicalScheduleRow) []extract.ScheduleRow {
	out := make([]extract.ScheduleRow, 0, len(rows))
	for _, r := range rows {
		jam := ""
		if r.JamMulai != "" && r.JamSelesai != "" {
			jam = r.JamMulai + "-" + r.JamSelesai
		}
		item := extract.ScheduleRow{
			Page:   r.Page,
			Day:    norm.Day(r.Hari),
			Time:   jam,
			Course: norm.Text(r.MataKuliah),
			Room:   norm.Text(r.Ruangan),
		}
		if r.Semester >= 0 {
			item.Semester = strconv.Itoa(r.Semester)
		}
		out = append(out, item)
	}
	return out
}

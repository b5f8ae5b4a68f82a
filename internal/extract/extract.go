// Package extract turns raw page content into canonical schedule and
// transcript rows using deterministic rules. The schedule extractor walks
// header-indexed tables with carry-forward for merged cells; the transcript
// extractor matches a fixed line shape. Neither calls out of process, so
// both are safe defaults when capability parsing is disabled or fails.
package extract

import (
	"strconv"
	"strings"

	"github.com/akadex/akadex/internal/norm"
)

// MaxScheduleRows caps the number of rows collected from a single document.
const MaxScheduleRows = 2500

// TablePage is one page of input: its cell matrices plus the free text the
// page renders outside of tables.
type TablePage struct {
	Page   int
	Tables [][][]string
	Text   string
}

// ScheduleRow is one canonical schedule entry. String fields keep the cell
// text as extracted; normalization to wire values happens at serialization.
type ScheduleRow struct {
	Page     int
	Day      string
	Session  string
	Time     string
	Code     string
	Course   string
	Credits  string
	Class    string
	Room     string
	Lecturer string
	Semester string

	// Raw is set instead of the field breakdown for rows recovered from
	// headerless tables.
	Raw string

	// Fallback is "page_text" for rows recovered from free page text.
	Fallback string
}

// Get returns the value of a canonical field by its wire name.
func (r *ScheduleRow) Get(canon string) string {
	switch canon {
	case "hari":
		return r.Day
	case "sesi":
		return r.Session
	case "jam":
		return r.Time
	case "kode":
		return r.Code
	case "mata_kuliah":
		return r.Course
	case "sks":
		return r.Credits
	case "kelas":
		return r.Class
	case "ruang":
		return r.Room
	case "dosen":
		return r.Lecturer
	case "semester":
		return r.Semester
	}
	return ""
}

// Set assigns a canonical field by its wire name. Unknown names are ignored.
func (r *ScheduleRow) Set(canon, value string) {
	switch canon {
	case "hari":
		r.Day = value
	case "sesi":
		r.Session = value
	case "jam":
		r.Time = value
	case "kode":
		r.Code = value
	case "mata_kuliah":
		r.Course = value
	case "sks":
		r.Credits = value
	case "kelas":
		r.Class = value
	case "ruang":
		r.Room = value
	case "dosen":
		r.Lecturer = value
	case "semester":
		r.Semester = value
	}
}

// ScheduleResult is the output of the rule-based schedule walk.
type ScheduleResult struct {
	TableText string
	Columns   []string
	Rows      []ScheduleRow
}

type scheduleIdx struct {
	day, sesi, time, code, name, sks, dosen, kelas, ruang, semester int
}

// ScheduleFromPages walks every table on every page and extracts schedule
// rows. Tables whose first row looks like a column header are indexed by
// canonical field; blank day/session/time cells inherit the last seen value,
// carried across tables and pages to survive merged cells. Headerless tables
// contribute raw rows when they mention a day or a time range, and a final
// pass over the free page text recovers (day, time) pairs the table parser
// missed. Rows are deduplicated on (page, day, time, code, course, class,
// room) and capped at maxRows.
func ScheduleFromPages(pages []TablePage, maxRows int) ScheduleResult {
	if maxRows <= 0 {
		maxRows = MaxScheduleRows
	}
	var (
		columns   []string
		rows      []ScheduleRow
		textParts []string
		carryDay  string
		carrySesi string
		carryJam  string
	)

	for _, page := range pages {
		for _, table := range page.Tables {
			if len(table) == 0 {
				continue
			}
			cleaned := make([][]string, 0, len(table))
			for _, row := range table {
				if len(row) == 0 {
					continue
				}
				out := make([]string, len(row))
				for i, cell := range row {
					out[i] = norm.Text(cell)
				}
				cleaned = append(cleaned, out)
			}
			if len(cleaned) == 0 {
				continue
			}
			for _, row := range cleaned {
				textParts = append(textParts, norm.RowToText(row))
			}

			var header []string
			var canonMap map[int]string
			if len(cleaned) >= 2 && looksLikeHeaderRow(cleaned[0]) {
				header = cleaned[0]
				canonMap = canonicalColumns(header)
				for _, col := range displayColumns(header, canonMap) {
					if !containsString(columns, col) {
						columns = append(columns, col)
					}
				}
			}

			if header != nil {
				headerL := make([]string, len(header))
				for i, h := range header {
					headerL[i] = norm.Header(h)
				}
				idx := scheduleIdx{
					day:      findIdx(headerL, "hari", "day"),
					sesi:     findIdx(headerL, "sesi", "session"),
					time:     findIdx(headerL, "jam", "waktu", "time"),
					code:     findIdx(headerL, "kode mk", "kode", "course code", "kode matakuliah", "kode matkul"),
					name:     findIdx(headerL, "nama matakuliah", "nama mata kuliah", "mata kuliah", "matakuliah", "course name", "nama"),
					sks:      findIdx(headerL, "sks", "credit", "credits"),
					dosen:    findIdx(headerL, "dosen pengampu", "dosen", "pengampu", "lecturer"),
					kelas:    findIdx(headerL, "kelas", "kls", "class"),
					ruang:    findIdx(headerL, "ruang", "room", "lab"),
					semester: findIdx(headerL, "semester", "smt", "sm t", "s m t", "sm"),
				}
				carryDay, carrySesi, carryJam = walkHeaderedRows(
					cleaned[1:], page.Page, idx, canonMap,
					carryDay, carrySesi, carryJam, &rows, maxRows,
				)
			} else {
				for _, row := range cleaned {
					if len(rows) >= maxRows {
						break
					}
					if isNoiseNumberingRow(row) || isNoiseHeaderRepeatRow(row) {
						continue
					}
					raw := norm.TimeRange(norm.RowToText(row))
					low := strings.ToLower(raw)
					hasDay := false
					for _, d := range norm.DayWords {
						if strings.Contains(low, d) {
							hasDay = true
							break
						}
					}
					if hasDay || norm.TimeRangeRE.MatchString(raw) {
						rows = append(rows, ScheduleRow{Page: page.Page, Raw: raw})
					}
				}
			}
		}

		recoverFromPageText(page, &rows, maxRows)
	}

	return ScheduleResult{
		TableText: strings.TrimSpace(strings.Join(textParts, "\n")),
		Columns:   columns,
		Rows:      dedupScheduleRows(rows),
	}
}

func walkHeaderedRows(
	data [][]string, pageNo int, idx scheduleIdx, canonMap map[int]string,
	carryDay, carrySesi, carryJam string, rows *[]ScheduleRow, maxRows int,
) (string, string, string) {
	lastDay, lastSesi, lastJam := carryDay, carrySesi, carryJam
	for _, row := range data {
		if len(*rows) >= maxRows {
			break
		}
		if isNoiseNumberingRow(row) || isNoiseHeaderRepeatRow(row) {
			continue
		}
		day := cellAt(row, idx.day)
		sesi := cellAt(row, idx.sesi)
		jam := cellAt(row, idx.time)

		if day == "" {
			joined := joinedHeaderText(row)
			for _, d := range norm.DayWords {
				if strings.Contains(joined, d) {
					day = titleDay(d)
					break
				}
			}
		}
		if jam == "" {
			if m := norm.TimeRangeRE.FindStringSubmatch(norm.TimeRange(strings.Join(row, " "))); m != nil {
				jam = strings.ReplaceAll(m[1], ".", ":") + "-" + strings.ReplaceAll(m[2], ".", ":")
			}
		}
		day = norm.Day(day)
		if day == "" {
			day = lastDay
		}
		sesi = norm.Text(sesi)
		if sesi == "" {
			sesi = lastSesi
		}
		jam = norm.TimeRange(jam)
		if jam == "" {
			jam = lastJam
		}
		if day != "" {
			lastDay = day
		}
		if sesi != "" {
			lastSesi = sesi
		}
		if jam != "" {
			lastJam = jam
		}
		if day == "" && jam == "" {
			continue
		}

		item := ScheduleRow{
			Page:     pageNo,
			Day:      day,
			Session:  sesi,
			Time:     jam,
			Code:     cellAt(row, idx.code),
			Course:   cellAt(row, idx.name),
			Credits:  cellAt(row, idx.sks),
			Lecturer: cellAt(row, idx.dosen),
			Class:    cellAt(row, idx.kelas),
			Room:     cellAt(row, idx.ruang),
			Semester: norm.Text(cellAt(row, idx.semester)),
		}
		if norm.Text(item.Lecturer) == "" {
			item.Lecturer = guessLecturer(row, item)
		}
		for colIdx, canon := range canonMap {
			if item.Get(canon) != "" || colIdx >= len(row) {
				continue
			}
			item.Set(canon, row[colIdx])
		}
		if item.Day != "" || item.Time != "" {
			*rows = append(*rows, item)
		}
	}
	return lastDay, lastSesi, lastJam
}

// guessLecturer picks the right-most cell that is not already claimed by
// another field and looks like a person name (comma, dot, or multiple words).
func guessLecturer(row []string, item ScheduleRow) string {
	claimed := map[string]bool{
		norm.Text(item.Code):     true,
		norm.Text(item.Course):   true,
		norm.Text(item.Credits):  true,
		norm.Text(item.Class):    true,
		norm.Text(item.Room):     true,
		norm.Text(item.Semester): true,
	}
	for i := len(row) - 1; i >= 0; i-- {
		c := norm.Text(row[i])
		if c == "" || claimed[c] {
			continue
		}
		if strings.Contains(c, ",") || strings.Contains(c, ".") || len(strings.Fields(c)) >= 2 {
			return c
		}
	}
	return ""
}

// recoverFromPageText scans the page's free text for time ranges and pairs
// each with the nearest day word within a 60-character window. Only pairs
// not already present among the recent rows are added.
func recoverFromPageText(page TablePage, rows *[]ScheduleRow, maxRows int) {
	pageText := strings.TrimSpace(page.Text)
	if pageText == "" {
		return
	}
	t := norm.TimeRange(pageText)
	tl := strings.ToLower(t)
	for _, loc := range norm.TimeRangeRE.FindAllStringSubmatchIndex(t, -1) {
		if len(*rows) >= maxRows {
			break
		}
		start := loc[0] - 60
		if start < 0 {
			start = 0
		}
		end := loc[1] + 60
		if end > len(tl) {
			end = len(tl)
		}
		window := tl[start:end]
		dayFound := ""
		for _, d := range norm.DayWords {
			if strings.Contains(window, d) {
				dayFound = d
				break
			}
		}
		jam := norm.TimeRange(
			strings.ReplaceAll(t[loc[2]:loc[3]], ".", ":") + "-" + strings.ReplaceAll(t[loc[4]:loc[5]], ".", ":"),
		)
		exists := false
		recent := *rows
		if len(recent) > 60 {
			recent = recent[len(recent)-60:]
		}
		for _, r := range recent {
			if r.Page == page.Page && strings.ToLower(r.Day) == dayFound && r.Time == jam {
				exists = true
				break
			}
		}
		if !exists {
			*rows = append(*rows, ScheduleRow{
				Page:     page.Page,
				Day:      titleDay(dayFound),
				Time:     jam,
				Fallback: "page_text",
			})
		}
	}
}

func dedupScheduleRows(in []ScheduleRow) []ScheduleRow {
	out := make([]ScheduleRow, 0, len(in))
	seen := map[string]bool{}
	for _, r := range in {
		hari := norm.Day(norm.Text(r.Day))
		jam := norm.TimeRange(r.Time)
		key := strings.Join([]string{
			strconv.Itoa(r.Page), strings.ToLower(hari), jam,
			norm.Text(r.Code), norm.Text(r.Course), norm.Text(r.Class), norm.Text(r.Room),
		}, "\x00")
		if seen[key] {
			continue
		}
		seen[key] = true
		if hari != "" {
			r.Day = hari
		}
		if jam != "" {
			r.Time = jam
		}
		out = append(out, r)
	}
	return out
}

func joinedHeaderText(row []string) string {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if norm.Text(c) != "" {
			parts = append(parts, norm.Header(c))
		}
	}
	return strings.Join(parts, " ")
}

func titleDay(d string) string {
	if d == "" {
		return ""
	}
	if canon := norm.Day(d); canon != d {
		return canon
	}
	return strings.ToUpper(d[:1]) + d[1:]
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

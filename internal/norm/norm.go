// Package norm provides text, day-name, and time normalization for akadex.
//
// Academic documents arrive with inconsistent whitespace, mixed dash
// characters, localized day names, and OCR-garbled time ranges. Every
// extractor and the query pipeline normalize through this package so that
// the same cell content always produces the same canonical value.
package norm

import (
	"regexp"
	"strconv"
	"strings"
)

// PageContent is the per-page payload handed to capability parsers.
type PageContent struct {
	Page           int
	RawText        string
	RoughTableText string
}

// TimeRangeRE matches a time range like "07:00-07:50" or "07.00 - 07.50".
var TimeRangeRE = regexp.MustCompile(`(\d{1,2}[:.]\d{2})\s*[-–]\s*(\d{1,2}[:.]\d{2})`)

// timeSingleRE matches a single clock time like "07:00" or "7.00".
var timeSingleRE = regexp.MustCompile(`\b\d{1,2}[:.]\d{2}\b`)

// semesterRE matches "semester 3" style mentions.
var semesterRE = regexp.MustCompile(`(?i)\bsemester\s*(\d+)\b`)

var (
	spaceRE        = regexp.MustCompile(`\s+`)
	nonAlnumRE     = regexp.MustCompile(`[^a-z0-9 ]+`)
	nonLetterRE    = regexp.MustCompile(`[^a-z]+`)
	digitGapRE     = regexp.MustCompile(`(\d)\s+(\d)`)
	colonGapRE     = regexp.MustCompile(`(\d)\s*:\s*(\d)`)
	dashGapRE      = regexp.MustCompile(`\s*-\s*`)
	nonDigitRE     = regexp.MustCompile(`\D+`)
	hhmmRE         = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	decimalCommaRE = regexp.MustCompile(`(\d),(\d)`)
)

// DayCanon maps lowercase letter-only day tokens to their canonical form.
var DayCanon = map[string]string{
	"senin":     "Senin",
	"selasa":    "Selasa",
	"rabu":      "Rabu",
	"kamis":     "Kamis",
	"jumat":     "Jumat",
	"sabtu":     "Sabtu",
	"minggu":    "Minggu",
	"monday":    "Senin",
	"tuesday":   "Selasa",
	"wednesday": "Rabu",
	"thursday":  "Kamis",
	"friday":    "Jumat",
	"saturday":  "Sabtu",
	"sunday":    "Minggu",
}

// DayWords is the set of day tokens searched for in free text, lowercase.
var DayWords = []string{
	"senin", "selasa", "rabu", "kamis", "jumat", "jum'at", "sabtu", "minggu",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// Text collapses whitespace (including NBSP, tabs, CR) and trims.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = spaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Header normalizes a table header cell for synonym lookup:
// lowercase, dots to spaces, non-alphanumerics stripped.
func Header(s string) string {
	out := strings.ToLower(Text(s))
	out = strings.ReplaceAll(out, ".", " ")
	out = nonAlnumRE.ReplaceAllString(out, " ")
	out = spaceRE.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// TimeRange normalizes a time-range string to "HH:MM-HH:MM".
//
// Handles dotted separators ("07.00"), unicode dashes, stray spaces between
// digits, and — as a last resort — 8-digit blobs from garbled OCR output,
// for which a small set of digit reorderings is tried until one yields a
// valid clock pair. Input that cannot be repaired is returned cleaned but
// otherwise as-is.
func TimeRange(value string) string {
	out := strings.ReplaceAll(value, "\n", " ")
	out = strings.ReplaceAll(out, "\r", " ")
	out = strings.ReplaceAll(out, "–", "-")
	out = strings.ReplaceAll(out, "—", "-")
	out = strings.ReplaceAll(out, ".", ":")
	out = digitGapRE.ReplaceAllString(out, "$1$2")
	out = colonGapRE.ReplaceAllString(out, "$1:$2")
	out = spaceRE.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)
	out = dashGapRE.ReplaceAllString(out, "-")

	if m := TimeRangeRE.FindStringSubmatch(out); m != nil {
		if s, ok := formatRange(m[1], m[2]); ok {
			return s
		}
	}

	digits := nonDigitRE.ReplaceAllString(out, "")
	if len(digits) == 8 {
		candidates := []string{
			digits,
			reverse(digits),
			reverse(digits[:4]) + reverse(digits[4:]),
			digits[4:] + digits[:4],
		}
		for _, cand := range candidates {
			h1, m1 := atoi(cand[0:2]), atoi(cand[2:4])
			h2, m2 := atoi(cand[4:6]), atoi(cand[6:8])
			if validClock(h1, m1) && validClock(h2, m2) {
				if h2*60+m2 < h1*60+m1 {
					h1, m1, h2, m2 = h2, m2, h1, m1
				}
				return pad(h1) + ":" + pad(m1) + "-" + pad(h2) + ":" + pad(m2)
			}
		}
	}
	return out
}

// HHMM normalizes a single clock time to "HH:MM", or "" if none found.
func HHMM(value string) string {
	out := strings.ReplaceAll(Text(value), ".", ":")
	if out == "" {
		return ""
	}
	m := timeSingleRE.FindString(out)
	if m == "" {
		return ""
	}
	parts := strings.SplitN(strings.ReplaceAll(m, ".", ":"), ":", 2)
	hh, mm := atoi(parts[0]), atoi(parts[1])
	if !validClock(hh, mm) {
		return ""
	}
	return pad(hh) + ":" + pad(mm)
}

// ValidTimeRange reports whether value normalizes to a real HH:MM-HH:MM range.
func ValidTimeRange(value string) bool {
	m := TimeRangeRE.FindStringSubmatch(TimeRange(value))
	if m == nil {
		return false
	}
	_, ok1 := clock(m[1])
	_, ok2 := clock(m[2])
	return ok1 && ok2
}

// Day canonicalizes a day name. Matching is done on the letters only, and a
// reversed-letter form is also tried to repair mirrored OCR output. Unknown
// values are returned normalized but not canonicalized.
func Day(value string) string {
	raw := Text(value)
	if raw == "" {
		return ""
	}
	letters := nonLetterRE.ReplaceAllString(strings.ToLower(raw), "")
	if letters == "" {
		return raw
	}
	if canon, ok := DayCanon[letters]; ok {
		return canon
	}
	if canon, ok := DayCanon[reverse(letters)]; ok {
		return canon
	}
	return raw
}

// SemesterFromText extracts a semester number from free text, or 0.
func SemesterFromText(value string) int {
	m := semesterRE.FindStringSubmatch(value)
	if m == nil {
		return 0
	}
	return atoi(m[1])
}

// Int parses a loosely formatted integer ("3", "3.0", "3,0"); ok is false
// when the value carries no usable number.
func Int(value string) (int, bool) {
	s := strings.ReplaceAll(Text(value), ",", ".")
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f + 0.5), true
}

// RoomText fixes decimal commas inside room labels ("E2,3" → "E2.3").
func RoomText(value string) string {
	return decimalCommaRE.ReplaceAllString(Text(value), "$1.$2")
}

// RowToText renders a table row as "cell | cell | cell", skipping blanks.
func RowToText(row []string) string {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if v := Text(c); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " | ")
}

func formatRange(a, b string) (string, bool) {
	t1, ok1 := clock(a)
	t2, ok2 := clock(b)
	if !ok1 || !ok2 {
		return "", false
	}
	return t1 + "-" + t2, true
}

func clock(s string) (string, bool) {
	parts := strings.SplitN(strings.ReplaceAll(s, ".", ":"), ":", 2)
	if len(parts) != 2 {
		return "", false
	}
	hh, mm := atoi(parts[0]), atoi(parts[1])
	if !validClock(hh, mm) {
		return "", false
	}
	return pad(hh) + ":" + pad(mm), true
}

func validClock(hh, mm int) bool {
	return hh >= 0 && hh <= 23 && mm >= 0 && mm <= 59
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

package extract

import (
	"strings"

	"github.com/akadex/akadex/internal/norm"
)

// headerSynonyms maps normalized header cell text to canonical field names.
// Covers the Indonesian and English variants seen across campus layouts.
var headerSynonyms = map[string]string{
	"kode":             "kode",
	"kode mk":          "kode",
	"kode matakuliah":  "kode",
	"kode matkul":      "kode",
	"course code":      "kode",
	"mk":               "kode",
	"mata kuliah":      "mata_kuliah",
	"matakuliah":       "mata_kuliah",
	"nama mata kuliah": "mata_kuliah",
	"nama matakuliah":  "mata_kuliah",
	"course name":      "mata_kuliah",
	"nama":             "mata_kuliah",
	"hari":             "hari",
	"day":              "hari",
	"jam":              "jam",
	"waktu":            "jam",
	"time":             "jam",
	"sesi":             "sesi",
	"session":          "sesi",
	"sks":              "sks",
	"credit":           "sks",
	"credits":          "sks",
	"dosen":            "dosen",
	"pengampu":         "dosen",
	"dosen pengampu":   "dosen",
	"lecturer":         "dosen",
	"kelas":            "kelas",
	"class":            "kelas",
	"ruang":            "ruang",
	"room":             "ruang",
	"lab":              "ruang",
	"semester":         "semester",
	"smt":              "semester",
	"sm t":             "semester",
	"s m t":            "semester",
}

// canonLabels maps canonical field names to display column labels.
var canonLabels = map[string]string{
	"kode":        "Kode",
	"mata_kuliah": "Mata Kuliah",
	"hari":        "Hari",
	"jam":         "Jam",
	"sesi":        "Sesi",
	"sks":         "SKS",
	"dosen":       "Dosen Pengampu",
	"kelas":       "Kelas",
	"ruang":       "Ruang",
	"semester":    "Semester",
}

// ScheduleCanonOrder is the serialization order for schedule row fields.
var ScheduleCanonOrder = []string{
	"hari", "sesi", "jam", "kode", "mata_kuliah", "sks", "kelas", "ruang", "dosen", "semester", "page",
}

var headerDetectKeys = []string{
	"hari", "day", "jam", "waktu", "time", "kode", "kode mk", "mk", "matakuliah", "mata kuliah", "course",
	"sks", "credit", "dosen", "pengampu", "lecturer", "kelas", "class", "ruang", "room", "lab", "no",
}

// looksLikeHeaderRow reports whether a row matches at least two known
// column-header synonyms.
func looksLikeHeaderRow(row []string) bool {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if norm.Text(c) != "" {
			parts = append(parts, norm.Header(c))
		}
	}
	joined := strings.Join(parts, " ")
	if joined == "" {
		return false
	}
	hits := 0
	for _, k := range headerDetectKeys {
		if strings.Contains(joined, k) {
			hits++
		}
	}
	return hits >= 2
}

// canonicalHeader resolves a header cell to its canonical field name, first
// by exact lookup, then by substring match.
func canonicalHeader(name string) string {
	key := norm.Header(name)
	if canon, ok := headerSynonyms[key]; ok {
		return canon
	}
	for k, v := range headerSynonyms {
		if k != "" && strings.Contains(key, k) {
			return v
		}
	}
	return ""
}

// canonicalColumns builds a column-index → canonical-field map from a header row.
func canonicalColumns(header []string) map[int]string {
	mapping := map[int]string{}
	for i, h := range header {
		if canon := canonicalHeader(h); canon != "" {
			mapping[i] = canon
		}
	}
	return mapping
}

// displayColumns turns a canonical column mapping into unique display labels,
// preserving column order.
func displayColumns(header []string, mapping map[int]string) []string {
	cols := []string{}
	seen := map[string]bool{}
	for i := range header {
		canon, ok := mapping[i]
		if !ok {
			continue
		}
		label := canonLabels[canon]
		if label == "" {
			label = strings.ToUpper(canon[:1]) + canon[1:]
		}
		if seen[strings.ToLower(label)] {
			continue
		}
		seen[strings.ToLower(label)] = true
		cols = append(cols, label)
	}
	return cols
}

// findIdx locates the first header column matching any candidate synonym,
// preferring exact matches over substring matches. Returns -1 if absent.
func findIdx(header []string, candidates ...string) int {
	for _, cand := range candidates {
		candN := norm.Header(cand)
		for i, h := range header {
			if h == candN {
				return i
			}
		}
		for i, h := range header {
			if candN != "" && strings.Contains(h, candN) {
				return i
			}
		}
	}
	return -1
}

// isNoiseNumberingRow reports whether a row is a pure 1..N sequence, the
// numbering column some layouts render as its own row.
func isNoiseNumberingRow(row []string) bool {
	vals := []string{}
	for _, c := range row {
		v := strings.NewReplacer(".", "", ",", "").Replace(norm.Text(c))
		if v != "" {
			vals = append(vals, v)
		}
	}
	if len(vals) < 5 {
		return false
	}
	for i, v := range vals {
		n, ok := norm.Int(v)
		if !ok || n != i+1 {
			return false
		}
	}
	return true
}

// isNoiseHeaderRepeatRow reports whether a row is a repeated table header.
func isNoiseHeaderRepeatRow(row []string) bool {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if v := norm.Text(c); v != "" {
			parts = append(parts, v)
		}
	}
	joined := norm.Header(strings.Join(parts, " "))
	if joined == "" {
		return false
	}
	return strings.Contains(joined, "no") &&
		strings.Contains(joined, "hari") &&
		strings.Contains(joined, "jam") &&
		strings.Contains(joined, "mata kuliah")
}

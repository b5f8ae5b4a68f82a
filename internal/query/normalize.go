package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/akadex/akadex/internal/chunk"
	"github.com/akadex/akadex/internal/norm"
)

// ScheduleFact is one schedule row decoded back from its wire chunk.
type ScheduleFact struct {
	Hari       string
	JamMulai   string
	JamSelesai string
	MataKuliah string
	Ruangan    string
	Semester   int // -1 when unknown
	Source     string
	Page       int
}

// TranscriptFact is one transcript row decoded back from its wire chunk.
type TranscriptFact struct {
	Semester   int
	MataKuliah string
	SKS        int
	NilaiHuruf string
	Source     string
	Page       int
}

var jamRangeRE = regexp.MustCompile(`(\d{1,2}[:.]\d{2})\s*-\s*(\d{1,2}[:.]\d{2})`)

// NormalizeTranscriptFact decodes one row chunk into a transcript fact.
// Chunks missing any mandatory field are dropped, not errors.
func NormalizeTranscriptFact(text string, meta map[string]string) (TranscriptFact, bool) {
	kv, ok := chunk.ParseRowChunk(text)
	if !ok {
		return TranscriptFact{}, false
	}
	semester, semOK := parseInt(kv["semester"])
	course := norm.Text(firstNonEmpty(kv["mata_kuliah"], kv["matakuliah"]))
	sks, sksOK := parseInt(kv["sks"])
	grade := strings.ToUpper(norm.Text(kv["nilai_huruf"]))
	if course == "" || !semOK || !sksOK || grade == "" {
		return TranscriptFact{}, false
	}
	return TranscriptFact{
		Semester:   semester,
		MataKuliah: course,
		SKS:        sks,
		NilaiHuruf: grade,
		Source:     sourceFromMeta(meta),
		Page:       pageFrom(kv, meta),
	}, true
}

// NormalizeScheduleFact decodes one row chunk into a schedule fact. The
// time pair comes from jam_mulai/jam_selesai when present, otherwise from
// splitting a combined jam range.
func NormalizeScheduleFact(text string, meta map[string]string) (ScheduleFact, bool) {
	kv, ok := chunk.ParseRowChunk(text)
	if !ok {
		return ScheduleFact{}, false
	}
	hari := norm.Day(firstNonEmpty(kv["hari"], kv["day"]))
	course := norm.Text(firstNonEmpty(kv["mata_kuliah"], kv["matakuliah"]))
	room := norm.Text(firstNonEmpty(kv["ruangan"], kv["ruang"], kv["room"]))
	start := norm.HHMM(kv["jam_mulai"])
	end := norm.HHMM(kv["jam_selesai"])
	if start == "" || end == "" {
		if m := jamRangeRE.FindStringSubmatch(kv["jam"]); m != nil {
			start = norm.HHMM(m[1])
			end = norm.HHMM(m[2])
		}
	}
	if course == "" || hari == "" || start == "" || end == "" {
		return ScheduleFact{}, false
	}
	semester := -1
	if n, ok := parseInt(kv["semester"]); ok {
		semester = n
	}
	return ScheduleFact{
		Hari:       hari,
		JamMulai:   start,
		JamSelesai: end,
		MataKuliah: course,
		Ruangan:    room,
		Semester:   semester,
		Source:     sourceFromMeta(meta),
		Page:       pageFrom(kv, meta),
	}, true
}

func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f), true
	}
	return 0, false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func sourceFromMeta(meta map[string]string) string {
	if s := norm.Text(meta["source"]); s != "" {
		return s
	}
	return "unknown"
}

func pageFrom(kv, meta map[string]string) int {
	if n, ok := parseInt(kv["page"]); ok && n > 0 {
		return n
	}
	if n, ok := parseInt(meta["page"]); ok && n > 0 {
		return n
	}
	return 0
}

// Package capability implements the LLM-backed document parsers and the
// per-row hybrid repair pass. A capability parser receives the per-page
// payload of a document and returns normalized rows or a string error code;
// it never panics the pipeline, so callers can always fall back to the
// rule-based extractors.
package capability

import (
	"fmt"
	"strings"
	"time"

	"github.com/akadex/akadex/internal/llm"
	"github.com/akadex/akadex/internal/norm"
)

// Error codes reported in Result.Error. Kept as strings so they survive the
// trip through ingest reports unchanged.
const (
	ErrUnavailable  = "llm_unavailable"
	ErrEmptyPayload = "empty_page_payload"
	ErrInvalidJSON  = "invalid_json"
)

// Request is the input contract shared by all capability parsers.
type Request struct {
	Pages            []norm.PageContent
	Source           string
	FallbackSemester int // 0 = unknown
}

// Stats describes one capability parse.
type Stats struct {
	Pages int
	Rows  int
	Model string
}

// Options configures a capability parser.
type Options struct {
	Provider   llm.Provider
	Models     []string // ranked model candidates, first is primary
	RetrySleep time.Duration
	Timeout    time.Duration
	MaxPages   int
	MaxRows    int
}

func (o *Options) maxPages() int {
	if o.MaxPages < 1 {
		return 1
	}
	return o.MaxPages
}

func (o *Options) maxRows() int {
	if o.MaxRows < 1 {
		return 1
	}
	return o.MaxRows
}

// renderPages serializes the page payload for the prompt, page cap applied.
// Pages with neither raw text nor rough table text are skipped.
func renderPages(pages []norm.PageContent, maxPages int) []string {
	var prepared []string
	for i, p := range pages {
		if i >= maxPages {
			break
		}
		raw := norm.Text(p.RawText)
		rough := norm.Text(p.RoughTableText)
		if raw == "" && rough == "" {
			continue
		}
		prepared = append(prepared, fmt.Sprintf("[PAGE %d]\nRAW_TEXT:\n%s\nROUGH_TABLE:\n%s", p.Page, raw, rough))
	}
	return prepared
}

// userPrompt builds the instruction wrapper around the rendered pages.
func userPrompt(source string, maxRows int, prepared []string) string {
	return "Output hanya JSON object valid, tanpa markdown dan tanpa teks tambahan.\n" +
		"Jika tidak ada data, kembalikan {\"data_rows\": []}.\n" +
		"Source: " + source + "\n" +
		fmt.Sprintf("Max rows: %d\n\n", maxRows) +
		"Data halaman:\n" +
		strings.Join(prepared, "\n\n")
}

const transcriptSystemPrompt = `Kamu adalah Universal Data Extractor spesialis akademik Indonesia.
Tugasmu adalah membaca teks berantakan dari PDF transkrip/KHS kampus dan mengubahnya menjadi array JSON yang seragam.
Aturan terjemahan:
- Jika kampus memakai kata 'Kredit' atau 'Bobot', petakan itu ke key 'sks'.
- Jika kampus memakai kata 'Grade' atau 'Huruf Mutu', petakan itu ke 'nilai_huruf'.
- Abaikan baris yang bukan mata kuliah (seperti kop surat, nama rektor, dll).

Wajib kembalikan format JSON persis seperti schema ini:
{
  "data_rows": [
    {"semester": 1, "mata_kuliah": "Kalkulus", "sks": 3, "nilai_huruf": "A"}
  ]
}
`

const scheduleSystemPrompt = `Anda adalah Data Extractor akademik.
Baca teks berantakan dari PDF kampus ini.
Abaikan kop surat.
Petakan istilah lokal (misal: 'Pukul' -> 'jam_mulai', 'Ruang/Lab/Room' -> 'ruangan').
Kembalikan HANYA JSON object valid tanpa markdown.
Jika baris bukan mata kuliah, abaikan.

Schema wajib:
{
  "data_rows": [
    {"hari":"Senin", "jam_mulai":"07:00", "jam_selesai":"08:40", "mata_kuliah":"Kalkulus", "ruangan":"A1"}
  ]
}
`

// Package query implements the structured answer pipeline: classify the
// question, fetch stored row chunks, decode them back into typed facts,
// dedup and filter, and render a deterministic Markdown answer with
// citations. No model call happens here; every answer is reproducible from
// the store contents alone.
package query

import (
	"context"
	"strings"
	"time"

	"github.com/akadex/akadex/internal/store"
)

// DefaultMaxCitations caps the rendered source list.
const DefaultMaxCitations = 8

// DefaultTimezone resolves "hari ini" to a weekday.
const DefaultTimezone = "Asia/Jakarta"

// Router answers structured questions against the fact store.
type Router struct {
	Store        store.FactStore
	LowGrades    map[string]bool // nil means DefaultLowGrades
	Location     *time.Location  // nil means DefaultTimezone
	MaxCitations int
	Now          func() time.Time // nil means time.Now
}

// Request is one structured query.
type Request struct {
	OwnerID string
	Query   string
	DocIDs  []string
}

// Citation points an answer back at its document.
type Citation struct {
	Source  string
	Snippet string
}

// Stats counts the rows a query run touched.
type Stats struct {
	Raw       int
	Deduped   int
	Returned  int
	LatencyMS int64
}

// Result is one structured answer.
type Result struct {
	OK      bool
	Answer  string
	Sources []Citation
	DocType string
	Stats   Stats
	Reason  string
}

var scheduleQueryHints = []string{"jadwal", "krs", "hari"}

// Run classifies and answers the query. A store with no matching row
// chunks yields ok=false with reason "no_row_chunks" and a templated
// negative answer; it is never an error.
func (r *Router) Run(ctx context.Context, req Request) Result {
	started := time.Now()
	query := strings.TrimSpace(req.Query)
	ql := strings.ToLower(query)

	docType := "transcript"
	for _, hint := range scheduleQueryHints {
		if strings.Contains(ql, hint) {
			docType = "schedule"
			break
		}
	}
	lowGrade := IsLowGradeQuery(query)
	courseRecap := IsCourseRecapQuery(query)

	raw := r.fetchRowChunks(ctx, req.OwnerID, docType, req.DocIDs)

	// A transcript-shaped recap question over a store that only holds
	// schedules should still answer from the schedule rows.
	if docType == "transcript" && len(raw) == 0 && !lowGrade && courseRecap {
		if fallback := r.fetchRowChunks(ctx, req.OwnerID, "schedule", req.DocIDs); len(fallback) > 0 {
			docType = "schedule"
			raw = fallback
		}
	}

	if len(raw) == 0 {
		return Result{
			OK: false,
			Answer: "## Ringkasan\n" +
				"Maaf, data tidak ditemukan di dokumen Anda.\n\n" +
				"## Opsi Lanjut\n" +
				"- Pastikan dokumen akademik sudah terunggah.\n" +
				"- Jika sudah upload, coba sebutkan detail semester/hari.",
			DocType: docType,
			Stats:   Stats{LatencyMS: time.Since(started).Milliseconds()},
			Reason:  "no_row_chunks",
		}
	}

	if docType == "transcript" {
		return r.runTranscript(ctx, req, query, raw, started)
	}
	return r.runSchedule(query, raw, started)
}

func (r *Router) runTranscript(ctx context.Context, req Request, query string, raw []rowChunk, started time.Time) Result {
	var rows []TranscriptFact
	for _, rc := range raw {
		if f, ok := NormalizeTranscriptFact(rc.text, rc.meta); ok {
			rows = append(rows, f)
		}
	}
	deduped := DedupeTranscriptLatest(rows)
	filtered := deduped

	fullRecap := isFullRecapQuery(query)
	if sem, ok := ExtractSemesterFilter(query); ok {
		filtered = filterTranscriptSemester(filtered, sem)
	}
	if IsLowGradeQuery(query) {
		filtered = filterTranscriptLowGrades(filtered, r.lowGrades())
	}
	if term := ExtractCourseTerm(query); term != "" && !fullRecap {
		if byCourse := filterTranscriptCourse(filtered, term); len(byCourse) > 0 {
			filtered = byCourse
		}
	}

	profile := ExtractTranscriptProfile(r.fetchTranscriptTextChunks(ctx, req.OwnerID, req.DocIDs))
	citeRows := filtered
	if len(citeRows) == 0 {
		citeRows = deduped
	}
	return Result{
		OK:      true,
		Answer:  RenderTranscriptAnswer(filtered, query, profile),
		Sources: renderTranscriptSources(citeRows, r.maxCitations()),
		DocType: "transcript",
		Stats: Stats{
			Raw: len(rows), Deduped: len(deduped), Returned: len(filtered),
			LatencyMS: time.Since(started).Milliseconds(),
		},
		Reason: "structured_transcript",
	}
}

func (r *Router) runSchedule(query string, raw []rowChunk, started time.Time) Result {
	var rows []ScheduleFact
	for _, rc := range raw {
		if f, ok := NormalizeScheduleFact(rc.text, rc.meta); ok {
			rows = append(rows, f)
		}
	}
	day := r.ExtractDayFilter(query)
	filtered := rows
	if day != "" {
		filtered = filterScheduleDay(rows, day)
	}
	sortScheduleFacts(filtered)

	citeRows := filtered
	if len(citeRows) == 0 {
		citeRows = rows
	}
	return Result{
		OK:      true,
		Answer:  RenderScheduleAnswer(filtered, day),
		Sources: renderScheduleSources(citeRows, r.maxCitations()),
		DocType: "schedule",
		Stats: Stats{
			Raw: len(rows), Deduped: len(rows), Returned: len(filtered),
			LatencyMS: time.Since(started).Milliseconds(),
		},
		Reason: "structured_schedule",
	}
}

func (r *Router) lowGrades() map[string]bool {
	if r.LowGrades != nil {
		return r.LowGrades
	}
	return DefaultLowGrades
}

func (r *Router) maxCitations() int {
	if r.MaxCitations > 0 {
		return r.MaxCitations
	}
	return DefaultMaxCitations
}

func (r *Router) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Router) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	loc, err := time.LoadLocation(DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

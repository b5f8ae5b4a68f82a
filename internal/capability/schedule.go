package capability

import (
	"context"

	"github.com/akadex/akadex/internal/llm"
)

// ScheduleResult is the outcome of a schedule capability parse.
type ScheduleResult struct {
	OK    bool
	Error string
	Rows  []CanonicalScheduleRow
	Stats Stats
}

// ScheduleParser extracts canonical schedule rows from page payloads via
// the configured completion backend.
type ScheduleParser struct {
	opts Options
}

// NewScheduleParser returns a schedule parser over the given backend.
func NewScheduleParser(opts Options) *ScheduleParser {
	return &ScheduleParser{opts: opts}
}

// Parse renders the page payload, asks the model for canonical rows, and
// normalizes the reply. Failures come back as string error codes, never as
// Go errors, so the chain can treat them as fallback triggers.
func (p *ScheduleParser) Parse(ctx context.Context, req Request) ScheduleResult {
	if p.opts.Provider == nil {
		return ScheduleResult{Error: ErrUnavailable}
	}
	prepared := renderPages(req.Pages, p.opts.maxPages())
	if len(prepared) == 0 {
		return ScheduleResult{Error: ErrEmptyPayload}
	}
	stats := Stats{Pages: len(prepared)}

	callCtx := ctx
	if p.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.opts.Timeout)
		defer cancel()
	}
	res := llm.CompleteWithFallback(callCtx, p.opts.Provider,
		userPrompt(req.Source, p.opts.maxRows(), prepared),
		llm.CompletionOpts{System: scheduleSystemPrompt, Format: "json"},
		p.opts.Models, p.opts.RetrySleep)
	if !res.OK {
		return ScheduleResult{Error: "llm_exception:" + res.Err, Stats: stats}
	}
	stats.Model = res.Model

	raw := ExtractRowsObject(res.Text, true)
	if raw == nil {
		return ScheduleResult{Error: ErrInvalidJSON, Stats: stats}
	}
	rows := NormalizeScheduleRows(raw, req.FallbackSemester)
	if len(rows) > p.opts.maxRows() {
		rows = rows[:p.opts.maxRows()]
	}
	stats.Rows = len(rows)
	return ScheduleResult{OK: true, Rows: rows, Stats: stats}
}

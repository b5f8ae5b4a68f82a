package capability

import (
	"context"

	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/llm"
)

// TranscriptResult is the outcome of a transcript capability parse.
type TranscriptResult struct {
	OK    bool
	Error string
	Rows  []extract.TranscriptRow
	Stats Stats
}

// TranscriptParser extracts graded course rows from page payloads via the
// configured completion backend.
type TranscriptParser struct {
	opts Options
}

// NewTranscriptParser returns a transcript parser over the given backend.
func NewTranscriptParser(opts Options) *TranscriptParser {
	return &TranscriptParser{opts: opts}
}

// Parse renders the page payload, asks the model for transcript rows, and
// normalizes the reply against the grade whitelist.
func (p *TranscriptParser) Parse(ctx context.Context, req Request) TranscriptResult {
	if p.opts.Provider == nil {
		return TranscriptResult{Error: ErrUnavailable}
	}
	prepared := renderPages(req.Pages, p.opts.maxPages())
	if len(prepared) == 0 {
		return TranscriptResult{Error: ErrEmptyPayload}
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
		llm.CompletionOpts{System: transcriptSystemPrompt, Format: "json"},
		p.opts.Models, p.opts.RetrySleep)
	if !res.OK {
		return TranscriptResult{Error: "llm_exception:" + res.Err, Stats: stats}
	}
	stats.Model = res.Model

	raw := ExtractRowsObject(res.Text, false)
	if raw == nil {
		return TranscriptResult{Error: ErrInvalidJSON, Stats: stats}
	}
	rows := NormalizeTranscriptRows(raw, req.FallbackSemester)
	if len(rows) > p.opts.maxRows() {
		rows = rows[:p.opts.maxRows()]
	}
	stats.Rows = len(rows)
	return TranscriptResult{OK: true, Rows: rows, Stats: stats}
}

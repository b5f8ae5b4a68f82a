// Package chain sequences the capability parsers against the rule-based
// extractors and tags every outcome with its provenance. The schedule chain
// tries the capability parser first and falls back to rule rows, repairing
// only rows that came from rules; the transcript chain runs the
// deterministic parser first and uses the capability parser as fallback.
package chain

import (
	"context"
	"strings"

	"github.com/akadex/akadex/internal/capability"
	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/norm"
)

// Source tags where a row set came from.
type Source string

const (
	SourceRule           Source = "rule"
	SourceCapability     Source = "capability"
	SourceHybridRepaired Source = "hybrid_repaired"
	SourceDeterministic  Source = "deterministic"
	SourceCapabilityFail Source = "capability_fail"
	SourceDisabled       Source = "disabled"
)

// State names the steps a schedule chain run moves through.
type State string

const (
	StateNotTried        State = "not_tried"
	StateCapabilityTried State = "capability_tried"
	StateRuleFallback    State = "rule_fallback"
	StateHybridRepair    State = "hybrid_repair"
	StateDone            State = "done"
)

// ScheduleChain runs the schedule parsing path.
type ScheduleChain struct {
	Enabled  bool
	Parser   *capability.ScheduleParser
	Repairer *capability.Repairer
}

// ScheduleOutcome is the result of one schedule chain run.
type ScheduleOutcome struct {
	Rows           []extract.ScheduleRow
	Source         Source
	CapabilityUsed bool
	Path           []State
	Stats          capability.Stats
	RepairStats    capability.RepairStats
	Error          string
}

// Run decides between capability and rule rows. Capability output is
// adopted only when the chain is enabled, the document is a schedule
// candidate, and the parse returned at least one row; otherwise the rule
// rows pass through, optionally hybrid-repaired.
func (c *ScheduleChain) Run(ctx context.Context, req capability.Request, candidate bool, ruleRows []extract.ScheduleRow) ScheduleOutcome {
	out := ScheduleOutcome{Path: []State{StateNotTried}}

	if c.Enabled && candidate && c.Parser != nil {
		out.Path = append(out.Path, StateCapabilityTried)
		res := c.Parser.Parse(ctx, req)
		out.Stats = res.Stats
		if res.OK && len(res.Rows) > 0 {
			out.Rows = capability.ToLegacyRows(res.Rows)
			out.Source = SourceCapability
			out.CapabilityUsed = true
			out.Path = append(out.Path, StateDone)
			return out
		}
		out.Error = res.Error
	}

	out.Path = append(out.Path, StateRuleFallback)
	out.Rows = ruleRows
	out.Source = SourceRule

	if c.Repairer != nil && len(out.Rows) > 0 {
		out.Path = append(out.Path, StateHybridRepair)
		rows, stats := c.Repairer.Repair(ctx, out.Rows, req.Source)
		out.Rows = rows
		out.RepairStats = stats
		if stats.Repaired > 0 {
			out.Source = SourceHybridRepaired
		}
	}
	out.Path = append(out.Path, StateDone)
	return out
}

// TranscriptChain runs the transcript parsing path.
type TranscriptChain struct {
	Enabled bool
	Parser  *capability.TranscriptParser
}

// TranscriptOutcome is the result of one transcript chain run.
type TranscriptOutcome struct {
	Rows   []extract.TranscriptRow
	Source Source
	Stats  extract.TranscriptStats
	Error  string
}

// Run parses a transcript: the deterministic line parser goes first, and
// the capability parser only sees documents the rules could not read. Both
// failing yields an empty set with the capability error carried along.
func (c *TranscriptChain) Run(ctx context.Context, req capability.Request, candidate bool) TranscriptOutcome {
	if !c.Enabled || !candidate {
		return TranscriptOutcome{Source: SourceDisabled}
	}

	var parts []string
	for _, p := range req.Pages {
		raw := norm.Text(p.RawText)
		table := norm.Text(p.RoughTableText)
		switch {
		case raw != "" && table != "":
			parts = append(parts, raw+"\n"+table)
		case raw != "":
			parts = append(parts, raw)
		case table != "":
			parts = append(parts, table)
		}
	}
	det := extract.TranscriptFromText(strings.Join(parts, "\n"), req.FallbackSemester)
	if len(det.Rows) > 0 {
		return TranscriptOutcome{Rows: det.Rows, Source: SourceDeterministic, Stats: det.Stats}
	}

	if c.Parser != nil {
		res := c.Parser.Parse(ctx, req)
		if res.OK {
			return TranscriptOutcome{Rows: res.Rows, Source: SourceCapability}
		}
		return TranscriptOutcome{Source: SourceCapabilityFail, Error: res.Error}
	}
	return TranscriptOutcome{Source: SourceCapabilityFail, Error: capability.ErrUnavailable}
}

package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/akadex/akadex/internal/capability"
	"github.com/akadex/akadex/internal/chain"
	"github.com/akadex/akadex/internal/chunk"
	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/norm"
	"github.com/akadex/akadex/internal/store"
)

// ErrNoChunks means a readable document produced nothing worth storing.
var ErrNoChunks = errors.New("ingest: no chunks produced")

// jsonCanonicalRows caps the embedded JSON row block.
const jsonCanonicalRows = 300

// Pipeline turns an extracted document into stored chunks. Re-ingesting a
// document deletes its previous chunk set first; the write never happens
// while stale chunks remain.
type Pipeline struct {
	Store           store.FactStore
	ScheduleChain   *chain.ScheduleChain
	TranscriptChain *chain.TranscriptChain
	MaxScheduleRows int
	ChunkSize       int
	ChunkOverlap    int
	ChunkProfile    bool
}

// Result summarizes one ingest run.
type Result struct {
	DocID            string
	DocType          string
	Semester         int
	ScheduleRows     int
	TranscriptRows   int
	ScheduleSource   chain.Source
	TranscriptSource chain.Source
	RepairStats      capability.RepairStats
	Deleted          int64
	ChunksWritten    int64
}

// Run ingests one extracted document for an owner. The document's old
// chunks are deleted strictly before the new set is written.
func (p *Pipeline) Run(ctx context.Context, ownerID, docID string, doc *Document) (*Result, error) {
	if doc == nil || doc.Empty() {
		return nil, ErrEmptyDocument
	}
	maxRows := p.MaxScheduleRows
	if maxRows <= 0 {
		maxRows = extract.MaxScheduleRows
	}

	semester := norm.SemesterFromText(doc.Title)
	if semester == 0 {
		semester = norm.SemesterFromText(doc.Text)
	}

	schedule := extract.ScheduleFromPages(doc.Tables, maxRows)
	columns := doc.Columns
	if len(columns) == 0 {
		columns = schedule.Columns
	}

	req := capability.Request{
		Pages:            doc.Pages,
		Source:           doc.Title,
		FallbackSemester: semester,
	}

	res := &Result{DocID: docID, ScheduleSource: chain.SourceRule, TranscriptSource: chain.SourceDisabled}
	var blocks []string

	scheduleRows := schedule.Rows
	if p.ScheduleChain != nil {
		outcome := p.ScheduleChain.Run(ctx, req, extract.IsScheduleCandidate(doc.Title, columns), schedule.Rows)
		scheduleRows = outcome.Rows
		res.ScheduleSource = outcome.Source
		res.RepairStats = outcome.RepairStats
		if outcome.Error != "" {
			fmt.Fprintf(os.Stderr, "warning: schedule capability parse failed for %s: %s\n", doc.Title, outcome.Error)
		}
	}
	// Rows inherit the document semester when their own cell was blank.
	if semester > 0 {
		for i := range scheduleRows {
			if norm.Text(scheduleRows[i].Semester) == "" {
				scheduleRows[i].Semester = fmt.Sprintf("%d", semester)
			}
		}
	}

	var rowChunks []string
	if len(scheduleRows) > 0 {
		rowChunks = chunk.ScheduleRowChunks(scheduleRows, chunk.ScheduleRowChunkLimit)
		if csvText, _, _ := chunk.ScheduleRowsToCSV(scheduleRows); csvText != "" {
			blocks = append(blocks, "[CSV_CANONICAL]\n"+csvText)
		}
		if blob := scheduleRowsJSON(scheduleRows); blob != "" {
			blocks = append(blocks, "[JSON_CANONICAL]\n"+blob)
		}
	}

	var transcriptRows []extract.TranscriptRow
	if p.TranscriptChain != nil {
		outcome := p.TranscriptChain.Run(ctx, req, extract.IsTranscriptCandidate(doc.Title, columns))
		transcriptRows = outcome.Rows
		res.TranscriptSource = outcome.Source
		if outcome.Source == chain.SourceCapabilityFail {
			fmt.Fprintf(os.Stderr, "warning: transcript parse failed for %s: %s\n", doc.Title, outcome.Error)
		}
	}
	if len(transcriptRows) > 0 {
		rowChunks = chunk.TranscriptRowChunks(transcriptRows, chunk.TranscriptRowChunkLimit)
		if csvText, _, _ := chunk.TranscriptRowsToCSV(transcriptRows); csvText != "" {
			blocks = append(blocks, "[TRANSCRIPT_CSV_CANONICAL]\n"+csvText)
		}
		if blob := transcriptRowsJSON(transcriptRows); blob != "" {
			blocks = append(blocks, "[TRANSCRIPT_JSON_CANONICAL]\n"+blob)
		}
	}

	textContent := strings.TrimSpace(strings.Join(append(blocks, doc.Text), "\n"))
	if textContent == "" {
		return nil, ErrEmptyDocument
	}

	docType := extract.DetectDocType(columns, scheduleRows)
	if len(transcriptRows) > 0 {
		docType = "transcript"
	}

	payloads := chunk.BuildPayloads(chunk.BuildInput{
		DocType:          docType,
		RowChunks:        rowChunks,
		ScheduleRows:     scheduleRows,
		Text:             textContent,
		TextChunkSize:    p.ChunkSize,
		TextChunkOverlap: p.ChunkOverlap,
	})
	if len(payloads) == 0 {
		return nil, ErrNoChunks
	}

	base := chunk.BaseMetadata(chunk.DocumentMeta{
		OwnerID:        ownerID,
		DocID:          docID,
		Source:         doc.Title,
		FileType:       doc.FileType,
		DocType:        docType,
		Columns:        columns,
		ScheduleRows:   scheduleRows,
		TranscriptRows: transcriptRows,
		Semester:       semester,
		HybridRepair:   res.RepairStats.Repaired > 0,
		ChunkProfile:   p.ChunkProfile,
	})
	metas := chunk.ChunkMetadatas(base, payloads)
	texts := make([]string, len(payloads))
	for i, pl := range payloads {
		texts[i] = pl.Text
	}

	del, err := store.DeleteStrict(ctx, p.Store, store.Filter{"user_id": ownerID, "doc_id": docID}, 0, 0)
	res.Deleted = del.Deleted
	if err != nil {
		return res, fmt.Errorf("clearing previous chunks for %s: %w", docID, err)
	}
	written, err := p.Store.WriteChunks(ctx, texts, metas)
	res.ChunksWritten = written
	if err != nil {
		return res, fmt.Errorf("writing chunks for %s: %w", docID, err)
	}

	res.DocType = docType
	res.Semester = semester
	res.ScheduleRows = len(scheduleRows)
	res.TranscriptRows = len(transcriptRows)
	return res, nil
}

func transcriptRowsJSON(rows []extract.TranscriptRow) string {
	if len(rows) > chunk.MetadataRowCap {
		rows = rows[:chunk.MetadataRowCap]
	}
	maps := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		mk := norm.Text(r.Course)
		grade := strings.ToUpper(norm.Text(r.Grade))
		if mk == "" || grade == "" {
			continue
		}
		m := map[string]any{
			"semester":    r.Semester,
			"mata_kuliah": mk,
			"sks":         r.Credits,
			"nilai_huruf": grade,
		}
		if r.Page > 0 {
			m["page"] = r.Page
		}
		maps = append(maps, m)
	}
	if len(maps) == 0 {
		return ""
	}
	b, err := json.Marshal(maps)
	if err != nil {
		return ""
	}
	return string(b)
}

func scheduleRowsJSON(rows []extract.ScheduleRow) string {
	if len(rows) > jsonCanonicalRows {
		rows = rows[:jsonCanonicalRows]
	}
	maps := make([]map[string]string, 0, len(rows))
	for _, r := range rows {
		m := map[string]string{}
		for _, key := range extract.ScheduleCanonOrder {
			if key == "page" {
				continue
			}
			if val := norm.Text(r.Get(key)); val != "" {
				m[key] = val
			}
		}
		if r.Page > 0 {
			m["page"] = fmt.Sprintf("%d", r.Page)
		}
		if len(m) > 0 {
			maps = append(maps, m)
		}
	}
	if len(maps) == 0 {
		return ""
	}
	b, err := json.Marshal(maps)
	if err != nil {
		return ""
	}
	return string(b)
}

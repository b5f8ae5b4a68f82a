package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/llm"
	"github.com/akadex/akadex/internal/norm"
)

// Repair budget defaults. The caps bound the number of completion calls a
// single document can spend on row repair.
const (
	DefaultRepairThreshold = 0.82
	DefaultRepairMaxRows   = 220
	DefaultRepairBatchSize = 25
)

// Repairer runs the per-row hybrid repair pass over rule-derived schedule
// rows: rows scoring below the confidence threshold are batched into repair
// prompts, and non-empty fields from the reply overwrite the originals.
type Repairer struct {
	Provider   llm.Provider
	Models     []string
	RetrySleep time.Duration
	Threshold  float64
	MaxRows    int
	BatchSize  int
}

// RepairStats summarizes one repair run.
type RepairStats struct {
	Enabled    bool
	Reason     string // set when disabled, e.g. "llm_unavailable"
	Checked    int
	Candidates int
	Repaired   int
	RunID      string
}

var repairFields = []string{
	"hari", "sesi", "jam", "ruang", "semester", "mata_kuliah", "sks", "kelas", "dosen", "kode",
}

type repairCandidate struct {
	idx        int
	issues     []string
	confidence float64
}

// Repair scores every row, sends the low-confidence ones to the model in
// batches, and merges the replies. Rule-derived values survive unless the
// model returns a non-empty replacement; a batch failure skips that batch
// only. Rows are never added or removed.
func (r *Repairer) Repair(ctx context.Context, rows []extract.ScheduleRow, source string) ([]extract.ScheduleRow, RepairStats) {
	if len(rows) == 0 {
		return rows, RepairStats{}
	}
	if r.Provider == nil {
		return rows, RepairStats{Reason: ErrUnavailable}
	}
	threshold := r.Threshold
	if threshold <= 0 {
		threshold = DefaultRepairThreshold
	}
	maxRows := r.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultRepairMaxRows
	}
	batchSize := r.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultRepairBatchSize
	}

	var candidates []repairCandidate
	for i := range rows {
		if norm.Text(rows[i].Course) == "" && norm.Text(rows[i].Code) == "" {
			continue
		}
		conf, issues := extract.RowConfidence(rows[i])
		if conf < threshold {
			candidates = append(candidates, repairCandidate{idx: i, issues: issues, confidence: conf})
		}
	}
	stats := RepairStats{Enabled: true, Checked: len(rows)}
	if len(candidates) == 0 {
		return rows, stats
	}
	if len(candidates) > maxRows {
		candidates = candidates[:maxRows]
	}
	stats.Candidates = len(candidates)
	stats.RunID = uuid.NewString()[:8]

	for start := 0; start < len(candidates); start += batchSize {
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		payload := make([]map[string]any, 0, len(batch))
		for _, c := range batch {
			row := map[string]any{}
			for _, k := range repairFields {
				row[k] = norm.Text(rows[c.idx].Get(k))
			}
			row["page"] = rows[c.idx].Page
			payload = append(payload, map[string]any{
				"idx":        c.idx,
				"issues":     c.issues,
				"confidence": float64(int(c.confidence*1000+0.5)) / 1000,
				"row":        row,
			})
		}
		body, err := json.Marshal(payload)
		if err != nil {
			continue
		}
		prompt := "Anda memperbaiki data jadwal kuliah hasil OCR/PDF.\n" +
			"Tugas: perbaiki hanya field yang rusak/kosong. Jangan halusinasi.\n" +
			"Jika tidak yakin, biarkan nilai lama.\n" +
			"Wajib output JSON ARRAY valid tanpa teks tambahan.\n" +
			"Setiap item wajib punya keys: idx, hari, sesi, jam, ruang, semester, mata_kuliah, sks, kelas, dosen, kode.\n" +
			"Format jam wajib HH:MM-HH:MM.\n" +
			"Hari gunakan: SENIN/SELASA/RABU/KAMIS/JUMAT/SABTU/MINGGU jika bahasa Indonesia.\n" +
			"Source: " + source + "\nRun: " + stats.RunID + "\nInput rows:\n" + string(body)

		res := llm.CompleteWithFallback(ctx, r.Provider, prompt, llm.CompletionOpts{Format: "json"}, r.Models, r.RetrySleep)
		if !res.OK {
			fmt.Fprintf(os.Stderr, "warning: repair batch failed (run %s): %s\n", stats.RunID, res.Err)
			continue
		}
		parsed := ExtractRowsArray(res.Text)
		if parsed == nil {
			continue
		}
		for _, item := range parsed {
			idx, ok := safeInt(item["idx"])
			if !ok || idx < 0 || idx >= len(rows) {
				continue
			}
			before, _ := extract.RowConfidence(rows[idx])
			for _, k := range repairFields {
				v, present := item[k]
				if !present {
					continue
				}
				if text := norm.Text(anyText(v)); text != "" {
					rows[idx].Set(k, text)
				}
			}
			after, _ := extract.RowConfidence(rows[idx])
			if after > before {
				stats.Repaired++
			}
		}
	}
	return rows, stats
}

package chunk

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/norm"
)

// DocumentMeta is the per-document input to metadata building.
type DocumentMeta struct {
	OwnerID        string
	DocID          string
	Source         string
	FileType       string
	DocType        string
	Columns        []string
	ScheduleRows   []extract.ScheduleRow
	TranscriptRows []extract.TranscriptRow
	Semester       int
	HybridRepair   bool
	ChunkProfile   bool
}

// BaseMetadata builds the metadata shared by every chunk of a document.
// Row lists serialize to JSON capped at MetadataRowCap entries; flags render
// as "on"/"off" so filters stay string-typed end to end.
func BaseMetadata(m DocumentMeta) map[string]string {
	base := map[string]string{
		"user_id":   m.OwnerID,
		"doc_id":    m.DocID,
		"source":    m.Source,
		"file_type": m.FileType,
		"doc_type":  m.DocType,
	}
	if len(m.Columns) > 0 {
		if b, err := json.Marshal(m.Columns); err == nil {
			base["columns"] = string(b)
		}
	}
	if len(m.ScheduleRows) > 0 {
		rows := m.ScheduleRows
		if len(rows) > MetadataRowCap {
			rows = rows[:MetadataRowCap]
		}
		maps := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			maps = append(maps, scheduleRowMap(r))
		}
		if b, err := json.Marshal(maps); err == nil {
			base["schedule_rows"] = string(b)
		}
		base["table_format"] = "csv_canonical"
	}
	if len(m.TranscriptRows) > 0 {
		rows := m.TranscriptRows
		if len(rows) > MetadataRowCap {
			rows = rows[:MetadataRowCap]
		}
		maps := make([]map[string]any, 0, len(rows))
		for _, r := range rows {
			maps = append(maps, transcriptRowMap(r))
		}
		if b, err := json.Marshal(maps); err == nil {
			base["transcript_rows"] = string(b)
		}
	}
	if m.Semester > 0 {
		base["semester"] = strconv.Itoa(m.Semester)
	}
	base["hybrid_repair"] = onOff(m.HybridRepair)
	base["chunk_profile"] = onOff(m.ChunkProfile)
	return base
}

// ChunkMetadatas expands the base metadata per payload, adding the chunk
// kind plus page and section when known.
func ChunkMetadatas(base map[string]string, payloads []Payload) []map[string]string {
	out := make([]map[string]string, 0, len(payloads))
	for _, p := range payloads {
		meta := make(map[string]string, len(base)+3)
		for k, v := range base {
			meta[k] = v
		}
		meta["chunk_kind"] = p.Kind
		if p.Page > 0 {
			meta["page"] = strconv.Itoa(p.Page)
		}
		if p.Section != "" {
			meta["section"] = p.Section
		}
		out = append(out, meta)
	}
	return out
}

func scheduleRowMap(r extract.ScheduleRow) map[string]any {
	m := map[string]any{}
	for _, key := range extract.ScheduleCanonOrder {
		if key == "page" {
			continue
		}
		if val := norm.Text(r.Get(key)); val != "" {
			m[key] = val
		}
	}
	if r.Page > 0 {
		m["page"] = r.Page
	}
	return m
}

func transcriptRowMap(r extract.TranscriptRow) map[string]any {
	m := map[string]any{
		"semester":    r.Semester,
		"mata_kuliah": norm.Text(r.Course),
		"sks":         r.Credits,
		"nilai_huruf": strings.ToUpper(norm.Text(r.Grade)),
	}
	if r.Code != "" {
		m["kode"] = r.Code
	}
	if r.RowNo > 0 {
		m["no"] = r.RowNo
	}
	if r.Page > 0 {
		m["page"] = r.Page
	}
	return m
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

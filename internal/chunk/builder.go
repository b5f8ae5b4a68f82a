package chunk

import (
	"strconv"
	"strings"

	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/norm"
)

// Chunk kinds as stored in metadata.
const (
	KindRow    = "row"
	KindParent = "parent"
	KindText   = "text"
)

// Payload is one chunk ready to be written to the fact store.
type Payload struct {
	Text    string
	Kind    string
	Page    int
	Section string
}

// BuildInput carries everything the payload builder needs for one document.
type BuildInput struct {
	DocType          string
	RowChunks        []string
	ScheduleRows     []extract.ScheduleRow
	Text             string
	ParentTarget     int
	TextChunkSize    int
	TextChunkOverlap int
}

// BuildPayloads assembles the full chunk set for a document in write order:
// row chunks first, then schedule parent chunks, then text chunks. Chunks
// whose normalized text already appeared are dropped so re-serialized rows
// never land twice.
func BuildPayloads(in BuildInput) []Payload {
	seen := map[string]bool{}
	var out []Payload
	add := func(p Payload) {
		key := strings.ToLower(norm.Text(p.Text))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, p)
	}

	for _, rc := range in.RowChunks {
		add(Payload{Text: rc, Kind: KindRow, Page: rowChunkPage(rc)})
	}
	if in.DocType == "schedule" && len(in.ScheduleRows) > 0 {
		for _, p := range ScheduleParentChunks(in.ScheduleRows, in.ParentTarget) {
			add(p)
		}
	}
	for _, t := range SplitText(in.Text, in.TextChunkSize, in.TextChunkOverlap) {
		add(Payload{Text: t, Kind: KindText})
	}
	return out
}

// ParseRowChunk decodes a serialized row chunk back into its fields: the
// label before the first colon is discarded, the body splits on "|", and
// each segment splits on its first "=". Keys come back lowercased so
// readers never depend on serializer casing. The second return is false
// when the text is not a row chunk. This is the inverse of the row
// serializers and is what the query side reads.
func ParseRowChunk(text string) (map[string]string, bool) {
	label, body, found := strings.Cut(text, ":")
	if !found || strings.ContainsAny(label, "=\n") {
		return nil, false
	}
	fields := map[string]string{}
	for _, cell := range strings.Split(body, "|") {
		k, v, ok := strings.Cut(cell, "=")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		if k != "" && v != "" {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return nil, false
	}
	return fields, true
}

func rowChunkPage(text string) int {
	fields, ok := ParseRowChunk(text)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(fields["page"])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

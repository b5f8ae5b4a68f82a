package chunk

import (
	"fmt"
	"strings"

	"github.com/akadex/akadex/internal/extract"
	"github.com/akadex/akadex/internal/norm"
)

// DefaultParentTarget is the soft character target per parent chunk.
const DefaultParentTarget = 420

var parentLineFields = []string{
	"sesi", "jam", "kode", "mata_kuliah", "kelas", "ruang", "dosen", "semester",
}

type parentGroup struct {
	page int
	day  string
	rows []extract.ScheduleRow
}

// ScheduleParentChunks aggregates schedule rows into day-level parent
// payloads. Rows group by (page, day); each chunk opens with a
// "PARENT_SCHEDULE page=.. hari=.." header followed by one bullet per row,
// splitting near the target size so a group never produces an oversized
// chunk. Rows without a day fall into the "-" group for their page.
func ScheduleParentChunks(rows []extract.ScheduleRow, targetChars int) []Payload {
	if targetChars <= 0 {
		targetChars = DefaultParentTarget
	}

	var groups []*parentGroup
	index := map[string]*parentGroup{}
	for _, r := range rows {
		day := strings.ToUpper(norm.Day(r.Day))
		if day == "" {
			day = "-"
		}
		key := fmt.Sprintf("%d\x00%s", r.Page, day)
		g, ok := index[key]
		if !ok {
			g = &parentGroup{page: r.Page, day: day}
			index[key] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, r)
	}

	var out []Payload
	for _, g := range groups {
		header := fmt.Sprintf("PARENT_SCHEDULE page=%d hari=%s", g.page, g.day)
		section := "hari:" + strings.ToLower(g.day)
		var buf strings.Builder
		flush := func() {
			if buf.Len() == 0 {
				return
			}
			out = append(out, Payload{
				Text:    header + "\n" + strings.TrimRight(buf.String(), "\n"),
				Kind:    KindParent,
				Page:    g.page,
				Section: section,
			})
			buf.Reset()
		}
		for _, r := range g.rows {
			var cells []string
			for _, key := range parentLineFields {
				if val := norm.Text(r.Get(key)); val != "" {
					cells = append(cells, val)
				}
			}
			if len(cells) == 0 {
				continue
			}
			line := strings.Join(cells, " | ")
			if buf.Len()+len(line)+2 > targetChars && buf.Len() > 60 {
				flush()
			}
			buf.WriteString("- " + line + "\n")
		}
		flush()
	}
	return out
}

package capability

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fencedJSONRE = regexp.MustCompile("(?is)```json\\s*(.*?)\\s*```")
	objBlobRE    = regexp.MustCompile(`(?s)(\{.*\})`)
	arrBlobRE    = regexp.MustCompile(`(?s)(\[.*\])`)
	arrOfObjsRE  = regexp.MustCompile(`(?s)(\[\s*\{.*\}\s*\])`)
)

// ExtractRowsObject pulls a {"data_rows": [...]} object out of model output.
// Raw JSON is tried first, then a fenced block, then the widest embedded
// object, and, when allowArray is set, a bare JSON array is accepted and
// wrapped. Returns nil when nothing parses.
func ExtractRowsObject(text string, allowArray bool) []map[string]any {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil
	}
	candidates := []string{raw}
	if m := fencedJSONRE.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := objBlobRE.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if allowArray {
		if m := arrBlobRE.FindStringSubmatch(raw); m != nil {
			candidates = append(candidates, strings.TrimSpace(m[1]))
		}
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		var obj struct {
			DataRows []map[string]any `json:"data_rows"`
		}
		if err := json.Unmarshal([]byte(c), &obj); err == nil && obj.DataRows != nil {
			return obj.DataRows
		}
		if allowArray {
			var arr []map[string]any
			if err := json.Unmarshal([]byte(c), &arr); err == nil {
				return arr
			}
		}
	}
	return nil
}

// ExtractRowsArray pulls a bare JSON array of objects out of model output,
// the shape the repair prompt asks for.
func ExtractRowsArray(text string) []map[string]any {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil
	}
	candidates := []string{raw}
	if m := fencedJSONRE.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if m := arrOfObjsRE.FindStringSubmatch(raw); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	for _, c := range candidates {
		var arr []map[string]any
		if err := json.Unmarshal([]byte(c), &arr); err == nil && arr != nil {
			return arr
		}
	}
	return nil
}

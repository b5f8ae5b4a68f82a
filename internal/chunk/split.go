package chunk

import "strings"

// Text splitter defaults and floors. Callers may shrink the size for short
// documents but never below the floors.
const (
	DefaultTextChunkSize    = 820
	DefaultTextChunkOverlap = 100
	MinTextChunkSize        = 200
	MinTextChunkOverlap     = 40
)

var splitSeparators = []string{"\n\n", "\n", " ", ""}

// SplitText splits free text into overlapping chunks, preferring paragraph
// then line then word boundaries before falling back to raw character cuts.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = DefaultTextChunkSize
	}
	if size < MinTextChunkSize {
		size = MinTextChunkSize
	}
	if overlap <= 0 {
		overlap = DefaultTextChunkOverlap
	}
	if overlap < MinTextChunkOverlap {
		overlap = MinTextChunkOverlap
	}
	if overlap >= size {
		overlap = size / 4
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= size {
		return []string{text}
	}

	pieces := splitRecursive(text, size, splitSeparators)
	return mergeWithOverlap(pieces, size, overlap)
}

// splitRecursive cuts text on the first separator that applies, recursing
// with finer separators on any piece still over the size limit.
func splitRecursive(text string, size int, seps []string) []string {
	if len(text) <= size {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}
	sep := ""
	rest := seps
	for i, s := range seps {
		if s == "" {
			sep = s
			rest = seps[i:]
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}
	if sep == "" {
		var out []string
		for start := 0; start < len(text); start += size {
			end := start + size
			if end > len(text) {
				end = len(text)
			}
			out = append(out, text[start:end])
		}
		return out
	}
	var out []string
	for _, part := range strings.Split(text, sep) {
		if len(part) > size {
			out = append(out, splitRecursive(part, size, rest)...)
			continue
		}
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	return out
}

// mergeWithOverlap greedily packs pieces up to the size limit and carries a
// tail of the previous chunk into the next one.
func mergeWithOverlap(pieces []string, size, overlap int) []string {
	var chunks []string
	var buf strings.Builder
	flush := func() {
		chunk := strings.TrimSpace(buf.String())
		buf.Reset()
		if chunk == "" {
			return
		}
		chunks = append(chunks, chunk)
		if overlap > 0 && len(chunk) > overlap {
			buf.WriteString(chunk[len(chunk)-overlap:])
		}
	}
	for _, p := range pieces {
		if buf.Len() > 0 && buf.Len()+len(p)+1 > size {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(p)
	}
	if strings.TrimSpace(buf.String()) != "" {
		chunk := strings.TrimSpace(buf.String())
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], chunk) {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

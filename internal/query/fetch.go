package query

import (
	"context"
	"strings"

	"github.com/akadex/akadex/internal/store"
)

type rowChunk struct {
	text string
	meta map[string]string
}

// fetchRowChunks reads row chunks for one owner and document type. When the
// store rejects the compound filter, the fetch degrades to an owner-only
// read and the remaining predicate is applied in process. Fetch failures
// read as an empty set; the caller renders the negative template.
func (r *Router) fetchRowChunks(ctx context.Context, ownerID, docType string, docIDs []string) []rowChunk {
	chunks, narrowed := r.readWithFallback(ctx, store.Filter{
		"user_id":    ownerID,
		"chunk_kind": "row",
		"doc_type":   docType,
	}, ownerID)

	docSet := map[string]bool{}
	for _, id := range docIDs {
		docSet[id] = true
	}

	var out []rowChunk
	for _, c := range chunks {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		if narrowed {
			if !strings.EqualFold(c.Meta["chunk_kind"], "row") {
				continue
			}
			if !strings.EqualFold(c.Meta["doc_type"], docType) {
				continue
			}
		}
		if len(docSet) > 0 && !docSet[c.Meta["doc_id"]] {
			continue
		}
		out = append(out, rowChunk{text: text, meta: c.Meta})
	}
	return out
}

// fetchTranscriptTextChunks reads the free-text chunks of the owner's
// transcripts for profile mining.
func (r *Router) fetchTranscriptTextChunks(ctx context.Context, ownerID string, docIDs []string) []string {
	chunks, narrowed := r.readWithFallback(ctx, store.Filter{
		"user_id":    ownerID,
		"doc_type":   "transcript",
		"chunk_kind": "text",
	}, ownerID)

	docSet := map[string]bool{}
	for _, id := range docIDs {
		docSet[id] = true
	}

	var out []string
	for _, c := range chunks {
		text := strings.TrimSpace(c.Text)
		if text == "" {
			continue
		}
		if narrowed {
			if !strings.EqualFold(c.Meta["doc_type"], "transcript") {
				continue
			}
			if !strings.EqualFold(c.Meta["chunk_kind"], "text") {
				continue
			}
		}
		if len(docSet) > 0 && !docSet[c.Meta["doc_id"]] {
			continue
		}
		out = append(out, text)
	}
	return out
}

// readWithFallback tries the full filter first and retries owner-only when
// the store cannot serve it. The second return reports whether the caller
// still has predicates to apply.
func (r *Router) readWithFallback(ctx context.Context, filter store.Filter, ownerID string) ([]*store.Chunk, bool) {
	chunks, err := r.Store.ReadChunks(ctx, filter, store.ReadOpts{})
	if err == nil {
		return chunks, false
	}
	chunks, err = r.Store.ReadChunks(ctx, store.Filter{"user_id": ownerID}, store.ReadOpts{})
	if err != nil {
		return nil, false
	}
	return chunks, true
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var hotColumns = map[string]bool{
	"user_id":    true,
	"doc_id":     true,
	"doc_type":   true,
	"chunk_kind": true,
	"source":     true,
}

var metaKeyRE = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// WriteChunks stores texts with their metadata in batched transactions.
// texts and metas must have equal length. Returns the number written.
func (s *SQLiteStore) WriteChunks(ctx context.Context, texts []string, metas []map[string]string) (int64, error) {
	if len(texts) != len(metas) {
		return 0, fmt.Errorf("writing chunks: %d texts but %d metadatas", len(texts), len(metas))
	}
	var written int64
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		n, err := s.writeBatch(ctx, texts[start:end], metas[start:end])
		written += n
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (s *SQLiteStore) writeBatch(ctx context.Context, texts []string, metas []map[string]string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning write transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks
		(text, user_id, doc_id, doc_type, chunk_kind, source, meta)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	var written int64
	for i, text := range texts {
		meta := metas[i]
		body, err := json.Marshal(meta)
		if err != nil {
			return written, fmt.Errorf("encoding metadata: %w", err)
		}
		_, err = stmt.ExecContext(ctx, text,
			meta["user_id"], meta["doc_id"], meta["doc_type"],
			meta["chunk_kind"], meta["source"], string(body))
		if err != nil {
			return written, fmt.Errorf("inserting chunk: %w", err)
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing write: %w", err)
	}
	return written, nil
}

// ReadChunks returns chunks matching the filter in insertion order.
func (s *SQLiteStore) ReadChunks(ctx context.Context, filter Filter, opts ReadOpts) ([]*Chunk, error) {
	where, args, err := s.filterSQL(filter)
	if err != nil {
		return nil, err
	}
	query := "SELECT id, text, meta, created_at FROM chunks" + where + " ORDER BY id"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading chunks: %w", err)
	}
	defer rows.Close()

	var out []*Chunk
	for rows.Next() {
		var c Chunk
		var body string
		var created time.Time
		if err := rows.Scan(&c.ID, &c.Text, &body, &created); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.CreatedAt = created
		if err := json.Unmarshal([]byte(body), &c.Meta); err != nil {
			c.Meta = map[string]string{}
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// DeleteChunks removes chunks matching the filter and returns the count.
// An empty filter is rejected so a caller bug can never truncate the store.
func (s *SQLiteStore) DeleteChunks(ctx context.Context, filter Filter) (int64, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("deleting chunks: refusing empty filter")
	}
	where, args, err := s.filterSQL(filter)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, "DELETE FROM chunks"+where, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting chunks: %w", err)
	}
	return res.RowsAffected()
}

// CountChunks counts chunks matching the filter.
func (s *SQLiteStore) CountChunks(ctx context.Context, filter Filter) (int64, error) {
	where, args, err := s.filterSQL(filter)
	if err != nil {
		return 0, err
	}
	var n int64
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks"+where, args...)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// filterSQL renders a filter as a WHERE clause. Hot keys hit real columns;
// everything else goes through json_extract on the meta blob. Keys are
// sorted so the generated SQL is deterministic.
func (s *SQLiteStore) filterSQL(filter Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}
	if s.maxFilterKeys > 0 && len(filter) > s.maxFilterKeys {
		return "", nil, fmt.Errorf("%w: %d keys (max %d)", ErrUnsupportedFilter, len(filter), s.maxFilterKeys)
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var conds []string
	var args []any
	for _, k := range keys {
		switch {
		case hotColumns[k]:
			conds = append(conds, k+" = ?")
		case metaKeyRE.MatchString(k):
			conds = append(conds, fmt.Sprintf("json_extract(meta, '$.%s') = ?", k))
		default:
			return "", nil, fmt.Errorf("filtering chunks: invalid metadata key %q", k)
		}
		args = append(args, filter[k])
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

package store

import "fmt"

// migrate creates all tables if they don't exist. The schema is small
// enough that idempotent DDL is the whole migration story.
func (s *SQLiteStore) migrate() error {
	statements := []string{
		// One row per stored chunk. Hot filter keys get real columns so
		// the common owner/doc/kind filters hit indexes; everything else
		// rides in the meta JSON.
		`CREATE TABLE IF NOT EXISTS chunks (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			text       TEXT NOT NULL,
			user_id    TEXT NOT NULL DEFAULT '',
			doc_id     TEXT NOT NULL DEFAULT '',
			doc_type   TEXT NOT NULL DEFAULT '',
			chunk_kind TEXT NOT NULL DEFAULT '',
			source     TEXT NOT NULL DEFAULT '',
			meta       TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_chunks_user ON chunks(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_user_doc ON chunks(user_id, doc_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_user_kind ON chunks(user_id, chunk_kind, doc_type)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}

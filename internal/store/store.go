// Package store provides the SQLite storage layer for Akadex.
//
// All ingested data lives in a single SQLite database file: one row per
// chunk, with the chunk text, a handful of hot filter columns, and the full
// metadata map as JSON. Filters are exact-match key/value pairs over the
// metadata, which is all the query pipeline ever needs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.akadex/akadex.db"

// DefaultBatchSize is the default batch size for bulk writes.
const DefaultBatchSize = 500

// ErrUnsupportedFilter is returned when a filter uses more keys than the
// store was configured to accept. Callers are expected to retry with a
// narrower filter and refilter in process.
var ErrUnsupportedFilter = errors.New("store: unsupported compound filter")

// Filter is an exact-match metadata filter. Empty matches everything.
type Filter map[string]string

// Chunk is one stored chunk with its metadata.
type Chunk struct {
	ID        int64
	Text      string
	Meta      map[string]string
	CreatedAt time.Time
}

// ReadOpts controls chunk reads.
type ReadOpts struct {
	Limit int // 0 means no limit
}

// StoreStats holds observability statistics about the store.
type StoreStats struct {
	ChunkCount  int64
	OwnerCount  int64
	DocCount    int64
	DBSizeBytes int64
}

// StoreConfig holds configuration for NewStore.
type StoreConfig struct {
	DBPath    string
	BatchSize int
	// MaxFilterKeys, when positive, caps how many keys a filter may carry
	// before the store rejects it with ErrUnsupportedFilter. Zero means no
	// cap. This mirrors backends that only index a single metadata key.
	MaxFilterKeys int
}

// FactStore is the storage boundary the ingest and query pipelines share.
type FactStore interface {
	WriteChunks(ctx context.Context, texts []string, metas []map[string]string) (int64, error)
	ReadChunks(ctx context.Context, filter Filter, opts ReadOpts) ([]*Chunk, error)
	DeleteChunks(ctx context.Context, filter Filter) (int64, error)
	CountChunks(ctx context.Context, filter Filter) (int64, error)
	Stats(ctx context.Context) (*StoreStats, error)
	Vacuum(ctx context.Context) error
	Close() error
}

// SQLiteStore implements FactStore using SQLite.
type SQLiteStore struct {
	db            *sql.DB
	dbPath        string
	batchSize     int
	maxFilterKeys int
}

// NewStore creates a new SQLite-backed FactStore.
// Pass ":memory:" for in-memory databases (testing).
func NewStore(cfg StoreConfig) (FactStore, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{
		db:            db,
		dbPath:        cfg.DBPath,
		batchSize:     cfg.BatchSize,
		maxFilterKeys: cfg.MaxFilterKeys,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetDB exposes the underlying handle for reporting queries that the
// FactStore interface does not cover.
func (s *SQLiteStore) GetDB() *sql.DB {
	return s.db
}

// Vacuum runs VACUUM on the database. Manual only, never automatic.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Stats reports chunk, owner, and document counts plus the file size.
func (s *SQLiteStore) Stats(ctx context.Context) (*StoreStats, error) {
	st := &StoreStats{}
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*),
		COUNT(DISTINCT user_id),
		COUNT(DISTINCT doc_id) FROM chunks`)
	if err := row.Scan(&st.ChunkCount, &st.OwnerCount, &st.DocCount); err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}
	if s.dbPath != ":memory:" {
		if fi, err := os.Stat(s.dbPath); err == nil {
			st.DBSizeBytes = fi.Size()
		}
	}
	return st, nil
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

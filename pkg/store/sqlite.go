package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/neatgraph/neatgraph/pkg/diagram"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// timeLayout is fixed-width so lexicographic order in SQL matches time
// order. RFC3339Nano trims trailing zeros and would break ORDER BY.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists documents to SQLite.
// It is suitable for CLI and single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite document store.
// The path should be a file path (e.g., "./neatgraph.db").
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			preset TEXT NOT NULL DEFAULT '',
			diagram BLOB NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_documents_updated_at
		ON documents(updated_at)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	payload, err := json.Marshal(doc.Diagram)
	if err != nil {
		return fmt.Errorf("encode diagram: %w", err)
	}

	now := time.Now().UTC()
	doc.UpdatedAt = now

	// ON CONFLICT leaves created_at untouched so the insert time survives
	// later updates; RETURNING reads the effective value back so the caller's
	// document carries the same timestamps as the row.
	var created string
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO documents (id, name, preset, diagram, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			preset = excluded.preset,
			diagram = excluded.diagram,
			updated_at = excluded.updated_at
		RETURNING created_at
	`, doc.ID, doc.Name, doc.Preset, payload,
		now.Format(timeLayout), now.Format(timeLayout)).Scan(&created)
	if err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var (
		doc     = Document{ID: id}
		payload []byte
		created string
		updated string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, preset, diagram, created_at, updated_at
		FROM documents WHERE id = ?
	`, id).Scan(&doc.Name, &doc.Preset, &payload, &created, &updated)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	var data diagram.GraphData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("decode diagram: %w", err)
	}
	doc.Diagram = data
	doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	doc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)

	return &doc, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, preset, created_at, updated_at
		FROM documents
		ORDER BY updated_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	infos := make([]Info, 0)
	for rows.Next() {
		var (
			info    Info
			created string
			updated string
		)
		if err := rows.Scan(&info.ID, &info.Name, &info.Preset, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan document info: %w", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return infos, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

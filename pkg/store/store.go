// Package store provides persistent storage for diagram documents.
//
// A Document wraps a diagram in its wire form together with a display name,
// a preferred layout preset and store-managed timestamps. Three backends
// implement the Store interface:
//   - memory: In-memory storage for development/testing
//   - sqlite: Embedded single-file storage for CLI and single-instance use
//   - mongo: MongoDB-backed storage for multi-instance deployments
//
// Timestamps are managed by the store: CreatedAt is fixed when a document
// is first inserted and survives later updates, UpdatedAt bumps on every
// Put.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neatgraph/neatgraph/pkg/diagram"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a document doesn't exist.
	ErrNotFound = errors.New("document not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("document store closed")
)

// Document is a stored diagram with its metadata.
type Document struct {
	ID        string            `json:"id" bson:"_id"`
	Name      string            `json:"name" bson:"name"`
	Preset    string            `json:"preset,omitempty" bson:"preset,omitempty"`
	Diagram   diagram.GraphData `json:"diagram" bson:"diagram"`
	CreatedAt time.Time         `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time         `json:"updatedAt" bson:"updated_at"`
}

// Info is document metadata without the diagram payload.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Preset    string    `json:"preset,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Info returns the document's metadata view.
func (d *Document) Info() Info {
	return Info{
		ID:        d.ID,
		Name:      d.Name,
		Preset:    d.Preset,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Store is the interface for document storage backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put inserts or replaces a document. The store sets doc.UpdatedAt;
	// on first insert it also fixes the creation time.
	Put(ctx context.Context, doc *Document) error

	// Get retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	Get(ctx context.Context, id string) (*Document, error)

	// Delete removes a document.
	// Returns ErrNotFound if the document doesn't exist.
	Delete(ctx context.Context, id string) error

	// List returns metadata for all documents, newest update first.
	// Returns an empty slice (not an error) for an empty store.
	List(ctx context.Context) ([]Info, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Config selects and configures a storage backend.
type Config struct {
	Backend    string // memory, sqlite or mongo
	Path       string // sqlite database file
	URI        string // mongo connection string
	Database   string // mongo database name
	Collection string // mongo collection name
}

// Open creates a store for the configured backend. An empty backend opens
// the in-memory store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "neatgraph.db"
		}
		return NewSQLiteStore(path)
	case "mongo":
		return NewMongoStore(ctx, MongoConfig{
			URI:        cfg.URI,
			Database:   cfg.Database,
			Collection: cfg.Collection,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

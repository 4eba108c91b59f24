package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory document store for development and testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	docs   map[string]*Document
	closed bool
}

// NewMemoryStore creates a new in-memory document store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*Document),
	}
}

// Put implements Store.
func (m *MemoryStore) Put(ctx context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	now := time.Now().UTC()
	doc.UpdatedAt = now
	if existing, ok := m.docs[doc.ID]; ok {
		doc.CreatedAt = existing.CreatedAt
	} else {
		doc.CreatedAt = now
	}

	m.docs[doc.ID] = cloneDocument(doc)
	return nil
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDocument(doc), nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

// List implements Store.
func (m *MemoryStore) List(ctx context.Context) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	infos := make([]Info, 0, len(m.docs))
	for _, doc := range m.docs {
		infos = append(infos, doc.Info())
	}

	// Newest update first, ID as tie-breaker for a stable order
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].UpdatedAt.Equal(infos[j].UpdatedAt) {
			return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
		}
		return infos[i].ID < infos[j].ID
	})

	return infos, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.docs = nil
	return nil
}

// Len returns the number of stored documents. Useful for testing.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// cloneDocument copies a document deeply enough that callers and the store
// never share node or edge slices.
func cloneDocument(doc *Document) *Document {
	out := *doc
	out.Diagram.Nodes = slices.Clone(doc.Diagram.Nodes)
	for i, n := range out.Diagram.Nodes {
		out.Diagram.Nodes[i].Attrs = maps.Clone(n.Attrs)
	}
	out.Diagram.Edges = slices.Clone(doc.Diagram.Edges)
	for i, e := range out.Diagram.Edges {
		out.Diagram.Edges[i].Attrs = maps.Clone(e.Attrs)
		out.Diagram.Edges[i].Vertices = slices.Clone(e.Vertices)
	}
	out.Diagram.Attrs = maps.Clone(doc.Diagram.Attrs)
	return &out
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)

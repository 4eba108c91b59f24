// Package cache provides caching for computed layouts and rendered artifacts.
//
// Two kinds of values are cached:
//   - Layout results: the geometry computed for a diagram, keyed by the
//     diagram content hash plus the layout options that produced it.
//   - Artifacts: rendered outputs (SVG, PNG, DOT), keyed by the layout
//     hash plus the render options.
//
// Backends share the Cache interface. FileCache serves CLI usage, RedisCache
// serves the API server, and NullCache disables caching entirely.
package cache

import (
	"context"
	"time"
)

// Default TTLs. Layouts and artifacts are pure functions of their key, so
// expiry only bounds disk usage, not correctness.
const (
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the interface for caching binary blobs with expiration.
type Cache interface {
	// Get retrieves data by key. The second return reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A non-positive ttl stores forever.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// LayoutKeyOpts captures every option that changes a computed layout.
type LayoutKeyOpts struct {
	Algorithm       string            `json:"algorithm"`
	Direction       string            `json:"direction"`
	NodeSpacing     float64           `json:"nodeSpacing"`
	LayerSpacing    float64           `json:"layerSpacing"`
	EdgeNodeSpacing float64           `json:"edgeNodeSpacing"`
	EdgeEdgeSpacing float64           `json:"edgeEdgeSpacing"`
	EdgeRouting     string            `json:"edgeRouting"`
	Directives      map[string]string `json:"directives,omitempty"`
}

// ArtifactKeyOpts captures every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// Keyer generates cache keys for the cacheable stages.
type Keyer interface {
	// LayoutKey generates a key for a computed layout.
	LayoutKey(diagramHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates hash-based keys with stage prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// LayoutKey generates a key for a computed layout.
func (k *DefaultKeyer) LayoutKey(diagramHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", diagramHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)

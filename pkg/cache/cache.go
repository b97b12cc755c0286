// Package cache stores layout results between runs.
//
// Backends implement [Cache]: [NullCache] disables caching, [FileCache]
// serves the CLI, [MemoryCache] serves a single server process and
// [RedisCache] is shared between server replicas. Keys come from a
// [Keyer], which hashes the graph content together with every option that
// affects the result.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	LayoutTTL   = 7 * 24 * time.Hour
	SnapshotTTL = 24 * time.Hour
)

// Cache is a byte store with per-entry expiry. A miss is reported as
// (nil, false, nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts lists the options that change a layout result.
type LayoutKeyOpts struct {
	Algorithm  string  `json:"algorithm"`
	Strategy   string  `json:"strategy,omitempty"`
	Tuning     string  `json:"tuning,omitempty"`
	Sampling   string  `json:"sampling"`
	Tick       float64 `json:"tick,omitempty"`
	Iterations int     `json:"iterations"`
	EdgeLength float64 `json:"edge_length"`
	Tau        float64 `json:"tau"`
	Seed       int64   `json:"seed"`
	Flexible   bool    `json:"flexible,omitempty"`
	Bends      bool    `json:"bends,omitempty"`
}

// SnapshotKeyOpts lists the options that change a rendered snapshot.
type SnapshotKeyOpts struct {
	Time   float64 `json:"time"`
	Format string  `json:"format"`
	Scale  float64 `json:"scale,omitempty"`
	Labels bool    `json:"labels,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
	SnapshotKey(graphHash string, opts SnapshotKeyOpts) string
}

// DefaultKeyer produces "layout:<sha256>" and "snapshot:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey hashes the graph hash with the layout options.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// SnapshotKey hashes the graph hash with the snapshot options.
func (DefaultKeyer) SnapshotKey(graphHash string, opts SnapshotKeyOpts) string {
	return hashKey("snapshot", graphHash, opts)
}

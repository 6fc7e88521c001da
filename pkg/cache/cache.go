// Package cache stores analysis results keyed by the content of the input
// batch.
//
// Building a graph and extracting its context is cheap for small batches but
// grows with the number of declared parents (every insertion runs a cycle
// check), and rendering SVG through Graphviz is slow. Results are therefore
// cached under a key derived from the SHA-256 of the canonical batch plus the
// options that influence the result.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one JSON file per entry under the user cache directory (CLI)
//   - [RedisCache]: a shared Redis instance (API server)
//   - [NullCache]: never stores anything (--no-cache, tests)
//
// Keys come from a [Keyer]; wrap one in [NewScopedKeyer] to isolate tenants.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// Cache is a byte-oriented key/value store with per-entry expiration.
//
// Get reports a miss as (nil, false, nil); an error means the backend
// itself failed. A ttl of zero stores the entry without expiration.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ContextKeyOpts are the analysis options that change the resulting context.
type ContextKeyOpts struct {
	AllRoots bool   `json:"all_roots,omitempty"`
	Merge    string `json:"merge,omitempty"`
}

// RenderKeyOpts are the options that change a rendered artifact.
type RenderKeyOpts struct {
	Format        string `json:"format"`
	Detailed      bool   `json:"detailed,omitempty"`
	ShowRejected  bool   `json:"show_rejected,omitempty"`
	HideRedundant bool   `json:"hide_redundant,omitempty"`
	Root          string `json:"root,omitempty"`
}

// Keyer derives cache keys. batchHash is the [Hash] of the canonical batch
// encoding (see [BatchHash]).
type Keyer interface {
	ContextKey(batchHash string, opts ContextKeyOpts) string
	RenderKey(batchHash string, opts RenderKeyOpts) string
}

// DefaultKeyer produces keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ContextKey generates a key for an extracted causal context.
func (DefaultKeyer) ContextKey(batchHash string, opts ContextKeyOpts) string {
	return hashKey("context", batchHash, opts)
}

// RenderKey generates a key for a rendered artifact.
func (DefaultKeyer) RenderKey(batchHash string, opts RenderKeyOpts) string {
	return hashKey("render", batchHash, opts)
}

// BatchHash hashes the JSON encoding of v, usually a []dag.LogNode. Record
// order is part of the hash because it decides root resolution.
func BatchHash(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return Hash(data), nil
}

// Package session persists analysis results so they can be inspected later.
//
// A [Session] is a snapshot of one analysis: the input records, the accepted
// and rejected edges, the sources of the graph and the extracted causal
// context. Sessions expire after a TTL.
//
// # Backends
//
// Three implementations of [Store] are provided:
//   - [MemoryStore]: in-process map, for tests and a standalone API server
//   - [FileStore]: JSON files under ~/.config/causalog/sessions/ (CLI)
//   - [MongoStore]: a MongoDB collection, shared between API instances
//
// # Usage
//
//	store, err := session.Open(ctx, session.Options{Backend: "file"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	sess, err := session.New("nodes.json", g, ctx, session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	if err := store.Set(ctx, sess); err != nil {
//	    return err
//	}
//
//	got, err := store.Get(ctx, sess.ID)
//	if got == nil {
//	    // not found or expired
//	}
package session

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/causalog/pkg/causal"
	"github.com/matzehuels/causalog/pkg/dag"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrUnknownBackend is returned by [Open] for an unrecognized backend name.
	ErrUnknownBackend = errors.New("unknown session backend")
)

// DefaultTTL is the default session lifetime.
const DefaultTTL = 7 * 24 * time.Hour

// Session is a stored analysis.
type Session struct {
	ID        string             `json:"id" bson:"_id"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	ExpiresAt time.Time          `json:"expires_at,omitzero" bson:"expires_at,omitempty"`
	Source    string             `json:"source,omitempty" bson:"source,omitempty"`
	Tenant    string             `json:"tenant,omitempty" bson:"tenant,omitempty"`
	Nodes     []dag.LogNode      `json:"nodes" bson:"nodes"`
	Edges     []dag.Edge         `json:"edges" bson:"edges"`
	Rejected  []dag.RejectedEdge `json:"rejected,omitempty" bson:"rejected,omitempty"`
	Roots     []string           `json:"roots" bson:"roots"`
	Context   *causal.Context    `json:"context,omitempty" bson:"context,omitempty"`
}

// Summary is the listing form of a session.
type Summary struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	Source    string    `json:"source,omitempty"`
	Tenant    string    `json:"tenant,omitempty"`
	Nodes     int       `json:"nodes"`
	Rejected  int       `json:"rejected"`
	RootCause string    `json:"root_cause,omitempty"`
}

// New snapshots g and its context into a session with a fresh random id.
// A ttl of zero means the session never expires.
func New(source string, g *dag.Graph, ctx *causal.Context, ttl time.Duration) (*Session, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &Session{
		ID:        id.String(),
		CreatedAt: now,
		Source:    source,
		Nodes:     make([]dag.LogNode, 0, g.Size()),
		Edges:     g.Edges(),
		Rejected:  g.Rejected(),
		Roots:     g.Roots(),
		Context:   ctx,
	}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	for _, n := range g.Nodes() {
		s.Nodes = append(s.Nodes, *n)
	}
	return s, nil
}

// IsExpired returns true if the session has a TTL and it has passed.
func (s *Session) IsExpired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// Graph rebuilds the stored graph from the recorded nodes.
func (s *Session) Graph() *dag.Graph {
	return dag.Build(s.Nodes)
}

// Summary returns the listing form of s.
func (s *Session) Summary() Summary {
	sum := Summary{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		Source:    s.Source,
		Tenant:    s.Tenant,
		Nodes:     len(s.Nodes),
		Rejected:  len(s.Rejected),
	}
	if s.Context != nil {
		sum.RootCause = s.Context.RootCause
	}
	return sum
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session, replacing any session with the same ID.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// List returns summaries of all live sessions, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Cleanup removes expired sessions and reports how many were removed.
	Cleanup(ctx context.Context) (int, error)

	Close() error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}

func sortNewestFirst(s []Summary) {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].CreatedAt.Equal(s[j].CreatedAt) {
			return s[i].CreatedAt.After(s[j].CreatedAt)
		}
		return s[i].ID < s[j].ID
	})
}

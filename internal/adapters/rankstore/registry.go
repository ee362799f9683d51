// Package rankstore defines the per-scope ranking store interface and errors.
package rankstore

import (
	"context"
	"sync"

	"github.com/verdantquest/questboard/internal/domain/scope"
	"github.com/verdantquest/questboard/pkg/metrics"
)

// Registry owns one independent Store per scope. City stores are
// created lazily on first write; there is no fixed city list. Scopes
// never share a lock, so unrelated cities can be mutated in parallel.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]Store
	opts   []Option
}

// NewRegistry creates a registry with the global store pre-created.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		stores: make(map[string]Store),
		opts:   opts,
	}
	r.stores[scope.Global().Key()] = NewTreap(opts...)
	metrics.UpdateRankStoreScopes(1)
	return r
}

// Store returns the scope's store, creating it if absent.
func (r *Registry) Store(sc scope.Scope) Store {
	key := sc.Key()

	r.mu.RLock()
	s, ok := r.stores[key]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok = r.stores[key]; ok {
		return s
	}
	s = NewTreap(r.opts...)
	r.stores[key] = s
	metrics.UpdateRankStoreScopes(len(r.stores))
	return s
}

// Lookup returns the scope's store without creating it. Reads against
// a never-written scope see no store rather than allocating one.
func (r *Registry) Lookup(sc scope.Scope) (Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[sc.Key()]
	return s, ok
}

// TopK reads the top k entries of a scope. A never-written scope is an
// empty leaderboard, not an error; this mirrors reads against an empty
// sorted set.
func (r *Registry) TopK(ctx context.Context, sc scope.Scope, k int) ([]Entry, error) {
	if k < 1 {
		return nil, ErrInvalidLimit
	}
	s, ok := r.Lookup(sc)
	if !ok {
		return []Entry{}, nil
	}
	return s.TopK(ctx, k)
}

// Rank reads one member's entry in a scope. An unknown scope is
// indistinguishable from an unknown member.
func (r *Registry) Rank(ctx context.Context, sc scope.Scope, memberID string) (Entry, error) {
	s, ok := r.Lookup(sc)
	if !ok {
		return Entry{}, ErrNotFound
	}
	return s.Rank(ctx, memberID)
}

// Scopes returns the keys of all scopes created so far.
func (r *Registry) Scopes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.stores))
	for k := range r.stores {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of scopes created so far.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

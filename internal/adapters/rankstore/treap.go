// Package rankstore defines the per-scope ranking store interface and errors.
package rankstore

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/verdantquest/questboard/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then memberID ASC (deterministic). The BST
// comparator treats "less" as ranks-earlier, so in-order traversal
// yields the leaderboard from best to worst. Size augmentation on
// every node gives O(log n) positional rank lookups.

// treap node
type node struct {
	id    string
	score int64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) ranks earlier than (bScore, bID).
func less(aScore int64, aID string, bScore int64, bID string) bool {
	if aScore != bScore {
		return aScore > bScore // higher score ranks earlier
	}
	return aID < bID // tie-breaker by member id asc
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score int64, prio uint64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: prio, size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score int64) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		// Rotate the higher-priority child up until the target is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// collectTop appends up to limit entries in rank order.
func collectTop(n *node, limit int, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTop(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, Entry{MemberID: n.id, Score: n.score})
	}
	if len(*out) < limit {
		collectTop(n.right, limit, out)
	}
}

// position returns the 1-based rank of (id, score), assuming it exists.
func position(n *node, id string, score int64) int {
	pos := 1
	for n != nil {
		if n.id == id && n.score == score {
			return pos + nsize(n.left)
		}
		if less(score, id, n.score, n.id) {
			n = n.left
		} else {
			pos += nsize(n.left) + 1
			n = n.right
		}
	}
	return pos
}

// Treap is an in-memory ranking store for one scope.
type Treap struct {
	mu   sync.RWMutex
	root *node
	byID map[string]int64
	rng  *rand.Rand
}

// NewTreap constructs an empty ranking store with configuration options.
func NewTreap(opts ...Option) *Treap {
	s := &Treap{
		byID: make(map[string]int64),
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // balance randomness, not crypto
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert implements Store.Upsert with O(log n) expected time.
func (s *Treap) Upsert(ctx context.Context, memberID string, score int64) error {
	start := time.Now()
	defer func() {
		metrics.RecordRankStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if strings.TrimSpace(memberID) == "" {
		return ErrInvalidMember
	}
	if score < 0 {
		return ErrNegativeScore
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byID[memberID]; ok {
		if old == score {
			return nil
		}
		s.root = deleteNode(s.root, memberID, old)
	}
	s.byID[memberID] = score
	s.root = insert(s.root, memberID, score, s.rng.Uint64())
	return nil
}

// TopK implements Store.TopK. Ranks are 1-based positions; when fewer
// than k members exist, all of them are returned.
func (s *Treap) TopK(ctx context.Context, k int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if k < 1 {
		metrics.RecordErrorByComponent("rankstore", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, min(k, len(s.byID)))
	collectTop(s.root, k, &out)
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

// Rank implements Store.Rank in O(log n) using subtree sizes.
func (s *Treap) Rank(ctx context.Context, memberID string) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	score, ok := s.byID[memberID]
	if !ok {
		metrics.RecordErrorByComponent("rankstore", "not_found")
		return Entry{}, ErrNotFound
	}
	return Entry{
		Rank:     position(s.root, memberID, score),
		MemberID: memberID,
		Score:    score,
	}, nil
}

// Remove implements Store.Remove.
func (s *Treap) Remove(ctx context.Context, memberID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	score, ok := s.byID[memberID]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID, memberID)
	s.root = deleteNode(s.root, memberID, score)
	return nil
}

// Count returns the number of members in the scope.
func (s *Treap) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Package rankstore defines the per-scope ranking store interface and errors.
package rankstore

import "context"

// Entry represents one leaderboard row.
type Entry struct {
	Rank     int
	MemberID string
	Score    int64
}

// Store provides read/write access to one scope's ranking state.
type Store interface {
	// Upsert sets the member's current total score, replacing any prior
	// value. Scores are totals, not deltas; a lower score than the
	// existing one is applied as-is.
	Upsert(ctx context.Context, memberID string, score int64) error

	// TopK returns up to k entries ordered by score desc, member id asc.
	TopK(ctx context.Context, k int) ([]Entry, error)

	// Rank returns the current rank and score for a member.
	// Returns ErrNotFound if the member is unknown.
	Rank(ctx context.Context, memberID string) (Entry, error)

	// Remove evicts a member from the scope.
	// Returns ErrNotFound if the member is unknown.
	Remove(ctx context.Context, memberID string) error

	// Count returns the number of members tracked in the scope.
	Count(ctx context.Context) int
}

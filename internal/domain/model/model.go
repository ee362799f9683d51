// Package model contains domain models passed between layers.
package model

import (
	"time"

	"github.com/verdantquest/questboard/internal/domain/scope"
)

// Member is the ranking subsystem's view of a user record.
type Member struct {
	ID              string     // opaque stable identifier from the identity provider
	Name            string     // display name; "Anonymous" until the profile is filled in
	Email           string     //
	XP              int64      // current total, never a delta
	Badges          []string   // badge names in unlock order
	Streak          int        // consecutive award days
	LastCompletedAt *time.Time // nil until the first award
	City            string     // optional locality; "" means global-only
}

// Quest describes an action a member can complete for XP.
type Quest struct {
	ID          string
	Title       string
	Description string
	XP          int64
	Category    string
	Difficulty  string // easy, medium, hard
	Active      bool
}

// RankUpdate notifies the broadcast pipeline that one or more scopes
// changed and need a fresh top-K snapshot pushed to subscribers.
type RankUpdate struct {
	MemberID string
	Scopes   []scope.Scope
}

// BoardRow is one enriched leaderboard row returned by queries.
// Name falls back to a placeholder when no profile record exists.
type BoardRow struct {
	Rank     int    `json:"rank"`
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	XP       int64  `json:"xp"`
	City     string `json:"city,omitempty"`
}

// AwardResult is what the caller of an award sees on success.
type AwardResult struct {
	MemberID       string
	NewTotalXP     int64
	BadgesUnlocked []string
	Streak         int
}

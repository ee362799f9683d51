// Package award computes XP awards, badge unlocks, and streaks.
package award

import (
	"sort"
	"time"

	"github.com/verdantquest/questboard/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithBadges replaces the badge threshold table. The table is sorted
// by ascending threshold; empty tables are ignored.
func WithBadges(badges []Badge) Option {
	return func(e *Engine) {
		if len(badges) == 0 {
			return
		}
		sorted := append([]Badge(nil), badges...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Threshold < sorted[j].Threshold })
		e.badges = sorted
	}
}

// WithClock overrides the time source, for streak tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets a custom logger for the engine.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

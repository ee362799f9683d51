// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"runtime"
)

// BadgeConfig pairs an XP threshold with the badge name it unlocks.
type BadgeConfig struct {
	Threshold int64  `koanf:"threshold"`
	Name      string `koanf:"name"`
}

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory rank-update queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of broadcast workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the proof deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// SnapshotSize sets how many entries each broadcast snapshot carries.
	SnapshotSize int `koanf:"snapshot_size"`

	// SendBuffer sets the per-subscriber WebSocket outbound buffer.
	SendBuffer int `koanf:"send_buffer"`

	// MaxLeaderboardLimit caps the limit parameter on leaderboard reads.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// Badges overrides the stock badge threshold table.
	Badges []BadgeConfig `koanf:"badges"`
}

// New creates a Config with defaults. Context is accepted first to
// satisfy the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":8080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		SnapshotSize:        10,
		SendBuffer:          32,
		MaxLeaderboardLimit: 100,
	}
}

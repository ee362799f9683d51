// Package loadgen drives randomized award traffic against a running
// instance and reports what the leaderboard looks like afterwards.
package loadgen

import "time"

// Default generator configuration constants.
const (
	DefaultNumAwards     = 5000
	DefaultMembers       = 500
	DefaultTopN          = 10
	DefaultTimeout       = 10 * time.Second
	DefaultDuplicateRate = 0.05
)

// Config controls one load generation run.
type Config struct {
	// BaseURL of the service, e.g. "http://localhost:8080".
	BaseURL string

	// NumAwards is how many award requests to submit.
	NumAwards int

	// Members is the size of the synthetic member pool.
	Members int

	// Workers is the number of concurrent submitters.
	Workers int

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// DuplicateRate is the fraction of requests that reuse an earlier
	// proof id, exercising the idempotency path.
	DuplicateRate float64

	// TopN is how many leaderboard rows to fetch at the end.
	TopN int

	// Verbose enables per-request logging.
	Verbose bool
}

// Stats summarizes a completed run.
type Stats struct {
	Generated  int
	Submitted  int
	Successful int
	Duplicate  int
	Failed     int
	Elapsed    time.Duration
}

package rankstore

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrNotFound      = errors.New("member not found")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrInvalidMember = errors.New("empty member id")
	ErrNegativeScore = errors.New("negative score")
)

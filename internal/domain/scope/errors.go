package scope

import "errors"

// Sentinel kinds for scope errors.
var (
	ErrEmptyCity    = errors.New("empty city name")
	ErrUnknownScope = errors.New("unknown scope key")
)

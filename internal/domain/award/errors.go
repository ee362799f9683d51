package award

import "errors"

// Sentinel kinds for award errors.
var (
	ErrValidation    = errors.New("invalid award request")
	ErrQuestNotFound = errors.New("quest not found")
	ErrAwardFailed   = errors.New("award persistence failed")
)

package record

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrMemberNotFound = errors.New("member not found")
	ErrQuestNotFound  = errors.New("quest not found")
	ErrSaveFailed     = errors.New("record save failed")
)

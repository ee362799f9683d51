package ws

import "errors"

// Error definitions for the ws package.
var (
	// ErrHubClosed is returned when registering on a closed hub.
	ErrHubClosed = errors.New("hub is closed")

	// ErrUnknownAction is returned for client messages with an
	// unrecognized action field.
	ErrUnknownAction = errors.New("unknown action")

	// ErrBadScope is returned for client messages naming an invalid scope.
	ErrBadScope = errors.New("invalid scope")
)

// Package site serves the embedded live leaderboard page.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded live page routes to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", http.FileServer(FS()))
}

// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/verdantquest/questboard/internal/domain/model"
	"github.com/verdantquest/questboard/internal/domain/scope"
)

// Default request handling limits.
const (
	defaultLimit    = 10
	defaultMaxLimit = 100
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// Award processes one quest completion synchronously.
	Award(ctx context.Context, memberID, questID string) (model.AwardResult, error)

	// SeenAndRecord atomically checks and records a proof id.
	SeenAndRecord(ctx context.Context, proofID string) bool

	// Unrecord releases a proof id so the award can be retried.
	Unrecord(ctx context.Context, proofID string)

	// TopK reads enriched leaderboard rows for a scope.
	TopK(ctx context.Context, sc scope.Scope, k int) ([]Row, error)

	// Rank reads one member's enriched row in a scope.
	Rank(ctx context.Context, sc scope.Scope, memberID string) (Row, error)

	// ServeWS upgrades the request into a live subscription connection.
	ServeWS(w http.ResponseWriter, r *http.Request)
}

// Row mirrors the read shape returned by leaderboard queries.
type Row = model.BoardRow

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	awardHandler       *AwardHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	deps               Dependencies
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithMaxLimit caps the limit query parameter on leaderboard reads.
func WithMaxLimit(max int) ServerOption {
	return func(s *Server) {
		if max > 0 {
			s.leaderboardHandler.maxLimit = max
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		awardHandler:       NewAwardHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, defaultMaxLimit),
		rankHandler:        NewRankHandler(deps),
		deps:               deps,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/award", MetricsMiddleware(s.awardHandler.HandlePostAward, "award"))
	mux.HandleFunc("/leaderboard/global", MetricsMiddleware(s.leaderboardHandler.HandleGetGlobal, "leaderboard_global"))
	mux.HandleFunc("/leaderboard/local", MetricsMiddleware(s.leaderboardHandler.HandleGetLocal, "leaderboard_local"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
	// No middleware here: the upgrade needs the raw hijackable writer.
	mux.HandleFunc("/ws", s.deps.ServeWS)
}

// awardRequest is the POST /award payload.
type awardRequest struct {
	MemberID string `json:"member_id"`
	QuestID  string `json:"quest_id"`
	ProofID  string `json:"proof_id,omitempty"`
}

func (a awardRequest) validate() error {
	switch {
	case strings.TrimSpace(a.MemberID) == "":
		return NewKind("api.validate", ErrBadRequest)
	case strings.TrimSpace(a.QuestID) == "":
		return NewKind("api.validate", ErrBadRequest)
	}
	return nil
}

// awardResponse acknowledges a processed or duplicate award.
type awardResponse struct {
	Status         string   `json:"status"`
	Duplicate      bool     `json:"duplicate"`
	NewTotalXP     int64    `json:"new_total_xp,omitempty"`
	BadgesUnlocked []string `json:"badges_unlocked,omitempty"`
	Streak         int      `json:"streak,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

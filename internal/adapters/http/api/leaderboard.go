package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/verdantquest/questboard/internal/domain/scope"
)

// LeaderboardDependencies defines the interface for leaderboard reads.
type LeaderboardDependencies interface {
	TopK(ctx context.Context, sc scope.Scope, k int) ([]Row, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetGlobal handles GET /leaderboard/global?limit=N requests.
func (h *LeaderboardHandler) HandleGetGlobal(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard_global"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	h.respond(w, r, op, scope.Global())
}

// HandleGetLocal handles GET /leaderboard/local?city=NAME&limit=N requests.
func (h *LeaderboardHandler) HandleGetLocal(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard_local"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	sc, err := scope.City(r.URL.Query().Get("city"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_city", WrapKind(op, ErrBadRequest, err))
		return
	}
	h.respond(w, r, op, sc)
}

func (h *LeaderboardHandler) respond(w http.ResponseWriter, r *http.Request, op string, sc scope.Scope) {
	n, err := h.limit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_limit", err)
		return
	}
	rows, err := h.deps.TopK(r.Context(), sc, n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	if rows == nil {
		rows = []Row{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// limit parses the limit parameter. Absent means the default page size;
// anything non-numeric, non-positive, or over the cap is rejected.
func (h *LeaderboardHandler) limit(r *http.Request) (int, error) {
	const op = "api.parse_limit"
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, NewKind(op, ErrBadRequest)
	}
	if n > h.maxLimit {
		return 0, NewKind(op, ErrBadRequest)
	}
	return n, nil
}

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/verdantquest/questboard/internal/adapters/rankstore"
	"github.com/verdantquest/questboard/internal/domain/scope"
)

// RankDependencies defines the interface for rank lookups.
type RankDependencies interface {
	Rank(ctx context.Context, sc scope.Scope, memberID string) (Row, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{member_id}?city=NAME requests.
// Without a city parameter the lookup is against the global board.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	memberID := strings.TrimPrefix(r.URL.Path, "/rank/")
	if memberID == "" || strings.Contains(memberID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	sc := scope.Global()
	if city := r.URL.Query().Get("city"); city != "" {
		var err error
		sc, err = scope.City(city)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
	}

	row, err := h.deps.Rank(r.Context(), sc, memberID)
	if err != nil {
		if errors.Is(err, rankstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, row)
}

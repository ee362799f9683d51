package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/verdantquest/questboard/internal/domain/award"
	"github.com/verdantquest/questboard/internal/domain/model"
)

// AwardDependencies defines the interface for award processing.
type AwardDependencies interface {
	Award(ctx context.Context, memberID, questID string) (model.AwardResult, error)
	SeenAndRecord(ctx context.Context, proofID string) bool
	Unrecord(ctx context.Context, proofID string)
}

// AwardHandler handles quest completion requests.
type AwardHandler struct {
	deps AwardDependencies
}

// NewAwardHandler creates a new award handler.
func NewAwardHandler(deps AwardDependencies) *AwardHandler {
	return &AwardHandler{deps: deps}
}

// HandlePostAward handles POST /award requests.
//
// A request carrying a proof_id is idempotent: a repeated proof acks as
// a duplicate without re-awarding. A failed award releases the proof so
// the client can retry.
func (h *AwardHandler) HandlePostAward(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_award"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req awardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	if req.ProofID != "" && h.deps.SeenAndRecord(r.Context(), req.ProofID) {
		writeJSON(w, http.StatusOK, awardResponse{Status: "duplicate", Duplicate: true})
		return
	}

	res, err := h.deps.Award(r.Context(), req.MemberID, req.QuestID)
	if err != nil {
		if req.ProofID != "" {
			h.deps.Unrecord(r.Context(), req.ProofID)
		}
		switch {
		case errors.Is(err, award.ErrValidation):
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		case errors.Is(err, award.ErrQuestNotFound):
			writeError(w, http.StatusNotFound, "quest_not_found", Wrap(op, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}

	writeJSON(w, http.StatusOK, awardResponse{
		Status:         "ok",
		NewTotalXP:     res.NewTotalXP,
		BadgesUnlocked: res.BadgesUnlocked,
		Streak:         res.Streak,
	})
}

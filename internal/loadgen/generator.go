package loadgen

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// questIDs mirrors the stock catalog the server seeds at startup.
var questIDs = []string{
	"plant-a-tree",
	"bike-to-work",
	"zero-waste-day",
	"compost-start",
	"meatless-monday",
	"river-cleanup",
}

// awardRequest is the POST /award payload.
type awardRequest struct {
	MemberID string `json:"member_id"`
	QuestID  string `json:"quest_id"`
	ProofID  string `json:"proof_id"`
}

// generate builds the request batch. A configurable fraction of
// requests reuse the previous proof id so the run exercises the
// duplicate path.
func generate(cfg *Config) []awardRequest {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	awards := make([]awardRequest, cfg.NumAwards)
	for i := range awards {
		awards[i] = awardRequest{
			MemberID: "member-" + strconv.Itoa(rng.Intn(cfg.Members)),
			QuestID:  questIDs[rng.Intn(len(questIDs))],
			ProofID:  uuid.NewString(),
		}
		if i > 0 && rng.Float64() < cfg.DuplicateRate {
			awards[i].ProofID = awards[i-1].ProofID
		}
	}
	return awards
}

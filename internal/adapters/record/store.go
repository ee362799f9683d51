// Package record defines the port to the primary user/quest record store.
//
// The durable store itself is an external collaborator; this package
// declares the contract the ranking core consumes plus an in-memory
// implementation used for development and tests.
package record

import (
	"context"

	"github.com/verdantquest/questboard/internal/domain/model"
)

// Store provides the subset of the primary record store the ranking
// core depends on.
type Store interface {
	// FindMember returns the member record for an id.
	// Returns ErrMemberNotFound if the member is unknown.
	FindMember(ctx context.Context, memberID string) (model.Member, error)

	// SaveMember durably writes the member record, creating it if absent.
	SaveMember(ctx context.Context, m model.Member) error

	// FindQuest returns the quest record for an id.
	// Returns ErrQuestNotFound if the quest is unknown.
	FindQuest(ctx context.Context, questID string) (model.Quest, error)

	// UpsertQuest writes a quest record.
	UpsertQuest(ctx context.Context, q model.Quest) error
}

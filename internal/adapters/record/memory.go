// Package record defines the port to the primary user/quest record store.
package record

import (
	"context"
	"sync"

	"github.com/verdantquest/questboard/internal/domain/model"
)

// MemoryStore implements Store with in-process maps. It stands in for
// the external document store during development and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	members map[string]model.Member
	quests  map[string]model.Quest
}

// NewMemoryStore creates an empty in-memory record store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members: make(map[string]model.Member),
		quests:  make(map[string]model.Quest),
	}
}

// FindMember implements Store.FindMember.
func (s *MemoryStore) FindMember(ctx context.Context, memberID string) (model.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[memberID]
	if !ok {
		return model.Member{}, ErrMemberNotFound
	}
	return cloneMember(m), nil
}

// SaveMember implements Store.SaveMember.
func (s *MemoryStore) SaveMember(ctx context.Context, m model.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members[m.ID] = cloneMember(m)
	return nil
}

// FindQuest implements Store.FindQuest.
func (s *MemoryStore) FindQuest(ctx context.Context, questID string) (model.Quest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quests[questID]
	if !ok {
		return model.Quest{}, ErrQuestNotFound
	}
	return q, nil
}

// UpsertQuest implements Store.UpsertQuest.
func (s *MemoryStore) UpsertQuest(ctx context.Context, q model.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quests[q.ID] = q
	return nil
}

// MemberCount returns the number of stored members.
func (s *MemoryStore) MemberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// cloneMember copies the member's slice and pointer fields so callers
// cannot mutate stored state through a returned record.
func cloneMember(m model.Member) model.Member {
	out := m
	out.Badges = append([]string(nil), m.Badges...)
	if m.LastCompletedAt != nil {
		ts := *m.LastCompletedAt
		out.LastCompletedAt = &ts
	}
	return out
}

// Package store provides read access to the participant directory. The
// directory is owned by the user-management collaborator; this service only
// looks participants up, it never creates or mutates them.
package store

import (
	"context"
	"sync"

	"campuspulse/internal/directory"
	"campuspulse/pkg/domain"
	"campuspulse/pkg/platform/sentinel"
)

// MemoryStore keeps participants in a map. The Put method exists so tests and
// local development can populate the directory; production reads come from
// the user-management database.
type MemoryStore struct {
	mu           sync.RWMutex
	participants map[domain.ParticipantID]*directory.Participant
}

func NewMemory() *MemoryStore {
	return &MemoryStore{participants: make(map[domain.ParticipantID]*directory.Participant)}
}

// Put stores a participant record.
func (s *MemoryStore) Put(p *directory.Participant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.participants[p.ID] = &cp
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.ParticipantID) (*directory.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.participants[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) FindByIDs(_ context.Context, ids []domain.ParticipantID) (map[domain.ParticipantID]*directory.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.ParticipantID]*directory.Participant, len(ids))
	for _, id := range ids {
		if p, ok := s.participants[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}

package store

import (
	"context"
	"sort"
	"sync"

	"campuspulse/internal/catalog"
	"campuspulse/pkg/domain"
	"campuspulse/pkg/platform/sentinel"
)

// MemoryStore keeps events in a map. It favors clarity over performance.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[domain.EventID]*catalog.Event
}

func NewMemory() *MemoryStore {
	return &MemoryStore{events: make(map[domain.EventID]*catalog.Event)}
}

func (s *MemoryStore) Create(_ context.Context, event *catalog.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[event.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *event
	s.events[event.ID] = &cp
	return nil
}

func (s *MemoryStore) Update(_ context.Context, event *catalog.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[event.ID]; !exists {
		return sentinel.ErrNotFound
	}
	cp := *event
	s.events[event.ID] = &cp
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id domain.EventID) (*catalog.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if event, ok := s.events[id]; ok {
		cp := *event
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *MemoryStore) ListActive(_ context.Context) ([]*catalog.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*catalog.Event
	for _, event := range s.events {
		if event.IsActive {
			cp := *event
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"campuspulse/internal/incentive"
	"campuspulse/pkg/domain"
	"campuspulse/pkg/platform/sentinel"
)

// MemoryStore is an in-memory balance store. All operations take the single
// mutex, so Award is atomic without further coordination.
type MemoryStore struct {
	mu       sync.Mutex
	balances map[domain.ParticipantID]*incentive.Balance
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		balances: make(map[domain.ParticipantID]*incentive.Balance),
	}
}

// Award adds amount to the participant's balance, creating it on first award,
// and returns the new total.
func (s *MemoryStore) Award(ctx context.Context, participantID domain.ParticipantID, amount int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[participantID]
	if !ok {
		b = &incentive.Balance{ParticipantID: participantID}
		s.balances[participantID] = b
	}
	b.Points += amount
	b.UpdatedAt = time.Now().UTC()
	return b.Points, nil
}

// Balance returns the participant's current total. A participant who has
// never been awarded reports sentinel.ErrNotFound.
func (s *MemoryStore) Balance(ctx context.Context, participantID domain.ParticipantID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.balances[participantID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return b.Points, nil
}

// TopN returns up to n balances ordered by points descending, ties broken by
// participant ID ascending.
func (s *MemoryStore) TopN(ctx context.Context, n int) ([]*incentive.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*incentive.Balance, 0, len(s.balances))
	for _, b := range s.balances {
		copied := *b
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].ParticipantID.String() < out[j].ParticipantID.String()
	})
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Package store persists participation records. Both implementations expose
// conditional writes so the check-then-act races around capacity, uniqueness,
// and the attendance transition are closed inside a single store operation.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"campuspulse/internal/ledger"
	"campuspulse/pkg/domain"
	"campuspulse/pkg/platform/sentinel"
)

type pairKey struct {
	eventID       domain.EventID
	participantID domain.ParticipantID
}

// MemoryStore keeps participations in a map guarded by one mutex, which makes
// every conditional write naturally atomic.
type MemoryStore struct {
	mu      sync.Mutex
	records map[pairKey]*ledger.Participation
}

func NewMemory() *MemoryStore {
	return &MemoryStore{records: make(map[pairKey]*ledger.Participation)}
}

// Get returns the participation for the pair regardless of status.
func (s *MemoryStore) Get(_ context.Context, eventID domain.EventID, participantID domain.ParticipantID) (*ledger.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.records[pairKey{eventID, participantID}]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

// InsertIfUnderCapacity creates the record only if no record exists for the
// pair and the event's active count is below capacity. The uniqueness check
// and the capacity check happen under the same lock as the insert.
func (s *MemoryStore) InsertIfUnderCapacity(_ context.Context, p *ledger.Participation, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{p.EventID, p.ParticipantID}
	if _, exists := s.records[key]; exists {
		return sentinel.ErrConflict
	}
	if s.countActiveLocked(p.EventID) >= capacity {
		return sentinel.ErrCapacityExceeded
	}
	cp := *p
	s.records[key] = &cp
	return nil
}

// ReactivateIfUnderCapacity flips a cancelled record back to registered,
// overwriting the selected niche. Fails with ErrNotFound when no record
// exists, ErrConflict when the record is not cancelled, and
// ErrCapacityExceeded when the event is full.
func (s *MemoryStore) ReactivateIfUnderCapacity(_ context.Context, eventID domain.EventID, participantID domain.ParticipantID, niche domain.Niche, capacity int, now time.Time) (*ledger.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.records[pairKey{eventID, participantID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if p.Status != ledger.StatusCancelled {
		return nil, sentinel.ErrConflict
	}
	if s.countActiveLocked(eventID) >= capacity {
		return nil, sentinel.ErrCapacityExceeded
	}

	p.Status = ledger.StatusRegistered
	p.SelectedNiche = niche
	p.UpdatedAt = now
	cp := *p
	return &cp, nil
}

// CancelIfRegistered cancels the record only from the registered state.
// A missing record and an already-cancelled one both report ErrNotFound:
// neither holds an active participation to cancel. An attended record
// reports ErrInvalidState because attended is terminal.
func (s *MemoryStore) CancelIfRegistered(_ context.Context, eventID domain.EventID, participantID domain.ParticipantID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.records[pairKey{eventID, participantID}]
	if !ok || p.Status == ledger.StatusCancelled {
		return sentinel.ErrNotFound
	}
	if p.Status == ledger.StatusAttended {
		return sentinel.ErrInvalidState
	}
	p.Status = ledger.StatusCancelled
	p.UpdatedAt = now
	return nil
}

// MarkAttendedIfRegistered performs the registered -> attended transition.
// The status condition is the idempotence gate: of N concurrent calls exactly
// one observes registered and wins. Losing calls get ErrInvalidState; a
// missing record gets ErrNotFound.
func (s *MemoryStore) MarkAttendedIfRegistered(_ context.Context, eventID domain.EventID, participantID domain.ParticipantID, now time.Time) (*ledger.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.records[pairKey{eventID, participantID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if p.Status != ledger.StatusRegistered {
		return nil, sentinel.ErrInvalidState
	}
	p.Status = ledger.StatusAttended
	p.UpdatedAt = now
	cp := *p
	return &cp, nil
}

// RevertAttended is the compensating write for a failed point award: it moves
// an attended record back to registered so the attendance can be retried
// without double-awarding.
func (s *MemoryStore) RevertAttended(_ context.Context, eventID domain.EventID, participantID domain.ParticipantID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.records[pairKey{eventID, participantID}]
	if !ok || p.Status != ledger.StatusAttended {
		return sentinel.ErrInvalidState
	}
	p.Status = ledger.StatusRegistered
	p.UpdatedAt = now
	return nil
}

// CountActive returns the number of non-cancelled records for the event.
func (s *MemoryStore) CountActive(_ context.Context, eventID domain.EventID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countActiveLocked(eventID), nil
}

// ListByParticipant returns the participant's non-cancelled participations,
// newest first.
func (s *MemoryStore) ListByParticipant(_ context.Context, participantID domain.ParticipantID) ([]*ledger.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ledger.Participation
	for _, p := range s.records {
		if p.ParticipantID == participantID && p.Status != ledger.StatusCancelled {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListByEvent returns the event's non-cancelled participations, newest first.
func (s *MemoryStore) ListByEvent(_ context.Context, eventID domain.EventID) ([]*ledger.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ledger.Participation
	for _, p := range s.records {
		if p.EventID == eventID && p.Status != ledger.StatusCancelled {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// ListAttended returns the participant's attended participations, newest
// first.
func (s *MemoryStore) ListAttended(_ context.Context, participantID domain.ParticipantID) ([]*ledger.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ledger.Participation
	for _, p := range s.records {
		if p.ParticipantID == participantID && p.Status == ledger.StatusAttended {
			cp := *p
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// countActiveLocked must be called while holding s.mu.
func (s *MemoryStore) countActiveLocked(eventID domain.EventID) int {
	count := 0
	for _, p := range s.records {
		if p.EventID == eventID && p.Status != ledger.StatusCancelled {
			count++
		}
	}
	return count
}

func sortNewestFirst(out []*ledger.Participation) {
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
}

package ledger_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campuspulse/internal/catalog"
	catalogstore "campuspulse/internal/catalog/store"
	"campuspulse/internal/ledger"
	ledgerstore "campuspulse/internal/ledger/store"
	"campuspulse/pkg/domain"
	dErrors "campuspulse/pkg/domain-errors"
)

// stubAwarder counts awards per participant and can be told to fail.
type stubAwarder struct {
	mu     sync.Mutex
	totals map[domain.ParticipantID]int
	calls  atomic.Int32
	err    error
}

func newStubAwarder() *stubAwarder {
	return &stubAwarder{totals: make(map[domain.ParticipantID]int)}
}

func (a *stubAwarder) Award(_ context.Context, participantID domain.ParticipantID, amount int) (int, error) {
	a.calls.Add(1)
	if a.err != nil {
		return 0, a.err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totals[participantID] += amount
	return a.totals[participantID], nil
}

func (a *stubAwarder) total(participantID domain.ParticipantID) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totals[participantID]
}

// capturePublisher records published stream events.
type capturePublisher struct {
	mu     sync.Mutex
	events []ledger.StreamEvent
}

func (p *capturePublisher) Publish(_ context.Context, _ string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := payload.(ledger.StreamEvent); ok {
		p.events = append(p.events, e)
	}
}

func (p *capturePublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Action)
	}
	return out
}

type LedgerServiceSuite struct {
	suite.Suite
	ctx       context.Context
	events    *catalogstore.MemoryStore
	store     *ledgerstore.MemoryStore
	awarder   *stubAwarder
	publisher *capturePublisher
	service   *ledger.Service
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceSuite))
}

func (s *LedgerServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.events = catalogstore.NewMemory()
	s.store = ledgerstore.NewMemory()
	s.awarder = newStubAwarder()
	s.publisher = &capturePublisher{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service, err := ledger.NewService(s.store, s.events, s.awarder, logger,
		ledger.WithPublisher(s.publisher),
	)
	s.Require().NoError(err)
	s.service = service
}

func (s *LedgerServiceSuite) seedEvent(capacity int, active bool) domain.EventID {
	event := &catalog.Event{
		ID:       domain.NewEventID(),
		Name:     "Tech Fest",
		Niche:    domain.NicheCoding,
		Venue:    "Main Hall",
		Date:     time.Now().Add(24 * time.Hour),
		Capacity: capacity,
		IsActive: active,
	}
	s.Require().NoError(s.events.Create(s.ctx, event))
	return event.ID
}

func (s *LedgerServiceSuite) register(eventID domain.EventID, role domain.Role, niche domain.Niche) (*ledger.Participation, domain.ParticipantID) {
	participantID := domain.NewParticipantID()
	p, err := s.service.Register(s.ctx, eventID, participantID, role, niche)
	s.Require().NoError(err)
	return p, participantID
}

func (s *LedgerServiceSuite) TestRegister() {
	s.Run("creates a registered record", func() {
		eventID := s.seedEvent(10, true)
		p, participantID := s.register(eventID, domain.RoleStudent, domain.NicheCoding)
		s.Equal(ledger.StatusRegistered, p.Status)
		s.Equal(eventID, p.EventID)
		s.Equal(participantID, p.ParticipantID)
		s.Equal(domain.NicheCoding, p.SelectedNiche)
		s.Contains(s.publisher.actions(), ledger.ActionRegistered)
	})

	s.Run("unknown event reports not found", func() {
		_, err := s.service.Register(s.ctx, domain.NewEventID(), domain.NewParticipantID(), domain.RoleStudent, domain.NicheCoding)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("inactive event refused", func() {
		eventID := s.seedEvent(10, false)
		_, err := s.service.Register(s.ctx, eventID, domain.NewParticipantID(), domain.RoleStudent, domain.NicheCoding)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("second registration for the same pair conflicts", func() {
		eventID := s.seedEvent(10, true)
		_, participantID := s.register(eventID, domain.RoleStudent, domain.NicheCoding)
		_, err := s.service.Register(s.ctx, eventID, participantID, domain.RoleStudent, domain.NicheGaming)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("full event refuses with capacity exceeded", func() {
		eventID := s.seedEvent(1, true)
		s.register(eventID, domain.RoleStudent, domain.NicheCoding)
		_, err := s.service.Register(s.ctx, eventID, domain.NewParticipantID(), domain.RoleStudent, domain.NicheCoding)
		s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
	})

	s.Run("attended participant still counts toward capacity", func() {
		eventID := s.seedEvent(1, true)
		_, participantID := s.register(eventID, domain.RoleStudent, domain.NicheCoding)
		_, err := s.service.MarkAttended(s.ctx, eventID, participantID, 0)
		s.Require().NoError(err)

		_, err = s.service.Register(s.ctx, eventID, domain.NewParticipantID(), domain.RoleStudent, domain.NicheCoding)
		s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))
	})
}

func (s *LedgerServiceSuite) TestReregistration() {
	s.Run("cancel frees the slot and re-registration reuses the record", func() {
		eventID := s.seedEvent(5, true)
		first, participantID := s.register(eventID, domain.RoleStudent, domain.NicheSinging)

		s.Require().NoError(s.service.Cancel(s.ctx, eventID, participantID))

		second, err := s.service.Register(s.ctx, eventID, participantID, domain.RoleStudent, domain.NicheGaming)
		s.Require().NoError(err)
		s.Equal(first.ID, second.ID)
		s.Equal(ledger.StatusRegistered, second.Status)
		s.Equal(domain.NicheGaming, second.SelectedNiche)
		s.Contains(s.publisher.actions(), ledger.ActionReregistered)
	})

	s.Run("cancelled record does not hold a slot", func() {
		eventID := s.seedEvent(1, true)
		_, participantID := s.register(eventID, domain.RoleStudent, domain.NicheCoding)
		s.Require().NoError(s.service.Cancel(s.ctx, eventID, participantID))

		_, err := s.service.Register(s.ctx, eventID, domain.NewParticipantID(), domain.RoleStudent, domain.NicheCoding)
		s.NoError(err)
	})
}

func (s *LedgerServiceSuite) TestCancel() {
	s.Run("missing participation reports not found", func() {
		eventID := s.seedEvent(5, true)
		err := s.service.Cancel(s.ctx, eventID, domain.NewParticipantID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("second cancel reports not found", func() {
		eventID := s.seedEvent(5, true)
		_, participantID := s.register(eventID, domain.RoleStudent, domain.NicheCoding)
		s.Require().NoError(s.service.Cancel(s.ctx, eventID, participantID))

		err := s.service.Cancel(s.ctx, eventID, participantID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("attended participation cannot be cancelled", func() {
		eventID := s.seedEvent(5, true)
		_, participantID := s.register(eventID, domain.RoleStudent, domain.NicheCoding)
		_, err := s.service.MarkAttended(s.ctx, eventID, participantID, 0)
		s.Require().NoError(err)

		err = s.service.Cancel(s.ctx, eventID, participantID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *LedgerServiceSuite) TestMarkAttended() {
	s.Run("student gets the default points", func() {
		eventID := s.seedEvent(5, true)
		_, participantID := s.register(eventID, domain.RoleStudent, domain.NicheCoding)

		awarded, err := s.service.MarkAttended(s.ctx, eventID, participantID, 0)
		s.Require().NoError(err)
		s.Equal(ledger.DefaultAwardPoints, awarded)
		s.Equal(ledger.DefaultAwardPoints, s.awarder.total(participantID))
		s.Contains(s.publisher.actions(), ledger.ActionAttended)
		s.Contains(s.publisher.actions(), ledger.ActionPointsAward)
	})

	s.Run("explicit points override the default", func() {
		eventID := s.seedEvent(5, true)
		_, participantID := s.register(eventID, domain.RoleStudent, domain.NicheCoding)

		awarded, err := s.service.MarkAttended(s.ctx, eventID, participantID, 25)
		s.Require().NoError(err)
		s.Equal(25, awarded)
		s.Equal(25, s.awarder.total(participantID))
	})

	s.Run("faculty attendance awards nothing", func() {
		eventID := s.seedEvent(5, true)
		_, participantID := s.register(eventID, domain.RoleFaculty, domain.NicheCoding)

		awarded, err := s.service.MarkAttended(s.ctx, eventID, participantID, 0)
		s.Require().NoError(err)
		s.Equal(0, awarded)
		s.Equal(0, s.awarder.total(participantID))
	})

	s.Run("missing participation reports not found", func() {
		eventID := s.seedEvent(5, true)
		_, err := s.service.MarkAttended(s.ctx, eventID, domain.NewParticipantID(), 0)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("second attendance is refused and awards nothing more", func() {
		eventID := s.seedEvent(5, true)
		_, participantID := s.register(eventID, domain.RoleStudent, domain.NicheCoding)
		_, err := s.service.MarkAttended(s.ctx, eventID, participantID, 0)
		s.Require().NoError(err)

		_, err = s.service.MarkAttended(s.ctx, eventID, participantID, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Equal(ledger.DefaultAwardPoints, s.awarder.total(participantID))
	})

	s.Run("cancelled participation cannot be attended", func() {
		eventID := s.seedEvent(5, true)
		_, participantID := s.register(eventID, domain.RoleStudent, domain.NicheCoding)
		s.Require().NoError(s.service.Cancel(s.ctx, eventID, participantID))

		_, err := s.service.MarkAttended(s.ctx, eventID, participantID, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
		s.Equal(0, s.awarder.total(participantID))
	})

	s.Run("failed award reverts the transition", func() {
		eventID := s.seedEvent(5, true)
		_, participantID := s.register(eventID, domain.RoleStudent, domain.NicheCoding)

		s.awarder.err = context.DeadlineExceeded
		_, err := s.service.MarkAttended(s.ctx, eventID, participantID, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))

		// The record is back in registered, so a retry awards exactly once.
		s.awarder.err = nil
		awarded, err := s.service.MarkAttended(s.ctx, eventID, participantID, 0)
		s.Require().NoError(err)
		s.Equal(ledger.DefaultAwardPoints, awarded)
		s.Equal(ledger.DefaultAwardPoints, s.awarder.total(participantID))
	})
}

func (s *LedgerServiceSuite) TestCountActive() {
	eventID := s.seedEvent(10, true)
	_, cancelTarget := s.register(eventID, domain.RoleStudent, domain.NicheCoding)
	_, attendTarget := s.register(eventID, domain.RoleStudent, domain.NicheGaming)
	s.register(eventID, domain.RoleStudent, domain.NicheDancing)

	s.Require().NoError(s.service.Cancel(s.ctx, eventID, cancelTarget))
	_, err := s.service.MarkAttended(s.ctx, eventID, attendTarget, 0)
	s.Require().NoError(err)

	count, err := s.service.CountActive(s.ctx, eventID)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *LedgerServiceSuite) TestListMineExcludesCancelled() {
	eventA := s.seedEvent(10, true)
	eventB := s.seedEvent(10, true)
	participantID := domain.NewParticipantID()

	_, err := s.service.Register(s.ctx, eventA, participantID, domain.RoleStudent, domain.NicheCoding)
	s.Require().NoError(err)
	_, err = s.service.Register(s.ctx, eventB, participantID, domain.RoleStudent, domain.NicheCoding)
	s.Require().NoError(err)
	s.Require().NoError(s.service.Cancel(s.ctx, eventB, participantID))

	mine, err := s.service.ListMine(s.ctx, participantID)
	s.Require().NoError(err)
	s.Require().Len(mine, 1)
	s.Equal(eventA, mine[0].EventID)
}

func (s *LedgerServiceSuite) TestConcurrentRegistrationHonorsCapacity() {
	const attempts = 30
	eventID := s.seedEvent(2, true)

	var successes atomic.Int32
	var capacityRefusals atomic.Int32
	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Register(s.ctx, eventID, domain.NewParticipantID(), domain.RoleStudent, domain.NicheCoding)
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeCapacityExceeded):
				capacityRefusals.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(2), successes.Load())
	s.Equal(int32(attempts-2), capacityRefusals.Load())

	count, err := s.service.CountActive(s.ctx, eventID)
	s.Require().NoError(err)
	s.Equal(2, count)
}

func (s *LedgerServiceSuite) TestConcurrentDuplicateRegistration() {
	const attempts = 10
	eventID := s.seedEvent(10, true)
	participantID := domain.NewParticipantID()

	var successes atomic.Int32
	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.service.Register(s.ctx, eventID, participantID, domain.RoleStudent, domain.NicheCoding); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())

	count, err := s.service.CountActive(s.ctx, eventID)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *LedgerServiceSuite) TestConcurrentMarkAttendedAwardsOnce() {
	const attempts = 10
	eventID := s.seedEvent(10, true)
	_, participantID := s.register(eventID, domain.RoleStudent, domain.NicheCoding)

	var successes atomic.Int32
	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.service.MarkAttended(s.ctx, eventID, participantID, 0); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(ledger.DefaultAwardPoints, s.awarder.total(participantID))
	s.Equal(int32(1), s.awarder.calls.Load())
}

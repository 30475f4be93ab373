//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campuspulse/internal/ledger"
	ledgerstore "campuspulse/internal/ledger/store"
	"campuspulse/pkg/domain"
	"campuspulse/pkg/platform/sentinel"
	"campuspulse/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *ledgerstore.PostgresStore
	ctx      context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), "../../../migrations")
	s.store = ledgerstore.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(s.ctx))
}

func (s *PostgresStoreSuite) seedEvent(capacity int) domain.EventID {
	id := domain.NewEventID()
	_, err := s.postgres.DB.ExecContext(s.ctx, `
		INSERT INTO events (id, name, description, niche, venue, event_date, event_time, capacity, is_active, created_at, updated_at)
		VALUES ($1, 'Tech Fest', '', 'coding', 'Main Hall', NOW() + INTERVAL '1 day', '10:00', $2, TRUE, NOW(), NOW())
	`, id.String(), capacity)
	s.Require().NoError(err)
	return id
}

func (s *PostgresStoreSuite) newParticipation(eventID domain.EventID) *ledger.Participation {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &ledger.Participation{
		ID:              domain.NewParticipationID(),
		EventID:         eventID,
		ParticipantID:   domain.NewParticipantID(),
		ParticipantRole: domain.RoleStudent,
		SelectedNiche:   domain.NicheCoding,
		Status:          ledger.StatusRegistered,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (s *PostgresStoreSuite) TestInsertAndGet() {
	eventID := s.seedEvent(5)
	p := s.newParticipation(eventID)
	s.Require().NoError(s.store.InsertIfUnderCapacity(s.ctx, p, 5))

	got, err := s.store.Get(s.ctx, eventID, p.ParticipantID)
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
	s.Equal(ledger.StatusRegistered, got.Status)
	s.Equal(domain.NicheCoding, got.SelectedNiche)
}

func (s *PostgresStoreSuite) TestUniqueIndexClosesDuplicateRace() {
	eventID := s.seedEvent(10)
	participantID := domain.NewParticipantID()
	const goroutines = 10

	var successes atomic.Int32
	var conflicts atomic.Int32
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := s.newParticipation(eventID)
			p.ParticipantID = participantID
			switch err := s.store.InsertIfUnderCapacity(s.ctx, p, 10); err {
			case nil:
				successes.Add(1)
			case sentinel.ErrConflict:
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestAdvisoryLockClosesCapacityRace() {
	eventID := s.seedEvent(3)
	const goroutines = 20

	var successes atomic.Int32
	var refused atomic.Int32
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := s.store.InsertIfUnderCapacity(s.ctx, s.newParticipation(eventID), 3); err {
			case nil:
				successes.Add(1)
			case sentinel.ErrCapacityExceeded:
				refused.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(3), successes.Load())
	s.Equal(int32(goroutines-3), refused.Load())

	count, err := s.store.CountActive(s.ctx, eventID)
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *PostgresStoreSuite) TestReactivateReusesRecord() {
	eventID := s.seedEvent(5)
	p := s.newParticipation(eventID)
	s.Require().NoError(s.store.InsertIfUnderCapacity(s.ctx, p, 5))
	s.Require().NoError(s.store.CancelIfRegistered(s.ctx, eventID, p.ParticipantID, time.Now()))

	got, err := s.store.ReactivateIfUnderCapacity(s.ctx, eventID, p.ParticipantID, domain.NicheGaming, 5, time.Now())
	s.Require().NoError(err)
	s.Equal(p.ID, got.ID)
	s.Equal(ledger.StatusRegistered, got.Status)
	s.Equal(domain.NicheGaming, got.SelectedNiche)
}

func (s *PostgresStoreSuite) TestCancelIfRegistered() {
	eventID := s.seedEvent(5)
	p := s.newParticipation(eventID)
	s.Require().NoError(s.store.InsertIfUnderCapacity(s.ctx, p, 5))

	s.Require().NoError(s.store.CancelIfRegistered(s.ctx, eventID, p.ParticipantID, time.Now()))
	s.ErrorIs(s.store.CancelIfRegistered(s.ctx, eventID, p.ParticipantID, time.Now()), sentinel.ErrNotFound)

	count, err := s.store.CountActive(s.ctx, eventID)
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *PostgresStoreSuite) TestCancelAttendedIsInvalid() {
	eventID := s.seedEvent(5)
	p := s.newParticipation(eventID)
	s.Require().NoError(s.store.InsertIfUnderCapacity(s.ctx, p, 5))
	_, err := s.store.MarkAttendedIfRegistered(s.ctx, eventID, p.ParticipantID, time.Now())
	s.Require().NoError(err)

	s.ErrorIs(s.store.CancelIfRegistered(s.ctx, eventID, p.ParticipantID, time.Now()), sentinel.ErrInvalidState)
}

func (s *PostgresStoreSuite) TestConcurrentMarkAttendedHasOneWinner() {
	eventID := s.seedEvent(5)
	p := s.newParticipation(eventID)
	s.Require().NoError(s.store.InsertIfUnderCapacity(s.ctx, p, 5))

	const goroutines = 10
	var wins atomic.Int32
	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.MarkAttendedIfRegistered(s.ctx, eventID, p.ParticipantID, time.Now()); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}

func (s *PostgresStoreSuite) TestRevertAttended() {
	eventID := s.seedEvent(5)
	p := s.newParticipation(eventID)
	s.Require().NoError(s.store.InsertIfUnderCapacity(s.ctx, p, 5))
	_, err := s.store.MarkAttendedIfRegistered(s.ctx, eventID, p.ParticipantID, time.Now())
	s.Require().NoError(err)

	s.Require().NoError(s.store.RevertAttended(s.ctx, eventID, p.ParticipantID, time.Now()))

	got, err := s.store.Get(s.ctx, eventID, p.ParticipantID)
	s.Require().NoError(err)
	s.Equal(ledger.StatusRegistered, got.Status)
}

func (s *PostgresStoreSuite) TestLists() {
	eventID := s.seedEvent(5)
	p1 := s.newParticipation(eventID)
	p2 := s.newParticipation(eventID)
	s.Require().NoError(s.store.InsertIfUnderCapacity(s.ctx, p1, 5))
	s.Require().NoError(s.store.InsertIfUnderCapacity(s.ctx, p2, 5))
	s.Require().NoError(s.store.CancelIfRegistered(s.ctx, eventID, p1.ParticipantID, time.Now()))

	byEvent, err := s.store.ListByEvent(s.ctx, eventID)
	s.Require().NoError(err)
	s.Require().Len(byEvent, 1)
	s.Equal(p2.ID, byEvent[0].ID)

	_, err = s.store.MarkAttendedIfRegistered(s.ctx, eventID, p2.ParticipantID, time.Now())
	s.Require().NoError(err)

	attended, err := s.store.ListAttended(s.ctx, p2.ParticipantID)
	s.Require().NoError(err)
	s.Require().Len(attended, 1)
}

//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	incentivestore "campuspulse/internal/incentive/store"
	"campuspulse/pkg/domain"
	"campuspulse/pkg/platform/sentinel"
	"campuspulse/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *incentivestore.PostgresStore
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
	s.store = incentivestore.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(s.ctx))
}

func (s *PostgresStoreSuite) TestAwardUpsertsAndAccumulates() {
	participantID := domain.NewParticipantID()

	total, err := s.store.Award(s.ctx, participantID, 10)
	s.Require().NoError(err)
	s.Equal(10, total)

	total, err = s.store.Award(s.ctx, participantID, 25)
	s.Require().NoError(err)
	s.Equal(35, total)
}

func (s *PostgresStoreSuite) TestConcurrentAwardsLoseNothing() {
	participantID := domain.NewParticipantID()
	const goroutines = 20

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Award(s.ctx, participantID, 10)
			s.NoError(err)
		}()
	}
	wg.Wait()

	total, err := s.store.Balance(s.ctx, participantID)
	s.Require().NoError(err)
	s.Equal(goroutines*10, total)
}

func (s *PostgresStoreSuite) TestBalanceUnknownParticipant() {
	_, err := s.store.Balance(s.ctx, domain.NewParticipantID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestTopNOrdering() {
	a := domain.NewParticipantID()
	b := domain.NewParticipantID()
	c := domain.NewParticipantID()

	_, err := s.store.Award(s.ctx, a, 20)
	s.Require().NoError(err)
	_, err = s.store.Award(s.ctx, b, 50)
	s.Require().NoError(err)
	_, err = s.store.Award(s.ctx, c, 20)
	s.Require().NoError(err)

	top, err := s.store.TopN(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(top, 3)
	s.Equal(b, top[0].ParticipantID)
	s.Equal(20, top[1].Points)
	s.Equal(20, top[2].Points)
	s.Less(top[1].ParticipantID.String(), top[2].ParticipantID.String())
}

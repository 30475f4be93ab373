package incentive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"campuspulse/internal/directory"
	"campuspulse/internal/incentive/metrics"
	"campuspulse/internal/ledger"
	"campuspulse/pkg/domain"
	dErrors "campuspulse/pkg/domain-errors"
	"campuspulse/pkg/platform/sentinel"
)

// Store is the balance persistence contract. Award must be atomic; the
// service never reads a balance to compute the next one.
type Store interface {
	Award(ctx context.Context, participantID domain.ParticipantID, amount int) (int, error)
	Balance(ctx context.Context, participantID domain.ParticipantID) (int, error)
	TopN(ctx context.Context, n int) ([]*Balance, error)
}

// AttendanceLog is the slice of the participation ledger the summary view
// needs.
type AttendanceLog interface {
	ListAttended(ctx context.Context, participantID domain.ParticipantID) ([]*ledger.Participation, error)
}

// Directory resolves participant names and roll numbers for the leaderboard.
type Directory interface {
	FindByIDs(ctx context.Context, ids []domain.ParticipantID) (map[domain.ParticipantID]*directory.Participant, error)
}

// Service owns point awards and balance reads.
type Service struct {
	store      Store
	attendance AttendanceLog
	directory  Directory
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics attaches the incentive metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, attendance AttendanceLog, directory Directory, logger *slog.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("balance store is required")
	}
	if attendance == nil {
		return nil, fmt.Errorf("attendance log is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("directory is required")
	}

	svc := &Service{
		store:      store,
		attendance: attendance,
		directory:  directory,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Award adds amount to the participant's balance and returns the new total.
// Amounts must be positive; a balance only ever grows.
func (s *Service) Award(ctx context.Context, participantID domain.ParticipantID, amount int) (int, error) {
	if amount <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "award amount must be positive")
	}

	points, err := s.store.Award(ctx, participantID, amount)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to award points")
	}

	if s.metrics != nil {
		s.metrics.Awards.Inc()
		s.metrics.PointsAwarded.Add(float64(amount))
	}
	s.logger.InfoContext(ctx, "points awarded",
		"participant_id", participantID,
		"amount", amount,
		"balance", points,
	)
	return points, nil
}

// Balance returns the participant's current total. A participant who has
// never been awarded has a balance of zero, not an error.
func (s *Service) Balance(ctx context.Context, participantID domain.ParticipantID) (int, error) {
	points, err := s.store.Balance(ctx, participantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return 0, nil
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load balance")
	}
	return points, nil
}

// Summary returns the participant's balance together with the attendance
// history that earned it.
func (s *Service) Summary(ctx context.Context, participantID domain.ParticipantID) (*Summary, error) {
	points, err := s.Balance(ctx, participantID)
	if err != nil {
		return nil, err
	}
	attended, err := s.attendance.ListAttended(ctx, participantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance history")
	}
	return &Summary{
		ParticipantID: participantID,
		Points:        points,
		Attended:      attended,
	}, nil
}

// Leaderboard returns the top n balances as ranked entries with display
// names. Ordering is points descending, ties broken by participant ID
// ascending, so the ranking is stable across refreshes.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]*LeaderboardEntry, error) {
	if n < 1 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "leaderboard size must be positive")
	}

	balances, err := s.store.TopN(ctx, n)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load leaderboard")
	}

	ids := make([]domain.ParticipantID, 0, len(balances))
	for _, b := range balances {
		ids = append(ids, b.ParticipantID)
	}
	detail, err := s.directory.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve leaderboard participants")
	}

	entries := make([]*LeaderboardEntry, 0, len(balances))
	for i, b := range balances {
		entry := &LeaderboardEntry{
			Rank:          i + 1,
			ParticipantID: b.ParticipantID,
			Points:        b.Points,
		}
		if d, ok := detail[b.ParticipantID]; ok {
			entry.Name = d.Name
			entry.RollNumber = d.RollNumber()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

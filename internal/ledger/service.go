package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"campuspulse/internal/catalog"
	"campuspulse/internal/ledger/metrics"
	"campuspulse/pkg/domain"
	dErrors "campuspulse/pkg/domain-errors"
	"campuspulse/pkg/platform/sentinel"
	"campuspulse/pkg/requestcontext"
)

// Store is the participation persistence contract. Every conditional write is
// atomic at the store level; the service sequences them but never relies on
// read-then-write across separate calls for an invariant.
type Store interface {
	Get(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID) (*Participation, error)
	InsertIfUnderCapacity(ctx context.Context, p *Participation, capacity int) error
	ReactivateIfUnderCapacity(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID, niche domain.Niche, capacity int, now time.Time) (*Participation, error)
	CancelIfRegistered(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID, now time.Time) error
	MarkAttendedIfRegistered(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID, now time.Time) (*Participation, error)
	RevertAttended(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID, now time.Time) error
	CountActive(ctx context.Context, eventID domain.EventID) (int, error)
	ListByParticipant(ctx context.Context, participantID domain.ParticipantID) ([]*Participation, error)
	ListByEvent(ctx context.Context, eventID domain.EventID) ([]*Participation, error)
	ListAttended(ctx context.Context, participantID domain.ParticipantID) ([]*Participation, error)
}

// EventCatalog is the read-only view of the event catalog the ledger needs:
// existence, the active flag, and capacity. A point-in-time snapshot, never a
// held lock.
type EventCatalog interface {
	FindByID(ctx context.Context, id domain.EventID) (*catalog.Event, error)
}

// PointAwarder applies incentive awards. Only invoked for students.
type PointAwarder interface {
	Award(ctx context.Context, participantID domain.ParticipantID, amount int) (int, error)
}

// EventPublisher emits lifecycle events to the participation stream.
// Publishing is fail-open; implementations must not return errors.
type EventPublisher interface {
	Publish(ctx context.Context, key string, payload any)
}

// Service enforces the participation state machine, the capacity invariant,
// and the one-record-per-pair invariant.
type Service struct {
	store     Store
	catalog   EventCatalog
	incentive PointAwarder
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures the Service.
type Option func(*Service)

// WithPublisher attaches the participation event stream.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics attaches the ledger metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(store Store, eventCatalog EventCatalog, incentive PointAwarder, logger *slog.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("participation store is required")
	}
	if eventCatalog == nil {
		return nil, fmt.Errorf("event catalog is required")
	}
	if incentive == nil {
		return nil, fmt.Errorf("point awarder is required")
	}

	svc := &Service{
		store:     store,
		catalog:   eventCatalog,
		incentive: incentive,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register joins a participant to an event. A first registration creates the
// record; registering after a cancellation reuses the existing record and
// overwrites the selected niche; anything else is a conflict.
func (s *Service) Register(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID, role domain.Role, niche domain.Niche) (*Participation, error) {
	event, err := s.catalog.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	if !event.IsActive {
		return nil, dErrors.New(dErrors.CodeInvalidState, "event is not active")
	}

	now := requestcontext.Now(ctx)

	existing, err := s.store.Get(ctx, eventID, participantID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		p := &Participation{
			ID:              domain.NewParticipationID(),
			EventID:         eventID,
			ParticipantID:   participantID,
			ParticipantRole: role,
			SelectedNiche:   niche,
			Status:          StatusRegistered,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.store.InsertIfUnderCapacity(ctx, p, event.Capacity); err != nil {
			return nil, s.classifyRegisterFailure(err)
		}
		if s.metrics != nil {
			s.metrics.Registrations.Inc()
		}
		s.publish(ctx, p, ActionRegistered, 0, now)
		return p, nil

	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load participation")

	case existing.Status == StatusCancelled:
		p, err := s.store.ReactivateIfUnderCapacity(ctx, eventID, participantID, niche, event.Capacity, now)
		if err != nil {
			return nil, s.classifyRegisterFailure(err)
		}
		if s.metrics != nil {
			s.metrics.Reregistrations.Inc()
		}
		s.publish(ctx, p, ActionReregistered, 0, now)
		return p, nil

	default:
		return nil, dErrors.New(dErrors.CodeConflict, "already registered for this event")
	}
}

// classifyRegisterFailure translates conditional-write refusals into the
// caller-facing taxonomy.
func (s *Service) classifyRegisterFailure(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrCapacityExceeded):
		if s.metrics != nil {
			s.metrics.CapacityRefused.Inc()
		}
		return dErrors.New(dErrors.CodeCapacityExceeded, "event is at full capacity")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "already registered for this event")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register for event")
	}
}

// Cancel withdraws a registered participation. A missing record and an
// already-cancelled one both report not found; attended is terminal, so
// cancelling it is an invalid transition.
func (s *Service) Cancel(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID) error {
	now := requestcontext.Now(ctx)
	if err := s.store.CancelIfRegistered(ctx, eventID, participantID, now); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "participation not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return dErrors.New(dErrors.CodeInvalidState, "cannot cancel an attended participation")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel participation")
		}
	}
	if s.metrics != nil {
		s.metrics.Cancellations.Inc()
	}
	s.publishKey(ctx, eventID, participantID, ActionCancelled, now)
	return nil
}

// MarkAttended transitions a registered participation to attended and, for
// students, awards points (awardPoints when positive, otherwise the default).
// The conditional transition is the gate: concurrent duplicates award at most
// once. If the award fails the transition is reverted so a retry cannot
// double-award. Returns the number of points awarded (0 for faculty).
func (s *Service) MarkAttended(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID, awardPoints int) (int, error) {
	now := requestcontext.Now(ctx)

	p, err := s.store.MarkAttendedIfRegistered(ctx, eventID, participantID, now)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return 0, dErrors.New(dErrors.CodeNotFound, "participation not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return 0, dErrors.New(dErrors.CodeInvalidState, "participation is not in registered state")
		default:
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark attendance")
		}
	}

	points := awardPoints
	if points <= 0 {
		points = DefaultAwardPoints
	}

	if p.ParticipantRole == domain.RoleStudent {
		if _, err := s.incentive.Award(ctx, participantID, points); err != nil {
			// Roll the transition back so a retry can award exactly once.
			if revertErr := s.store.RevertAttended(ctx, eventID, participantID, now); revertErr != nil {
				s.logger.ErrorContext(ctx, "failed to revert attendance after award failure",
					"event_id", eventID,
					"participant_id", participantID,
					"error", revertErr,
				)
			}
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to award points")
		}
		s.publish(ctx, p, ActionPointsAward, points, now)
	} else {
		points = 0
	}

	if s.metrics != nil {
		s.metrics.Attendances.Inc()
	}
	s.publish(ctx, p, ActionAttended, 0, now)
	return points, nil
}

// CountActive returns the event's non-cancelled participation count.
func (s *Service) CountActive(ctx context.Context, eventID domain.EventID) (int, error) {
	count, err := s.store.CountActive(ctx, eventID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count participations")
	}
	return count, nil
}

// ListMine returns the participant's non-cancelled participations.
func (s *Service) ListMine(ctx context.Context, participantID domain.ParticipantID) ([]*Participation, error) {
	out, err := s.store.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list participations")
	}
	return out, nil
}

// ListByEvent returns an event's non-cancelled participations.
func (s *Service) ListByEvent(ctx context.Context, eventID domain.EventID) ([]*Participation, error) {
	out, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list participations")
	}
	return out, nil
}

// ListAttended returns the participant's attended participations.
func (s *Service) ListAttended(ctx context.Context, participantID domain.ParticipantID) ([]*Participation, error) {
	out, err := s.store.ListAttended(ctx, participantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list attended participations")
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, p *Participation, action string, points int, now time.Time) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, p.EventID.String(), StreamEvent{
		Action:        action,
		EventID:       p.EventID.String(),
		ParticipantID: p.ParticipantID.String(),
		Role:          p.ParticipantRole.String(),
		Niche:         p.SelectedNiche.String(),
		Points:        points,
		OccurredAt:    now,
	})
}

func (s *Service) publishKey(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID, action string, now time.Time) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(ctx, eventID.String(), StreamEvent{
		Action:        action,
		EventID:       eventID.String(),
		ParticipantID: participantID.String(),
		OccurredAt:    now,
	})
}

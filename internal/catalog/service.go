package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"campuspulse/pkg/domain"
	dErrors "campuspulse/pkg/domain-errors"
	"campuspulse/pkg/platform/sentinel"
	"campuspulse/pkg/requestcontext"
)

// Store persists event records; see store.Store for the contract.
type Store interface {
	Create(ctx context.Context, event *Event) error
	Update(ctx context.Context, event *Event) error
	FindByID(ctx context.Context, id domain.EventID) (*Event, error)
	ListActive(ctx context.Context) ([]*Event, error)
}

// CountProvider reports the active participant count for an event. The
// participation ledger implements it; the catalog only reads.
type CountProvider interface {
	CountActive(ctx context.Context, eventID domain.EventID) (int, error)
}

// Service exposes catalog reads to everyone and writes to faculty (the role
// check is enforced by the HTTP layer; the service owns field invariants).
type Service struct {
	store  Store
	counts CountProvider
	logger *slog.Logger
}

func NewService(store Store, counts CountProvider, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog store is required")
	}
	if counts == nil {
		return nil, fmt.Errorf("count provider is required")
	}
	return &Service{store: store, counts: counts, logger: logger}, nil
}

// Create adds a new event to the catalog. New events start active.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Event, error) {
	if params.Capacity < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "capacity must be a positive integer")
	}

	now := requestcontext.Now(ctx)
	event := &Event{
		ID:          domain.NewEventID(),
		Name:        params.Name,
		Description: params.Description,
		Niche:       params.Niche,
		Venue:       params.Venue,
		Date:        params.Date,
		Time:        params.Time,
		Capacity:    params.Capacity,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create event")
	}
	return event, nil
}

// Update applies partial field updates to an existing event.
func (s *Service) Update(ctx context.Context, id domain.EventID, params UpdateParams) (*EventWithCount, error) {
	event, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}

	if params.Name != nil {
		event.Name = *params.Name
	}
	if params.Description != nil {
		event.Description = *params.Description
	}
	if params.Niche != nil {
		event.Niche = *params.Niche
	}
	if params.Venue != nil {
		event.Venue = *params.Venue
	}
	if params.Date != nil {
		event.Date = *params.Date
	}
	if params.Time != nil {
		event.Time = *params.Time
	}
	if params.Capacity != nil {
		if *params.Capacity < 1 {
			return nil, dErrors.New(dErrors.CodeValidation, "capacity must be a positive integer")
		}
		event.Capacity = *params.Capacity
	}
	if params.IsActive != nil {
		event.IsActive = *params.IsActive
	}
	event.UpdatedAt = requestcontext.Now(ctx)

	if err := s.store.Update(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update event")
	}

	count, err := s.counts.CountActive(ctx, event.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count participants")
	}
	return &EventWithCount{Event: *event, ParticipantCount: count}, nil
}

// Get returns one event with its active participant count.
func (s *Service) Get(ctx context.Context, id domain.EventID) (*EventWithCount, error) {
	event, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}

	count, err := s.counts.CountActive(ctx, event.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count participants")
	}
	return &EventWithCount{Event: *event, ParticipantCount: count}, nil
}

// ListActive returns all active events sorted by date, each with its active
// participant count. Counts are fetched concurrently per event.
func (s *Service) ListActive(ctx context.Context) ([]*EventWithCount, error) {
	events, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}

	out := make([]*EventWithCount, len(events))
	g, ctx := errgroup.WithContext(ctx)
	for i, event := range events {
		g.Go(func() error {
			count, err := s.counts.CountActive(ctx, event.ID)
			if err != nil {
				return err
			}
			out[i] = &EventWithCount{Event: *event, ParticipantCount: count}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count participants")
	}
	return out, nil
}

package handler

import (
	"time"

	"campuspulse/internal/catalog"
)

// EventPayload is the JSON shape of a catalog event.
type EventPayload struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Niche            string    `json:"niche"`
	Venue            string    `json:"venue"`
	Date             time.Time `json:"date"`
	Time             string    `json:"time"`
	Capacity         int       `json:"capacity"`
	IsActive         bool      `json:"isActive"`
	ParticipantCount *int      `json:"participantCount,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// FromEvent converts an event to its payload form, without a count.
func FromEvent(e *catalog.Event) EventPayload {
	return EventPayload{
		ID:          e.ID.String(),
		Name:        e.Name,
		Description: e.Description,
		Niche:       e.Niche.String(),
		Venue:       e.Venue,
		Date:        e.Date,
		Time:        e.Time,
		Capacity:    e.Capacity,
		IsActive:    e.IsActive,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// FromEventWithCount converts an event and its participant count snapshot.
func FromEventWithCount(e *catalog.EventWithCount) EventPayload {
	payload := FromEvent(&e.Event)
	count := e.ParticipantCount
	payload.ParticipantCount = &count
	return payload
}

// EventResponse is returned by the single-event endpoints.
type EventResponse struct {
	Event EventPayload `json:"event"`
}

// EventsResponse is returned by GET /events.
type EventsResponse struct {
	Events []EventPayload `json:"events"`
}

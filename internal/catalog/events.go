// Package catalog owns event metadata: creation and field updates by faculty,
// and read access for everyone. The participation ledger reads capacity and
// the active flag from here and never mutates them.
package catalog

import (
	"time"

	"campuspulse/pkg/domain"
)

// Event is a catalog record.
type Event struct {
	ID          domain.EventID
	Name        string
	Description string
	Niche       domain.Niche
	Venue       string
	Date        time.Time
	Time        string
	Capacity    int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EventWithCount pairs an event with its active participant count for display.
// The count is a point-in-time snapshot, not a capacity reservation.
type EventWithCount struct {
	Event
	ParticipantCount int
}

// CreateParams holds the fields required to create an event.
type CreateParams struct {
	Name        string
	Description string
	Niche       domain.Niche
	Venue       string
	Date        time.Time
	Time        string
	Capacity    int
}

// UpdateParams holds optional field updates; nil means "leave unchanged".
type UpdateParams struct {
	Name        *string
	Description *string
	Niche       *domain.Niche
	Venue       *string
	Date        *time.Time
	Time        *string
	Capacity    *int
	IsActive    *bool
}

// Package ledger owns the set of participation records: who joined which
// event, capacity enforcement, and the registered/attended/cancelled state
// machine. It is the only component allowed to mutate participations.
package ledger

import (
	"time"

	"campuspulse/pkg/domain"
)

// Status is a participation lifecycle state.
//
// State machine:
//
//	(none) --Register--> registered --MarkAttended--> attended (terminal)
//	registered --Cancel--> cancelled --Register--> registered (record reused)
//
// No transition leaves attended, and nothing moves from (none) or cancelled
// directly to attended.
type Status string

const (
	StatusRegistered Status = "registered"
	StatusAttended   Status = "attended"
	StatusCancelled  Status = "cancelled"
)

// IsValid checks if the status is one of the supported enum values.
func (s Status) IsValid() bool {
	switch s {
	case StatusRegistered, StatusAttended, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Participation is one participant's relationship to one event. At most one
// record exists per (event, participant) pair for all time; cancellation and
// re-registration reuse the record rather than minting a new one.
type Participation struct {
	ID              domain.ParticipationID
	EventID         domain.EventID
	ParticipantID   domain.ParticipantID
	ParticipantRole domain.Role
	SelectedNiche   domain.Niche
	Status          Status
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DefaultAwardPoints is granted on attendance when the caller does not supply
// an explicit amount.
const DefaultAwardPoints = 10

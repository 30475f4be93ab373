package domain

import (
	"github.com/google/uuid"

	dErrors "campuspulse/pkg/domain-errors"
)

// Typed UUID wrappers for the platform's entities. Distinct types keep an
// event ID from ever being passed where a participant ID is expected; the
// compiler enforces it.
type (
	// EventID identifies an event in the catalog.
	EventID uuid.UUID

	// ParticipantID identifies a student or faculty principal.
	ParticipantID uuid.UUID

	// ParticipationID identifies a single participation record.
	ParticipationID uuid.UUID
)

// ParseEventID constructs an EventID from external input.
//
// Errors: returns CodeInvalidInput when the value is empty, malformed, or the
// nil UUID.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "event id")
	return EventID(u), err
}

// ParseParticipantID constructs a ParticipantID from external input.
func ParseParticipantID(s string) (ParticipantID, error) {
	u, err := parseUUID(s, "participant id")
	return ParticipantID(u), err
}

// ParseParticipationID constructs a ParticipationID from external input.
func ParseParticipationID(s string) (ParticipationID, error) {
	u, err := parseUUID(s, "participation id")
	return ParticipationID(u), err
}

// NewEventID mints a fresh event ID.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewParticipantID mints a fresh participant ID.
func NewParticipantID() ParticipantID { return ParticipantID(uuid.New()) }

// NewParticipationID mints a fresh participation ID.
func NewParticipationID() ParticipationID { return ParticipationID(uuid.New()) }

func (id EventID) String() string         { return uuid.UUID(id).String() }
func (id ParticipantID) String() string   { return uuid.UUID(id).String() }
func (id ParticipationID) String() string { return uuid.UUID(id).String() }

func (id EventID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ParticipantID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id ParticipationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}

package handler

import (
	"time"

	"campuspulse/internal/directory"
	"campuspulse/internal/ledger"
)

// ParticipationPayload is the JSON shape of a participation record.
type ParticipationPayload struct {
	ID              string    `json:"id"`
	EventID         string    `json:"eventId"`
	ParticipantID   string    `json:"participantId"`
	ParticipantRole string    `json:"participantRole"`
	SelectedNiche   string    `json:"selectedNiche"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// FromParticipation converts a ledger record to its payload form.
func FromParticipation(p *ledger.Participation) ParticipationPayload {
	return ParticipationPayload{
		ID:              p.ID.String(),
		EventID:         p.EventID.String(),
		ParticipantID:   p.ParticipantID.String(),
		ParticipantRole: p.ParticipantRole.String(),
		SelectedNiche:   p.SelectedNiche.String(),
		Status:          p.Status.String(),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ParticipateResponse is returned by POST /events/{id}/participate.
type ParticipateResponse struct {
	Message       string               `json:"message"`
	Participation ParticipationPayload `json:"participation"`
}

// MessageResponse is the generic success envelope.
type MessageResponse struct {
	Message string `json:"message"`
}

// ParticipationsResponse is returned by GET /events/my/participations.
type ParticipationsResponse struct {
	Participations []ParticipationPayload `json:"participations"`
}

// EventParticipant is one row of GET /events/{id}/participants: the
// participation joined with directory detail.
type EventParticipant struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	RollNumber    string `json:"rollNumber,omitempty"`
	Status        string `json:"status"`
	SelectedNiche string `json:"selectedNiche"`
}

// EventParticipantsResponse is returned by GET /events/{id}/participants.
type EventParticipantsResponse struct {
	Participants []EventParticipant `json:"participants"`
}

func fromDirectoryRow(p *ledger.Participation, d *directory.Participant) EventParticipant {
	return EventParticipant{
		ID:            d.ID.String(),
		Name:          d.Name,
		Email:         d.Email,
		RollNumber:    d.RollNumber(),
		Status:        p.Status.String(),
		SelectedNiche: p.SelectedNiche.String(),
	}
}

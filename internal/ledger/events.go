package ledger

import "time"

// Stream event actions emitted after committed ledger transitions.
const (
	ActionRegistered   = "participation.registered"
	ActionReregistered = "participation.reregistered"
	ActionCancelled    = "participation.cancelled"
	ActionAttended     = "participation.attended"
	ActionPointsAward  = "points.awarded"
)

// StreamEvent is the JSON payload published to the participation topic.
// Publishing is fail-open and happens after the transition commits; consumers
// must tolerate missing events but never see an uncommitted one.
type StreamEvent struct {
	Action        string    `json:"action"`
	EventID       string    `json:"event_id"`
	ParticipantID string    `json:"participant_id"`
	Role          string    `json:"role"`
	Niche         string    `json:"niche,omitempty"`
	Points        int       `json:"points,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

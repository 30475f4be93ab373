package handler

import (
	"time"

	"campuspulse/internal/incentive"
)

// AttendedEventPayload is one attendance in the self view.
type AttendedEventPayload struct {
	EventID       string    `json:"eventId"`
	SelectedNiche string    `json:"selectedNiche"`
	AttendedAt    time.Time `json:"attendedAt"`
}

// SummaryResponse is returned by GET /incentives/me.
type SummaryResponse struct {
	ParticipantID  string                 `json:"participantId"`
	Points         int                    `json:"points"`
	AttendedEvents []AttendedEventPayload `json:"attendedEvents"`
}

// FromSummary converts an incentive summary to its payload form.
func FromSummary(s *incentive.Summary) SummaryResponse {
	attended := make([]AttendedEventPayload, 0, len(s.Attended))
	for _, p := range s.Attended {
		attended = append(attended, AttendedEventPayload{
			EventID:       p.EventID.String(),
			SelectedNiche: p.SelectedNiche.String(),
			AttendedAt:    p.UpdatedAt,
		})
	}
	return SummaryResponse{
		ParticipantID:  s.ParticipantID.String(),
		Points:         s.Points,
		AttendedEvents: attended,
	}
}

// LeaderboardEntryPayload is one ranked row of the leaderboard.
type LeaderboardEntryPayload struct {
	Rank          int    `json:"rank"`
	ParticipantID string `json:"participantId"`
	Name          string `json:"name,omitempty"`
	RollNumber    string `json:"rollNumber,omitempty"`
	Points        int    `json:"points"`
}

// LeaderboardResponse is returned by GET /incentives/leaderboard.
type LeaderboardResponse struct {
	Leaderboard []LeaderboardEntryPayload `json:"leaderboard"`
}

// FromLeaderboard converts ranked entries to their payload form.
func FromLeaderboard(entries []*incentive.LeaderboardEntry) LeaderboardResponse {
	out := make([]LeaderboardEntryPayload, 0, len(entries))
	for _, e := range entries {
		out = append(out, LeaderboardEntryPayload{
			Rank:          e.Rank,
			ParticipantID: e.ParticipantID.String(),
			Name:          e.Name,
			RollNumber:    e.RollNumber,
			Points:        e.Points,
		})
	}
	return LeaderboardResponse{Leaderboard: out}
}

// Package incentive keeps the points ledger: one balance per participant,
// monotonically increased by attendance awards.
package incentive

import (
	"time"

	"campuspulse/internal/ledger"
	"campuspulse/pkg/domain"
)

// Balance is a participant's current point total.
type Balance struct {
	ParticipantID domain.ParticipantID
	Points        int
	UpdatedAt     time.Time
}

// LeaderboardEntry is one row of the points leaderboard, enriched with the
// participant's display name and roll number from the directory.
type LeaderboardEntry struct {
	Rank          int
	ParticipantID domain.ParticipantID
	Name          string
	RollNumber    string
	Points        int
}

// Summary is a participant's own view: current balance plus the attendance
// history that produced it.
type Summary struct {
	ParticipantID domain.ParticipantID
	Points        int
	Attended      []*ledger.Participation
}

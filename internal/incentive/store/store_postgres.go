package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"campuspulse/internal/incentive"
	"campuspulse/pkg/domain"
	"campuspulse/pkg/platform/sentinel"
)

// PostgresStore persists point balances in PostgreSQL. Awards are a single
// upsert with an in-database increment, so concurrent awards to the same
// participant never lose an update.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Award increments the participant's balance, inserting the row on the first
// award, and returns the new total.
func (s *PostgresStore) Award(ctx context.Context, participantID domain.ParticipantID, amount int) (int, error) {
	query := `
		INSERT INTO incentive_balances (participant_id, points, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (participant_id)
		DO UPDATE SET points = incentive_balances.points + EXCLUDED.points, updated_at = NOW()
		RETURNING points
	`
	var points int
	if err := s.db.QueryRowContext(ctx, query, participantID.String(), amount).Scan(&points); err != nil {
		return 0, fmt.Errorf("award points: %w", err)
	}
	return points, nil
}

// Balance returns the participant's current total, or sentinel.ErrNotFound
// when no award has ever been made.
func (s *PostgresStore) Balance(ctx context.Context, participantID domain.ParticipantID) (int, error) {
	var points int
	err := s.db.QueryRowContext(ctx,
		`SELECT points FROM incentive_balances WHERE participant_id = $1`,
		participantID.String(),
	).Scan(&points)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return points, nil
}

// TopN returns up to n balances ordered by points descending, ties broken by
// participant ID ascending.
func (s *PostgresStore) TopN(ctx context.Context, n int) ([]*incentive.Balance, error) {
	query := `
		SELECT participant_id, points, updated_at
		FROM incentive_balances
		ORDER BY points DESC, participant_id ASC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("list top balances: %w", err)
	}
	defer rows.Close()

	var out []*incentive.Balance
	for rows.Next() {
		var (
			rawID string
			b     incentive.Balance
		)
		if err := rows.Scan(&rawID, &b.Points, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}
		participantID, err := domain.ParseParticipantID(rawID)
		if err != nil {
			return nil, err
		}
		b.ParticipantID = participantID
		out = append(out, &b)
	}
	return out, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"campuspulse/internal/ledger"
	"campuspulse/pkg/domain"
	"campuspulse/pkg/platform/sentinel"
)

// PostgresStore persists participations in PostgreSQL.
//
// Concurrency contract: the (event_id, participant_id) unique index closes the
// duplicate-registration race; registration paths additionally serialize per
// event with a transaction-scoped advisory lock so the capacity count and the
// write are atomic; status transitions are single conditional UPDATEs.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const participationColumns = `id, event_id, participant_id, participant_role, selected_niche, status, created_at, updated_at`

func (s *PostgresStore) Get(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID) (*ledger.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE event_id = $1 AND participant_id = $2
	`
	p, err := scanParticipation(s.db.QueryRowContext(ctx, query, eventID.String(), participantID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get participation: %w", err)
	}
	return p, nil
}

// InsertIfUnderCapacity creates the record only while the event's active count
// is strictly below capacity. Runs inside a transaction holding the per-event
// advisory lock; two concurrent registrations near the boundary serialize
// instead of both observing room.
func (s *PostgresStore) InsertIfUnderCapacity(ctx context.Context, p *ledger.Participation, capacity int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert participation: %w", err)
	}
	defer tx.Rollback()

	count, err := lockEventAndCount(ctx, tx, p.EventID)
	if err != nil {
		return err
	}
	if count >= capacity {
		return sentinel.ErrCapacityExceeded
	}

	query := `
		INSERT INTO participations (` + participationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = tx.ExecContext(ctx, query,
		p.ID.String(),
		p.EventID.String(),
		p.ParticipantID.String(),
		p.ParticipantRole.String(),
		p.SelectedNiche.String(),
		p.Status.String(),
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert participation: %w", err)
	}
	return tx.Commit()
}

// ReactivateIfUnderCapacity flips a cancelled record back to registered under
// the same per-event serialization as InsertIfUnderCapacity.
func (s *PostgresStore) ReactivateIfUnderCapacity(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID, niche domain.Niche, capacity int, now time.Time) (*ledger.Participation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reactivate participation: %w", err)
	}
	defer tx.Rollback()

	count, err := lockEventAndCount(ctx, tx, eventID)
	if err != nil {
		return nil, err
	}
	if count >= capacity {
		return nil, sentinel.ErrCapacityExceeded
	}

	query := `
		UPDATE participations
		SET status = $4, selected_niche = $5, updated_at = $6
		WHERE event_id = $1 AND participant_id = $2 AND status = $3
		RETURNING ` + participationColumns + `
	`
	p, err := scanParticipation(tx.QueryRowContext(ctx, query,
		eventID.String(),
		participantID.String(),
		ledger.StatusCancelled.String(),
		ledger.StatusRegistered.String(),
		niche.String(),
		now,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The cancelled row is gone or changed under us; classify.
			return nil, s.classifyReactivateMiss(ctx, tx, eventID, participantID)
		}
		return nil, fmt.Errorf("reactivate participation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reactivate participation: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) classifyReactivateMiss(ctx context.Context, tx *sql.Tx, eventID domain.EventID, participantID domain.ParticipantID) error {
	var status string
	err := tx.QueryRowContext(ctx,
		`SELECT status FROM participations WHERE event_id = $1 AND participant_id = $2`,
		eventID.String(), participantID.String(),
	).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify reactivate miss: %w", err)
	}
	return sentinel.ErrConflict
}

// CancelIfRegistered cancels only a registered record; the status condition
// makes a second cancel report ErrNotFound instead of silently re-cancelling,
// and keeps attended terminal.
func (s *PostgresStore) CancelIfRegistered(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID, now time.Time) error {
	query := `
		UPDATE participations
		SET status = $4, updated_at = $5
		WHERE event_id = $1 AND participant_id = $2 AND status = $3
	`
	res, err := s.db.ExecContext(ctx, query,
		eventID.String(),
		participantID.String(),
		ledger.StatusRegistered.String(),
		ledger.StatusCancelled.String(),
		now,
	)
	if err != nil {
		return fmt.Errorf("cancel participation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("cancel participation: %w", err)
	}
	if affected == 0 {
		p, err := s.Get(ctx, eventID, participantID)
		if err != nil {
			return err
		}
		if p.Status == ledger.StatusAttended {
			return sentinel.ErrInvalidState
		}
		return sentinel.ErrNotFound
	}
	return nil
}

// MarkAttendedIfRegistered performs the registered -> attended transition as
// one conditional UPDATE; the status condition is the idempotence gate, so at
// most one of N concurrent calls wins.
func (s *PostgresStore) MarkAttendedIfRegistered(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID, now time.Time) (*ledger.Participation, error) {
	query := `
		UPDATE participations
		SET status = $4, updated_at = $5
		WHERE event_id = $1 AND participant_id = $2 AND status = $3
		RETURNING ` + participationColumns + `
	`
	p, err := scanParticipation(s.db.QueryRowContext(ctx, query,
		eventID.String(),
		participantID.String(),
		ledger.StatusRegistered.String(),
		ledger.StatusAttended.String(),
		now,
	))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("mark attended: %w", err)
	}

	// The gate refused; distinguish a missing record from a wrong status.
	if _, err := s.Get(ctx, eventID, participantID); err != nil {
		return nil, err
	}
	return nil, sentinel.ErrInvalidState
}

// RevertAttended is the compensating write for a failed point award.
func (s *PostgresStore) RevertAttended(ctx context.Context, eventID domain.EventID, participantID domain.ParticipantID, now time.Time) error {
	query := `
		UPDATE participations
		SET status = $4, updated_at = $5
		WHERE event_id = $1 AND participant_id = $2 AND status = $3
	`
	res, err := s.db.ExecContext(ctx, query,
		eventID.String(),
		participantID.String(),
		ledger.StatusAttended.String(),
		ledger.StatusRegistered.String(),
		now,
	)
	if err != nil {
		return fmt.Errorf("revert attended: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revert attended: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *PostgresStore) CountActive(ctx context.Context, eventID domain.EventID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participations WHERE event_id = $1 AND status <> $2`,
		eventID.String(), ledger.StatusCancelled.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active participations: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListByParticipant(ctx context.Context, participantID domain.ParticipantID) ([]*ledger.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE participant_id = $1 AND status <> $2
		ORDER BY created_at DESC
	`
	return s.list(ctx, query, participantID.String(), ledger.StatusCancelled.String())
}

func (s *PostgresStore) ListByEvent(ctx context.Context, eventID domain.EventID) ([]*ledger.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE event_id = $1 AND status <> $2
		ORDER BY created_at DESC
	`
	return s.list(ctx, query, eventID.String(), ledger.StatusCancelled.String())
}

func (s *PostgresStore) ListAttended(ctx context.Context, participantID domain.ParticipantID) ([]*ledger.Participation, error) {
	query := `
		SELECT ` + participationColumns + `
		FROM participations
		WHERE participant_id = $1 AND status = $2
		ORDER BY created_at DESC
	`
	return s.list(ctx, query, participantID.String(), ledger.StatusAttended.String())
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*ledger.Participation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// lockEventAndCount takes the transaction-scoped advisory lock for the event
// and returns its active participation count under that lock.
func lockEventAndCount(ctx context.Context, tx *sql.Tx, eventID domain.EventID) (int, error) {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, eventID.String()); err != nil {
		return 0, fmt.Errorf("lock event: %w", err)
	}
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participations WHERE event_id = $1 AND status <> $2`,
		eventID.String(), ledger.StatusCancelled.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count under lock: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipation(row rowScanner) (*ledger.Participation, error) {
	var (
		rawID            string
		rawEventID       string
		rawParticipantID string
		rawRole          string
		rawNiche         string
		rawStatus        string
		p                ledger.Participation
	)
	err := row.Scan(&rawID, &rawEventID, &rawParticipantID, &rawRole, &rawNiche, &rawStatus, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	id, err := domain.ParseParticipationID(rawID)
	if err != nil {
		return nil, err
	}
	eventID, err := domain.ParseEventID(rawEventID)
	if err != nil {
		return nil, err
	}
	participantID, err := domain.ParseParticipantID(rawParticipantID)
	if err != nil {
		return nil, err
	}

	p.ID = id
	p.EventID = eventID
	p.ParticipantID = participantID
	p.ParticipantRole = domain.Role(rawRole)
	p.SelectedNiche = domain.Niche(rawNiche)
	p.Status = ledger.Status(rawStatus)
	return &p, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

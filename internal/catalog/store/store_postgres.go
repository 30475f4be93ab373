package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"campuspulse/internal/catalog"
	"campuspulse/pkg/domain"
	"campuspulse/pkg/platform/sentinel"
)

// PostgresStore persists events in PostgreSQL. This store is pure I/O; field
// validation and ownership rules belong in the service layer.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const eventColumns = `id, name, description, niche, venue, event_date, event_time, capacity, is_active, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, event *catalog.Event) error {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID.String(),
		event.Name,
		event.Description,
		event.Niche.String(),
		event.Venue,
		event.Date,
		event.Time,
		event.Capacity,
		event.IsActive,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, event *catalog.Event) error {
	query := `
		UPDATE events
		SET name = $2, description = $3, niche = $4, venue = $5, event_date = $6,
		    event_time = $7, capacity = $8, is_active = $9, updated_at = $10
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		event.ID.String(),
		event.Name,
		event.Description,
		event.Niche.String(),
		event.Venue,
		event.Date,
		event.Time,
		event.Capacity,
		event.IsActive,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.EventID) (*catalog.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*catalog.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE is_active ORDER BY event_date ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []*catalog.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*catalog.Event, error) {
	var (
		rawID    string
		rawNiche string
		event    catalog.Event
	)
	err := row.Scan(
		&rawID,
		&event.Name,
		&event.Description,
		&rawNiche,
		&event.Venue,
		&event.Date,
		&event.Time,
		&event.Capacity,
		&event.IsActive,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	id, err := domain.ParseEventID(rawID)
	if err != nil {
		return nil, err
	}
	event.ID = id
	event.Niche = domain.Niche(rawNiche)
	return &event, nil
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (class 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

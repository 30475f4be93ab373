package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"campuspulse/internal/directory"
	"campuspulse/pkg/domain"
	"campuspulse/pkg/platform/sentinel"
)

// PostgresStore reads participants from the shared participants table.
// This store is pure I/O; it never writes.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const participantColumns = `id, name, email, role, roll_number, employee_id, department`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ParticipantID) (*directory.Participant, error) {
	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE id = $1
	`
	p, err := scanParticipant(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find participant: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []domain.ParticipantID) (map[domain.ParticipantID]*directory.Participant, error) {
	if len(ids) == 0 {
		return map[domain.ParticipantID]*directory.Participant{}, nil
	}

	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}

	query := `
		SELECT ` + participantColumns + `
		FROM participants
		WHERE id = ANY($1)
	`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("find participants: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.ParticipantID]*directory.Participant, len(ids))
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (*directory.Participant, error) {
	var (
		rawID      string
		rawRole    string
		rollNumber sql.NullString
		employeeID sql.NullString
		department sql.NullString
		p          directory.Participant
	)
	if err := row.Scan(&rawID, &p.Name, &p.Email, &rawRole, &rollNumber, &employeeID, &department); err != nil {
		return nil, err
	}

	id, err := domain.ParseParticipantID(rawID)
	if err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.Role = role

	switch role {
	case domain.RoleStudent:
		p.Student = &directory.StudentProfile{RollNumber: rollNumber.String}
	case domain.RoleFaculty:
		p.Faculty = &directory.FacultyProfile{
			EmployeeID: employeeID.String,
			Department: department.String,
		}
	}
	return &p, nil
}

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rfoxall/otpgate/internal/model"
)

// PendingStore holds the two in-flight tables: registrations awaiting
// code confirmation (no user exists yet) and logins awaiting code
// confirmation for an existing user. Rows are keyed by identifier and
// saving replaces any prior row for the same identifier.
type PendingStore struct {
	db *sql.DB
}

func NewPendingStore(db *sql.DB) *PendingStore {
	return &PendingStore{db: db}
}

func scanPendingRegistration(scanner interface{ Scan(...any) error }) (*model.PendingRegistration, error) {
	var p model.PendingRegistration
	var email, phone sql.NullString

	err := scanner.Scan(&p.Identifier, &p.FirstName, &p.LastName, &email, &phone, &p.Code, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		p.Email = &email.String
	}
	if phone.Valid {
		p.Phone = &phone.String
	}
	return &p, nil
}

const pendingRegistrationCols = `identifier, first_name, last_name, email, phone, code, created_at`

func (s *PendingStore) SaveRegistration(p *model.PendingRegistration) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO pending_registrations (identifier, first_name, last_name, email, phone, code, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(identifier) DO UPDATE SET first_name = excluded.first_name, last_name = excluded.last_name,
		 email = excluded.email, phone = excluded.phone, code = excluded.code, created_at = excluded.created_at`,
		p.Identifier, p.FirstName, p.LastName, nullString(p.Email), nullString(p.Phone), p.Code, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save pending registration: %w", err)
	}
	return nil
}

func (s *PendingStore) GetRegistration(identifier string) (*model.PendingRegistration, error) {
	row := s.db.QueryRow(
		`SELECT `+pendingRegistrationCols+` FROM pending_registrations WHERE identifier = ?`,
		identifier,
	)
	p, err := scanPendingRegistration(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending registration: %w", err)
	}
	return p, nil
}

func (s *PendingStore) DeleteRegistration(identifier string) error {
	_, err := s.db.Exec(`DELETE FROM pending_registrations WHERE identifier = ?`, identifier)
	if err != nil {
		return fmt.Errorf("delete pending registration: %w", err)
	}
	return nil
}

func (s *PendingStore) SaveLogin(identifier, userID string) error {
	_, err := s.db.Exec(
		`INSERT INTO pending_logins (identifier, user_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(identifier) DO UPDATE SET user_id = excluded.user_id, created_at = excluded.created_at`,
		identifier, userID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save pending login: %w", err)
	}
	return nil
}

func (s *PendingStore) GetLogin(identifier string) (*model.PendingLogin, error) {
	var p model.PendingLogin
	row := s.db.QueryRow(
		`SELECT identifier, user_id, created_at FROM pending_logins WHERE identifier = ?`,
		identifier,
	)
	err := row.Scan(&p.Identifier, &p.UserID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending login: %w", err)
	}
	return &p, nil
}

func (s *PendingStore) DeleteLogin(identifier string) error {
	_, err := s.db.Exec(`DELETE FROM pending_logins WHERE identifier = ?`, identifier)
	if err != nil {
		return fmt.Errorf("delete pending login: %w", err)
	}
	return nil
}

// DeleteStale removes pending rows (both tables) older than the given
// age. Verification paths never expire pending rows on access; this is
// the only cleanup they get, run from the maintenance sweep.
func (s *PendingStore) DeleteStale(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	var total int64
	for _, table := range []string{"pending_registrations", "pending_logins"} {
		result, err := s.db.Exec(`DELETE FROM `+table+` WHERE created_at <= ?`, cutoff)
		if err != nil {
			return total, fmt.Errorf("delete stale %s: %w", table, err)
		}
		count, err := result.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += count
	}
	return total, nil
}

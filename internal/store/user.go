package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rfoxall/otpgate/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var email, phone sql.NullString

	err := scanner.Scan(&u.ID, &u.FirstName, &u.LastName, &email, &phone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		u.Email = &email.String
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	return &u, nil
}

const userCols = `id, first_name, last_name, email, phone, created_at, updated_at`

// Create inserts a new user with a generated id. The rule that at least
// one of email/phone must be set is enforced by the auth service before
// calling here; the schema CHECK is a backstop, not the primary gate.
func (s *UserStore) Create(firstName, lastName string, email, phone *string) (*model.User, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	_, err := s.db.Exec(
		`INSERT INTO users (id, first_name, last_name, email, phone, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, firstName, lastName, nullString(email), nullString(phone), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByPhone(phone string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE phone = ?`, phone)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by phone: %w", err)
	}
	return u, nil
}

// Exists reports whether any user holds the given email or phone.
// Nil criteria are skipped.
func (s *UserStore) Exists(email, phone *string) (bool, error) {
	if email != nil {
		u, err := s.GetByEmail(*email)
		if err != nil {
			return false, err
		}
		if u != nil {
			return true, nil
		}
	}
	if phone != nil {
		u, err := s.GetByPhone(*phone)
		if err != nil {
			return false, err
		}
		if u != nil {
			return true, nil
		}
	}
	return false, nil
}

// Update merges the non-nil fields of upd into the user and stamps
// updated_at. Returns nil (not an error) if the id is unknown.
func (s *UserStore) Update(id string, upd model.UserUpdate) (*model.User, error) {
	u, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}

	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Email != nil {
		u.Email = upd.Email
	}
	if upd.Phone != nil {
		u.Phone = upd.Phone
	}

	_, err = s.db.Exec(
		`UPDATE users SET first_name = ?, last_name = ?, email = ?, phone = ?, updated_at = ? WHERE id = ?`,
		u.FirstName, u.LastName, nullString(u.Email), nullString(u.Phone), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetByID(id)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rfoxall/otpgate/internal/model"
)

// DefaultSessionTTL is how long an issued session token stays valid.
const DefaultSessionTTL = 2 * 24 * time.Hour

type SessionStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewSessionStore(db *sql.DB, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{db: db, ttl: ttl}
}

// TTL returns the configured session lifetime.
func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var sess model.Session
	err := scanner.Scan(&sess.Token, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

const sessionCols = `token, user_id, expires_at, created_at`

// Create issues a new session with a crypto-random 256-bit token.
func (s *SessionStore) Create(userID string) (*model.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(tokenBytes)

	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)

	_, err := s.db.Exec(
		`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		token, userID, expiresAt, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s.getByToken(token)
}

func (s *SessionStore) getByToken(token string) (*model.Session, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE token = ?`, token)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	return sess, nil
}

// GetByToken returns the live session for the token, or nil. An expired
// row is deleted on access and reported as a miss.
func (s *SessionStore) GetByToken(token string) (*model.Session, error) {
	sess, err := s.getByToken(token)
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.Expired(time.Now().UTC()) {
		if err := s.Delete(token); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return sess, nil
}

// Refresh re-issues the session under the same token with a fresh
// expiry. Returns nil if the token is missing or already expired.
func (s *SessionStore) Refresh(token string) (*model.Session, error) {
	sess, err := s.GetByToken(token)
	if err != nil || sess == nil {
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(s.ttl)
	_, err = s.db.Exec(`UPDATE sessions SET expires_at = ? WHERE token = ?`, expiresAt, token)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return s.getByToken(token)
}

func (s *SessionStore) Delete(token string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteByUserID(userID string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete sessions by user: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/rfoxall/otpgate/internal/model"
)

// DefaultOTPTTL is how long a generated code stays verifiable.
const DefaultOTPTTL = 5 * time.Minute

type OTPStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewOTPStore(db *sql.DB, ttl time.Duration) *OTPStore {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPStore{db: db, ttl: ttl}
}

func scanOTP(scanner interface{ Scan(...any) error }) (*model.OTP, error) {
	var o model.OTP
	err := scanner.Scan(&o.Identifier, &o.Code, &o.ExpiresAt, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

const otpCols = `identifier, code, expires_at, created_at`

// generateCode returns a 6-digit numeric code (100000–999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	code := n.Int64() + 100000
	return fmt.Sprintf("%06d", code), nil
}

// Generate draws a fresh 6-digit code for the identifier, replacing any
// existing record. The previous code stops verifying immediately.
func (s *OTPStore) Generate(identifier string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.ttl)

	_, err = s.db.Exec(
		`INSERT INTO otps (identifier, code, expires_at, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(identifier) DO UPDATE SET code = excluded.code, expires_at = excluded.expires_at, created_at = excluded.created_at`,
		identifier, code, expiresAt, now,
	)
	if err != nil {
		return "", fmt.Errorf("insert otp: %w", err)
	}
	return code, nil
}

// Get returns the stored record for the identifier, or nil if none exists.
func (s *OTPStore) Get(identifier string) (*model.OTP, error) {
	row := s.db.QueryRow(`SELECT `+otpCols+` FROM otps WHERE identifier = ?`, identifier)
	o, err := scanOTP(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get otp: %w", err)
	}
	return o, nil
}

// Verify checks the submitted code against the stored record.
//
// No record: false. Expired record: deleted and false (lazy expiry).
// Wrong code: false, record retained so the user can retry until expiry.
// Matching code: record deleted and true, so a second submission of
// the same correct code fails.
func (s *OTPStore) Verify(identifier, code string) (bool, error) {
	o, err := s.Get(identifier)
	if err != nil {
		return false, err
	}
	if o == nil {
		return false, nil
	}

	if o.Expired(time.Now().UTC()) {
		if err := s.Delete(identifier); err != nil {
			return false, err
		}
		return false, nil
	}

	if o.Code != code {
		return false, nil
	}

	if err := s.Delete(identifier); err != nil {
		return false, err
	}
	return true, nil
}

func (s *OTPStore) Delete(identifier string) error {
	_, err := s.db.Exec(`DELETE FROM otps WHERE identifier = ?`, identifier)
	if err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}

func (s *OTPStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM otps WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired otps: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

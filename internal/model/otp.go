package model

import "time"

// OTP is a one-time passcode keyed by identifier (email or phone).
// At most one live code exists per identifier; generating a new one
// replaces any prior record.
type OTP struct {
	Identifier string    `json:"identifier"`
	Code       string    `json:"code"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expired reports whether the code is past its expiry at the given time.
func (o *OTP) Expired(now time.Time) bool {
	return now.After(o.ExpiresAt)
}

// PendingRegistration holds the profile of an unconfirmed registration.
// The user record does not exist until the code is verified.
type PendingRegistration struct {
	Identifier string    `json:"identifier"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      *string   `json:"email"`
	Phone      *string   `json:"phone"`
	Code       string    `json:"otp"`
	CreatedAt  time.Time `json:"created_at"`
}

// PendingLogin is an in-flight login awaiting code confirmation for an
// existing user.
type PendingLogin struct {
	Identifier string    `json:"identifier"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

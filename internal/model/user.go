package model

import "time"

// User is a registered account. At least one of Email/Phone is set; the
// auth service enforces that before creation, and each is unique across
// all users when present.
type User struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserUpdate carries a partial update; nil fields are left untouched.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
}

// DisplayName returns "First Last" for email greetings.
func (u *User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// Package auth drives the registration and login flows: it decides when
// a verification code is issued, when a valid session lets a login skip
// verification, and when a user and session are materialized after a
// code checks out.
package auth

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rfoxall/otpgate/internal/model"
	"github.com/rfoxall/otpgate/internal/store"
)

// stalePendingAge is how long an abandoned pending registration or
// login survives before the cleanup sweep removes it. Verification
// paths never expire pending rows on access.
const stalePendingAge = 24 * time.Hour

// Mailer delivers verification codes out-of-band. Delivery is
// best-effort; a failure never invalidates the code.
type Mailer interface {
	Configured() bool
	SendOTP(toEmail, code, name string) error
}

type Service struct {
	users    *store.UserStore
	sessions *store.SessionStore
	otps     *store.OTPStore
	pending  *store.PendingStore
	mailer   Mailer
	logger   *slog.Logger
}

func NewService(
	us *store.UserStore,
	ss *store.SessionStore,
	os *store.OTPStore,
	ps *store.PendingStore,
	mailer Mailer,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:    us,
		sessions: ss,
		otps:     os,
		pending:  ps,
		mailer:   mailer,
		logger:   logger,
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

type RegisterResult struct {
	Identifier string
	// Delivered reports whether the code went out by email. False is a
	// warning, not a failure: the code is still valid.
	Delivered bool
}

// Register accepts a first-time registration, issues a code for its
// identifier, and parks the profile as a pending registration. No user
// exists until VerifyRegistration succeeds. Any stale pending
// registration for the same identifier is discarded, so a user who
// mistyped a code can simply start over.
func (s *Service) Register(in RegisterInput) (*RegisterResult, error) {
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	emailAddr := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.Phone)

	if firstName == "" || lastName == "" {
		return nil, fmt.Errorf("%w: first name and last name are required", ErrValidation)
	}
	if emailAddr == "" && phone == "" {
		return nil, fmt.Errorf("%w: email or phone number is required", ErrValidation)
	}

	if emailAddr != "" {
		exists, err := s.users.Exists(&emailAddr, nil)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: email", ErrConflict)
		}
	}
	if phone != "" {
		exists, err := s.users.Exists(nil, &phone)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("%w: phone", ErrConflict)
		}
	}

	identifier := emailAddr
	if identifier == "" {
		identifier = phone
	}

	if err := s.pending.DeleteRegistration(identifier); err != nil {
		return nil, err
	}

	code, err := s.otps.Generate(identifier)
	if err != nil {
		return nil, err
	}

	p := &model.PendingRegistration{
		Identifier: identifier,
		FirstName:  firstName,
		LastName:   lastName,
		Code:       code,
	}
	if emailAddr != "" {
		p.Email = &emailAddr
	}
	if phone != "" {
		p.Phone = &phone
	}
	if err := s.pending.SaveRegistration(p); err != nil {
		return nil, err
	}

	delivered := s.deliver(emailAddr, code, firstName+" "+lastName)
	return &RegisterResult{Identifier: identifier, Delivered: delivered}, nil
}

type AuthResult struct {
	User    *model.User
	Session *model.Session
}

// VerifyRegistration consumes the code for a pending registration and,
// on success, creates the user and issues a session. The uniqueness of
// the contact methods is re-checked here: another request may have
// registered them during the code window, in which case the pending
// state is discarded and the caller gets a conflict.
func (s *Service) VerifyRegistration(identifier, code string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	code = strings.TrimSpace(code)
	if identifier == "" || code == "" {
		return nil, fmt.Errorf("%w: identifier and code are required", ErrValidation)
	}

	ok, err := s.otps.Verify(identifier, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCode
	}

	p, err := s.pending.GetRegistration(identifier)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: registration data", ErrNotFound)
	}

	exists, err := s.users.Exists(p.Email, p.Phone)
	if err != nil {
		return nil, err
	}
	if exists {
		// Someone else claimed the contact during the code window.
		if err := s.pending.DeleteRegistration(identifier); err != nil {
			return nil, err
		}
		if err := s.otps.Delete(identifier); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: contact registered while awaiting verification", ErrConflict)
	}

	user, err := s.users.Create(p.FirstName, p.LastName, p.Email, p.Phone)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.pending.DeleteRegistration(identifier); err != nil {
		return nil, err
	}

	s.logger.Info("registration verified", "user_id", user.ID)
	return &AuthResult{User: user, Session: sess}, nil
}

type LoginInput struct {
	Email string
	Phone string
	// SessionToken is the caller's existing session, if any. When it is
	// valid and belongs to the same user, login completes without a code.
	SessionToken string
}

type LoginResult struct {
	// Direct is true when a still-valid session for the same user let
	// the login skip verification; User and Session are then set and
	// Session keeps its original token with a fresh expiry.
	Direct  bool
	User    *model.User
	Session *model.Session

	// Otherwise a code was issued for Identifier and the caller must
	// follow up with VerifyLogin.
	Identifier           string
	RequiresVerification bool
	Delivered            bool
}

// Login starts a returning-user login for the given email or phone.
func (s *Service) Login(in LoginInput) (*LoginResult, error) {
	emailAddr := strings.TrimSpace(in.Email)
	phone := strings.TrimSpace(in.Phone)

	if emailAddr == "" && phone == "" {
		return nil, fmt.Errorf("%w: email or phone number is required", ErrValidation)
	}

	var user *model.User
	var err error
	if emailAddr != "" {
		user, err = s.users.GetByEmail(emailAddr)
	} else {
		user, err = s.users.GetByPhone(phone)
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}

	identifier := emailAddr
	if identifier == "" {
		identifier = phone
	}

	if in.SessionToken != "" {
		sess, err := s.sessions.GetByToken(in.SessionToken)
		if err != nil {
			return nil, err
		}
		if sess != nil && sess.UserID == user.ID {
			refreshed, err := s.sessions.Refresh(in.SessionToken)
			if err != nil {
				return nil, err
			}
			s.logger.Info("direct login", "user_id", user.ID)
			return &LoginResult{Direct: true, User: user, Session: refreshed}, nil
		}
		// A session for a different user does not help; fall through to
		// code verification.
	}

	code, err := s.otps.Generate(identifier)
	if err != nil {
		return nil, err
	}
	if err := s.pending.SaveLogin(identifier, user.ID); err != nil {
		return nil, err
	}

	delivered := s.deliver(emailAddr, code, user.DisplayName())
	return &LoginResult{
		Identifier:           identifier,
		RequiresVerification: true,
		Delivered:            delivered,
	}, nil
}

// VerifyLogin consumes the code for a pending login and issues a session
// for the user it was started for.
func (s *Service) VerifyLogin(identifier, code string) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	code = strings.TrimSpace(code)
	if identifier == "" || code == "" {
		return nil, fmt.Errorf("%w: identifier and code are required", ErrValidation)
	}

	ok, err := s.otps.Verify(identifier, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCode
	}

	p, err := s.pending.GetLogin(identifier)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: login data", ErrNotFound)
	}

	user, err := s.users.GetByID(p.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", ErrNotFound)
	}

	sess, err := s.sessions.Create(user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.pending.DeleteLogin(identifier); err != nil {
		return nil, err
	}

	s.logger.Info("login verified", "user_id", user.ID)
	return &AuthResult{User: user, Session: sess}, nil
}

// Logout deletes the session. An unknown or empty token is a no-op.
func (s *Service) Logout(token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(token)
}

// CheckAuth resolves a session token to its user. Returns nil for a
// missing or expired session, never an error for those cases.
func (s *Service) CheckAuth(token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := s.sessions.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	return s.users.GetByID(sess.UserID)
}

// Cleanup sweeps expired sessions and codes plus stale pending rows.
// Invoked on demand: the server's ticker and otpctl both call it.
func (s *Service) Cleanup() error {
	sessions, err := s.sessions.DeleteExpired()
	if err != nil {
		return fmt.Errorf("cleanup sessions: %w", err)
	}
	otps, err := s.otps.DeleteExpired()
	if err != nil {
		return fmt.Errorf("cleanup otps: %w", err)
	}
	pending, err := s.pending.DeleteStale(stalePendingAge)
	if err != nil {
		return fmt.Errorf("cleanup pending: %w", err)
	}
	if sessions+otps+pending > 0 {
		s.logger.Info("cleanup", "sessions", sessions, "otps", otps, "pending", pending)
	}
	return nil
}

// deliver sends the code when the identifier is an email address and
// the mailer is configured. Failure is logged and reported as
// not-delivered; the code stays valid either way.
func (s *Service) deliver(emailAddr, code, name string) bool {
	if emailAddr == "" || s.mailer == nil || !s.mailer.Configured() {
		s.logger.Debug("email delivery skipped", "code", code)
		return false
	}
	if err := s.mailer.SendOTP(emailAddr, code, name); err != nil {
		s.logger.Warn("send otp email", "error", err)
		return false
	}
	return true
}

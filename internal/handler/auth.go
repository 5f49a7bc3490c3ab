package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rfoxall/otpgate/internal/auth"
	"github.com/rfoxall/otpgate/internal/model"
)

const sessionCookieName = "otpgate_session"

type AuthHandler struct {
	svc    *auth.Service
	logger *slog.Logger
}

func NewAuthHandler(svc *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (h *AuthHandler) writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *AuthHandler) writeSuccess(w http.ResponseWriter, message string, data any) {
	h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: message, Data: data})
}

// writeError maps the service error taxonomy onto HTTP statuses.
// Validation messages pass through; everything else gets a fixed body
// so internals never leak to clients.
func (h *AuthHandler) writeError(w http.ResponseWriter, err error) {
	var status int
	var msg string
	switch {
	case errors.Is(err, auth.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCode):
		status, msg = http.StatusUnauthorized, "Invalid verification code. Please check and try again."
	case errors.Is(err, auth.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found. Please register first."
	case errors.Is(err, auth.ErrConflict):
		status, msg = http.StatusConflict, "Already registered. Please login instead."
	default:
		h.logger.Error("internal error", "error", err)
		status, msg = http.StatusInternalServerError, "Internal error"
	}
	h.writeJSON(w, status, apiResponse{Success: false, Error: msg})
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// setSessionCookie formats the session token as a cookie whose max-age
// matches the session's remaining lifetime.
func setSessionCookie(w http.ResponseWriter, r *http.Request, sess *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "Invalid request data"})
		return
	}

	res, err := h.svc.Register(auth.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeSuccess(w, "Verification code sent", map[string]any{
		"identifier": res.Identifier,
	})
}

func (h *AuthHandler) VerifyRegistration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		OTP        string `json:"otp"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "Invalid request data"})
		return
	}

	res, err := h.svc.VerifyRegistration(req.Identifier, req.OTP)
	if err != nil {
		h.writeError(w, err)
		return
	}

	setSessionCookie(w, r, res.Session)
	h.writeSuccess(w, "Registration successful", map[string]any{
		"user": res.User,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "Invalid request data"})
		return
	}

	res, err := h.svc.Login(auth.LoginInput{
		Email:        req.Email,
		Phone:        req.Phone,
		SessionToken: sessionToken(r),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	if res.Direct {
		setSessionCookie(w, r, res.Session)
		h.writeSuccess(w, "Login successful", map[string]any{
			"user":         res.User,
			"direct_login": true,
		})
		return
	}

	h.writeSuccess(w, "Verification code sent", map[string]any{
		"identifier":            res.Identifier,
		"requires_verification": true,
	})
}

func (h *AuthHandler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		OTP        string `json:"otp"`
	}
	if err := decodeBody(r, &req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "Invalid request data"})
		return
	}

	res, err := h.svc.VerifyLogin(req.Identifier, req.OTP)
	if err != nil {
		h.writeError(w, err)
		return
	}

	setSessionCookie(w, r, res.Session)
	h.writeSuccess(w, "Login successful", map[string]any{
		"user": res.User,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(sessionToken(r)); err != nil {
		h.writeError(w, err)
		return
	}
	clearSessionCookie(w)
	h.writeSuccess(w, "Logout successful", nil)
}

// CheckAuth reports whether the request carries a live session, and for
// whom. Never an error status: an anonymous caller is a normal answer.
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.CheckAuth(sessionToken(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if user == nil {
		h.writeSuccess(w, "", map[string]any{"authenticated": false})
		return
	}
	h.writeSuccess(w, "", map[string]any{
		"authenticated": true,
		"user":          user,
	})
}

package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rfoxall/otpgate/internal/auth"
	"github.com/rfoxall/otpgate/internal/config"
	"github.com/rfoxall/otpgate/internal/email"
	"github.com/rfoxall/otpgate/internal/handler"
	"github.com/rfoxall/otpgate/internal/middleware"
	"github.com/rfoxall/otpgate/internal/store"
)

type Server struct {
	db        *sql.DB
	authH     *handler.AuthHandler
	authSvc   *auth.Service
	staticDir string
	logger    *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db, cfg.SessionTTL)
	otpStore := store.NewOTPStore(db, cfg.OTPTTL)
	pendingStore := store.NewPendingStore(db)

	mailer := email.NewClient(cfg.PostmarkToken, cfg.EmailFrom, cfg.EmailFromName)

	authSvc := auth.NewService(
		userStore,
		sessionStore,
		otpStore,
		pendingStore,
		mailer,
		logger.With("component", "auth"),
	)

	return &Server{
		db:        db,
		authH:     handler.NewAuthHandler(authSvc, logger.With("component", "auth_handler")),
		authSvc:   authSvc,
		staticDir: cfg.StaticDir,
		logger:    logger,
	}
}

// AuthService returns the auth service for cleanup tasks.
func (s *Server) AuthService() *auth.Service {
	return s.authSvc
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", s.authH.Register)
	mux.HandleFunc("POST /api/verify-otp", s.authH.VerifyRegistration)
	mux.HandleFunc("POST /api/login", s.authH.Login)
	mux.HandleFunc("POST /api/verify-login-otp", s.authH.VerifyLogin)
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/user", s.authH.CheckAuth)
	mux.HandleFunc("GET /health", s.healthHandler)

	if s.staticDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Package devserver implements an in-memory development server for the
// platform REST contract, so the client stack can be exercised without
// the production backend.
package devserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atelierhq/client-platform/internal/config"
	"github.com/atelierhq/client-platform/pkg/logger"
)

// Server is the dev server.
type Server struct {
	logger *logger.Logger
	state  *state

	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration

	adminID          string
	adminEmail       string
	adminPassword    string
	twoFactorEnabled bool

	rateLimitRequests int
	rateLimitWindow   time.Duration
}

// Option tweaks dev server behavior.
type Option func(*Server)

// WithTwoFactor enables the 2FA login step; codes are printed to the log.
func WithTwoFactor() Option {
	return func(s *Server) { s.twoFactorEnabled = true }
}

// WithCredentials overrides the default admin credentials.
func WithCredentials(email, password string) Option {
	return func(s *Server) {
		s.adminEmail = email
		s.adminPassword = password
	}
}

// New creates a dev server with seeded demo data.
func New(cfg *config.Config, log *logger.Logger, opts ...Option) *Server {
	s := &Server{
		logger:            log,
		state:             newState(),
		jwtSecret:         cfg.JWTSecret,
		accessTTL:         cfg.AccessTokenTTL,
		refreshTTL:        cfg.RefreshTokenTTL,
		adminID:           "admin-1",
		adminEmail:        "studio@atelier.test",
		adminPassword:     "atelier",
		rateLimitRequests: cfg.RateLimitRequests,
		rateLimitWindow:   cfg.RateLimitWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogging(s.logger))
	r.Use(securityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(s.rateLimitRequests, s.rateLimitWindow))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	// Auth endpoints (no bearer required; refresh carries its own).
	r.Post("/auth", s.handleLogin)
	r.Put("/auth", s.handleRefresh)
	r.Post("/auth/verify", s.handleVerifyTwoFactor)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Delete("/auth", s.handleLogout)

		r.Get("/messages", s.handleListMessages)
		r.Post("/messages", s.handleSendMessage)
		r.Get("/messages/typing", s.handleGetTyping)
		r.Post("/messages/typing", s.handlePostTyping)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/accounts", s.handleListAccounts)
		r.Get("/transactions", s.handleListTransactions)
		r.Get("/projects", s.handleListProjects)
		r.Get("/proposals", s.handleListProposals)
		r.Post("/proposals", s.handleCreateProposal)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)
			r.Put("/{id}", s.handleUpdateTask)
			r.Delete("/{id}", s.handleDeleteTask)
		})

		r.Get("/templates", s.handleListTemplates)
	})

	return r
}

// Package server is the composition root: it picks the audit store and the
// identity backend from config, wires service → handler → routes, and runs
// the HTTP server with graceful shutdown.
//
// DEPENDENCY FLOW:
//
//	config.Config
//	  → audit store (sqlite file / :memory:, or postgres when DATABASE_URL is a DSN)
//	  → identity.Provider (keycloak, or memory for local runs)
//	  → identity.Guarded → service.IdentityService → handler.IdentityHandler
//	  → mail.SMTPClient → service.MailService → handler.MailHandler
//	  → audit store → service.AuditService → handler.AuditHandler
//
// Handlers never touch the store, the provider or the mail relay directly.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sakif/identity-facade/internal/config"
	"github.com/sakif/identity-facade/internal/handler"
	"github.com/sakif/identity-facade/internal/identity"
	"github.com/sakif/identity-facade/internal/identity/keycloak"
	"github.com/sakif/identity-facade/internal/mail"
	"github.com/sakif/identity-facade/internal/middleware"
	"github.com/sakif/identity-facade/internal/repository"
	"github.com/sakif/identity-facade/internal/repository/postgres"
	sqliteRepo "github.com/sakif/identity-facade/internal/repository/sqlite"
	"github.com/sakif/identity-facade/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the audit store. The store is closed when Start
// returns, or by Close when the server is never started.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.AuditRepository
}

// New opens the audit store, builds the identity backend and the mail client,
// and mounts routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	provider, err := newProvider(cfg, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating identity provider: %w", err)
	}

	mailer, err := mail.NewSMTPClient(cfg.SMTPHost, cfg.SMTPPort, cfg.MailFrom,
		logger.With(slog.String("component", "mail")))
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating mail client: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes(identity.NewGuarded(provider), mailer)

	return s, nil
}

func openStore(cfg *config.Config) (repository.AuditRepository, error) {
	if cfg.UsesPostgres() {
		if err := postgres.Migrate(cfg.DatabaseURL, "up"); err != nil {
			return nil, err
		}
		return postgres.Open(cfg.DatabaseURL)
	}

	if cfg.DatabaseURL != ":memory:" {
		dir := filepath.Dir(cfg.DatabaseURL)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	return sqliteRepo.New(cfg.DatabaseURL)
}

func newProvider(cfg *config.Config, logger *slog.Logger) (identity.Provider, error) {
	switch cfg.IdentityBackend {
	case config.BackendKeycloak:
		endpoints := keycloak.NewEndpoints(cfg.KeycloakBaseURL, cfg.KeycloakRealm, cfg.KeycloakClientID, cfg.ClientSecret())
		if cfg.ClientSecret() == nil {
			logger.Warn("KEYCLOAK_CLIENT_SECRET not set, every admin call will fail")
		}
		return keycloak.NewProvider(
			keycloak.NewHTTPClient(cfg.Timeout()),
			endpoints,
			keycloak.Options{CacheTokens: cfg.KeycloakTokenCache},
			logger.With(slog.String("component", "keycloak")),
		), nil
	case config.BackendMemory:
		logger.Warn("using in-memory identity backend, users are lost on restart")
		return identity.NewMemoryProvider(), nil
	default:
		return nil, fmt.Errorf("unknown identity backend %q", cfg.IdentityBackend)
	}
}

// setupRoutes mounts middleware and routes.
//
// ROUTES:
//
//	POST /api/auth/signup       → create a user in the identity provider
//	POST /api/auth/get_user_id  → look up a user id by email
//	POST /api/auth/delete_user  → delete a user by id
//	POST /api/email/test        → send the fixed test email through the relay
//	GET  /api/audit             → page through audit events, newest first
//	GET  /api/health            → local database ping
//
// Unmatched paths and methods answer with the same JSON envelope as handler
// errors.
//
// MIDDLEWARE ORDER:
// RequestID runs first so the logger and error envelopes carry the id.
// Recoverer sits inside Logger so a recovered panic is still logged as a 500.
func (s *Server) setupRoutes(provider *identity.Guarded, mailer mail.Client) {
	s.router.Use(middleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Recoverer(s.logger))

	s.router.NotFound(handler.NotFound(s.logger))
	s.router.MethodNotAllowed(handler.MethodNotAllowed(s.logger))

	identityService := service.NewIdentityService(provider, s.store, s.logger)
	identityHandler := handler.NewIdentityHandler(identityService, s.logger)
	mailHandler := handler.NewMailHandler(service.NewMailService(mailer, s.logger), s.logger)
	auditHandler := handler.NewAuditHandler(service.NewAuditService(s.store), s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", identityHandler.HandleSignup)
			r.Post("/get_user_id", identityHandler.HandleGetUserID)
			r.Post("/delete_user", identityHandler.HandleDeleteUser)
		})
		r.Post("/email/test", mailHandler.HandleSendTestEmail)
		r.Get("/audit", auditHandler.HandleList)
		r.Get("/health", healthHandler.HandleHealth)
	})
}

// Handler returns the root handler with server-side tracing applied.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// Close releases the audit store.
func (s *Server) Close() error {
	return s.store.Close()
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the audit store.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:              s.config.AppAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      s.config.Timeout() + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.config.AppAddr),
			slog.String("identity_backend", s.config.IdentityBackend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

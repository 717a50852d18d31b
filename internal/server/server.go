// Package server is the composition root of the GitPeek web front end.
//
// DEPENDENCY WIRING:
//
//	config.Config
//	  ├─ sqlite.DB ──────────────► per-visitor SessionStore
//	  ├─ api.Client (per visitor) ► service.Backend
//	  ├─ service.Visitors ───────► one AuthController + SearchFlow per browser
//	  ├─ auth.TokenService ──────► signed visitor cookie
//	  └─ handler.* ──────────────► chi routes
//
// All dependencies are created in New; handlers never reach past the
// service layer.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/gitpeek/internal/api"
	"github.com/sakif/gitpeek/internal/auth"
	"github.com/sakif/gitpeek/internal/config"
	"github.com/sakif/gitpeek/internal/handler"
	"github.com/sakif/gitpeek/internal/middleware"
	"github.com/sakif/gitpeek/internal/repository"
	sqliteRepo "github.com/sakif/gitpeek/internal/repository/sqlite"
	"github.com/sakif/gitpeek/internal/service"
	"github.com/sakif/gitpeek/web"
)

const (
	maxSweepInterval = time.Hour
	shutdownTimeout  = 30 * time.Second
)

// Server owns the router and every long-lived resource behind it.
// The database and the visitor sweeper are released by Close.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	visitors *service.Visitors
	tokens   *auth.TokenService

	closeOnce sync.Once
	closeErr  error
}

// New wires the front end. cfg.VisitorSecret must already be set
// (see config.Config.EnsureVisitorSecret).
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.VisitorSecret)
	if err != nil {
		return nil, err
	}

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One pooled transport for every visitor's client.
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	visitors := service.NewVisitors(
		func(visitorID string) repository.SessionStore {
			return db.SessionStore(visitorID)
		},
		func(store repository.SessionStore) (service.Backend, error) {
			return api.New(cfg.APIBaseURL, httpClient, store, logger)
		},
		cfg.VisitorIdleTTL,
		logger,
	)

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		visitors: visitors,
		tokens:   tokens,
	}

	if err := s.setupRoutes(web.FS); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET  /               landing/search page
//	POST /search         search form
//	POST /auth/login     start GitHub login
//	GET  /auth/callback  OAuth redirect target (?code=)
//	POST /auth/logout    end session
//	GET  /api/me         current user (JSON)
//	GET  /healthz        liveness (JSON)
//	GET  /static/*       embedded assets
//	*                    not-found page
//
// MIDDLEWARE ORDER: RequestID, RealIP, Recoverer, Visitor, Logger. Visitor
// runs before Logger so request lines carry the visitor id.
func (s *Server) setupRoutes(assets fs.FS) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.Visitor(s.tokens, auth.CookieOptions{Secure: s.config.SecureCookies()}, s.logger))
	s.router.Use(middleware.Logger(s.logger))

	static, err := fs.Sub(assets, "static")
	if err != nil {
		return fmt.Errorf("locating static assets: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	pages, err := handler.NewRenderer(assets, s.logger)
	if err != nil {
		return err
	}

	homeHandler := handler.NewHomeHandler(s.visitors, pages, handler.DefaultSearchWait, s.logger)
	authHandler := handler.NewAuthHandler(s.visitors, pages, s.config.CallbackURL(), s.config.CallbackDelay, s.logger)

	s.router.Get("/", homeHandler.HandleHome)
	s.router.Post("/search", homeHandler.HandleSearch)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/callback", authHandler.HandleCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Get("/api/me", authHandler.HandleMe)
	s.router.Get("/healthz", handler.HandleHealth)

	s.router.NotFound(homeHandler.HandleNotFound)

	return nil
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, let in-flight requests finish, release resources.
func (s *Server) Start() error {
	defer s.Close()

	s.visitors.StartSweeper(sweepInterval(s.config.VisitorIdleTTL))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.PublicURL),
			slog.String("api", s.config.APIBaseURL),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close stops the visitor sweeper and closes the database. Safe to call twice.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.visitors.Close()
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

func sweepInterval(idleTTL time.Duration) time.Duration {
	interval := idleTTL / 4
	if interval <= 0 || interval > maxSweepInterval {
		interval = maxSweepInterval
	}
	return interval
}

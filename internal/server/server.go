// Package server wires storage, services, handlers and routes together and
// runs the HTTP server with graceful shutdown.
//
// It is the composition root: every dependency is constructed here once and
// injected downward.
//
//	storage.Open → sqlstore.Store
//	                 ├─ service.AuthService ─┐
//	                 ├─ service.CardService ─┼─ handler.* ─ chi routes
//	                 └─ auth.SessionManager ─┘
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/BSoup1/flashcards/internal/auth"
	"github.com/BSoup1/flashcards/internal/config"
	"github.com/BSoup1/flashcards/internal/handler"
	"github.com/BSoup1/flashcards/internal/middleware"
	"github.com/BSoup1/flashcards/internal/repository"
	"github.com/BSoup1/flashcards/internal/service"
	"github.com/BSoup1/flashcards/internal/storage"
	"github.com/BSoup1/flashcards/web"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the database handle. Start closes the
// database when the server stops.
type Server struct {
	router    *chi.Mux
	config    *config.Config
	logger    *slog.Logger
	store     repository.Store
	passwords *auth.PasswordService
}

// New opens the configured database, applies migrations and builds the
// router.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s, err := newServer(cfg, store, auth.NewPasswordService(), logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

func newServer(cfg *config.Config, store repository.Store, passwords *auth.PasswordService, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		store:     store,
		passwords: passwords,
	}
	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes:
//
//	GET       /                       home (login required)
//	GET,POST  /login                  form / sign in
//	GET       /logout                 sign out
//	GET,POST  /register               form / create account
//	POST      /add_card               JSON, login required
//	GET       /get_user_cards         JSON, login required
//	POST      /update_card/{card_id}  JSON, login required
//	POST      /delete_card/{card_id}  JSON, login required
//	GET       /check_connection       database liveness
//	GET       /auth/github/*          GitHub sign-in, when configured
//	GET       /static/*               embedded CSS and JS
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return err
	}
	sessions := auth.NewSessionManager(s.store.Sessions(), tokens, auth.SessionOptions{
		TTL:    s.config.SessionTTL,
		Secure: s.config.CookieSecure,
	})

	authService := service.NewAuthService(s.store.Users(), s.passwords, s.logger)
	cardService := service.NewCardService(s.store, s.logger)

	renderer, err := handler.NewRenderer(web.Templates(), s.logger,
		handler.PageHome, handler.PageLogin, handler.PageRegister)
	if err != nil {
		return err
	}
	pages := handler.NewPageHandler(renderer, authService, cardService, sessions, s.config.GitHubEnabled(), s.logger)
	cards := handler.NewCardHandler(cardService, s.logger)
	health := handler.NewHealthHandler(s.store, s.logger)

	// MIDDLEWARE ORDER:
	// Logger and Recoverer wrap everything else, session loading included,
	// so a panic anywhere still ends as a logged 500. LogUser passes the
	// resolved user id back out to the log line.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(auth.LoadSession(sessions, s.logger))
	s.router.Use(middleware.LogUser)

	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	s.router.Get("/check_connection", health.HandleCheckConnection)

	s.router.Get("/login", pages.HandleLoginForm)
	s.router.Post("/login", pages.HandleLogin)
	s.router.Get("/register", pages.HandleRegisterForm)
	s.router.Post("/register", pages.HandleRegister)
	s.router.Get("/logout", pages.HandleLogout)

	// TWO WAYS TO SAY "LOG IN FIRST":
	// A browser asking for the home page gets redirected to the login form
	// with a flash message. The page script calling the card API cannot
	// follow a redirect into HTML, so it gets a 401 JSON body instead.
	// RequireUser takes the anonymous response as a parameter for that.
	//
	// r.Group creates a sub-router that shares the parent's middleware plus
	// its own; the With call does the same for a single route.
	s.router.With(auth.RequireUser(handler.RequireLoginPage)).Get("/", pages.HandleHome)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(handler.RequireLoginJSON))
		r.Post("/add_card", cards.HandleAdd)
		r.Get("/get_user_cards", cards.HandleList)
		r.Post("/update_card/{card_id}", cards.HandleUpdate)
		r.Post("/delete_card/{card_id}", cards.HandleDelete)
	})

	if s.config.GitHubEnabled() {
		github := handler.NewGitHubHandler(
			auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL),
			authService, sessions, s.logger,
		)
		s.router.Get("/auth/github/login", github.HandleLogin)
		s.router.Get("/auth/github/callback", github.HandleCallback)
	} else {
		s.logger.Info("GitHub sign-in disabled (GITHUB_CLIENT_ID / GITHUB_CLIENT_SECRET not set)")
	}

	return nil
}

// Start serves until ctx is cancelled (main cancels it on SIGINT/SIGTERM),
// then drains in-flight requests for up to 30 seconds and closes the
// database.
//
// GRACEFUL SHUTDOWN:
// ListenAndServe blocks, so it runs in its own goroutine and reports back
// on serverErrors. srv.Shutdown stops accepting connections and waits for
// active requests to finish; a card being added when the signal arrives
// still commits or rolls back as a whole.
func (s *Server) Start(ctx context.Context) error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", storage.Kind(s.config.DatabaseURL)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
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

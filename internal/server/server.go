// Package server wires configuration, storage, services and handlers into an
// HTTP server.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config ─> sqlite.DB ─> services ─> handlers ─> chi routes
//	              └> auth.Verifier (local JWT or remote userinfo)
//
// Every dependency is built here, in New and routes, and nowhere else: the
// handlers only see services, the services only see repository interfaces.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/vines-backend/internal/auth"
	"github.com/sakif/vines-backend/internal/config"
	"github.com/sakif/vines-backend/internal/handler"
	"github.com/sakif/vines-backend/internal/middleware"
	sqliteRepo "github.com/sakif/vines-backend/internal/repository/sqlite"
	"github.com/sakif/vines-backend/internal/service"
)

// Server owns the database connection and the router. The database is
// closed when Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens and migrates the database, builds the token verifier named by
// cfg.AuthMode and sets up the routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	verifier, err := newVerifier(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating token verifier: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s, err := NewWithDB(cfg, db, verifier, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB builds a server around an already migrated database and a
// verifier. Tests use it with an in-memory database.
func NewWithDB(cfg *config.Config, db *sqliteRepo.DB, verifier auth.Verifier, logger *slog.Logger) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.routes(verifier, service.NewCalendar(loc))
	return s, nil
}

func newVerifier(cfg *config.Config) (auth.Verifier, error) {
	switch cfg.AuthMode {
	case config.AuthModeRemote:
		return auth.NewRemoteVerifier(cfg.AuthUserinfoURL, nil)
	case config.AuthModeLocal:
		return auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer)
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.AuthMode)
	}
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// routes configures middleware and every endpoint.
//
// ROUTE STRUCTURE:
//
//	GET    /health
//	       /api/users    me, search, profile by id
//	       /api/friends  requests, accept/decline/cancel, list, status, remove
//	       /api/garden   checkin, week, recent, friends-today, user week
//	       /api/scores   create, update, list
//	       /api/metrics  device usage per day
//
// Everything under /api goes through auth.RequireAuth, which also makes
// sure the caller has a users row before any handler runs.
//
// MIDDLEWARE ORDER MATTERS:
// RequestID must come before Logger so the log line carries the ID, and
// Recoverer sits inside Logger so a panic is still logged as a 500.
func (s *Server) routes(verifier auth.Verifier, cal service.Calendar) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	userService := service.NewUserService(s.db, cal, s.logger)
	friendService := service.NewFriendService(s.db, s.logger)
	gardenService := service.NewGardenService(s.db, s.db, cal, s.logger)
	scoreService := service.NewScoreService(s.db, cal, s.logger)
	metricsService := service.NewMetricsService(s.db, cal, s.logger)
	diaryService := service.NewDiaryService(s.db, s.db, cal, s.logger)
	locationService := service.NewLocationService(s.db, cal, s.logger)

	healthHandler := handler.NewHealthHandler(s.db, s.config.Env, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	friendHandler := handler.NewFriendHandler(friendService, s.logger)
	gardenHandler := handler.NewGardenHandler(gardenService, s.logger)
	scoreHandler := handler.NewScoreHandler(scoreService, s.logger)
	metricsHandler := handler.NewMetricsHandler(metricsService, s.logger)
	diaryHandler := handler.NewDiaryHandler(diaryService, s.logger)
	locationHandler := handler.NewLocationHandler(locationService, s.logger)

	s.router.Get("/health", healthHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(verifier, userService, s.logger))

		r.Route("/users", func(r chi.Router) {
			r.Get("/me", userHandler.HandleMe)
			r.Patch("/me", userHandler.HandleUpdateMe)
			r.Get("/search", userHandler.HandleSearch)
			r.Get("/{userId}", userHandler.HandleGetUser)
		})

		r.Route("/friends", func(r chi.Router) {
			r.Get("/", friendHandler.HandleListFriends)
			r.Post("/requests", friendHandler.HandleSendRequest)
			r.Get("/requests", friendHandler.HandleListRequests)
			r.Post("/requests/{userId}/accept", friendHandler.HandleAccept)
			r.Post("/requests/{userId}/decline", friendHandler.HandleDecline)
			r.Delete("/requests/{userId}", friendHandler.HandleCancel)
			r.Get("/{userId}/status", friendHandler.HandleStatus)
			r.Delete("/{userId}", friendHandler.HandleRemove)
		})

		r.Route("/garden", func(r chi.Router) {
			r.Post("/checkin", gardenHandler.HandleCheckin)
			r.Get("/week", gardenHandler.HandleThisWeek)
			r.Get("/recent", gardenHandler.HandleRecent)
			r.Get("/friends-today", gardenHandler.HandleFriendsToday)
			r.Get("/user/{userId}/week", gardenHandler.HandleUserWeek)
		})

		r.Route("/scores", func(r chi.Router) {
			r.Post("/", scoreHandler.HandleCreate)
			r.Get("/", scoreHandler.HandleList)
			r.Put("/{date}", scoreHandler.HandleUpdate)
		})

		r.Route("/metrics/device", func(r chi.Router) {
			r.Post("/", metricsHandler.HandleUpsert)
			r.Get("/", metricsHandler.HandleRange)
			r.Post("/batch", metricsHandler.HandleBatch)
			r.Get("/{date}", metricsHandler.HandleGet)
			r.Delete("/{date}", metricsHandler.HandleDelete)
		})

		r.Route("/diary", func(r chi.Router) {
			r.Post("/", diaryHandler.HandleCreate)
			r.Get("/me", diaryHandler.HandleMine)
			r.Get("/friends", diaryHandler.HandleFriends)
			r.Get("/user/{userId}", diaryHandler.HandleByUser)
			r.Delete("/{entryId}", diaryHandler.HandleDelete)
			r.Post("/{entryId}/reactions", diaryHandler.HandleReact)
			r.Delete("/{entryId}/reactions", diaryHandler.HandleUnreact)
			r.Post("/{entryId}/comments", diaryHandler.HandleComment)
			r.Get("/{entryId}/comments", diaryHandler.HandleComments)
			r.Delete("/{entryId}/comments/{commentId}", diaryHandler.HandleDeleteComment)
		})

		r.Route("/location/summary", func(r chi.Router) {
			r.Post("/", locationHandler.HandleUpsert)
			r.Get("/", locationHandler.HandleGet)
		})
	})
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
//  1. stop accepting new connections
//  2. wait up to cfg.ShutdownTimeout for in-flight requests
//  3. close the database (flushes the WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("auth_mode", s.config.AuthMode),
			slog.String("database", s.config.DBPath),
			slog.String("timezone", s.config.Timezone),
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

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Package main is the entry point for the Tripbook API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"database/sql"
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
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql

	"github.com/pkordes/tripbook/internal/backup"
	"github.com/pkordes/tripbook/internal/config"
	"github.com/pkordes/tripbook/internal/event"
	"github.com/pkordes/tripbook/internal/handler"
	"github.com/pkordes/tripbook/internal/middleware"
	"github.com/pkordes/tripbook/internal/repo"
	"github.com/pkordes/tripbook/internal/service"
	"github.com/pkordes/tripbook/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Stores -----------------------------------------------------------
	ctx := context.Background()
	peopleStore, tripStore, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to open stores", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStores()

	// --- Managers ---------------------------------------------------------
	bus := &event.Bus{}
	bus.Subscribe(func(e event.Event) {
		logger.Debug("domain event", "kind", e.Kind.String(), "id", e.ID, "prev_id", e.PrevID)
	})

	people := service.NewPersonManager(peopleStore, bus, logger)
	trips := service.NewTripManager(tripStore, bus, logger)
	roster := service.NewRoster(trips, people, logger)
	transfer := service.NewTransfer(trips, people, roster, logger)

	// People first, so trip attendees can be resolved against them.
	people.Load(ctx)
	trips.Load(ctx)
	roster.RestoreLoaded(ctx)
	roster.Resync(ctx)
	if err := people.ValidateDataIntegrity(); err != nil {
		slog.Warn("people cache failed integrity check", "error", err)
	}
	defer roster.Watch(bus)()

	// --- Backups ----------------------------------------------------------
	var backups *backup.Job
	if cfg.BackupSchedule != "" {
		backups = backup.New(cfg.BackupDir, []backup.Source{
			{Name: "cache", Write: transfer.ExportTrips},
			{Name: "people_cache", Write: transfer.ExportPeople},
		}, logger)
		if err := backups.Start(cfg.BackupSchedule); err != nil {
			slog.Error("failed to schedule backups", "error", err)
			os.Exit(1)
		}
	}

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID, RealIP, Logger, Recoverer,
	// CORS, body limit.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	server := handler.NewServer(trips, people, roster, transfer, logger)
	r.Mount("/", server.Routes())

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if backups != nil {
		backups.Stop(shutdownCtx)
	}

	// Final flush of both caches.
	if err := trips.Close(shutdownCtx); err != nil {
		slog.Error("failed to write trip cache", "error", err)
	}
	if err := people.Close(shutdownCtx); err != nil {
		slog.Error("failed to write people cache", "error", err)
	}
	slog.Info("server stopped")
}

// openStores builds the cache stores for cfg.StoreDriver. The returned
// function releases whatever the stores hold open.
func openStores(ctx context.Context, cfg config.Config, logger *slog.Logger) (repo.PeopleStore, repo.TripStore, func(), error) {
	if cfg.StoreDriver != config.DriverPostgres {
		return repo.NewCSVPeopleStore(cfg.PeopleCachePath, logger),
			repo.NewCSVTripStore(cfg.TripCachePath, logger),
			func() {}, nil
	}

	// pgxpool.New does not open connections immediately; the ping does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	// goose drives migrations through database/sql.
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("open migration connection: %w", err)
	}
	applied, err := migrations.Up(ctx, db)
	db.Close()
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	slog.Info("database connection established", "migrations_applied", applied)

	return repo.NewPostgresPeopleStore(pool), repo.NewPostgresTripStore(pool), pool.Close, nil
}

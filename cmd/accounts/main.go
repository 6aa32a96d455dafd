// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/accounts-go/internal/config"
	"github.com/olegiv/accounts-go/internal/handler"
	"github.com/olegiv/accounts-go/internal/mailer"
	"github.com/olegiv/accounts-go/internal/middleware"
	"github.com/olegiv/accounts-go/internal/scheduler"
	"github.com/olegiv/accounts-go/internal/service"
	"github.com/olegiv/accounts-go/internal/session"
	"github.com/olegiv/accounts-go/internal/store"
	"github.com/olegiv/accounts-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "accounts - user account management service\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACCOUNTS_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACCOUNTS_DB_PATH           SQLite database path (default: ./data/accounts.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACCOUNTS_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACCOUNTS_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACCOUNTS_BASE_URL          External origin for verification links\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACCOUNTS_EMAIL_MODE        Email delivery: console|smtp (default: console)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACCOUNTS_PURGE_SCHEDULE    Cron schedule for unverified purge (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  ACCOUNTS_DO_SEED           Seed the initial admin account (default: false)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Printf("accounts %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("starting accounts service",
		"version", versionInfo.Version,
		"commit", versionInfo.GitCommit,
	)

	// Ensure the database directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	slog.Info("database ready")

	if err := store.Seed(context.Background(), db, cfg.DoSeed); err != nil {
		return fmt.Errorf("seeding database: %w", err)
	}

	// Session manager (server-side sessions in the sessions table)
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized", "lifetime", session.Lifetime)

	// Email delivery
	sender := mailer.New(mailer.Config{
		Mode:     cfg.EmailMode,
		SMTPHost: cfg.SMTPHost,
		SMTPPort: cfg.SMTPPort,
		SMTPFrom: cfg.SMTPFrom,
		SMTPUser: cfg.SMTPUser,
		SMTPPass: cfg.SMTPPass,
	})
	slog.Info("mailer initialized", "mode", cfg.EmailMode)

	accounts := service.NewAccountService(db)

	// Optional scheduled purge of unverified accounts
	purgeScheduler := scheduler.New(accounts, cfg.PurgeSchedule, logger)
	if err := purgeScheduler.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer purgeScheduler.Stop()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(accounts, sessionManager, sender, cfg.BaseURL)
	adminHandler := handler.NewAdminHandler(accounts)
	healthHandler := handler.NewHealthHandler(db)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))

	r.Use(sessionManager.LoadAndSave)

	// Per-request account gate: sessions whose subject is gone or
	// blocked are destroyed before any handler runs.
	r.Use(middleware.EnsureActive(sessionManager, db))

	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())
	csrfMiddleware := middleware.CSRF(csrfConfig)
	slog.Info("CSRF protection initialized", "secure", !cfg.IsDevelopment())

	// Health check routes (public)
	r.Get(handler.RouteHealth, healthHandler.Health)
	r.Get(handler.RouteHealthReady, healthHandler.Readiness)

	// The root has no content of its own
	r.Get(handler.RouteRoot, func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, handler.RouteAuthLogin, http.StatusSeeOther)
	})

	// Auth routes (public, with CSRF on state-changing endpoints)
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Post(handler.RouteAuthRegister, authHandler.Register)
		r.Post(handler.RouteAuthLogin, authHandler.Login)
		r.Post(handler.RouteAuthLogout, authHandler.Logout)
	})

	// Verification is a GET reached from an email link; no CSRF.
	r.Get(handler.RouteAuthVerify, authHandler.Verify)

	// Admin routes (protected with CSRF)
	r.Route(handler.RouteAdmin, func(r chi.Router) {
		r.Use(csrfMiddleware)
		r.Use(middleware.Auth(sessionManager))

		r.Get(handler.RouteAccounts, adminHandler.List)
		r.Post(handler.RouteAccountsBlock, adminHandler.Block)
		r.Post(handler.RouteAccountsUnblock, adminHandler.Unblock)
		r.Post(handler.RouteAccountsDelete, adminHandler.Delete)
		r.Post(handler.RouteAccountsPurge, adminHandler.PurgeUnverified)
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

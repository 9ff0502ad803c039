// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
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

	"github.com/olegiv/teamkb-go/internal/auth"
	"github.com/olegiv/teamkb-go/internal/config"
	"github.com/olegiv/teamkb-go/internal/handler/api"
	"github.com/olegiv/teamkb-go/internal/mail"
	"github.com/olegiv/teamkb-go/internal/middleware"
	"github.com/olegiv/teamkb-go/internal/service"
	"github.com/olegiv/teamkb-go/internal/store"
	"github.com/olegiv/teamkb-go/internal/version"
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
		_, _ = fmt.Fprintf(os.Stderr, "TeamKB - Team Knowledge Base\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TKB_JWT_SECRET         Token signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TKB_DB_PATH            SQLite database path (default: ./data/teamkb.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TKB_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TKB_ENV                Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TKB_FRONTEND_URL       Base URL for password reset links (default: http://localhost:3001)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  TKB_SMTP_HOST          SMTP server for outbound mail (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nFor more information, see: https://github.com/olegiv/teamkb-go\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Handle -v/-version flag
	if *showVersion {
		info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
		_, _ = fmt.Printf("teamkb %s\n", info)
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
	slog.Info("starting teamkb", "version", versionInfo.Version, "commit", versionInfo.GitCommit)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Seed default admin account
	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// Initialize token manager
	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Initialize mailer; without an SMTP host reset links are logged instead
	mailer := mail.New(mail.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if mailer.Enabled() {
		slog.Info("mailer initialized", "host", cfg.SMTPHost)
	} else {
		slog.Info("mailer disabled, reset links will be logged")
	}

	// Initialize services and handlers
	credentials := service.NewCredentialService(db, tokens, mailer, cfg.FrontendURL)
	apiHandler := api.NewHandler(db, tokens, credentials)

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))               // Gzip compression with level 5
	r.Use(chimw.GetHead)                   // Handle HEAD requests for uptime monitoring
	r.Use(chimw.Timeout(30 * time.Second)) // 30 second request timeout

	// Health check routes (public)
	r.Get("/health", apiHandler.Health)
	r.Get("/health/live", apiHandler.Liveness)
	r.Get("/health/ready", apiHandler.Readiness)

	// Auth routes. Rate limited per IP since these endpoints accept
	// credential and token guesses from unauthenticated callers.
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(10, 20))
		r.Post("/register", apiHandler.Register)
		r.Post("/login", apiHandler.Login)
		r.Post("/refresh", apiHandler.Refresh)
		r.Post("/forgot-password", apiHandler.ForgotPassword)
		r.Post("/reset-password", apiHandler.ResetPassword)
		r.Get("/check-reset-token", apiHandler.CheckResetToken)
		r.Get("/verify-email", apiHandler.VerifyEmail)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens))
			r.Post("/logout", apiHandler.Logout)
			r.Get("/me", apiHandler.Me)
		})
	})

	// Knowledge base routes
	r.Route("/knowledge", func(r chi.Router) {
		// Public read endpoints (optional auth for future per-user views)
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(tokens))
			r.Get("/articles", apiHandler.ListArticles)
			r.Get("/articles/{id}", apiHandler.GetArticle)
			r.Get("/articles/{id}/comments", apiHandler.ListComments)
		})

		// Authenticated write endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens))
			r.Post("/articles", apiHandler.CreateArticle)
			r.Patch("/articles/{id}", apiHandler.UpdateArticle)
			r.Delete("/articles/{id}", apiHandler.DeleteArticle)
			r.Post("/comments", apiHandler.CreateComment)
			r.Patch("/comments/{id}", apiHandler.UpdateComment)
			r.Delete("/comments/{id}", apiHandler.DeleteComment)
		})
	})

	// Admin routes
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(tokens))
		r.Use(middleware.RequireAdmin())
		r.Get("/users", apiHandler.ListUsers)
		r.Post("/users", apiHandler.CreateUser)
		r.Patch("/users/{id}/role", apiHandler.ChangeUserRole)
		r.Delete("/users/{id}", apiHandler.DeleteUser)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

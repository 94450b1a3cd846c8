package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/glideclouds/taskboard-api/internal/config"
	"github.com/glideclouds/taskboard-api/internal/generation"
	"github.com/glideclouds/taskboard-api/internal/platform/gemini"
	"github.com/glideclouds/taskboard-api/internal/platform/postgres"
	"github.com/glideclouds/taskboard-api/internal/service/auth"
	"github.com/glideclouds/taskboard-api/internal/service/board"
	"github.com/glideclouds/taskboard-api/internal/store"
)

// application holds all the shared application dependencies to
// simplify management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore       store.UserStore
	taskStore       store.TaskStore
	discussionStore store.DiscussionStore

	jwtService   auth.JWTService
	hasher       auth.PasswordHasher
	boardService *board.Service

	// generator is nil when no Gemini API key is configured; the AI
	// endpoint is then not mounted.
	generator generation.Generator
}

// newApplication creates a new application instance with all
// dependencies initialized.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.hasher = auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	app.userStore = postgres.NewPostgresUserStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.discussionStore = postgres.NewPostgresDiscussionStore(db, logger)

	app.boardService = board.NewService(
		app.taskStore,
		app.discussionStore,
		db,
		board.RealClock{},
		cfg.Tasks.ArchiveDoneAfterDays,
		logger,
	)

	if cfg.AI.GeminiAPIKey != "" {
		app.generator, err = gemini.NewTemplateGenerator(ctx, logger, cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize template generator: %w", err)
		}
		logger.Info("AI template generator initialized", "model", cfg.AI.ModelName)
	} else {
		logger.Info("no Gemini API key configured, AI template endpoint disabled")
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}
	app.logger.Info("Application shutdown completed")
}

// cmd/service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github-repo-browser/internal/api"
	"github-repo-browser/internal/config"
	"github-repo-browser/internal/database"
	"github-repo-browser/internal/github"
	"github-repo-browser/internal/identity"
	"github-repo-browser/internal/orchestrator"
	"github-repo-browser/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully", "identity_store", cfg.IdentityStore, "authenticated", cfg.GithubToken != "")

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Open the identity backend
	repo, closeRepo, err := openIdentityRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	identitySvc, err := identity.NewService(ctx, repo, cfg.DefaultUsername, logger)
	if err != nil {
		return err
	}

	// 5. Initialize application components
	ghClient, err := github.NewClient(github.Options{
		Token:            cfg.GithubToken,
		BaseURL:          cfg.GithubBaseURL,
		Timeout:          cfg.RequestTimeout,
		RateLimitMaxWait: cfg.RateLimitMaxWait,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	st := store.New(logger)
	orch := orchestrator.New(st, ghClient, logger, cfg.SuggestionDebounce)
	orch.Start(ctx)

	// The profile screen shows the persisted identity from the first render.
	st.Dispatch(store.UserLookupRequested{
		Slot:     store.SlotProfile,
		Username: identitySvc.Identity().CurrentUsername,
	})

	// 6. Serve the API until shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(st, identitySvc, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received. Draining connections.")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		return server.Shutdown(shutdownCtx)
	})

	serveErr := g.Wait()

	// The orchestrator only stops once ctx is done, even if the server failed first.
	cancel()
	if err := orch.Wait(); err != nil {
		logger.Warn("Orchestrator stopped with error", "error", err)
	}
	logger.Info("Application stopped")
	return serveErr
}

// openIdentityRepository returns the configured identity backend and its cleanup.
func openIdentityRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (identity.Repository, func(), error) {
	switch cfg.IdentityStore {
	case config.IdentityStorePostgres:
		dbpool, err := pgxpool.New(ctx, cfg.DBURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		logger.Info("Database connection established")

		if err := runMigrations(cfg.DBURL); err != nil {
			dbpool.Close()
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		logger.Info("Database migrations applied successfully")
		return identity.NewPostgresRepository(database.New(dbpool)), dbpool.Close, nil

	default:
		repo, err := identity.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open identity store %s: %w", cfg.BoltPath, err)
		}
		logger.Info("Identity store opened", "path", cfg.BoltPath)
		return repo, closeQuietly(repo, logger), nil
	}
}

func closeQuietly(c io.Closer, logger *slog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close identity store", "error", err)
		}
	}
}

func runMigrations(dbURL string) error {
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}

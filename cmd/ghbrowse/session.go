// cmd/ghbrowse/session.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github-repo-browser/internal/config"
	"github-repo-browser/internal/github"
	"github-repo-browser/internal/orchestrator"
	"github-repo-browser/internal/store"
)

// session is a store with a running orchestrator, torn down by close.
type session struct {
	store  *store.Store
	orch   *orchestrator.Orchestrator
	cancel context.CancelFunc
	logger *slog.Logger
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(slog.LevelWarn)
	if cfg.LogLevel == "debug" {
		logLevel.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ghClient, err := github.NewClient(github.Options{
		Token:            cfg.GithubToken,
		BaseURL:          cfg.GithubBaseURL,
		Timeout:          cfg.RequestTimeout,
		RateLimitMaxWait: cfg.RateLimitMaxWait,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	st := store.New(logger)
	orch := orchestrator.New(st, ghClient, logger, cfg.SuggestionDebounce)
	orch.Start(ctx)

	return &session{store: st, orch: orch, cancel: cancel, logger: logger}, nil
}

func (s *session) close() {
	s.cancel()
	if err := s.orch.Wait(); err != nil {
		s.logger.Warn("Orchestrator stopped with error", "error", err)
	}
}

// await blocks until done reports true for the store state, or ctx ends.
func (s *session) await(ctx context.Context, done func(store.State) bool) (store.State, error) {
	reached := make(chan store.State, 1)
	notify := func(st store.State) {
		if done(st) {
			select {
			case reached <- st:
			default:
			}
		}
	}
	unsubscribe := s.store.Subscribe(func(_ store.Event, st store.State) { notify(st) })
	defer unsubscribe()
	notify(s.store.State())

	select {
	case st := <-reached:
		return st, nil
	case <-ctx.Done():
		return store.State{}, fmt.Errorf("gave up waiting for GitHub: %w", ctx.Err())
	}
}

func waitContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return context.WithTimeout(cmd.Context(), timeout)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

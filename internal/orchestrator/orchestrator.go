// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github-repo-browser/internal/github"
	"github-repo-browser/internal/model"
	"github-repo-browser/internal/store"
)

const (
	// Results requested per search page.
	pageSize = 20

	// DefaultDebounce is the quiescence window before a suggestions lookup runs.
	DefaultDebounce = 300 * time.Millisecond
)

// GitHubAPI is the slice of the GitHub client the orchestrator needs.
type GitHubAPI interface {
	SearchRepositories(ctx context.Context, opts model.SearchOptions) (*model.SearchPage, error)
	GetUser(ctx context.Context, username string) (*model.UserProfile, error)
}

type flow string

const flowSearch flow = "search"

func lookupFlow(slot store.Slot) flow {
	return flow("lookup:" + string(slot))
}

var lookupFallback = map[store.Slot]string{
	store.SlotSelected: "Failed to fetch user details",
	store.SlotProfile:  "Failed to fetch profile details",
}

// Orchestrator turns intent events into GitHub calls and feeds the results back
// into the store. Search and user lookups are latest-wins: a result is applied
// only if no newer request of the same flow was issued meanwhile.
type Orchestrator struct {
	store    *store.Store
	gh       GitHubAPI
	logger   *slog.Logger
	debounce *debouncer

	mu          sync.Mutex
	ctx         context.Context
	group       *errgroup.Group
	closed      bool
	generations map[flow]uint64
	detach      []func()
}

// New creates an Orchestrator. A zero debounce uses DefaultDebounce.
func New(st *store.Store, gh GitHubAPI, logger *slog.Logger, debounce time.Duration) *Orchestrator {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Orchestrator{
		store:       st,
		gh:          gh,
		logger:      logger,
		debounce:    newDebouncer(debounce),
		generations: make(map[flow]uint64),
	}
}

// Start attaches the orchestrator to its store. Requests run until ctx is done.
func (o *Orchestrator) Start(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	o.mu.Lock()
	o.group = g
	o.ctx = gctx
	o.mu.Unlock()

	o.detach = append(o.detach,
		o.store.Use(o.acceptLatest),
		o.store.Subscribe(o.handle),
	)
	o.logger.Info("Orchestrator started", "debounce", o.debounce.wait.String(), "page_size", pageSize)
}

// Wait blocks until the context given to Start is done and in-flight requests have returned.
func (o *Orchestrator) Wait() error {
	<-o.ctx.Done()
	for _, d := range o.detach {
		d()
	}
	o.debounce.Stop()

	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	err := o.group.Wait()
	o.logger.Info("Orchestrator stopped", "reason", context.Cause(o.ctx))
	return err
}

func (o *Orchestrator) handle(ev store.Event, st store.State) {
	switch e := ev.(type) {
	case store.SearchRequested:
		o.startSearch(e, st)
	case store.SuggestionsRequested:
		prefix := e.Prefix
		o.debounce.Trigger(func() {
			o.spawn(func(ctx context.Context) { o.suggest(ctx, prefix) })
		})
	case store.SortChanged, store.OrderChanged:
		o.refetch(st)
	case store.UserLookupRequested:
		o.startLookup(e)
	}
}

// acceptLatest drops results of superseded requests. Zero generations are untracked.
func (o *Orchestrator) acceptLatest(ev store.Event, _ store.State) bool {
	var f flow
	var gen uint64
	switch e := ev.(type) {
	case store.SearchSucceeded:
		f, gen = flowSearch, e.Generation
	case store.SearchFailed:
		f, gen = flowSearch, e.Generation
	case store.UserLookupSucceeded:
		f, gen = lookupFlow(e.Slot), e.Generation
	case store.UserLookupFailed:
		f, gen = lookupFlow(e.Slot), e.Generation
	default:
		return true
	}
	if gen == 0 {
		return true
	}

	o.mu.Lock()
	current := o.generations[f]
	o.mu.Unlock()
	if gen != current {
		o.logger.Debug("Discarding superseded result", "flow", f, "generation", gen, "current", current)
		return false
	}
	return true
}

func (o *Orchestrator) nextGeneration(f flow) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generations[f]++
	return o.generations[f]
}

// spawn runs fn as a supervised task unless the orchestrator is shutting down.
func (o *Orchestrator) spawn(fn func(ctx context.Context)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.ctx.Err() != nil {
		return
	}
	ctx := o.ctx
	o.group.Go(func() error {
		fn(ctx)
		return nil
	})
}

func (o *Orchestrator) startSearch(e store.SearchRequested, st store.State) {
	gen := o.nextGeneration(flowSearch)
	opts := model.SearchOptions{
		Query:   e.Query,
		Page:    e.Page,
		PerPage: pageSize,
		Sort:    st.Search.SortBy,
		Order:   st.Search.OrderBy,
	}
	logger := o.logger.With("query", opts.Query, "page", opts.Page, "generation", gen)
	logger.Debug("Searching repositories", "sort", opts.Sort, "order", opts.Order)

	o.spawn(func(ctx context.Context) {
		page, err := o.gh.SearchRepositories(ctx, opts)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warn("Repository search failed", "error", err)
			o.store.Dispatch(store.SearchFailed{
				Message:    errorMessage(err, "Failed to fetch repositories"),
				Generation: gen,
			})
			return
		}

		hasMore := len(page.Items) == pageSize && page.TotalCount > opts.Page*pageSize
		logger.Debug("Repository search finished", "count", len(page.Items), "total", page.TotalCount, "has_more", hasMore)
		o.store.Dispatch(store.SearchSucceeded{
			Items:      page.Items,
			Page:       opts.Page,
			HasMore:    hasMore,
			Generation: gen,
		})
	})
}

// suggest merges local popular names with the first live search results.
func (o *Orchestrator) suggest(ctx context.Context, prefix string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Suggestions lookup panicked", "prefix", prefix, "panic", r)
			o.store.Dispatch(store.SuggestionsFailed{})
		}
	}()

	if utf8.RuneCountInString(prefix) < minSuggestionPrefix {
		o.store.Dispatch(store.SuggestionsSucceeded{Suggestions: []string{}})
		return
	}

	local := localSuggestions(prefix)

	page, err := o.gh.SearchRepositories(ctx, model.SearchOptions{Query: prefix, Page: 1, PerPage: pageSize})
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		o.logger.Warn("Live suggestions failed, using local matches", "prefix", prefix, "error", err)
		o.store.Dispatch(store.SuggestionsSucceeded{Suggestions: local})
		return
	}

	remote := make([]string, 0, maxRemoteSuggestions)
	for _, r := range page.Items {
		if len(remote) == maxRemoteSuggestions {
			break
		}
		remote = append(remote, r.Name)
	}
	o.store.Dispatch(store.SuggestionsSucceeded{Suggestions: mergeSuggestions(local, remote)})
}

// refetch reissues the active search after a sort or order change.
func (o *Orchestrator) refetch(st store.State) {
	query := st.Search.SearchQuery
	if query == "" {
		return
	}
	o.logger.Debug("Filters changed, refetching", "query", query, "sort", st.Search.SortBy, "order", st.Search.OrderBy)
	o.store.Dispatch(store.SearchRequested{Query: query, Page: 1})
}

func (o *Orchestrator) startLookup(e store.UserLookupRequested) {
	gen := o.nextGeneration(lookupFlow(e.Slot))
	logger := o.logger.With("slot", e.Slot, "username", e.Username, "generation", gen)

	o.spawn(func(ctx context.Context) {
		user, err := o.gh.GetUser(ctx, e.Username)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warn("User lookup failed", "error", err)
			o.store.Dispatch(store.UserLookupFailed{
				Slot:       e.Slot,
				Message:    errorMessage(err, lookupFallback[e.Slot]),
				Generation: gen,
			})
			return
		}
		o.store.Dispatch(store.UserLookupSucceeded{Slot: e.Slot, Profile: user, Generation: gen})
	})
}

func errorMessage(err error, fallback string) string {
	if msg := github.ErrorMessage(err); msg != "" {
		return msg
	}
	return fallback
}

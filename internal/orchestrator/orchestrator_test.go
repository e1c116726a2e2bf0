// internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github-repo-browser/internal/model"
	"github-repo-browser/internal/store"
)

const (
	testDebounce = 30 * time.Millisecond
	waitFor      = 2 * time.Second
	tick         = 5 * time.Millisecond
)

// MockGitHubAPI is a mock of the GitHubAPI interface.
type MockGitHubAPI struct {
	mock.Mock
}

func (m *MockGitHubAPI) SearchRepositories(ctx context.Context, opts model.SearchOptions) (*model.SearchPage, error) {
	args := m.Called(ctx, opts)
	page, _ := args.Get(0).(*model.SearchPage)
	return page, args.Error(1)
}

func (m *MockGitHubAPI) GetUser(ctx context.Context, username string) (*model.UserProfile, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*model.UserProfile)
	return user, args.Error(1)
}

func queryIs(q string) interface{} {
	return mock.MatchedBy(func(o model.SearchOptions) bool { return o.Query == q })
}

func makePage(prefix string, n, total int) *model.SearchPage {
	items := make([]model.RepositorySummary, n)
	for i := range items {
		items[i] = model.RepositorySummary{ID: int64(i + 1), Name: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return &model.SearchPage{TotalCount: total, Items: items}
}

// eventRecorder sees every event before the orchestrator's filter can drop it.
type eventRecorder struct {
	mu     sync.Mutex
	events []store.Event
}

func (r *eventRecorder) filter(ev store.Event, _ store.State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return true
}

func (r *eventRecorder) count(match func(store.Event) bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if match(ev) {
			n++
		}
	}
	return n
}

type harness struct {
	store    *store.Store
	gh       *MockGitHubAPI
	recorder *eventRecorder
	orch     *Orchestrator
}

func setup(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	st := store.New(logger)
	recorder := &eventRecorder{}
	st.Use(recorder.filter)

	gh := new(MockGitHubAPI)
	orch := New(st, gh, logger, testDebounce)

	ctx, cancel := context.WithCancel(context.Background())
	orch.Start(ctx)
	t.Cleanup(func() {
		cancel()
		require.NoError(t, orch.Wait())
	})

	return &harness{store: st, gh: gh, recorder: recorder, orch: orch}
}

func (h *harness) eventually(t *testing.T, cond func(st store.State) bool, msg string) {
	t.Helper()
	assert.Eventually(t, func() bool { return cond(h.store.State()) }, waitFor, tick, msg)
}

func TestOrchestrator_SearchPagination(t *testing.T) {
	h := setup(t)

	h.gh.On("SearchRepositories", mock.Anything, model.SearchOptions{
		Query: "react", Page: 1, PerPage: 20, Sort: model.SortStars, Order: model.OrderDesc,
	}).Return(makePage("p1", 20, 100), nil).Once()
	h.gh.On("SearchRepositories", mock.Anything, model.SearchOptions{
		Query: "react", Page: 2, PerPage: 20, Sort: model.SortStars, Order: model.OrderDesc,
	}).Return(makePage("p2", 5, 100), nil).Once()

	h.store.Dispatch(store.SearchRequested{Query: "react", Page: 1})
	h.eventually(t, func(st store.State) bool {
		return !st.Search.Loading && len(st.Search.Items) == 20
	}, "first page should load")

	st := h.store.State()
	assert.True(t, st.Search.HasMore)
	assert.Equal(t, 1, st.Search.CurrentPage)

	next, ok := store.NextPage(st)
	require.True(t, ok)
	h.store.Dispatch(next)
	h.eventually(t, func(st store.State) bool {
		return !st.Search.Loading && st.Search.CurrentPage == 2
	}, "second page should load")

	st = h.store.State()
	assert.False(t, st.Search.HasMore, "5 results is short of a full page")
	assert.Len(t, st.Search.Items, 25)
	assert.Equal(t, "p1-0", st.Search.Items[0].Name)
	assert.Equal(t, "p2-4", st.Search.Items[24].Name)
	h.gh.AssertExpectations(t)
}

func TestOrchestrator_SearchHasMoreNeedsRemainingTotal(t *testing.T) {
	h := setup(t)
	h.gh.On("SearchRepositories", mock.Anything, queryIs("exact")).Return(makePage("e", 20, 20), nil).Once()

	h.store.Dispatch(store.SearchRequested{Query: "exact", Page: 1})
	h.eventually(t, func(st store.State) bool { return len(st.Search.Items) == 20 }, "page should load")

	assert.False(t, h.store.State().Search.HasMore)
}

func TestOrchestrator_SearchFailure(t *testing.T) {
	h := setup(t)
	h.gh.On("SearchRepositories", mock.Anything, queryIs("broken")).Return(nil, errors.New("connection reset")).Once()

	h.store.Dispatch(store.SearchRequested{Query: "broken", Page: 1})
	h.eventually(t, func(st store.State) bool { return st.Search.Error != nil }, "failure should surface")

	st := h.store.State()
	assert.False(t, st.Search.Loading)
	assert.Equal(t, "connection reset", *st.Search.Error)
}

func TestOrchestrator_SearchLatestWins(t *testing.T) {
	h := setup(t)

	release := make(chan time.Time)
	h.gh.On("SearchRepositories", mock.Anything, queryIs("slow")).WaitUntil(release).Return(makePage("slow", 20, 100), nil).Once()
	h.gh.On("SearchRepositories", mock.Anything, queryIs("fast")).Return(makePage("fast", 3, 3), nil).Once()

	h.store.Dispatch(store.SearchRequested{Query: "slow", Page: 1})
	h.store.Dispatch(store.SearchRequested{Query: "fast", Page: 1})
	h.eventually(t, func(st store.State) bool { return len(st.Search.Items) == 3 }, "newest search should apply")

	close(release)
	assert.Eventually(t, func() bool {
		return h.recorder.count(func(ev store.Event) bool {
			s, ok := ev.(store.SearchSucceeded)
			return ok && len(s.Items) == 20
		}) == 1
	}, waitFor, tick, "superseded search should still complete")

	st := h.store.State()
	assert.Len(t, st.Search.Items, 3)
	assert.Equal(t, "fast-0", st.Search.Items[0].Name)
	assert.Equal(t, "fast", st.Search.SearchQuery)
	assert.False(t, st.Search.Loading)
}

func TestOrchestrator_FilterChangeRefetch(t *testing.T) {
	t.Run("reissues the active search with the new filters", func(t *testing.T) {
		h := setup(t)
		h.gh.On("SearchRepositories", mock.Anything, model.SearchOptions{
			Query: "go", Page: 1, PerPage: 20, Sort: model.SortStars, Order: model.OrderDesc,
		}).Return(makePage("stars", 2, 2), nil).Once()
		h.gh.On("SearchRepositories", mock.Anything, model.SearchOptions{
			Query: "go", Page: 1, PerPage: 20, Sort: model.SortForks, Order: model.OrderDesc,
		}).Return(makePage("forks", 4, 4), nil).Once()

		h.store.Dispatch(store.SearchRequested{Query: "go", Page: 1})
		h.eventually(t, func(st store.State) bool { return len(st.Search.Items) == 2 }, "initial search")

		h.store.Dispatch(store.SortChanged{Sort: model.SortForks})
		h.eventually(t, func(st store.State) bool {
			return len(st.Search.Items) == 4 && !st.Search.Loading
		}, "refetch with forks")

		assert.Equal(t, "forks-0", h.store.State().Search.Items[0].Name)
		h.gh.AssertExpectations(t)
	})

	t.Run("does nothing without an active query", func(t *testing.T) {
		h := setup(t)

		h.store.Dispatch(store.OrderChanged{Order: model.OrderAsc})
		time.Sleep(3 * testDebounce)

		st := h.store.State()
		assert.False(t, st.Search.Loading)
		assert.Equal(t, model.OrderAsc, st.Search.OrderBy)
		h.gh.AssertNotCalled(t, "SearchRepositories", mock.Anything, mock.Anything)
	})
}

func TestOrchestrator_Suggestions(t *testing.T) {
	t.Run("short prefix never calls the network", func(t *testing.T) {
		h := setup(t)

		h.store.Dispatch(store.SuggestionsCleared{})
		h.store.Dispatch(store.SuggestionsRequested{Prefix: "r"})
		h.eventually(t, func(st store.State) bool { return !st.Search.SuggestionsLoading }, "short prefix resolves")

		assert.Empty(t, h.store.State().Search.Suggestions)
		h.gh.AssertNotCalled(t, "SearchRepositories", mock.Anything, mock.Anything)
	})

	t.Run("merges local and remote names", func(t *testing.T) {
		h := setup(t)
		h.gh.On("SearchRepositories", mock.Anything, model.SearchOptions{Query: "react", Page: 1, PerPage: 20}).Return(&model.SearchPage{
			TotalCount: 3,
			Items: []model.RepositorySummary{
				{Name: "react-router"}, {Name: "react-native"}, {Name: "react-redux"}, {Name: "react-query"},
			},
		}, nil).Once()

		h.store.Dispatch(store.SuggestionsRequested{Prefix: "react"})
		h.eventually(t, func(st store.State) bool {
			return !st.Search.SuggestionsLoading && len(st.Search.Suggestions) > 0
		}, "suggestions resolve")

		got := h.store.State().Search.Suggestions
		assert.Equal(t, []string{"react", "react-native", "react-router", "react-redux"}, got)
		assert.LessOrEqual(t, len(got), maxSuggestions)
	})

	t.Run("falls back to local matches when the live search fails", func(t *testing.T) {
		h := setup(t)
		h.gh.On("SearchRepositories", mock.Anything, queryIs("Script")).Return(nil, errors.New("403 rate limited")).Once()

		h.store.Dispatch(store.SuggestionsRequested{Prefix: "Script"})
		h.eventually(t, func(st store.State) bool {
			return !st.Search.SuggestionsLoading && len(st.Search.Suggestions) > 0
		}, "local fallback applies")

		assert.Equal(t, []string{"javascript", "typescript"}, h.store.State().Search.Suggestions)
	})

	t.Run("debounces bursts to the trailing prefix", func(t *testing.T) {
		h := setup(t)
		h.gh.On("SearchRepositories", mock.Anything, queryIs("dock")).Return(makePage("dock", 1, 1), nil).Once()

		for _, p := range []string{"do", "doc", "dock"} {
			h.store.Dispatch(store.SuggestionsRequested{Prefix: p})
		}
		h.eventually(t, func(st store.State) bool {
			return !st.Search.SuggestionsLoading && len(st.Search.Suggestions) > 0
		}, "trailing prefix resolves")
		time.Sleep(3 * testDebounce)

		assert.Equal(t, []string{"docker", "dock-0"}, h.store.State().Search.Suggestions)
		h.gh.AssertNumberOfCalls(t, "SearchRepositories", 1)
	})

	t.Run("a panic while computing reports failure", func(t *testing.T) {
		h := setup(t)
		h.gh.On("SearchRepositories", mock.Anything, queryIs("vim")).Run(func(mock.Arguments) {
			panic("unexpected payload")
		}).Once()

		h.store.Dispatch(store.SuggestionsRequested{Prefix: "vim"})
		assert.Eventually(t, func() bool {
			return h.recorder.count(func(ev store.Event) bool {
				_, ok := ev.(store.SuggestionsFailed)
				return ok
			}) == 1
		}, waitFor, tick)

		st := h.store.State()
		assert.False(t, st.Search.SuggestionsLoading)
		assert.Empty(t, st.Search.Suggestions)
	})
}

func TestOrchestrator_UserLookup(t *testing.T) {
	octocat := &model.UserProfile{Login: "octocat", ID: 583231}

	t.Run("fills the requested slot only", func(t *testing.T) {
		h := setup(t)
		h.gh.On("GetUser", mock.Anything, "octocat").Return(octocat, nil).Once()

		h.store.Dispatch(store.UserLookupRequested{Slot: store.SlotProfile, Username: "octocat"})
		h.eventually(t, func(st store.State) bool { return st.ProfileUser.User != nil }, "profile loads")

		st := h.store.State()
		assert.Equal(t, octocat, st.ProfileUser.User)
		assert.False(t, st.ProfileUser.Loading)
		assert.Equal(t, store.UserLookupState{}, st.SelectedUser)
	})

	t.Run("failure carries the error text", func(t *testing.T) {
		h := setup(t)
		h.gh.On("GetUser", mock.Anything, "ghost-user").Return(nil, errors.New("Not Found")).Once()

		h.store.Dispatch(store.UserLookupRequested{Slot: store.SlotSelected, Username: "ghost-user"})
		h.eventually(t, func(st store.State) bool { return st.SelectedUser.Error != nil }, "failure surfaces")

		st := h.store.State()
		assert.Equal(t, "Not Found", *st.SelectedUser.Error)
		assert.Nil(t, st.SelectedUser.User)
	})

	t.Run("newer lookup for the same slot wins", func(t *testing.T) {
		h := setup(t)
		release := make(chan time.Time)
		h.gh.On("GetUser", mock.Anything, "first").WaitUntil(release).Return(&model.UserProfile{Login: "first"}, nil).Once()
		h.gh.On("GetUser", mock.Anything, "second").Return(&model.UserProfile{Login: "second"}, nil).Once()

		h.store.Dispatch(store.UserLookupRequested{Slot: store.SlotSelected, Username: "first"})
		h.store.Dispatch(store.UserLookupRequested{Slot: store.SlotSelected, Username: "second"})
		h.eventually(t, func(st store.State) bool { return st.SelectedUser.User != nil }, "second lookup applies")

		close(release)
		assert.Eventually(t, func() bool {
			return h.recorder.count(func(ev store.Event) bool {
				s, ok := ev.(store.UserLookupSucceeded)
				return ok && s.Profile.Login == "first"
			}) == 1
		}, waitFor, tick)

		assert.Equal(t, "second", h.store.State().SelectedUser.User.Login)
	})
}

func TestErrorMessageFallback(t *testing.T) {
	assert.Equal(t, "Failed to fetch profile details", errorMessage(errors.New(""), lookupFallback[store.SlotProfile]))
	assert.Equal(t, "boom", errorMessage(errors.New("boom"), "fallback"))
}

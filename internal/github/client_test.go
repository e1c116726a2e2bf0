// internal/github/client_test.go
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-repo-browser/internal/model"
)

const userJSON = `{"login": "octocat", "id": 583231, "avatar_url": "https://avatars.githubusercontent.com/u/583231",
	"html_url": "https://github.com/octocat", "type": "User", "name": "The Octocat", "company": "@github",
	"blog": "", "bio": null, "public_repos": 8, "public_gists": 8, "followers": 1500, "following": 9,
	"created_at": "2011-01-25T18:44:36Z", "updated_at": "2024-01-22T12:13:12Z"}`

// setupTestClient creates a httptest server and a client pointing to it.
func setupTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client, err := NewClient(Options{BaseURL: server.URL, RateLimitMaxWait: 2 * time.Second}, logger)
	require.NoError(t, err)
	client.retryDelay = time.Millisecond

	return client, server
}

func TestClient_SearchRepositories(t *testing.T) {
	t.Run("sends paging and filters and translates the result", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/search/repositories", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "react", q.Get("q"))
			assert.Equal(t, "2", q.Get("page"))
			assert.Equal(t, "20", q.Get("per_page"))
			assert.Equal(t, "stars", q.Get("sort"))
			assert.Equal(t, "desc", q.Get("order"))
			fmt.Fprintln(w, `{"total_count": 100, "incomplete_results": false, "items": [
				{"id": 10270250, "name": "react", "full_name": "facebook/react", "description": "The library for web and native user interfaces.",
				 "html_url": "https://github.com/facebook/react", "stargazers_count": 228000, "forks_count": 46500, "language": "JavaScript",
				 "updated_at": "2024-05-01T10:00:00Z", "owner": {"login": "facebook", "avatar_url": "https://avatars/facebook", "html_url": "https://github.com/facebook"}}
			]}`)
		})
		client, server := setupTestClient(t, handler)
		defer server.Close()

		page, err := client.SearchRepositories(context.Background(), model.SearchOptions{
			Query: "react", Page: 2, PerPage: 20, Sort: model.SortStars, Order: model.OrderDesc,
		})

		require.NoError(t, err)
		assert.Equal(t, 100, page.TotalCount)
		require.Len(t, page.Items, 1)
		repo := page.Items[0]
		assert.Equal(t, int64(10270250), repo.ID)
		assert.Equal(t, "facebook/react", repo.FullName)
		assert.Equal(t, 228000, repo.Stars)
		assert.Equal(t, 46500, repo.Forks)
		require.NotNil(t, repo.Language)
		assert.Equal(t, "JavaScript", *repo.Language)
		assert.Equal(t, "facebook", repo.Owner.Login)
		assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), repo.UpdatedAt.UTC())
	})

	t.Run("omits empty sort and order", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.False(t, q.Has("sort"))
			assert.False(t, q.Has("order"))
			fmt.Fprintln(w, `{"total_count": 0, "items": []}`)
		})
		client, server := setupTestClient(t, handler)
		defer server.Close()

		page, err := client.SearchRepositories(context.Background(), model.SearchOptions{Query: "re", Page: 1, PerPage: 20})

		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})
}

func TestClient_GetUser_Retry(t *testing.T) {
	t.Run("succeeds on first try", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			assert.Equal(t, "/users/octocat", r.URL.Path)
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, userJSON)
		})
		client, server := setupTestClient(t, handler)
		defer server.Close()

		user, err := client.GetUser(context.Background(), "octocat")

		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
		assert.Equal(t, "octocat", user.Login)
		assert.Equal(t, 1500, user.Followers)
		require.NotNil(t, user.Name)
		assert.Equal(t, "The Octocat", *user.Name)
		assert.Nil(t, user.Blog, "empty optional fields are treated as absent")
		assert.Nil(t, user.Bio)
	})

	t.Run("retries on 503 server error and succeeds", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count := atomic.AddInt32(&requestCount, 1)
			if count == 1 {
				w.WriteHeader(http.StatusServiceUnavailable) // Fail first time
				return
			}
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, userJSON)
		})
		client, server := setupTestClient(t, handler)
		defer server.Close()

		_, err := client.GetUser(context.Background(), "octocat")

		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount), "should have made two requests")
	})

	t.Run("waits for a short rate limit reset", func(t *testing.T) {
		var requestCount int32
		reset := time.Now().Add(time.Second)
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			count := atomic.AddInt32(&requestCount, 1)
			if count == 1 {
				w.Header().Set("X-RateLimit-Limit", "60")
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset.Unix()))
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprintln(w, `{"message": "API rate limit exceeded"}`)
				return
			}
			w.WriteHeader(http.StatusOK)
			fmt.Fprintln(w, userJSON)
		})
		client, server := setupTestClient(t, handler)
		defer server.Close()

		_, err := client.GetUser(context.Background(), "octocat")

		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&requestCount))
	})

	t.Run("fails fast when the rate limit resets too late", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			w.Header().Set("X-RateLimit-Limit", "60")
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Hour).Unix()))
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprintln(w, `{"message": "API rate limit exceeded"}`)
		})
		client, server := setupTestClient(t, handler)
		defer server.Close()

		_, err := client.GetUser(context.Background(), "octocat")

		var rateErr *github.RateLimitError
		require.ErrorAs(t, err, &rateErr)
		assert.Equal(t, "API rate limit exceeded", ErrorMessage(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
	})

	t.Run("fails after max retries on persistent server error", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			w.WriteHeader(http.StatusInternalServerError)
		})
		client, server := setupTestClient(t, handler)
		defer server.Close()

		_, err := client.GetUser(context.Background(), "octocat")

		require.Error(t, err)
		var ghErr *github.ErrorResponse
		assert.ErrorAs(t, err, &ghErr)
		assert.Equal(t, http.StatusInternalServerError, ghErr.Response.StatusCode)
		assert.Equal(t, int32(maxRetries), atomic.LoadInt32(&requestCount))
	})

	t.Run("does not retry a missing user", func(t *testing.T) {
		var requestCount int32
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&requestCount, 1)
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintln(w, `{"message": "Not Found"}`)
		})
		client, server := setupTestClient(t, handler)
		defer server.Close()

		_, err := client.GetUser(context.Background(), "nobody-here")

		require.Error(t, err)
		assert.Equal(t, "Not Found", ErrorMessage(err))
		assert.Equal(t, int32(1), atomic.LoadInt32(&requestCount))
	})
}

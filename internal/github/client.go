// internal/github/client.go
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github-repo-browser/internal/model"
)

const (
	// Attempts made for a request failing with a 5xx response.
	maxRetries = 3
	retryDelay = 100 * time.Millisecond
)

// Options configures a Client. Zero values fall back to sensible defaults.
type Options struct {
	Token            string
	BaseURL          string
	Timeout          time.Duration
	RateLimitMaxWait time.Duration
}

// Client is a wrapper around the go-github client.
type Client struct {
	gh         *github.Client
	logger     *slog.Logger
	maxWait    time.Duration
	retryDelay time.Duration
	sleepFn    func(ctx context.Context, d time.Duration) error
}

// NewClient creates and configures a new Client instance.
// When a token is provided it is used to create an authenticated http.Client.
func NewClient(opts Options, logger *slog.Logger) (*Client, error) {
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RateLimitMaxWait == 0 {
		opts.RateLimitMaxWait = 10 * time.Second
	}

	hc := &http.Client{Timeout: opts.Timeout}
	if opts.Token != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, hc)
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: opts.Token},
		)
		hc = oauth2.NewClient(ctx, ts)
		hc.Timeout = opts.Timeout
	}

	gh := github.NewClient(hc)
	if opts.BaseURL != "" {
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL %q: %w", opts.BaseURL, err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		gh.BaseURL = u
	}

	return &Client{
		gh:         gh,
		logger:     logger,
		maxWait:    opts.RateLimitMaxWait,
		retryDelay: retryDelay,
		sleepFn:    sleep,
	}, nil
}

// SearchRepositories runs one page of a repository search and translates it to our internal model.
func (c *Client) SearchRepositories(ctx context.Context, opts model.SearchOptions) (*model.SearchPage, error) {
	searchOpts := &github.SearchOptions{
		Sort:  string(opts.Sort),
		Order: string(opts.Order),
		ListOptions: github.ListOptions{
			Page:    opts.Page,
			PerPage: opts.PerPage,
		},
	}

	var result *github.RepositoriesSearchResult
	err := c.withRetry(ctx, "search", func() (*github.Response, error) {
		var resp *github.Response
		var err error
		result, resp, err = c.gh.Search.Repositories(ctx, opts.Query, searchOpts)
		return resp, err
	})
	if err != nil {
		return nil, err
	}

	page := &model.SearchPage{
		TotalCount:        result.GetTotal(),
		IncompleteResults: result.GetIncompleteResults(),
		Items:             make([]model.RepositorySummary, 0, len(result.Repositories)),
	}
	for _, r := range result.Repositories {
		page.Items = append(page.Items, toRepositorySummary(r))
	}
	c.logger.Debug("Search page fetched", "query", opts.Query, "page", opts.Page, "count", len(page.Items), "total", page.TotalCount)
	return page, nil
}

// GetUser fetches the public profile of username.
func (c *Client) GetUser(ctx context.Context, username string) (*model.UserProfile, error) {
	var user *github.User
	err := c.withRetry(ctx, "user", func() (*github.Response, error) {
		var resp *github.Response
		var err error
		user, resp, err = c.gh.Users.Get(ctx, username)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	return toUserProfile(user), nil
}

// withRetry retries server errors and waits out short primary rate limits.
func (c *Client) withRetry(ctx context.Context, op string, call func() (*github.Response, error)) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		var resp *github.Response
		resp, err = call()
		if err == nil {
			return nil
		}

		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			wait := time.Until(rateErr.Rate.Reset.Time)
			if wait > c.maxWait {
				return err
			}
			c.logger.Warn("Rate limited, waiting for reset", "op", op, "wait", wait.String())
			if serr := c.sleepFn(ctx, wait); serr != nil {
				return serr
			}
			continue
		}

		if resp == nil || resp.StatusCode < http.StatusInternalServerError || attempt == maxRetries {
			return err
		}
		c.logger.Warn("GitHub server error, retrying", "op", op, "status", resp.StatusCode, "attempt", attempt)
		if serr := c.sleepFn(ctx, time.Duration(attempt)*c.retryDelay); serr != nil {
			return serr
		}
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrorMessage returns the human readable message GitHub attached to err, if any.
func ErrorMessage(err error) string {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Message != "" {
		return ghErr.Message
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Message != "" {
		return rateErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// toRepositorySummary translates a github.Repository object to our internal model.RepositorySummary.
func toRepositorySummary(r *github.Repository) model.RepositorySummary {
	return model.RepositorySummary{
		ID:          r.GetID(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Description: r.Description,
		HTMLURL:     r.GetHTMLURL(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		Language:    r.Language,
		UpdatedAt:   r.GetUpdatedAt().Time,
		Owner: model.Owner{
			Login:     r.GetOwner().GetLogin(),
			AvatarURL: r.GetOwner().GetAvatarURL(),
			HTMLURL:   r.GetOwner().GetHTMLURL(),
		},
	}
}

// toUserProfile translates a github.User object to our internal model.UserProfile.
func toUserProfile(u *github.User) *model.UserProfile {
	return &model.UserProfile{
		Login:           u.GetLogin(),
		ID:              u.GetID(),
		AvatarURL:       u.GetAvatarURL(),
		HTMLURL:         u.GetHTMLURL(),
		Type:            u.GetType(),
		Name:            nonEmpty(u.Name),
		Company:         nonEmpty(u.Company),
		Blog:            nonEmpty(u.Blog),
		Location:        nonEmpty(u.Location),
		Email:           nonEmpty(u.Email),
		Bio:             nonEmpty(u.Bio),
		TwitterUsername: nonEmpty(u.TwitterUsername),
		PublicRepos:     u.GetPublicRepos(),
		PublicGists:     u.GetPublicGists(),
		Followers:       u.GetFollowers(),
		Following:       u.GetFollowing(),
		CreatedAt:       u.GetCreatedAt().Time,
		UpdatedAt:       u.GetUpdatedAt().Time,
	}
}

// nonEmpty treats an empty string the same as an absent field.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

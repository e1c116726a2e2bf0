// internal/model/models.go
package model

import (
	"time"

	custom_errors "github-repo-browser/internal/errors"
)

// Owner is the account a repository belongs to.
type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// RepositorySummary is one row of a repository search result.
type RepositorySummary struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description *string   `json:"description,omitempty"`
	HTMLURL     string    `json:"html_url"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	Language    *string   `json:"language,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
	Owner       Owner     `json:"owner"`
}

// SearchPage is a single page of repository search results.
type SearchPage struct {
	TotalCount        int
	IncompleteResults bool
	Items             []RepositorySummary
}

// SearchOptions describes one call to the repository search endpoint.
// Empty Sort and Order are omitted from the request.
type SearchOptions struct {
	Query   string
	Page    int
	PerPage int
	Sort    SortOption
	Order   OrderOption
}

// UserProfile is the public profile of a GitHub account.
// Optional fields are nil when GitHub does not report them.
type UserProfile struct {
	Login           string    `json:"login"`
	ID              int64     `json:"id"`
	AvatarURL       string    `json:"avatar_url"`
	HTMLURL         string    `json:"html_url"`
	Type            string    `json:"type,omitempty"`
	Name            *string   `json:"name,omitempty"`
	Company         *string   `json:"company,omitempty"`
	Blog            *string   `json:"blog,omitempty"`
	Location        *string   `json:"location,omitempty"`
	Email           *string   `json:"email,omitempty"`
	Bio             *string   `json:"bio,omitempty"`
	TwitterUsername *string   `json:"twitter_username,omitempty"`
	PublicRepos     int       `json:"public_repos"`
	PublicGists     int       `json:"public_gists"`
	Followers       int       `json:"followers"`
	Following       int       `json:"following"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ProfileIdentity is the locally owned identity shown on the profile screen.
// It survives independently of any fetched profile data.
type ProfileIdentity struct {
	CurrentUsername string  `json:"currentUsername"`
	LocalPhotoURI   *string `json:"localPhotoUri"`
}

// SortOption is the field repository search results are sorted by.
type SortOption string

const (
	SortStars            SortOption = "stars"
	SortForks            SortOption = "forks"
	SortHelpWantedIssues SortOption = "help-wanted-issues"
	SortUpdated          SortOption = "updated"
)

// OrderOption is the direction of the search sort.
type OrderOption string

const (
	OrderAsc  OrderOption = "asc"
	OrderDesc OrderOption = "desc"
)

// FilterOption describes one selectable filter value for a UI.
type FilterOption struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var sortOptions = []FilterOption{
	{Value: string(SortStars), Label: "Stars", Description: "Sort by number of stars"},
	{Value: string(SortForks), Label: "Forks", Description: "Sort by number of forks"},
	{Value: string(SortHelpWantedIssues), Label: "Help Wanted", Description: "Sort by help wanted issues"},
	{Value: string(SortUpdated), Label: "Recently Updated", Description: "Sort by last updated"},
}

var orderOptions = []FilterOption{
	{Value: string(OrderDesc), Label: "Descending", Description: "Highest to lowest"},
	{Value: string(OrderAsc), Label: "Ascending", Description: "Lowest to highest"},
}

// SortOptions returns the selectable sort values in display order.
func SortOptions() []FilterOption {
	return append([]FilterOption(nil), sortOptions...)
}

// OrderOptions returns the selectable order values in display order.
func OrderOptions() []FilterOption {
	return append([]FilterOption(nil), orderOptions...)
}

// ParseSortOption validates a sort value coming from outside the process.
func ParseSortOption(s string) (SortOption, error) {
	for _, o := range sortOptions {
		if o.Value == s {
			return SortOption(s), nil
		}
	}
	return "", &custom_errors.ErrInvalidSortOption{Value: s}
}

// ParseOrderOption validates an order value coming from outside the process.
func ParseOrderOption(s string) (OrderOption, error) {
	for _, o := range orderOptions {
		if o.Value == s {
			return OrderOption(s), nil
		}
	}
	return "", &custom_errors.ErrInvalidOrderOption{Value: s}
}

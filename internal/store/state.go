// internal/store/state.go
package store

import (
	"github-repo-browser/internal/model"
)

// SearchState is the listing and search context.
type SearchState struct {
	Items              []model.RepositorySummary `json:"items"`
	Loading            bool                      `json:"loading"`
	Error              *string                   `json:"error"`
	CurrentPage        int                       `json:"currentPage"`
	HasMore            bool                      `json:"hasMore"`
	SearchQuery        string                    `json:"searchQuery"`
	SortBy             model.SortOption          `json:"sortBy"`
	OrderBy            model.OrderOption         `json:"orderBy"`
	Suggestions        []string                  `json:"suggestions"`
	SuggestionsLoading bool                      `json:"suggestionsLoading"`
}

// UserLookupState tracks one user lookup slot.
// Loading implies User and Error are nil.
type UserLookupState struct {
	User    *model.UserProfile `json:"user"`
	Loading bool               `json:"loading"`
	Error   *string            `json:"error"`
}

// State is the whole repository store.
type State struct {
	Search          SearchState     `json:"search"`
	SelectedUser    UserLookupState `json:"selectedUser"`
	ProfileUser     UserLookupState `json:"profileUser"`
	EditingUsername bool            `json:"editingUsername"`
}

// InitialState returns the state a fresh store starts with.
func InitialState() State {
	return State{
		Search: SearchState{
			Items:       []model.RepositorySummary{},
			CurrentPage: 1,
			HasMore:     true,
			SortBy:      model.SortStars,
			OrderBy:     model.OrderDesc,
			Suggestions: []string{},
		},
	}
}

// Lookup returns the lookup state of slot.
func (s State) Lookup(slot Slot) UserLookupState {
	if slot == SlotProfile {
		return s.ProfileUser
	}
	return s.SelectedUser
}

func (s *State) setLookup(slot Slot, l UserLookupState) {
	switch slot {
	case SlotSelected:
		s.SelectedUser = l
	case SlotProfile:
		s.ProfileUser = l
	}
}

// Reduce applies ev to st and returns the new state. It never mutates slices held by st.
// Unknown events leave the state unchanged.
func Reduce(st State, ev Event) State {
	switch e := ev.(type) {
	case SearchRequested:
		st.Search.Loading = true
		st.Search.Error = nil
		st.Search.SearchQuery = e.Query
		if e.Page == 1 {
			st.Search.Items = []model.RepositorySummary{}
			st.Search.CurrentPage = 1
		}

	case SearchSucceeded:
		st.Search.Loading = false
		st.Search.Error = nil
		st.Search.CurrentPage = e.Page
		st.Search.HasMore = e.HasMore
		if e.Page == 1 {
			st.Search.Items = append([]model.RepositorySummary{}, e.Items...)
		} else {
			items := make([]model.RepositorySummary, 0, len(st.Search.Items)+len(e.Items))
			items = append(items, st.Search.Items...)
			st.Search.Items = append(items, e.Items...)
		}

	case SearchFailed:
		st.Search.Loading = false
		msg := e.Message
		st.Search.Error = &msg

	case SuggestionsRequested:
		st.Search.SuggestionsLoading = true

	case SuggestionsSucceeded:
		st.Search.SuggestionsLoading = false
		st.Search.Suggestions = append([]string{}, e.Suggestions...)

	case SuggestionsFailed:
		st.Search.SuggestionsLoading = false
		st.Search.Suggestions = []string{}

	case SuggestionsCleared:
		st.Search.Suggestions = []string{}

	case ErrorCleared:
		st.Search.Error = nil

	case SortChanged:
		st.Search.SortBy = e.Sort
		resetResults(&st.Search)

	case OrderChanged:
		st.Search.OrderBy = e.Order
		resetResults(&st.Search)

	case UserLookupRequested:
		st.setLookup(e.Slot, UserLookupState{Loading: true})

	case UserLookupSucceeded:
		st.setLookup(e.Slot, UserLookupState{User: e.Profile})

	case UserLookupFailed:
		msg := e.Message
		st.setLookup(e.Slot, UserLookupState{Error: &msg})

	case UserLookupCleared:
		l := st.Lookup(e.Slot)
		l.User = nil
		l.Error = nil
		st.setLookup(e.Slot, l)

	case EditingUsernameSet:
		st.EditingUsername = e.Editing
	}
	return st
}

// A filter change invalidates the whole result set.
func resetResults(s *SearchState) {
	s.Items = []model.RepositorySummary{}
	s.CurrentPage = 1
	s.HasMore = true
}

// NextPage returns the intent that loads the page after the current one.
// It reports false when no search is active, a request is in flight, or nothing is left.
func NextPage(st State) (SearchRequested, bool) {
	s := st.Search
	if s.SearchQuery == "" || s.Loading || !s.HasMore || len(s.Items) == 0 {
		return SearchRequested{}, false
	}
	return SearchRequested{Query: s.SearchQuery, Page: s.CurrentPage + 1}, true
}

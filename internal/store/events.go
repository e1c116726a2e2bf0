// internal/store/events.go
package store

import (
	"github-repo-browser/internal/model"
)

// EventType names an event accepted by the store.
type EventType string

const (
	EventSearchRequested      EventType = "SearchRequested"
	EventSearchSucceeded      EventType = "SearchSucceeded"
	EventSearchFailed         EventType = "SearchFailed"
	EventSuggestionsRequested EventType = "SuggestionsRequested"
	EventSuggestionsSucceeded EventType = "SuggestionsSucceeded"
	EventSuggestionsFailed    EventType = "SuggestionsFailed"
	EventSuggestionsCleared   EventType = "SuggestionsCleared"
	EventErrorCleared         EventType = "ErrorCleared"
	EventSortChanged          EventType = "SortChanged"
	EventOrderChanged         EventType = "OrderChanged"
	EventUserLookupRequested  EventType = "UserLookupRequested"
	EventUserLookupSucceeded  EventType = "UserLookupSucceeded"
	EventUserLookupFailed     EventType = "UserLookupFailed"
	EventUserLookupCleared    EventType = "UserLookupCleared"
	EventEditingUsernameSet   EventType = "EditingUsernameSet"
)

// Event is implemented by every intent and result event.
type Event interface {
	Type() EventType
}

// Slot identifies one of the two independently tracked user lookups.
type Slot string

const (
	// SlotSelected is the transient user shown in the owner popup.
	SlotSelected Slot = "selected"
	// SlotProfile is the user shown on the owned profile screen.
	SlotProfile Slot = "profile"
)

// Slots lists every lookup slot.
var Slots = []Slot{SlotSelected, SlotProfile}

// SearchRequested starts a search for Query at Page. Page 1 is a fresh search.
type SearchRequested struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
}

func (e SearchRequested) Type() EventType { return EventSearchRequested }

// SearchSucceeded carries one page of results.
// Generation is set by the orchestrator; zero means untracked.
type SearchSucceeded struct {
	Items      []model.RepositorySummary `json:"items"`
	Page       int                       `json:"page"`
	HasMore    bool                      `json:"hasMore"`
	Generation uint64                    `json:"-"`
}

func (e SearchSucceeded) Type() EventType { return EventSearchSucceeded }

type SearchFailed struct {
	Message    string `json:"message"`
	Generation uint64 `json:"-"`
}

func (e SearchFailed) Type() EventType { return EventSearchFailed }

type SuggestionsRequested struct {
	Prefix string `json:"prefix"`
}

func (e SuggestionsRequested) Type() EventType { return EventSuggestionsRequested }

type SuggestionsSucceeded struct {
	Suggestions []string `json:"suggestions"`
}

func (e SuggestionsSucceeded) Type() EventType { return EventSuggestionsSucceeded }

type SuggestionsFailed struct{}

func (e SuggestionsFailed) Type() EventType { return EventSuggestionsFailed }

type SuggestionsCleared struct{}

func (e SuggestionsCleared) Type() EventType { return EventSuggestionsCleared }

type ErrorCleared struct{}

func (e ErrorCleared) Type() EventType { return EventErrorCleared }

type SortChanged struct {
	Sort model.SortOption `json:"sort"`
}

func (e SortChanged) Type() EventType { return EventSortChanged }

type OrderChanged struct {
	Order model.OrderOption `json:"order"`
}

func (e OrderChanged) Type() EventType { return EventOrderChanged }

type UserLookupRequested struct {
	Slot     Slot   `json:"slot"`
	Username string `json:"username"`
}

func (e UserLookupRequested) Type() EventType { return EventUserLookupRequested }

type UserLookupSucceeded struct {
	Slot       Slot               `json:"slot"`
	Profile    *model.UserProfile `json:"profile"`
	Generation uint64             `json:"-"`
}

func (e UserLookupSucceeded) Type() EventType { return EventUserLookupSucceeded }

type UserLookupFailed struct {
	Slot       Slot   `json:"slot"`
	Message    string `json:"message"`
	Generation uint64 `json:"-"`
}

func (e UserLookupFailed) Type() EventType { return EventUserLookupFailed }

type UserLookupCleared struct {
	Slot Slot `json:"slot"`
}

func (e UserLookupCleared) Type() EventType { return EventUserLookupCleared }

// EditingUsernameSet toggles the username edit mode. Validation happens before the commit.
type EditingUsernameSet struct {
	Editing bool `json:"editing"`
}

func (e EditingUsernameSet) Type() EventType { return EventEditingUsernameSet }

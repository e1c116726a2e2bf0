// internal/errors/errors.go
package errors

import (
	"errors"
	"fmt"
)

// ErrIdentityNotFound is returned by identity backends that hold no persisted identity yet.
var ErrIdentityNotFound = errors.New("profile identity not found")

// ErrInvalidSortOption is returned when a sort value is not one of the supported search fields.
type ErrInvalidSortOption struct {
	Value string
}

func (e *ErrInvalidSortOption) Error() string {
	return fmt.Sprintf("invalid sort option: %q, expected one of stars, forks, help-wanted-issues, updated", e.Value)
}

// ErrInvalidOrderOption is returned when an order value is neither 'asc' nor 'desc'.
type ErrInvalidOrderOption struct {
	Value string
}

func (e *ErrInvalidOrderOption) Error() string {
	return fmt.Sprintf("invalid order option: %q, expected 'asc' or 'desc'", e.Value)
}

// ErrInvalidUsername is returned when a username edit does not hold a valid GitHub login.
type ErrInvalidUsername struct {
	Username string
	Reason   string
}

func (e *ErrInvalidUsername) Error() string {
	return fmt.Sprintf("invalid username %q: %s", e.Username, e.Reason)
}

// ErrInvalidSlot is returned when a user lookup slot name is unknown.
type ErrInvalidSlot struct {
	Slot string
}

func (e *ErrInvalidSlot) Error() string {
	return fmt.Sprintf("invalid user slot: %q, expected 'selected' or 'profile'", e.Slot)
}

// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	custom_errors "github-repo-browser/internal/errors"
	"github-repo-browser/internal/model"
	"github-repo-browser/internal/store"
)

// StateStore is the part of the repository store the API drives.
type StateStore interface {
	State() store.State
	Dispatch(ev store.Event)
	Subscribe(l store.Listener) func()
}

// IdentityService owns the persisted profile identity.
type IdentityService interface {
	Identity() model.ProfileIdentity
	SetUsername(ctx context.Context, username string) (model.ProfileIdentity, error)
	SetLocalPhoto(ctx context.Context, uri string) (model.ProfileIdentity, error)
	ClearLocalPhoto(ctx context.Context) (model.ProfileIdentity, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	store    StateStore
	identity IdentityService
	logger   *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(st StateStore, identity IdentityService, logger *slog.Logger) http.Handler {
	h := &Handler{
		store:    st,
		identity: identity,
		logger:   logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)

	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		// The event stream stays open, so it sits outside the timeout group.
		r.Get("/events", h.streamEvents)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/state", h.getState)

			r.Post("/search", h.search)
			r.Post("/search/next", h.searchNext)
			r.Delete("/error", h.clearError)

			r.Post("/suggestions", h.requestSuggestions)
			r.Delete("/suggestions", h.clearSuggestions)

			r.Get("/filters/options", h.getFilterOptions)
			r.Put("/filters", h.setFilters)

			r.Post("/users/{slot}", h.lookupUser)
			r.Delete("/users/{slot}", h.clearUser)

			r.Put("/profile/editing", h.setEditing)

			r.Get("/identity", h.getIdentity)
			r.Put("/identity/username", h.setUsername)
			r.Put("/identity/photo", h.setPhoto)
			r.Delete("/identity/photo", h.clearPhoto)
		})
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getState returns the current store snapshot with display labels.
// GET /v1/state
func (h *Handler) getState(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, newStateView(h.store.State()))
}

type searchRequest struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
}

// search starts a repository search. Page defaults to 1.
// POST /v1/search
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !h.decode(w, r, &req) {
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "'query' must not be empty")
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Page < 1 {
		respondWithError(w, http.StatusBadRequest, "Invalid 'page' parameter. Must be a positive integer.")
		return
	}

	h.store.Dispatch(store.SearchRequested{Query: query, Page: req.Page})
	respondWithJSON(w, http.StatusAccepted, newStateView(h.store.State()))
}

// searchNext loads the page after the current one, if there is one.
// POST /v1/search/next
func (h *Handler) searchNext(w http.ResponseWriter, r *http.Request) {
	next, ok := store.NextPage(h.store.State())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.store.Dispatch(next)
	respondWithJSON(w, http.StatusAccepted, newStateView(h.store.State()))
}

// clearError dismisses the search error.
// DELETE /v1/error
func (h *Handler) clearError(w http.ResponseWriter, r *http.Request) {
	h.store.Dispatch(store.ErrorCleared{})
	w.WriteHeader(http.StatusNoContent)
}

type suggestionsRequest struct {
	Prefix string `json:"prefix"`
}

// requestSuggestions schedules a debounced suggestions lookup.
// POST /v1/suggestions
func (h *Handler) requestSuggestions(w http.ResponseWriter, r *http.Request) {
	var req suggestionsRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.store.Dispatch(store.SuggestionsRequested{Prefix: req.Prefix})
	w.WriteHeader(http.StatusAccepted)
}

// clearSuggestions empties the suggestions list.
// DELETE /v1/suggestions
func (h *Handler) clearSuggestions(w http.ResponseWriter, r *http.Request) {
	h.store.Dispatch(store.SuggestionsCleared{})
	w.WriteHeader(http.StatusNoContent)
}

type filterOptionsResponse struct {
	Sort  []model.FilterOption `json:"sort"`
	Order []model.FilterOption `json:"order"`
}

// getFilterOptions lists the selectable sort and order values.
// GET /v1/filters/options
func (h *Handler) getFilterOptions(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, filterOptionsResponse{
		Sort:  model.SortOptions(),
		Order: model.OrderOptions(),
	})
}

type filtersRequest struct {
	Sort  *string `json:"sort"`
	Order *string `json:"order"`
}

// setFilters changes the sort and/or order. Both are validated before either is applied.
// PUT /v1/filters
func (h *Handler) setFilters(w http.ResponseWriter, r *http.Request) {
	var req filtersRequest
	if !h.decode(w, r, &req) {
		return
	}

	var events []store.Event
	if req.Sort != nil {
		sort, err := model.ParseSortOption(*req.Sort)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		events = append(events, store.SortChanged{Sort: sort})
	}
	if req.Order != nil {
		order, err := model.ParseOrderOption(*req.Order)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		events = append(events, store.OrderChanged{Order: order})
	}

	for _, ev := range events {
		h.store.Dispatch(ev)
	}
	respondWithJSON(w, http.StatusOK, newStateView(h.store.State()))
}

type lookupRequest struct {
	Username string `json:"username"`
}

// lookupUser fetches a user profile into the given slot.
// POST /v1/users/{slot}
func (h *Handler) lookupUser(w http.ResponseWriter, r *http.Request) {
	slot, ok := parseSlot(w, r)
	if !ok {
		return
	}
	var req lookupRequest
	if !h.decode(w, r, &req) {
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		respondWithError(w, http.StatusBadRequest, "'username' must not be empty")
		return
	}

	h.store.Dispatch(store.UserLookupRequested{Slot: slot, Username: username})
	respondWithJSON(w, http.StatusAccepted, newLookupView(h.store.State().Lookup(slot)))
}

// clearUser empties a lookup slot.
// DELETE /v1/users/{slot}
func (h *Handler) clearUser(w http.ResponseWriter, r *http.Request) {
	slot, ok := parseSlot(w, r)
	if !ok {
		return
	}
	h.store.Dispatch(store.UserLookupCleared{Slot: slot})
	w.WriteHeader(http.StatusNoContent)
}

type editingRequest struct {
	Editing bool `json:"editing"`
}

// setEditing toggles the profile username edit mode.
// PUT /v1/profile/editing
func (h *Handler) setEditing(w http.ResponseWriter, r *http.Request) {
	var req editingRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.store.Dispatch(store.EditingUsernameSet{Editing: req.Editing})
	respondWithJSON(w, http.StatusOK, map[string]bool{"editingUsername": req.Editing})
}

// getIdentity returns the persisted profile identity.
// GET /v1/identity
func (h *Handler) getIdentity(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.identity.Identity())
}

// setUsername commits a username edit, leaves edit mode and reloads the profile.
// PUT /v1/identity/username
func (h *Handler) setUsername(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if !h.decode(w, r, &req) {
		return
	}

	id, err := h.identity.SetUsername(r.Context(), req.Username)
	if err != nil {
		h.respondWithIdentityError(w, err)
		return
	}

	h.store.Dispatch(store.EditingUsernameSet{Editing: false})
	h.store.Dispatch(store.UserLookupRequested{Slot: store.SlotProfile, Username: id.CurrentUsername})
	respondWithJSON(w, http.StatusOK, id)
}

type photoRequest struct {
	URI string `json:"uri"`
}

// setPhoto stores a local avatar override.
// PUT /v1/identity/photo
func (h *Handler) setPhoto(w http.ResponseWriter, r *http.Request) {
	var req photoRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.URI) == "" {
		respondWithError(w, http.StatusBadRequest, "'uri' must not be empty")
		return
	}

	id, err := h.identity.SetLocalPhoto(r.Context(), req.URI)
	if err != nil {
		h.respondWithIdentityError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, id)
}

// clearPhoto removes the local avatar override.
// DELETE /v1/identity/photo
func (h *Handler) clearPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := h.identity.ClearLocalPhoto(r.Context())
	if err != nil {
		h.respondWithIdentityError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, id)
}

func (h *Handler) respondWithIdentityError(w http.ResponseWriter, err error) {
	var nameErr *custom_errors.ErrInvalidUsername
	if errors.As(err, &nameErr) {
		respondWithError(w, http.StatusBadRequest, nameErr.Error())
		return
	}
	h.logger.Error("Failed to update profile identity", "error", err)
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// decode reads a JSON body into dst, answering 400 on malformed input.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.Debug("Rejected malformed request body", "path", r.URL.Path, "error", err)
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return false
	}
	return true
}

func parseSlot(w http.ResponseWriter, r *http.Request) (store.Slot, bool) {
	raw := chi.URLParam(r, "slot")
	for _, s := range store.Slots {
		if string(s) == raw {
			return s, true
		}
	}
	err := &custom_errors.ErrInvalidSlot{Slot: raw}
	respondWithError(w, http.StatusBadRequest, err.Error())
	return "", false
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// internal/identity/service.go
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	custom_errors "github-repo-browser/internal/errors"
	"github-repo-browser/internal/model"
)

// DefaultUsername seeds the identity on first launch.
const DefaultUsername = "octocat"

// Persisted identities are stored under this single key.
const identityKey = "profile"

// GitHub logins: alphanumerics and single inner hyphens, at most 39 characters.
const maxLoginLength = 39

var loginPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9]|-[A-Za-z0-9])*$`)

// Repository persists the profile identity between sessions.
type Repository interface {
	// Load returns custom_errors.ErrIdentityNotFound when nothing was saved yet.
	Load(ctx context.Context) (*model.ProfileIdentity, error)
	Save(ctx context.Context, id model.ProfileIdentity) error
}

// Service owns the profile identity. It is kept apart from the repository store
// so the identity survives independently of search and profile fetch results.
type Service struct {
	mu      sync.RWMutex
	current model.ProfileIdentity
	repo    Repository
	logger  *slog.Logger
}

// NewService rehydrates the identity from repo, falling back to defaults on first launch.
func NewService(ctx context.Context, repo Repository, defaultUsername string, logger *slog.Logger) (*Service, error) {
	if defaultUsername == "" {
		defaultUsername = DefaultUsername
	}
	s := &Service{
		current: model.ProfileIdentity{CurrentUsername: defaultUsername},
		repo:    repo,
		logger:  logger,
	}

	stored, err := repo.Load(ctx)
	switch {
	case errors.Is(err, custom_errors.ErrIdentityNotFound):
		logger.Info("No stored profile identity, using defaults", "username", defaultUsername)
	case err != nil:
		return nil, fmt.Errorf("failed to load profile identity: %w", err)
	default:
		s.current = *stored
		logger.Info("Profile identity restored", "username", stored.CurrentUsername, "has_photo", stored.LocalPhotoURI != nil)
	}
	return s, nil
}

// Identity returns a copy of the current identity.
func (s *Service) Identity() model.ProfileIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyIdentity(s.current)
}

// SetUsername commits a username edit. The value is trimmed before validation.
func (s *Service) SetUsername(ctx context.Context, username string) (model.ProfileIdentity, error) {
	trimmed := strings.TrimSpace(username)
	if err := ValidateUsername(trimmed); err != nil {
		return model.ProfileIdentity{}, err
	}
	return s.update(ctx, func(id *model.ProfileIdentity) {
		id.CurrentUsername = trimmed
	})
}

// SetLocalPhoto overrides the profile avatar with a locally stored image.
func (s *Service) SetLocalPhoto(ctx context.Context, uri string) (model.ProfileIdentity, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return model.ProfileIdentity{}, errors.New("photo URI must not be empty")
	}
	return s.update(ctx, func(id *model.ProfileIdentity) {
		id.LocalPhotoURI = &uri
	})
}

// ClearLocalPhoto removes the local avatar override.
func (s *Service) ClearLocalPhoto(ctx context.Context) (model.ProfileIdentity, error) {
	return s.update(ctx, func(id *model.ProfileIdentity) {
		id.LocalPhotoURI = nil
	})
}

// update persists the mutated identity before publishing it.
func (s *Service) update(ctx context.Context, mutate func(id *model.ProfileIdentity)) (model.ProfileIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := copyIdentity(s.current)
	mutate(&next)
	if err := s.repo.Save(ctx, next); err != nil {
		return model.ProfileIdentity{}, fmt.Errorf("failed to save profile identity: %w", err)
	}
	s.current = next
	s.logger.Debug("Profile identity saved", "username", next.CurrentUsername, "has_photo", next.LocalPhotoURI != nil)
	return copyIdentity(next), nil
}

// ValidateUsername reports whether username is usable as a GitHub login.
func ValidateUsername(username string) error {
	if username == "" {
		return &custom_errors.ErrInvalidUsername{Username: username, Reason: "must not be empty"}
	}
	if len(username) > maxLoginLength || !loginPattern.MatchString(username) {
		return &custom_errors.ErrInvalidUsername{Username: username, Reason: "must be at most 39 letters, digits or single hyphens"}
	}
	return nil
}

func copyIdentity(id model.ProfileIdentity) model.ProfileIdentity {
	if id.LocalPhotoURI != nil {
		uri := *id.LocalPhotoURI
		id.LocalPhotoURI = &uri
	}
	return id
}

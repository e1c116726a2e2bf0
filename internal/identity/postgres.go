// internal/identity/postgres.go
package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github-repo-browser/internal/database"
	custom_errors "github-repo-browser/internal/errors"
	"github-repo-browser/internal/model"
)

// PostgresRepository stores the identity in the profile_identity table.
type PostgresRepository struct {
	q database.Querier
}

func NewPostgresRepository(q database.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

func (r *PostgresRepository) Load(ctx context.Context) (*model.ProfileIdentity, error) {
	row, err := r.q.GetProfileIdentity(ctx, identityKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, custom_errors.ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}

	id := &model.ProfileIdentity{CurrentUsername: row.CurrentUsername}
	if row.LocalPhotoUri.Valid {
		uri := row.LocalPhotoUri.String
		id.LocalPhotoURI = &uri
	}
	return id, nil
}

func (r *PostgresRepository) Save(ctx context.Context, id model.ProfileIdentity) error {
	_, err := r.q.UpsertProfileIdentity(ctx, database.UpsertProfileIdentityParams{
		Key:             identityKey,
		CurrentUsername: id.CurrentUsername,
		LocalPhotoUri:   toPGText(id.LocalPhotoURI),
	})
	return err
}

func toPGText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

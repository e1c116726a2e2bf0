// internal/database/queries.go
package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// ProfileIdentity is a row of the profile_identity table.
type ProfileIdentity struct {
	Key             string
	CurrentUsername string
	LocalPhotoUri   pgtype.Text
	UpdatedAt       time.Time
}

// UpsertProfileIdentityParams holds the columns written by UpsertProfileIdentity.
type UpsertProfileIdentityParams struct {
	Key             string
	CurrentUsername string
	LocalPhotoUri   pgtype.Text
}

// Querier lists every query used by the application.
type Querier interface {
	GetProfileIdentity(ctx context.Context, key string) (ProfileIdentity, error)
	UpsertProfileIdentity(ctx context.Context, arg UpsertProfileIdentityParams) (ProfileIdentity, error)
}

// Queries implements Querier on top of a DBTX.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

var _ Querier = (*Queries)(nil)

const getProfileIdentity = `-- name: GetProfileIdentity :one
SELECT key, current_username, local_photo_uri, updated_at
FROM profile_identity
WHERE key = $1
`

func (q *Queries) GetProfileIdentity(ctx context.Context, key string) (ProfileIdentity, error) {
	row := q.db.QueryRow(ctx, getProfileIdentity, key)
	var i ProfileIdentity
	err := row.Scan(
		&i.Key,
		&i.CurrentUsername,
		&i.LocalPhotoUri,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertProfileIdentity = `-- name: UpsertProfileIdentity :one
INSERT INTO profile_identity (key, current_username, local_photo_uri, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (key) DO UPDATE
SET current_username = EXCLUDED.current_username,
    local_photo_uri  = EXCLUDED.local_photo_uri,
    updated_at       = NOW()
RETURNING key, current_username, local_photo_uri, updated_at
`

func (q *Queries) UpsertProfileIdentity(ctx context.Context, arg UpsertProfileIdentityParams) (ProfileIdentity, error) {
	row := q.db.QueryRow(ctx, upsertProfileIdentity, arg.Key, arg.CurrentUsername, arg.LocalPhotoUri)
	var i ProfileIdentity
	err := row.Scan(
		&i.Key,
		&i.CurrentUsername,
		&i.LocalPhotoUri,
		&i.UpdatedAt,
	)
	return i, err
}

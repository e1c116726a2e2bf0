// internal/identity/bolt.go
package identity

import (
	"context"
	"encoding/json"
	"time"

	"go.etcd.io/bbolt"

	custom_errors "github-repo-browser/internal/errors"
	"github-repo-browser/internal/model"
)

const boltBucketIdentity = "identity" // key: "profile" -> ProfileIdentity JSON

// BoltRepository keeps the identity in a local bbolt file, the device-local default.
type BoltRepository struct {
	db *bbolt.DB
}

// OpenBolt opens (or creates) the database file at path.
func OpenBolt(path string) (*BoltRepository, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketIdentity))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltRepository{db: db}, nil
}

func (b *BoltRepository) Close() error {
	return b.db.Close()
}

func (b *BoltRepository) Load(_ context.Context) (*model.ProfileIdentity, error) {
	var id *model.ProfileIdentity
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(boltBucketIdentity)).Get([]byte(identityKey))
		if data == nil {
			return custom_errors.ErrIdentityNotFound
		}
		id = &model.ProfileIdentity{}
		return json.Unmarshal(data, id)
	})
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (b *BoltRepository) Save(_ context.Context, id model.ProfileIdentity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketIdentity)).Put([]byte(identityKey), data)
	})
}

package session

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

// DefaultBoltBucket is the bucket used when [OpenBoltBackend] is given no bucket name.
const DefaultBoltBucket = "credentials"

// BoltBackend is a [Backend] persisted to a local BBolt file. It backs the CLI so a
// login survives process restarts the way browser local storage does.
type BoltBackend struct {
	db     *bbolt.DB
	bucket []byte
}

// NewBoltBackend wraps an open BBolt database.
func NewBoltBackend(db *bbolt.DB, bucket string) *BoltBackend {
	if bucket == "" {
		bucket = DefaultBoltBucket
	}
	return &BoltBackend{db: db, bucket: []byte(bucket)}
}

// OpenBoltBackend opens (or creates) the BBolt file at path.
func OpenBoltBackend(path, bucket string, options *bbolt.Options) (*BoltBackend, error) {
	db, err := bbolt.Open(path, 0o600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewBoltBackend(db, bucket), nil
}

// Close closes the underlying BBolt database.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}

func (b *BoltBackend) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return nil
		}
		// data is only valid inside the transaction.
		value = string(data)
		found = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return value, found, nil
}

func (b *BoltBackend) Set(_ context.Context, key, value string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(b.bucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), []byte(value))
	})
}

func (b *BoltBackend) Delete(_ context.Context, key string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
}

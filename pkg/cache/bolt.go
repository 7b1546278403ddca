// ABOUTME: bbolt-backed persistent buffer store
// ABOUTME: Keeps one record per source URL in the "buffers" bucket
package cache

import (
	"context"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("buffers")

// BoltStore is a Store in a bbolt database file
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates the database at path
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Path returns the database file path
func (s *BoltStore) Path() string {
	return s.db.Path()
}

// Store writes rec, replacing any record for the same URL
func (s *BoltStore) Store(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := rec.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", rec.URL, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(rec.URL), data)
	})
}

// Retrieve reads the record for url
func (s *BoltStore) Retrieve(ctx context.Context, url string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	var rec Record
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketName).Get([]byte(url))
		if data == nil {
			return ErrNotFound
		}
		var err error
		rec, err = UnmarshalRecord(url, data)
		return err
	})
	return rec, err
}

// Delete removes the record for url
func (s *BoltStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(url))
	})
}

// Clear drops and recreates the bucket
func (s *BoltStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketName); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketName)
		return err
	})
}

// Keys lists stored URLs in key order
func (s *BoltStore) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Close closes the database file
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Package boltstore provides a BoltDB-backed Storage.
package boltstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/krisalay/request-cache/storage"
	"go.etcd.io/bbolt"
)

const referenceBucket = "reference"

// Store keeps every key in a single bucket.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get fetches the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s == nil || s.db == nil {
		return "", storage.ErrUnavailable
	}

	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(referenceBucket))
		if bucket == nil {
			return fmt.Errorf("reference bucket is missing")
		}
		payload := bucket.Get([]byte(key))
		if payload == nil {
			return storage.ErrNotFound
		}
		// payload is only valid inside the transaction.
		value = string(payload)
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set replaces the value stored under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return storage.ErrUnavailable
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("storage key is required")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(referenceBucket))
		if bucket == nil {
			return fmt.Errorf("reference bucket is missing")
		}
		return bucket.Put([]byte(key), []byte(value))
	})
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(referenceBucket)); err != nil {
			return fmt.Errorf("create reference bucket: %w", err)
		}
		return nil
	})
}

// Package filestore persists each key as a small file under a directory,
// the way desktop apps keep version-check caches under ~/.config.
package filestore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/krisalay/request-cache/storage"
)

const fileExt = ".cache.json"

// Store writes one file per key.
type Store struct {
	dir string
}

// Open prepares dir for use, creating it if needed.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// DefaultDir returns ~/.config/<app>/cache, or "" when there is no home.
func DefaultDir(app string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", app, "cache")
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("read %q: %w", key, err)
	}
	return string(data), nil
}

// Set writes to a temp file and renames it over the old one, so readers
// never see a half-written value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("storage key is required")
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(value); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %q: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return fmt.Errorf("replace %q: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

// path encodes the key so any string is a safe file name.
func (s *Store) path(key string) string {
	return filepath.Join(s.dir, base64.RawURLEncoding.EncodeToString([]byte(key))+fileExt)
}

// Package storagetest holds the behavior every Storage backend must share.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/krisalay/request-cache/storage"
)

// Run exercises a backend. open must return a fresh, empty store.
func Run(t *testing.T, open func(t *testing.T) storage.Storage) {
	t.Helper()

	t.Run("get missing", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		_, err := s.Get(context.Background(), "municipios_pr_cache_v1")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		value := `{"data":[{"id":1,"nome":"Curitiba"}],"expiresAt":1767225600000}`
		if err := s.Set(context.Background(), "municipios_pr_cache_v1", value); err != nil {
			t.Fatalf("set: %v", err)
		}
		got, err := s.Get(context.Background(), "municipios_pr_cache_v1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got != value {
			t.Fatalf("expected %q, got %q", value, got)
		}
	})

	t.Run("set replaces", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		ctx := context.Background()
		if err := s.Set(ctx, "k", "first"); err != nil {
			t.Fatalf("set first: %v", err)
		}
		if err := s.Set(ctx, "k", "second"); err != nil {
			t.Fatalf("set second: %v", err)
		}
		got, err := s.Get(ctx, "k")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got != "second" {
			t.Fatalf("expected second, got %q", got)
		}
	})

	t.Run("empty key rejected", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		if err := s.Set(context.Background(), " ", "v"); err == nil {
			t.Fatalf("expected error for empty key")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := open(t)
		defer s.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := s.Set(ctx, "k", "v"); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

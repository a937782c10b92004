package writepolicy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

type recordingWriter struct {
	mu     sync.Mutex
	writes []string
	block  chan struct{}
	err    error
}

func (r *recordingWriter) Set(ctx context.Context, key, value string) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, key+"="+value)
	return r.err
}

func (r *recordingWriter) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriteThroughReturnsStorageError(t *testing.T) {
	boom := errors.New("disk full")
	w := NewWriteThroughPolicy(&recordingWriter{err: boom})

	if err := w.OnWrite(context.Background(), "municipios", "v"); !errors.Is(err, boom) {
		t.Fatalf("expected disk full, got %v", err)
	}
}

func TestWriteBackFlushesOnClose(t *testing.T) {
	rec := &recordingWriter{}
	w := NewWriteBackPolicy(rec, 8, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	for _, v := range []string{"v1", "v2", "v3"} {
		if err := w.OnWrite(ctx, "municipios", v); err != nil {
			t.Fatalf("enqueue %s: %v", v, err)
		}
	}
	cancel()
	w.Close()

	got := rec.all()
	want := []string{"municipios=v1", "municipios=v2", "municipios=v3"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestWriteBackDropsWhenFull(t *testing.T) {
	rec := &recordingWriter{block: make(chan struct{})}
	w := NewWriteBackPolicy(rec, 1, quietLogger())

	var full bool
	for i := 0; i < 5; i++ {
		if err := w.OnWrite(context.Background(), "k", "v"); errors.Is(err, ErrQueueFull) {
			full = true
			break
		}
	}
	close(rec.block)
	w.Close()

	if !full {
		t.Fatalf("expected queue to report full")
	}
}

func TestWriteBackRejectsAfterClose(t *testing.T) {
	w := NewWriteBackPolicy(&recordingWriter{}, 1, quietLogger())
	w.Close()
	w.Close()

	if err := w.OnWrite(context.Background(), "k", "v"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

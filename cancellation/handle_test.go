package cancellation

import (
	"context"
	"errors"
	"testing"

	"github.com/krisalay/request-cache/types"
)

func TestCancelIsIdempotent(t *testing.T) {
	h := New(context.Background())

	h.Cancel()
	h.Cancel()

	if !h.Cancelled() {
		t.Fatalf("expected handle to be cancelled")
	}
	select {
	case <-h.Done():
	default:
		t.Fatalf("expected context to be done")
	}
	if !Requested(h.Context()) {
		t.Fatalf("expected cancellation to be observable from the context")
	}
	if !errors.Is(context.Cause(h.Context()), types.ErrCancelled) {
		t.Fatalf("expected cause ErrCancelled, got %v", context.Cause(h.Context()))
	}
}

func TestReleaseIsNotCancellation(t *testing.T) {
	h := New(context.Background())
	h.Release()

	if h.Cancelled() {
		t.Fatalf("release must not mark the handle cancelled")
	}
	if Requested(h.Context()) {
		t.Fatalf("release must not look like supersession")
	}

	// Cancel after release still records the request.
	h.Cancel()
	if !h.Cancelled() {
		t.Fatalf("expected cancel after release to be recorded")
	}
}

func TestParentCancellationIsNotSupersession(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	h := New(parent)
	cancel()

	<-h.Done()
	if h.Cancelled() {
		t.Fatalf("parent cancellation must not count as supersession")
	}
	if Requested(h.Context()) {
		t.Fatalf("parent cancellation must not look like supersession")
	}
}

func TestNilHandleIsSafe(t *testing.T) {
	var h *Handle
	h.Cancel()
	h.Release()
	if h.Cancelled() {
		t.Fatalf("nil handle reports cancelled")
	}
}

// Package cancellation provides the cooperative cancellation token handed to
// every fetch. Cancelling a handle never stops a fetch by force; it marks the
// result as unwanted and cancels the context the fetcher was given.
package cancellation

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/krisalay/request-cache/types"
)

// errReleased is the context cause after a fetch settled normally.
var errReleased = errors.New("fetch settled")

// Handle is one fetch's cancellation token.
type Handle struct {
	ctx       context.Context
	cancel    context.CancelCauseFunc
	cancelled atomic.Bool
}

// New derives a handle from parent. Cancelling parent also cancels the
// handle's context, but does not count as supersession.
func New(parent context.Context) *Handle {
	ctx, cancel := context.WithCancelCause(parent)
	return &Handle{ctx: ctx, cancel: cancel}
}

// Context returns the context the fetcher must observe.
func (h *Handle) Context() context.Context {
	return h.ctx
}

// Done is closed once the handle is cancelled, released, or its parent ends.
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Cancel signals that the result is no longer wanted. Safe to call any
// number of times, from any goroutine.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	if h.cancelled.CompareAndSwap(false, true) {
		h.cancel(types.ErrCancelled)
	}
}

// Cancelled reports whether Cancel was called.
func (h *Handle) Cancelled() bool {
	return h != nil && h.cancelled.Load()
}

// Release frees the context once the fetch settled. It does not mark the
// handle cancelled.
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.cancel(errReleased)
}

// Requested reports whether the fetch owning ctx was superseded. Fetchers
// call it at suspension points when they cannot simply pass ctx along.
func Requested(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), types.ErrCancelled)
}

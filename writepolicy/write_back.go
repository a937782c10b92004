package writepolicy

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueFull is returned when a write-back write is dropped.
var ErrQueueFull = errors.New("write-back queue full")

// ErrClosed is returned for writes issued after Close.
var ErrClosed = errors.New("write policy closed")

// writeReq is one pending write.
type writeReq struct {
	ctx   context.Context
	key   string
	value string
}

/*
WriteBackPolicy queues writes for a single background worker.

Writes to the same key stay in order because there is one worker. When the
queue is full the write is dropped and reported, the entry will simply be
refetched after the next restart.
*/
type WriteBackPolicy struct {
	store  Writer
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	ch     chan writeReq
	wg     sync.WaitGroup
}

// NewWriteBackPolicy starts the worker. buffer is the queue length.
func NewWriteBackPolicy(store Writer, buffer int, logger *slog.Logger) *WriteBackPolicy {
	if logger == nil {
		logger = slog.Default()
	}
	w := &WriteBackPolicy{
		store:  store,
		logger: logger,
		ch:     make(chan writeReq, buffer),
	}

	w.wg.Add(1)
	go w.worker()

	return w
}

// OnWrite enqueues the write. The caller's cancellation does not reach the
// worker, a refresh that already succeeded should still be persisted.
func (w *WriteBackPolicy) OnWrite(ctx context.Context, key, value string) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrClosed
	}

	select {
	case w.ch <- writeReq{context.WithoutCancel(ctx), key, value}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *WriteBackPolicy) worker() {
	defer w.wg.Done()

	for req := range w.ch {
		if err := w.store.Set(req.ctx, req.key, req.value); err != nil {
			w.logger.Warn("write-back failed", "key", req.key, "err", err)
		}
	}
}

// Close stops accepting writes and waits for the queue to drain.
func (w *WriteBackPolicy) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	close(w.ch)
	w.mu.Unlock()

	w.wg.Wait()
}

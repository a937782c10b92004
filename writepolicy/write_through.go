package writepolicy

import "context"

// WriteThroughPolicy writes synchronously: OnWrite returns the storage error.
type WriteThroughPolicy struct {
	store Writer
}

func NewWriteThroughPolicy(store Writer) *WriteThroughPolicy {
	return &WriteThroughPolicy{store: store}
}

func (w *WriteThroughPolicy) OnWrite(ctx context.Context, key, value string) error {
	return w.store.Set(ctx, key, value)
}

// Close has nothing to flush.
func (w *WriteThroughPolicy) Close() {}

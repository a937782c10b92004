package types

import "time"

// This file defines how the caches report what they are doing.

/*
Metrics is the set of events the caches emit.
Each method represents one step in the lifecycle of a fetch. Implementations
must be safe for concurrent use, the cache calls them from many goroutines.
*/
type Metrics interface {

	// Hit is called when a fresh value is served without calling the fetcher.
	Hit()

	// Miss is called when the fetcher is invoked, either because nothing fresh
	// was cached or because the caller forced a refetch.
	Miss()

	// Stale is called when a fetch failed and the last known value was served instead.
	Stale()

	// Superseded is called when an in-flight fetch is cancelled by a newer call for the same key.
	Superseded()

	// Failure is called when a fetch failed and there was nothing to fall back on.
	Failure()

	// Eviction is called when a key is dropped because the cache reached its capacity.
	Eviction()

	// Refresh is called when a hit schedules a background refresh.
	Refresh()

	// Latency is called with the duration of every fetcher invocation.
	Latency(time.Duration)
}

/*
NoopMetrics ignores every event.

Components default to it so the hot path never needs a nil check.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()        {}
func (NoopMetrics) Miss()       {}
func (NoopMetrics) Stale()      {}
func (NoopMetrics) Superseded() {}
func (NoopMetrics) Failure()    {}
func (NoopMetrics) Eviction()   {}
func (NoopMetrics) Refresh()    {}

func (NoopMetrics) Latency(time.Duration) {}

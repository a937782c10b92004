package types

import "context"

// Fetcher is the contract between the cache and the remote source.
type Fetcher interface {

	/*
		Fetch is called when the cache has no fresh value for a key.
		1. Cache cancels any older in-flight fetch for the key
		2. Cache checks memory → missing, expired or forced fresh
		3. Cache calls Fetch(ctx) with a context that is cancelled on supersession
		4. Fetcher talks to the API and returns a value or an error
		5. Cache commits the value if no newer fetch already did

		The context is cancelled when a newer call for the same key supersedes
		this one. Fetchers should pass it to every blocking call. A fetcher that
		ignores it still runs to completion, its result is fenced by generation.

		Fetch may run more than once for the same key under rapid supersession,
		so it must be idempotent and free of side effects beyond reading.
	*/
	Fetch(ctx context.Context) (any, error)
}

// FetcherFunc adapts an ordinary function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (any, error)

// Fetch calls f(ctx).
func (f FetcherFunc) Fetch(ctx context.Context) (any, error) {
	return f(ctx)
}

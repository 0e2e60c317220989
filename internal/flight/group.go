// Package flight coalesces concurrent fetches for the same key so a burst
// of identical requests produces a single upstream call. Results are not
// retained once the fetch settles; the durable cache tables are the only
// place resolved records live between requests.
package flight

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

const (
	numShards          = 64
	evictionPercentage = 10
)

// Group deduplicates in-flight fetches per key. Callers that arrive while a
// fetch is running join it and share its result.
type Group[T any] struct {
	client *sturdyc.Client[T]
}

// NewGroup creates a Group holding at most capacity in-flight entries. ttl
// bounds how long a stuck entry can linger before eviction.
func NewGroup[T any](capacity int, ttl time.Duration) *Group[T] {
	return &Group[T]{
		client: sturdyc.New[T](capacity, numShards, ttl, evictionPercentage),
	}
}

// Do returns the value for key, invoking fetch at most once per key across
// concurrent callers. Fetch errors are returned to every waiter. The key is
// dropped once the fetch settles, so a later call always refetches.
func (g *Group[T]) Do(ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := g.client.GetOrFetch(ctx, key, fetch)
	g.client.Delete(key)
	return v, err
}

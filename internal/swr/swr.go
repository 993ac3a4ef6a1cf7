// Package swr implements the cache-then-revalidate loading convention
// used by dashboard and list screens: a persisted last-known-good
// payload is delivered immediately, then a background fetch replaces it
// and refreshes the cache. The screen always has something to paint
// before any network latency is paid.
package swr

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/atelierhq/client-platform/internal/store"
	"github.com/atelierhq/client-platform/pkg/logger"
	"github.com/atelierhq/client-platform/pkg/metrics"
)

// Snapshot is one emission of a resource's data. Stale marks the cached
// paint; the revalidated value follows with Stale=false.
type Snapshot[T any] struct {
	Value T
	Stale bool
}

// FetchFunc loads the fresh value from the network.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Resource binds a logical cache key to a typed payload.
type Resource[T any] struct {
	key    string
	cache  *store.CacheStore
	logger *logger.Logger

	mu     sync.Mutex
	loaded bool
}

// NewResource creates a resource for the given cache key.
func NewResource[T any](key string, cache *store.CacheStore, log *logger.Logger) *Resource[T] {
	return &Resource[T]{key: key, cache: cache, logger: log}
}

// Load emits the cached snapshot (if any) through onData, then fetches
// the fresh value, emits it, and persists it. The cached emission
// happens at most once per resource regardless of how many times Load
// is called. A cached payload that fails to decode counts as a miss.
// The fetch error, if any, is returned; the cached paint stands either way.
func (r *Resource[T]) Load(ctx context.Context, fetch FetchFunc[T], onData func(Snapshot[T])) error {
	r.mu.Lock()
	if !r.loaded {
		r.loaded = true
		var cached T
		if r.cache.Read(r.key, &cached) {
			metrics.RecordCacheRead(r.key, "hit")
			r.mu.Unlock()
			onData(Snapshot[T]{Value: cached, Stale: true})
		} else {
			metrics.RecordCacheRead(r.key, "miss")
			r.mu.Unlock()
		}
	} else {
		r.mu.Unlock()
	}

	fresh, err := fetch(ctx)
	if err != nil {
		return err
	}

	onData(Snapshot[T]{Value: fresh})
	r.Save(fresh)
	return nil
}

// Save persists value as the new last-known-good payload. Persistence
// failure is logged and otherwise ignored; it never affects the caller.
func (r *Resource[T]) Save(value T) {
	if err := r.cache.Write(r.key, value); err != nil {
		r.logger.Warn("failed to persist cache payload",
			zap.String("key", r.key), zap.Error(err))
	}
}

// Invalidate drops the persisted payload and re-arms the one-shot
// cached emission, so the next Load starts cold.
func (r *Resource[T]) Invalidate() {
	r.mu.Lock()
	r.loaded = false
	r.mu.Unlock()
	if err := r.cache.Drop(r.key); err != nil {
		r.logger.Warn("failed to drop cache payload",
			zap.String("key", r.key), zap.Error(err))
	}
}

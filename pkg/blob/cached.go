package blob

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/blobdrop/pkg/cache"
)

// CachedStore keeps object descriptors in a cache in front of a Store.
// Content is never cached; only Head results are. Writes invalidate the
// cached descriptor instead of replacing it.
type CachedStore struct {
	store  Store
	cache  cache.Cache[Object]
	ttl    time.Duration
	writes atomic.Uint64
}

// Cached wraps store with a descriptor cache. A zero ttl uses the cache default.
func Cached(store Store, c cache.Cache[Object], ttl time.Duration) *CachedStore {
	return &CachedStore{store: store, cache: c, ttl: ttl}
}

// Put stores the blob and drops any cached descriptor for key.
// A failed invalidation is reported as ErrCacheInvalidation.
func (s *CachedStore) Put(ctx context.Context, key string, r io.Reader, opts ...PutOption) (*Object, error) {
	obj, err := s.store.Put(ctx, key, r, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.invalidate(ctx, key); err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *CachedStore) Get(ctx context.Context, key string) (io.ReadCloser, *Object, error) {
	return s.store.Get(ctx, key)
}

// Head serves descriptors from the cache, loading misses from the store once
// per key however many callers ask concurrently. If a write lands while the
// load is in flight, the loaded descriptor may be stale: it is dropped from
// the cache and the store is asked again.
func (s *CachedStore) Head(ctx context.Context, key string) (*Object, error) {
	seen := s.writes.Load()
	obj, err := cache.GetOrSet(ctx, s.cache, key, s.ttl, func(ctx context.Context) (Object, error) {
		o, err := s.store.Head(ctx, key)
		if err != nil {
			return Object{}, err
		}
		return *o, nil
	})
	if err != nil {
		return nil, err
	}
	if s.writes.Load() != seen {
		if err := s.cache.Delete(ctx, key); err != nil {
			return nil, errors.Join(ErrCacheInvalidation, err)
		}
		return s.store.Head(ctx, key)
	}
	return &obj, nil
}

// Delete removes the blob, then its cached descriptor.
func (s *CachedStore) Delete(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	return s.invalidate(ctx, key)
}

func (s *CachedStore) invalidate(ctx context.Context, key string) error {
	s.writes.Add(1)
	if err := s.cache.Delete(ctx, key); err != nil {
		return errors.Join(ErrCacheInvalidation, err)
	}
	return nil
}

// Ping delegates to the wrapped store when it supports it.
func (s *CachedStore) Ping(ctx context.Context) error {
	if p, ok := s.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

var (
	_ Store  = (*CachedStore)(nil)
	_ Pinger = (*CachedStore)(nil)
)

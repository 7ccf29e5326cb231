package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache is a key-value cache for values of type V.
//
// A zero TTL passed to Set falls back to the cache's default; a negative TTL
// stores the value without expiry.
type Cache[V any] interface {
	// Get returns ErrNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) (V, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

func encode[V any](v V) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return data, nil
}

func decode[V any](data []byte) (V, error) {
	var v V
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errors.Join(ErrUnmarshal, err)
	}
	return v, nil
}

var loads singleflight.Group

// GetOrSet returns the cached value for key, or loads it with fn on a miss.
// Concurrent misses for the same key on the same cache share one fn call.
// The shared load runs detached from any single caller's cancellation; a
// caller whose ctx ends stops waiting and gets ctx.Err() while the others
// keep waiting for the result.
// Errors from fn are returned as is and nothing is cached.
// A failure to store the loaded value is ignored.
func GetOrSet[V any](ctx context.Context, c Cache[V], key string, ttl time.Duration, fn func(ctx context.Context) (V, error)) (V, error) {
	var zero V
	if v, err := c.Get(ctx, key); err == nil {
		return v, nil
	}
	loadCtx := context.WithoutCancel(ctx)
	ch := loads.DoChan(fmt.Sprintf("%p|%s", c, key), func() (any, error) {
		val, err := fn(loadCtx)
		if err != nil {
			return nil, err
		}
		_ = c.Set(loadCtx, key, val, ttl)
		return val, nil
	})
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

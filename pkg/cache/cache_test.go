package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/blobdrop/pkg/cache"
)

func TestMemory_GetSet(t *testing.T) {
	t.Parallel()

	t.Run("miss returns ErrNotFound", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		_, err := c.Get(context.Background(), "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("returns stored value", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "k", 42, time.Minute))

		v, err := c.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, 42, v)
	})

	t.Run("overwrites existing value", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "k", "a", time.Minute))
		require.NoError(t, c.Set(ctx, "k", "b", time.Minute))

		v, err := c.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, "b", v)
		require.Equal(t, 1, c.Len())
	})

	t.Run("expired entry is dropped on access", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "k", "v", time.Millisecond))

		time.Sleep(5 * time.Millisecond)

		_, err := c.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrNotFound)
		require.Zero(t, c.Len())
	})

	t.Run("negative ttl never expires", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithDefaultTTL(time.Millisecond))
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "k", "v", -1))

		time.Sleep(5 * time.Millisecond)

		v, err := c.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, "v", v)
	})

	t.Run("zero ttl uses default", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](cache.WithDefaultTTL(time.Millisecond))
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "k", "v", 0))

		time.Sleep(5 * time.Millisecond)

		_, err := c.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})
}

func TestMemory_Delete(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[string]()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "never-set"))

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestMemory_MaxEntries(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[int](cache.WithMaxEntries(2))
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "soon", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "later", 2, time.Hour))
	require.NoError(t, c.Set(ctx, "new", 3, time.Hour))

	require.Equal(t, 2, c.Len())

	_, err := c.Get(ctx, "soon")
	require.ErrorIs(t, err, cache.ErrNotFound)

	v, err := c.Get(ctx, "new")
	require.NoError(t, err)
	require.Equal(t, 3, v)
}

func TestMemory_Close(t *testing.T) {
	t.Parallel()

	c := cache.NewMemory[string]()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err := c.Get(ctx, "k")
	require.ErrorIs(t, err, cache.ErrClosed)
	require.ErrorIs(t, c.Set(ctx, "k", "v", time.Minute), cache.ErrClosed)
	require.ErrorIs(t, c.Delete(ctx, "k"), cache.ErrClosed)
}

func TestGetOrSet(t *testing.T) {
	t.Parallel()

	t.Run("hit skips loader", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		ctx := context.Background()
		require.NoError(t, c.Set(ctx, "k", "cached", time.Minute))

		v, err := cache.GetOrSet(ctx, c, "k", time.Minute, func(context.Context) (string, error) {
			t.Fatal("loader must not run on a hit")
			return "", nil
		})
		require.NoError(t, err)
		require.Equal(t, "cached", v)
	})

	t.Run("miss loads and stores", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		ctx := context.Background()

		v, err := cache.GetOrSet(ctx, c, "k", time.Minute, func(context.Context) (string, error) {
			return "loaded", nil
		})
		require.NoError(t, err)
		require.Equal(t, "loaded", v)

		stored, err := c.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, "loaded", stored)
	})

	t.Run("loader error is returned and not cached", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		ctx := context.Background()
		boom := errors.New("boom")

		_, err := cache.GetOrSet(ctx, c, "k", time.Minute, func(context.Context) (string, error) {
			return "", boom
		})
		require.ErrorIs(t, err, boom)

		_, err = c.Get(ctx, "k")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("concurrent misses share one load", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int]()
		ctx := context.Background()

		var calls atomic.Int32
		release := make(chan struct{})

		const n = 10
		var wg sync.WaitGroup
		results := make([]int, n)
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := cache.GetOrSet(ctx, c, "k", time.Minute, func(context.Context) (int, error) {
					calls.Add(1)
					<-release
					return 7, nil
				})
				assert.NoError(t, err)
				results[i] = v
			}()
		}

		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		require.Equal(t, int32(1), calls.Load())
		for _, v := range results {
			require.Equal(t, 7, v)
		}
	})

	t.Run("cancelled caller does not fail other waiters", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string]()
		started := make(chan struct{})
		release := make(chan struct{})
		loader := func(ctx context.Context) (string, error) {
			close(started)
			<-release
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return "loaded", nil
		}

		first, cancel := context.WithCancel(context.Background())
		firstErr := make(chan error, 1)
		go func() {
			_, err := cache.GetOrSet(first, c, "k", time.Minute, loader)
			firstErr <- err
		}()
		<-started

		type result struct {
			v   string
			err error
		}
		second := make(chan result, 1)
		go func() {
			v, err := cache.GetOrSet(context.Background(), c, "k", time.Minute, func(context.Context) (string, error) {
				return "", errors.New("second loader must not run")
			})
			second <- result{v, err}
		}()

		cancel()
		require.ErrorIs(t, <-firstErr, context.Canceled)

		time.Sleep(10 * time.Millisecond)
		close(release)

		res := <-second
		require.NoError(t, res.err)
		require.Equal(t, "loaded", res.v)

		stored, err := c.Get(context.Background(), "k")
		require.NoError(t, err)
		require.Equal(t, "loaded", stored)
	})

	t.Run("same key on different caches loads separately", func(t *testing.T) {
		t.Parallel()

		a := cache.NewMemory[string]()
		b := cache.NewMemory[string]()
		ctx := context.Background()

		va, err := cache.GetOrSet(ctx, a, "k", time.Minute, func(context.Context) (string, error) { return "a", nil })
		require.NoError(t, err)
		vb, err := cache.GetOrSet(ctx, b, "k", time.Minute, func(context.Context) (string, error) { return "b", nil })
		require.NoError(t, err)

		require.Equal(t, "a", va)
		require.Equal(t, "b", vb)
	})
}

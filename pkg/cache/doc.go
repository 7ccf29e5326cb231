// Package cache provides a small generic cache with in-memory and Redis backends.
//
// Both backends implement [Cache]. [Memory] suits single-process deployments
// and tests; [Redis] shares entries across replicas:
//
//	c := cache.NewRedis[blob.Object](client, "blobdrop:head", 5*time.Minute)
//
// [GetOrSet] wraps a loader so concurrent misses on the same key hit the
// backing source once:
//
//	obj, err := cache.GetOrSet(ctx, c, key, 0, func(ctx context.Context) (blob.Object, error) {
//	    return load(ctx, key)
//	})
package cache

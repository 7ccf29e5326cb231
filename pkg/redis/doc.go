// Package redis opens go-redis clients from connection URLs and exposes the
// health check and shutdown hooks the server wires in.
//
//	client, err := redis.Open(ctx, cfg.RedisURL, redis.WithPoolSize(20))
//	if err != nil {
//	    return err
//	}
//	app := internal.New(
//	    internal.WithShutdownHook(redis.Shutdown(client)),
//	)
package redis

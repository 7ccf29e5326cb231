// Package health serves liveness and readiness probes.
//
// [LivenessHandler] always answers 200. [ReadinessHandler] runs the named
// [Checks] in parallel under a shared timeout and answers 503 when any of
// them fails. Both reply with plain text unless the client asks for JSON via
// ?format=json or an Accept header containing application/json:
//
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "blob":  store.Ping,
//	    "redis": redis.Healthcheck(client),
//	}))
package health

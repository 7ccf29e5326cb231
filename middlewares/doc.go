// Package middlewares provides HTTP middleware for blobdrop.
//
// # Request ID
//
// RequestID assigns an ID to each request. An incoming X-Request-ID or
// X-Correlation-ID header is kept; otherwise a UUID is generated.
// RequestIDExtractor adds the ID to every log record:
//
//	log, _ := logger.New(cfg, middlewares.RequestIDExtractor())
//
// # Logging
//
// Logging writes one record per request with method, path, status,
// response size and duration. 5xx responses are logged at error level.
//
// # Metrics
//
// Metrics collects request counters, a duration histogram and the upload
// outcome counter on its own Prometheus registry:
//
//	m := middlewares.NewMetrics(middlewares.WithMetricsNamespace("blobdrop"))
//	app := internal.New(
//	    internal.WithMount("/metrics", m.Handler()),
//	    internal.WithMiddleware(m.Middleware()),
//	)
//
// # Recover
//
// Recover turns panics into *PanicError for the app's ErrorHandler.
//
// # Order
//
//	internal.WithMiddleware(
//	    middlewares.RequestID(), // first: every later log line carries the ID
//	    middlewares.Logging(),
//	    metrics.Middleware(),
//	    middlewares.Recover(),   // last: panics become 500s the outer layers see
//	)
package middlewares

// Package logger builds the service's slog logger.
//
// Records are written as JSON (or text) and, when a Sentry DSN is configured,
// also forwarded to Sentry: errors become issues, warnings are kept as logs.
// Context extractors add request-scoped attributes such as the request ID:
//
//	log, err := logger.New(logger.Config{Level: "info"}, middlewares.RequestIDExtractor())
//	log.InfoContext(ctx, "blob stored", slog.String("key", key))
//	// {"level":"INFO","msg":"blob stored","key":"images/cat.png","request_id":"..."}
package logger

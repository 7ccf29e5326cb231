package middlewares

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/blobdrop/internal"
)

// LoggingOption configures the request logging middleware.
type LoggingOption func(*loggingConfig)

type loggingConfig struct {
	skip  map[string]bool
	level slog.Level
}

// WithLoggingSkipPaths disables logging for exact request paths.
func WithLoggingSkipPaths(paths ...string) LoggingOption {
	return func(cfg *loggingConfig) {
		for _, p := range paths {
			cfg.skip[p] = true
		}
	}
}

// WithLoggingLevel sets the level used for successful requests.
// Responses with status 5xx are always logged at error level.
func WithLoggingLevel(level slog.Level) LoggingOption {
	return func(cfg *loggingConfig) {
		cfg.level = level
	}
}

// Logging returns middleware that logs one record per request with
// method, path, status, response size and duration.
func Logging(opts ...LoggingOption) internal.Middleware {
	cfg := &loggingConfig{
		skip:  make(map[string]bool),
		level: slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			r := c.Request()
			if cfg.skip[r.URL.Path] {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			rw := c.ResponseWriter()
			attrs := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rw.Status()),
				slog.Int64("size", rw.Size()),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}

			level := cfg.level
			if err != nil || rw.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			c.Logger().Log(c, level, "http request", attrs...)

			return err
		}
	}
}

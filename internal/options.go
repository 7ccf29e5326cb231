package internal

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/blobdrop/pkg/health"
)

// Option configures the application.
type Option func(*App)

// WithMiddleware adds global middleware. The first one listed runs outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers handlers whose Routes are called during setup.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithErrorHandler sets the handler for errors returned by handlers and middleware.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithNotFoundHandler sets the handler for unmatched routes.
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.notFoundHandler = h
	}
}

// WithMethodNotAllowedHandler sets the handler for known routes hit with the wrong method.
func WithMethodNotAllowedHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.methodNotAllowedHandler = h
	}
}

// WithLogger sets the application logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMaxMemory sets how much of a multipart body is held in memory;
// the rest spills to temporary files. Default: 10 MiB.
func WithMaxMemory(n int64) Option {
	return func(a *App) {
		if n > 0 {
			a.maxMemory = n
		}
	}
}

// WithMount attaches a plain http.Handler outside the middleware stack,
// e.g. a Prometheus exporter.
func WithMount(pattern string, h http.Handler) Option {
	return func(a *App) {
		a.mounts = append(a.mounts, mount{pattern: pattern, handler: h})
	}
}

// WithHealthChecks enables /health/live and /health/ready.
//
// Example:
//
//	internal.WithHealthChecks(
//	    internal.WithReadinessCheck("blob", store.Ping),
//	    internal.WithReadinessCheck("redis", redis.Healthcheck(client)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
			checks:        make(health.Checks),
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}

const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

// HealthOption configures health endpoints.
type HealthOption func(*healthConfig)

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if fn != nil {
			c.checks[name] = fn
		}
	}
}

// WithLivenessPath overrides the liveness path.
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath overrides the readiness path.
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

package internal

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/blobdrop/pkg/health"
	"github.com/dmitrymomot/blobdrop/pkg/logger"
)

const (
	defaultReadTimeout       = 60 * time.Second
	defaultWriteTimeout      = 60 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20
	defaultShutdownTimeout   = 30 * time.Second
	defaultMaxMemory         = 10 << 20
)

// App wires routes, middleware and error handling on top of chi.
// It is immutable once New returns.
type App struct {
	router                  chi.Router
	errorHandler            ErrorHandler
	notFoundHandler         HandlerFunc
	methodNotAllowedHandler HandlerFunc
	healthConfig            *healthConfig
	logger                  *slog.Logger
	middlewares             []Middleware
	handlers                []Handler
	mounts                  []mount
	maxMemory               int64
}

type mount struct {
	handler http.Handler
	pattern string
}

// New creates an App.
//
// Example:
//
//	app := internal.New(
//	    internal.WithLogger(log),
//	    internal.WithErrorHandler(handlers.ErrorHandler(log)),
//	    internal.WithMiddleware(middlewares.RequestID(), middlewares.Recover()),
//	    internal.WithHandlers(handlers.NewUpload(store)),
//	)
func New(opts ...Option) *App {
	a := &App{
		router:    chi.NewRouter(),
		logger:    logger.NewNope(),
		maxMemory: defaultMaxMemory,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.setupRoutes()
	return a
}

// Router returns the root http.Handler.
func (a *App) Router() http.Handler {
	return a.router
}

// Run serves the app on addr until SIGINT/SIGTERM or the base context ends,
// then shuts down gracefully and runs shutdown hooks.
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if cfg.logger == nil {
		cfg.logger = a.logger
	}

	return runServer(runtimeConfig{
		handler:         a.router,
		address:         addr,
		logger:          cfg.logger,
		shutdownTimeout: cfg.shutdownTimeout,
		startupHooks:    cfg.startupHooks,
		shutdownHooks:   cfg.shutdownHooks,
		baseCtx:         cfg.baseCtx,
		onListen:        cfg.onListen,
	})
}

func (a *App) setupRoutes() {
	// Mounted handlers bypass app middleware.
	for _, m := range a.mounts {
		a.router.Mount(m.pattern, m.handler)
	}
	if a.healthConfig != nil {
		a.router.Get(a.healthConfig.livenessPath, health.LivenessHandler())
		a.router.Get(a.healthConfig.readinessPath, health.ReadinessHandler(a.healthConfig.checks, health.WithLogger(a.logger)))
	}

	r := &routerAdapter{router: a.router, app: a}
	r.Group(func(r Router) {
		r.Use(a.middlewares...)
		for _, h := range a.handlers {
			h.Routes(r)
		}
	})

	if a.notFoundHandler != nil {
		a.router.NotFound(a.wrapHandler(a.withMiddleware(a.notFoundHandler)))
	}
	if a.methodNotAllowedHandler != nil {
		a.router.MethodNotAllowed(a.wrapHandler(a.withMiddleware(a.methodNotAllowedHandler)))
	}
}

// withMiddleware applies global middleware to handlers chi calls outside any group.
func (a *App) withMiddleware(h HandlerFunc) HandlerFunc {
	for i := len(a.middlewares) - 1; i >= 0; i-- {
		h = a.middlewares[i](h)
	}
	return h
}

func (a *App) wrapHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, a)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// handleError renders err unless a response is already under way.
func (a *App) handleError(c Context, err error) {
	if c.Written() {
		c.LogError("error after response started", slog.Any("error", err))
		return
	}
	if a.errorHandler != nil {
		if herr := a.errorHandler(c, err); herr != nil {
			c.LogError("error handler failed", slog.Any("error", herr))
		}
		return
	}
	http.Error(c.Response(), http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

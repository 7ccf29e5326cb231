package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/blobdrop/handlers"
	"github.com/dmitrymomot/blobdrop/internal"
	"github.com/dmitrymomot/blobdrop/internal/config"
	"github.com/dmitrymomot/blobdrop/middlewares"
	"github.com/dmitrymomot/blobdrop/pkg/blob"
	"github.com/dmitrymomot/blobdrop/pkg/cache"
	"github.com/dmitrymomot/blobdrop/pkg/logger"
	redisconn "github.com/dmitrymomot/blobdrop/pkg/redis"
)

const sentryFlushTimeout = 2 * time.Second

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long: `Run the HTTP server until SIGINT or SIGTERM, then shut down gracefully.

Routes:
  POST /api/storage/upload     multipart field "file", images only
  GET  /api/storage/head/*     object descriptor
  GET  /api/storage/serve/*    object content
  GET  /health/live, /health/ready
  GET  /metrics                when METRICS_ENABLED=true`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}

			log, err := logger.New(logger.Config{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				Sentry: logger.SentryConfig{
					DSN:         cfg.Sentry.DSN,
					Environment: cfg.Sentry.Environment,
					Release:     cfg.App.Name + "@" + version,
				},
			}, middlewares.RequestIDExtractor())
			if err != nil {
				return err
			}
			log = log.With(slog.String("app", cfg.App.Name))

			srv, err := newServer(cmd.Context(), cfg, log)
			if err != nil {
				log.Error("startup failed", slog.Any("error", err))
				logger.Flush(sentryFlushTimeout)
				return err
			}

			return srv.run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")

	return cmd
}

// server is the wired application and what must be released on shutdown.
type server struct {
	app      *internal.App
	metrics  *middlewares.Metrics
	log      *slog.Logger
	shutdown []func(context.Context) error
}

// newServer builds the store stack and the HTTP app from cfg.
// Store stack, outermost first: traced -> cached (optional) -> driver.
func newServer(ctx context.Context, cfg *config.Config, log *slog.Logger) (*server, error) {
	s := &server{log: log}

	store, err := blob.New(cfg.Blob.Store())
	if err != nil {
		return nil, err
	}

	var checks []internal.HealthOption

	switch cfg.Cache.Backend {
	case config.CacheMemory:
		c := cache.NewMemory[blob.Object](cache.WithDefaultTTL(cfg.Cache.TTL))
		s.shutdown = append(s.shutdown, func(context.Context) error { return c.Close() })
		store = blob.Cached(store, c, cfg.Cache.TTL)

	case config.CacheRedis:
		client, err := redisconn.Open(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		s.shutdown = append(s.shutdown, redisconn.Shutdown(client))
		checks = append(checks, internal.WithReadinessCheck("redis", redisconn.Healthcheck(client)))
		store = blob.Cached(store, cache.NewRedis[blob.Object](client, cfg.App.Name+":blob", cfg.Cache.TTL), cfg.Cache.TTL)
	}

	traced := blob.Traced(store, nil)
	checks = append(checks, internal.WithReadinessCheck("blob", traced.Ping))

	opts := []internal.Option{
		internal.WithLogger(log),
		internal.WithErrorHandler(handlers.ErrorHandler(log)),
		internal.WithNotFoundHandler(handlers.NotFound),
		internal.WithMethodNotAllowedHandler(handlers.MethodNotAllowed),
		internal.WithMaxMemory(cfg.Upload.MaxMemory),
		internal.WithHealthChecks(checks...),
	}

	mws := []internal.Middleware{
		middlewares.RequestID(),
		middlewares.Logging(),
	}
	uploadOpts := []handlers.UploadOption{
		handlers.WithMaxBytes(cfg.Upload.MaxBytes),
		handlers.WithSpoolMemory(cfg.Upload.MaxMemory),
	}

	if cfg.Metrics.Enabled {
		s.metrics = middlewares.NewMetrics(middlewares.WithMetricsNamespace(metricsNamespace(cfg.App.Name)))
		opts = append(opts, internal.WithMount("/metrics", s.metrics.Handler()))
		mws = append(mws, s.metrics.Middleware())
		uploadOpts = append(uploadOpts, handlers.WithUploadRecorder(s.metrics))
	}
	mws = append(mws, middlewares.Recover())

	opts = append(opts,
		internal.WithMiddleware(mws...),
		internal.WithHandlers(
			handlers.NewUpload(traced, uploadOpts...),
			handlers.NewBlobs(traced),
		),
	)

	s.app = internal.New(opts...)
	return s, nil
}

func (s *server) run(ctx context.Context, cfg *config.Config) error {
	opts := []internal.RunOption{
		internal.WithContext(ctx),
		internal.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
		internal.StartupHook(func(context.Context) error {
			s.log.Info("blob store ready",
				slog.String("driver", cfg.Blob.Driver),
				slog.String("cache", cfg.Cache.Backend),
				slog.Bool("metrics", cfg.Metrics.Enabled),
			)
			return nil
		}),
	}
	for _, fn := range s.shutdown {
		opts = append(opts, internal.ShutdownHook(fn))
	}
	opts = append(opts, internal.ShutdownHook(func(context.Context) error {
		logger.Flush(sentryFlushTimeout)
		return nil
	}))

	return s.app.Run(cfg.HTTP.Addr, opts...)
}

// metricsNamespace turns an app name into a valid Prometheus namespace.
func metricsNamespace(name string) string {
	ns := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if ns == "" || (ns[0] >= '0' && ns[0] <= '9') {
		ns = "_" + ns
	}
	return ns
}

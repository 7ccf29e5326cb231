package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// ErrInvalidConfig is returned for an unknown level or format.
var ErrInvalidConfig = errors.New("logger: invalid configuration")

// Config describes the root logger.
type Config struct {
	// Level is a slog level name: debug, info, warn or error. Default: info.
	Level string
	// Format is json or text. Default: json.
	Format string
	// Output defaults to os.Stdout.
	Output io.Writer
	// Sentry enables error reporting when DSN is set.
	Sentry SentryConfig
}

// SentryConfig holds Sentry reporting settings.
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
}

// New builds a logger from cfg. Every record passes through the given
// context extractors, whichever destination it ends up in.
func New(cfg Config, extractors ...ContextExtractor) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", FormatJSON:
		h = slog.NewJSONHandler(out, opts)
	case FormatText:
		h = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("%w: format %q", ErrInvalidConfig, cfg.Format)
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Release:     cfg.Sentry.Release,
			EnableLogs:  true,
		}); err != nil {
			slog.New(h).Error("sentry disabled", slog.String("error", err.Error()))
		} else {
			sh := sentryslog.Option{
				EventLevel: []slog.Level{slog.LevelError},
				LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
			}.NewSentryHandler(context.Background())
			h = fanout{h, sh}
		}
	}

	return slog.New(withContext(h, extractors...)), nil
}

// Flush waits up to timeout for buffered Sentry events. No-op when Sentry is off.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}

// ParseLevel maps a level name to slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: level %q", ErrInvalidConfig, s)
	}
	return l, nil
}

// NewNope returns a logger that discards everything.
func NewNope() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

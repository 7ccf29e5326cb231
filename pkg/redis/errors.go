package redis

import "errors"

// Sentinel errors returned by Open and Healthcheck.
// A URL with a scheme other than redis:// or rediss:// yields both
// ErrFailedToParseURL and ErrUnsupportedScheme.
var (
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")
	ErrFailedToParseURL   = errors.New("redis: failed to parse connection URL")
	ErrUnsupportedScheme  = errors.New("redis: URL scheme must be redis or rediss")
	ErrConnectionFailed   = errors.New("redis: failed to establish connection")
	ErrHealthcheckFailed  = errors.New("redis: healthcheck failed")
)

package blob

import "errors"

// Sentinel errors for blob operations.
var (
	// Configuration errors.
	ErrInvalidConfig = errors.New("blob: invalid configuration")
	ErrUnknownDriver = errors.New("blob: unknown driver")

	// Key errors.
	ErrInvalidKey = errors.New("blob: invalid key")

	// Backend errors.
	ErrNotFound     = errors.New("blob: object not found")
	ErrAccessDenied = errors.New("blob: access denied")
	ErrUploadFailed = errors.New("blob: upload failed")
	ErrReadFailed   = errors.New("blob: read failed")
	ErrDeleteFailed = errors.New("blob: delete failed")
	ErrPingFailed   = errors.New("blob: backend unreachable")

	// Cache errors.
	ErrCacheInvalidation = errors.New("blob: cached descriptor invalidation failed")
)

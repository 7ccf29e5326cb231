package blob

import (
	"context"
	"io"
	"time"
)

// Store defines the interface for blob storage backends.
// Keys are used exactly as given; stores never rewrite or sanitize them.
type Store interface {
	// Put writes the content of r under key and returns the stored object.
	// An existing object with the same key is overwritten.
	Put(ctx context.Context, key string, r io.Reader, opts ...PutOption) (*Object, error)

	// Get opens the object for reading.
	// The caller is responsible for closing the returned reader.
	Get(ctx context.Context, key string) (io.ReadCloser, *Object, error)

	// Head returns the object descriptor without its content.
	Head(ctx context.Context, key string) (*Object, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by stores that can verify backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Object describes a stored blob.
type Object struct {
	// Pathname is the storage key.
	Pathname string `json:"pathname"`

	// ContentType is the media type recorded with the object.
	ContentType string `json:"contentType"`

	// Size is the content length in bytes.
	Size int64 `json:"size"`

	// HTTPEtag is the quoted entity tag reported by the backend.
	HTTPEtag string `json:"httpEtag"`

	// UploadedAt is the last modification time reported by the backend.
	UploadedAt time.Time `json:"uploadedAt"`

	// CustomMetadata holds user metadata stored alongside the object.
	CustomMetadata map[string]string `json:"customMetadata,omitempty"`
}

// PutOption configures Put operations.
type PutOption func(*putOptions)

type putOptions struct {
	metadata    map[string]string
	contentType string
	size        int64 // -1 when unknown
}

func newPutOptions(opts ...PutOption) *putOptions {
	o := &putOptions{size: -1}
	for _, opt := range opts {
		opt(o)
	}
	if o.contentType == "" {
		o.contentType = DefaultContentType
	}
	return o
}

// WithContentType sets the media type stored with the object.
// Defaults to application/octet-stream.
func WithContentType(ct string) PutOption {
	return func(o *putOptions) {
		o.contentType = ct
	}
}

// WithSize declares the content length.
// Backends that need a length up front buffer the reader when it is omitted.
func WithSize(n int64) PutOption {
	return func(o *putOptions) {
		if n >= 0 {
			o.size = n
		}
	}
}

// WithMetadata attaches custom metadata to the object.
// Repeated calls merge, later keys win.
func WithMetadata(md map[string]string) PutOption {
	return func(o *putOptions) {
		if len(md) == 0 {
			return
		}
		if o.metadata == nil {
			o.metadata = make(map[string]string, len(md))
		}
		for k, v := range md {
			o.metadata[k] = v
		}
	}
}

// DefaultContentType is used when Put is called without WithContentType.
const DefaultContentType = "application/octet-stream"

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOConfig holds configuration for a MinIO (or other S3-compatible) server.
type MinIOConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

func (c *MinIOConfig) validate() error {
	if c.Endpoint == "" || c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}

// MinIOStore implements Store using minio-go.
type MinIOStore struct {
	client *minio.Client
	now    func() time.Time
	bucket string
}

// NewMinIOStore creates a MinIOStore. The endpoint is host[:port] without a scheme.
func NewMinIOStore(cfg MinIOConfig) (*MinIOStore, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	client, err := minio.New(endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &MinIOStore{client: client, bucket: cfg.Bucket, now: time.Now}, nil
}

// Put streams r to the bucket. An unknown size uses multipart streaming.
func (s *MinIOStore) Put(ctx context.Context, key string, r io.Reader, opts ...PutOption) (*Object, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	o := newPutOptions(opts...)

	info, err := s.client.PutObject(ctx, s.bucket, key, r, o.size, minio.PutObjectOptions{
		ContentType:  o.contentType,
		UserMetadata: o.metadata,
	})
	if err != nil {
		return nil, wrapMinIOError(err, ErrUploadFailed)
	}

	uploadedAt := info.LastModified
	if uploadedAt.IsZero() {
		uploadedAt = s.now()
	}

	return &Object{
		Pathname:       key,
		ContentType:    o.contentType,
		Size:           info.Size,
		HTTPEtag:       quoteETag(info.ETag),
		UploadedAt:     uploadedAt.UTC(),
		CustomMetadata: o.metadata,
	}, nil
}

// Get opens the object and stats it so a missing key fails here rather than on first read.
func (s *MinIOStore) Get(ctx context.Context, key string) (io.ReadCloser, *Object, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, wrapMinIOError(err, ErrReadFailed)
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, nil, wrapMinIOError(err, ErrReadFailed)
	}

	return obj, objectFromMinIO(key, info), nil
}

// Head returns object metadata via StatObject.
func (s *MinIOStore) Head(ctx context.Context, key string) (*Object, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, wrapMinIOError(err, ErrReadFailed)
	}
	return objectFromMinIO(key, info), nil
}

// Delete removes the object. Missing objects are not an error.
func (s *MinIOStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return wrapMinIOError(err, ErrDeleteFailed)
	}
	return nil
}

// Ping verifies the bucket exists.
func (s *MinIOStore) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return wrapMinIOError(err, ErrPingFailed)
	}
	if !ok {
		return fmt.Errorf("%w: bucket %q does not exist", ErrPingFailed, s.bucket)
	}
	return nil
}

func objectFromMinIO(key string, info minio.ObjectInfo) *Object {
	var meta map[string]string
	if len(info.UserMetadata) > 0 {
		meta = make(map[string]string, len(info.UserMetadata))
		for k, v := range info.UserMetadata {
			meta[k] = v
		}
	}

	return &Object{
		Pathname:       key,
		ContentType:    info.ContentType,
		Size:           info.Size,
		HTTPEtag:       quoteETag(info.ETag),
		UploadedAt:     info.LastModified.UTC(),
		CustomMetadata: meta,
	}
}

// quoteETag returns etag in its HTTP header form.
func quoteETag(etag string) string {
	if etag == "" || strings.HasPrefix(etag, `"`) {
		return etag
	}
	return `"` + etag + `"`
}

func wrapMinIOError(err error, fallback error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", fallback, err)
	}

	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey", resp.Code == "NoSuchBucket", resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case resp.Code == "AccessDenied", resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}

	return fmt.Errorf("%w: %v", fallback, err)
}

var (
	_ Store  = (*MinIOStore)(nil)
	_ Pinger = (*MinIOStore)(nil)
)

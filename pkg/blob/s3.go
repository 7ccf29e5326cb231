package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	// Bucket is the bucket name (required).
	Bucket string

	// AccessKey is the access key ID (required).
	AccessKey string

	// SecretKey is the secret access key (required).
	SecretKey string

	// Endpoint is a custom endpoint URL (optional, for MinIO, R2 and friends).
	Endpoint string

	// Region is the bucket region (default: us-east-1).
	Region string

	// PathStyle enables path-style addressing (required by most self-hosted backends).
	PathStyle bool
}

// DefaultRegion is used when no region is configured.
const DefaultRegion = "us-east-1"

func (c *S3Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

func (c *S3Config) validate() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}

// s3API is the subset of the S3 client used by S3Store.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Store implements Store on top of aws-sdk-go-v2.
type S3Store struct {
	client s3API
	now    func() time.Time
	bucket string
}

// NewS3Store creates an S3Store with the given configuration.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		},
	}
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	if cfg.PathStyle {
		opts = append(opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return newS3Store(s3.New(s3.Options{}, opts...), cfg.Bucket), nil
}

func newS3Store(client s3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket, now: time.Now}
}

// Put uploads r to the bucket under key.
// The SDK needs a seekable body to sign the payload, so plain readers are
// buffered in memory first.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, opts ...PutOption) (*Object, error) {
	if key == "" {
		return nil, ErrInvalidKey
	}

	o := newPutOptions(opts...)

	body, size, err := seekableBody(r, o.size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(o.contentType),
		Metadata:      o.metadata,
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrUploadFailed)
	}

	return &Object{
		Pathname:       key,
		ContentType:    o.contentType,
		Size:           size,
		HTTPEtag:       aws.ToString(out.ETag),
		UploadedAt:     s.now().UTC(),
		CustomMetadata: o.metadata,
	}, nil
}

// Get streams the object from the bucket.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, *Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, wrapS3Error(err, ErrReadFailed)
	}

	return out.Body, &Object{
		Pathname:       key,
		ContentType:    aws.ToString(out.ContentType),
		Size:           aws.ToInt64(out.ContentLength),
		HTTPEtag:       aws.ToString(out.ETag),
		UploadedAt:     aws.ToTime(out.LastModified).UTC(),
		CustomMetadata: out.Metadata,
	}, nil
}

// Head fetches object metadata without downloading the content.
func (s *S3Store) Head(ctx context.Context, key string) (*Object, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrReadFailed)
	}

	return &Object{
		Pathname:       key,
		ContentType:    aws.ToString(out.ContentType),
		Size:           aws.ToInt64(out.ContentLength),
		HTTPEtag:       aws.ToString(out.ETag),
		UploadedAt:     aws.ToTime(out.LastModified).UTC(),
		CustomMetadata: out.Metadata,
	}, nil
}

// Delete removes the object from the bucket.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapS3Error(err, ErrDeleteFailed)
	}
	return nil
}

// Ping checks that the bucket exists and is reachable with the configured credentials.
func (s *S3Store) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return wrapS3Error(err, ErrPingFailed)
	}
	return nil
}

// seekableBody returns a ReadSeeker over r and the content length.
// A known size is trusted; otherwise it is measured.
func seekableBody(r io.Reader, size int64) (io.ReadSeeker, int64, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		if size >= 0 {
			return rs, size, nil
		}
		cur, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, err
		}
		end, err := rs.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, err
		}
		if _, err := rs.Seek(cur, io.SeekStart); err != nil {
			return nil, 0, err
		}
		return rs, end - cur, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

// wrapS3Error maps S3 errors onto sentinel errors.
// The backend error is formatted with %v so callers match on sentinels only.
func wrapS3Error(err error, fallback error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", fallback, err)
}

var (
	_ Store  = (*S3Store)(nil)
	_ Pinger = (*S3Store)(nil)
)

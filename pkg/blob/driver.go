package blob

import "fmt"

// Supported drivers.
const (
	DriverMemory = "memory"
	DriverS3     = "s3"
	DriverMinIO  = "minio"
)

// Config selects and configures a storage backend.
type Config struct {
	Driver    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
	Region    string
	PathStyle bool
	UseSSL    bool
}

// New builds the Store named by cfg.Driver. An empty driver means memory.
func New(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverS3:
		s, err := NewS3Store(S3Config{
			Bucket:    cfg.Bucket,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			PathStyle: cfg.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMinIO:
		s, err := NewMinIOStore(MinIOConfig{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			Bucket:    cfg.Bucket,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
			PathStyle: cfg.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

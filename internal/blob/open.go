package blob

import (
	"context"
	"fmt"
)

// Config is the blob section of the service configuration.
type Config struct {
	Driver      string `mapstructure:"driver"`
	FSRoot      string `mapstructure:"fsRoot"`
	S3Bucket    string `mapstructure:"s3Bucket"`
	S3Region    string `mapstructure:"s3Region"`
	S3Endpoint  string `mapstructure:"s3Endpoint"`
	S3PathStyle bool   `mapstructure:"s3PathStyle"`
}

// Open returns the store selected by cfg.Driver, fs when empty.
func Open(ctx context.Context, cfg Config) (Store, error) {
	driver := Driver(cfg.Driver)
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		return NewFilesystem(cfg.FSRoot)
	case DriverS3:
		return NewS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

package filestorage

import (
	"context"
	"fmt"

	"inventory-system/pkg/config"
)

// Open выбирает реализацию по STORAGE_DRIVER
func Open(ctx context.Context, cfg config.StorageConfig) (FileStorageInterface, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalFileStorage(cfg.LocalPath)
	case "s3":
		return NewS3FileStorage(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("неизвестный драйвер хранилища: %q", cfg.Driver)
	}
}

package storage

import (
	"context"
	"fmt"

	"norwegianopen/internal/config"
)

// New creates the storage backend named in the configuration.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch StorageType(cfg.Type) {
	case StorageTypeLocal, "":
		basePath := cfg.LocalPath
		if basePath == "" {
			basePath = "./exports" // Default path
		}
		return NewLocalStorage(basePath)

	case StorageTypeS3:
		if cfg.S3Bucket == "" || cfg.S3Region == "" {
			return nil, fmt.Errorf("storage: S3 storage requires STORAGE_S3_BUCKET and STORAGE_S3_REGION")
		}
		return NewS3Storage(ctx, cfg.S3Bucket, cfg.S3Region)

	default:
		return nil, fmt.Errorf("storage: unknown storage type: %s", cfg.Type)
	}
}

package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrFileNotFound  = errors.New("storage: file not found")
	ErrPathTraversal = errors.New("storage: invalid file path: path traversal detected")
)

// Storage defines the interface for export file storage
type Storage interface {
	// Store saves a file under folder and returns the storage key
	Store(ctx context.Context, folder, filename string, content io.Reader, contentType string) (string, error)

	// Retrieve gets a file by storage key
	Retrieve(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a file by storage key
	Delete(ctx context.Context, key string) error

	// GetURL returns a signed URL for accessing the file (for S3) or a download path
	GetURL(ctx context.Context, key string, expiration time.Duration) (string, error)

	// Exists checks if a file exists
	Exists(ctx context.Context, key string) (bool, error)
}

type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
	"github.com/CAR235/ConnexaLabPDF/pkg/storage/local"
	"github.com/CAR235/ConnexaLabPDF/pkg/storage/minio"
	"github.com/CAR235/ConnexaLabPDF/pkg/storage/s3"
)

// Type selects the blob storage backend.
type Type string

const (
	TypeLocal Type = "local"
	TypeMinio Type = "minio"
	TypeS3    Type = "s3"
)

// Storage holds the raw bytes behind File records. Keys are the
// stored-names assigned at upload time.
type Storage interface {
	// Store writes the stream under the given key and returns the key.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	// Get opens the stored bytes for reading.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the stored bytes.
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes blobs last modified before the threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

// NewStorage is the factory for blob storage backends.
func NewStorage(storageType Type, log logger.Logger) (Storage, error) {
	switch storageType {
	case TypeLocal:
		return local.GetClient(log)
	case TypeMinio:
		return minio.GetClient(log)
	case TypeS3:
		return s3.GetClient(log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

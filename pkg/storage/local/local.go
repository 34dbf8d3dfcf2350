package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	cfg "github.com/CAR235/ConnexaLabPDF/config"
	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
)

// LocalStorage keeps blobs as files under a single directory, one file
// per key. Keys must not contain path separators.
type LocalStorage struct {
	root   string
	logger logger.Logger
}

// NewLocalStorage creates the storage directory if needed.
func NewLocalStorage(root string, log logger.Logger) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{root: root, logger: log}, nil
}

func (l *LocalStorage) keyPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}
	return filepath.Join(l.root, key), nil
}

// Store implements Storage.Store. The blob is written to a temp file
// first and renamed into place so readers never observe partial writes.
func (l *LocalStorage) Store(ctx context.Context, reader io.Reader, key string) (string, error) {
	path, err := l.keyPath(key)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(l.root, ".partial-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to finalize blob: %w", err)
	}

	return key, nil
}

// Get implements Storage.Get.
func (l *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.keyPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		l.logger.Error("Failed to open blob",
			logger.String("key", key),
			logger.Error(err),
		)
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return f, nil
}

// Delete implements Storage.Delete.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	path, err := l.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// CleanupBefore implements Storage.CleanupBefore.
func (l *LocalStorage) CleanupBefore(ctx context.Context, threshold time.Time) error {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return fmt.Errorf("failed to list storage directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(threshold) {
			if err := os.Remove(filepath.Join(l.root, entry.Name())); err != nil {
				l.logger.Error("Failed to delete expired blob",
					logger.String("key", entry.Name()),
					logger.Error(err),
				)
				continue
			}
			l.logger.Info("Deleted expired blob",
				logger.String("key", entry.Name()),
				logger.Time("lastModified", info.ModTime()),
			)
		}
	}
	return nil
}

func GetClient(log logger.Logger) (*LocalStorage, error) {
	return NewLocalStorage(cfg.GetStorageConfig().LocalDir, log)
}

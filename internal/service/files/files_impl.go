package files

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/CAR235/ConnexaLabPDF/config"
	"github.com/CAR235/ConnexaLabPDF/internal/models"
	"github.com/CAR235/ConnexaLabPDF/internal/store"
	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
	"github.com/CAR235/ConnexaLabPDF/pkg/storage"
)

type FilesService struct {
	store   store.Store
	storage storage.Storage
	logger  logger.Logger
	config  *ServiceConfig
}

type ServiceConfig struct {
	MaxFileSize     int64
	MaxParts        int
	AllowedTypes    []string
	RetentionPeriod time.Duration
}

func NewService(st store.Store, blobs storage.Storage, log logger.Logger, cfg *ServiceConfig) FileService {
	if cfg == nil {
		server := config.GetServerConfig()
		cfg = &ServiceConfig{
			MaxFileSize:     server.MaxUploadSize,
			MaxParts:        server.MaxUploadParts,
			AllowedTypes:    server.AllowedUploads,
			RetentionPeriod: config.GetRetentionConfig().Period,
		}
	}
	return &FilesService{
		store:   st,
		storage: blobs,
		logger:  log,
		config:  cfg,
	}
}

// UploadBatch validates and stores every part concurrently. On any
// failure the blobs and records already created are rolled back.
func (s *FilesService) UploadBatch(ctx context.Context, headers []*multipart.FileHeader, userID *int64) ([]*models.File, error) {
	if len(headers) == 0 {
		return nil, ErrNoFiles
	}
	if len(headers) > s.config.MaxParts {
		return nil, fmt.Errorf("%w: %d parts, limit %d", ErrTooManyParts, len(headers), s.config.MaxParts)
	}
	for _, h := range headers {
		if err := s.validateHeader(h); err != nil {
			return nil, err
		}
	}

	records := make([]*models.File, len(headers))
	var mu sync.Mutex
	var storedKeys []string

	g, gctx := errgroup.WithContext(ctx)
	for i, header := range headers {
		i, header := i, header
		g.Go(func() error {
			part, err := header.Open()
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", header.Filename, err)
			}
			defer part.Close()

			key := uuid.New().String() + strings.ToLower(filepath.Ext(header.Filename))
			if _, err := s.storage.Store(gctx, part, key); err != nil {
				return fmt.Errorf("failed to store %s: %w", header.Filename, err)
			}
			mu.Lock()
			storedKeys = append(storedKeys, key)
			mu.Unlock()

			contentType := header.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			rec, err := s.store.CreateFile(gctx, &models.File{
				StoredName:   key,
				OriginalName: header.Filename,
				Size:         header.Size,
				ContentType:  contentType,
				UserID:       userID,
			})
			if err != nil {
				return fmt.Errorf("failed to record %s: %w", header.Filename, err)
			}
			records[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.rollback(records, storedKeys)
		s.logger.Error("Upload batch failed",
			logger.Int("parts", len(headers)),
			logger.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Upload batch stored",
		logger.Int("parts", len(headers)),
	)
	return records, nil
}

// rollback undoes a partially applied batch. Best effort; runs on a
// fresh context because the group context is already cancelled.
func (s *FilesService) rollback(records []*models.File, keys []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, rec := range records {
		if rec == nil {
			continue
		}
		if _, err := s.store.DeleteFile(ctx, rec.ID); err != nil {
			s.logger.Warn("Rollback: failed to delete record",
				logger.Int64("fileId", rec.ID),
				logger.Error(err),
			)
		}
	}
	for _, key := range keys {
		if err := s.storage.Delete(ctx, key); err != nil {
			s.logger.Warn("Rollback: failed to delete blob",
				logger.String("key", key),
				logger.Error(err),
			)
		}
	}
}

func (s *FilesService) Download(ctx context.Context, fileID int64, userID *int64) (*models.File, io.ReadCloser, error) {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if err := checkOwner(file, userID); err != nil {
		return nil, nil, err
	}
	reader, err := s.storage.Get(ctx, file.StoredName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open blob for file %d: %w", fileID, err)
	}
	return file, reader, nil
}

func (s *FilesService) Delete(ctx context.Context, fileID int64, userID *int64) error {
	file, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if err := checkOwner(file, userID); err != nil {
		return err
	}
	if err := s.storage.Delete(ctx, file.StoredName); err != nil {
		s.logger.Warn("Failed to delete blob, removing record anyway",
			logger.Int64("fileId", fileID),
			logger.Error(err),
		)
	}
	if _, err := s.store.DeleteFile(ctx, fileID); err != nil {
		return err
	}
	s.logger.Info("File deleted",
		logger.Int64("fileId", fileID),
	)
	return nil
}

func (s *FilesService) List(ctx context.Context, userID *int64) ([]*models.File, error) {
	return s.store.ListFilesByOwner(ctx, userID)
}

func (s *FilesService) CleanupExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.config.RetentionPeriod)
	expired, err := s.store.ListAnonymousFilesBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired files: %w", err)
	}

	removed := 0
	for _, file := range expired {
		if err := s.storage.Delete(ctx, file.StoredName); err != nil {
			s.logger.Warn("Cleanup: failed to delete blob",
				logger.Int64("fileId", file.ID),
				logger.Error(err),
			)
		}
		ok, err := s.store.DeleteFile(ctx, file.ID)
		if err != nil {
			s.logger.Warn("Cleanup: failed to delete record",
				logger.Int64("fileId", file.ID),
				logger.Error(err),
			)
			continue
		}
		if ok {
			removed++
		}
	}

	s.logger.Info("Expired files cleaned up",
		logger.Int("removed", removed),
		logger.Time("cutoff", cutoff),
	)
	return removed, nil
}

// checkOwner gates access to owned files. Anonymous files are reachable
// by anyone holding the id.
func checkOwner(file *models.File, userID *int64) error {
	if file.UserID == nil {
		return nil
	}
	if userID == nil || *userID != *file.UserID {
		return ErrForbidden
	}
	return nil
}

func (s *FilesService) validateHeader(header *multipart.FileHeader) error {
	if header.Size > s.config.MaxFileSize {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", ErrFileTooLarge, header.Filename, header.Size, s.config.MaxFileSize)
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	for _, t := range s.config.AllowedTypes {
		if t == ext {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
}

package files

import (
	"context"
	"errors"
	"io"
	"mime/multipart"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

// Validation failures surfaced to the HTTP layer as 400s; ErrForbidden
// maps to 403.
var (
	ErrNoFiles         = errors.New("no files in request")
	ErrTooManyParts    = errors.New("too many files in request")
	ErrFileTooLarge    = errors.New("file exceeds size limit")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrForbidden       = errors.New("file belongs to another user")
)

// FileService is the upload intake and download responder. Uploads are
// batch-atomic: either every part becomes a File record or none does.
type FileService interface {
	UploadBatch(ctx context.Context, headers []*multipart.FileHeader, userID *int64) ([]*models.File, error)
	Download(ctx context.Context, fileID int64, userID *int64) (*models.File, io.ReadCloser, error)
	Delete(ctx context.Context, fileID int64, userID *int64) error
	List(ctx context.Context, userID *int64) ([]*models.File, error)
	// CleanupExpired deletes anonymous files older than the retention
	// period, blobs first, records second.
	CleanupExpired(ctx context.Context) (int, error)
}

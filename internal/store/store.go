// Package store persists File, Job and User records behind a small
// repository interface. Implementations must guarantee unique id
// assignment under concurrent creates and per-record atomicity for
// updates and deletes; no multi-record transaction is offered.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("record not found")

// FileUpdate is a partial update over a File. Nil fields are left
// untouched; a non-nil Metadata replaces the metadata map.
type FileUpdate struct {
	OriginalName *string
	Metadata     map[string]any
}

// JobUpdate is a partial update over a Job. UpdatedAt is refreshed on
// every applied update.
type JobUpdate struct {
	Status       *models.JobStatus
	OutputFileID *int64
	Error        *string
}

// Store is the record ledger. Create methods assign the id and creation
// timestamp and return the stored record.
type Store interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)

	GetFile(ctx context.Context, id int64) (*models.File, error)
	CreateFile(ctx context.Context, file *models.File) (*models.File, error)
	UpdateFile(ctx context.Context, id int64, upd FileUpdate) (*models.File, error)
	DeleteFile(ctx context.Context, id int64) (bool, error)
	ListFilesByOwner(ctx context.Context, userID *int64) ([]*models.File, error)
	// ListAnonymousFilesBefore returns unowned files created before the
	// cutoff. Used by the retention sweep.
	ListAnonymousFilesBefore(ctx context.Context, cutoff time.Time) ([]*models.File, error)

	GetJob(ctx context.Context, id int64) (*models.Job, error)
	CreateJob(ctx context.Context, job *models.Job) (*models.Job, error)
	UpdateJob(ctx context.Context, id int64, upd JobUpdate) (*models.Job, error)
	ListJobsByOwner(ctx context.Context, userID *int64) ([]*models.Job, error)
}

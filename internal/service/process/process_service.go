package process

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

var (
	// ErrUnknownTool rejects tool ids outside the registry, before any
	// job record is created.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrNoInput rejects an empty fileIds list.
	ErrNoInput = errors.New("no input files")
	// ErrInputCount rejects a file count the tool cannot take.
	ErrInputCount = errors.New("wrong number of input files")
)

// Processor runs one tool over resolved inputs, synchronously. The
// returned Job is terminal: completed with an output file id, or failed
// with the error recorded on it.
type Processor interface {
	Process(ctx context.Context, toolID string, fileIDs []int64, options json.RawMessage, userID *int64) (*models.Job, error)
	GetJob(ctx context.Context, jobID int64, userID *int64) (*models.Job, error)
	ListJobs(ctx context.Context, userID *int64) ([]*models.Job, error)
}

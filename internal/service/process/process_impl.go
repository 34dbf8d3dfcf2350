package process

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
	"github.com/CAR235/ConnexaLabPDF/internal/service/files"
	"github.com/CAR235/ConnexaLabPDF/internal/store"
	"github.com/CAR235/ConnexaLabPDF/internal/tools"
	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
	"github.com/CAR235/ConnexaLabPDF/pkg/storage"
)

// Tools taking more than one input file; every other tool takes
// exactly one.
var multiInputTools = map[string]bool{
	"merge-pdf":  true,
	"jpg-to-pdf": true,
}

type ProcessService struct {
	store    store.Store
	storage  storage.Storage
	registry map[string]tools.Tool
	logger   logger.Logger
}

func NewService(st store.Store, blobs storage.Storage, registry map[string]tools.Tool, log logger.Logger) Processor {
	return &ProcessService{
		store:    st,
		storage:  blobs,
		registry: registry,
		logger:   log,
	}
}

// Process validates the request, records a job, runs the tool and
// promotes the artifact to a File. Validation failures happen before
// the job record exists; tool failures are recorded on the job.
func (s *ProcessService) Process(ctx context.Context, toolID string, fileIDs []int64, options json.RawMessage, userID *int64) (*models.Job, error) {
	tool, ok := s.registry[toolID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, toolID)
	}
	if len(fileIDs) == 0 {
		return nil, ErrNoInput
	}
	if !multiInputTools[toolID] && len(fileIDs) != 1 {
		return nil, fmt.Errorf("%w: %s takes exactly one file", ErrInputCount, toolID)
	}
	if toolID == "merge-pdf" && len(fileIDs) < 2 {
		return nil, fmt.Errorf("%w: merge needs at least two files", ErrInputCount)
	}

	// Resolve every input before creating the job so a dangling id
	// surfaces as not-found, not as a failed job.
	inputs := make([]*models.File, 0, len(fileIDs))
	for _, id := range fileIDs {
		file, err := s.store.GetFile(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("input file %d: %w", id, err)
		}
		if err := checkOwner(file, userID); err != nil {
			return nil, err
		}
		if err := checkExtension(tool, file); err != nil {
			return nil, err
		}
		inputs = append(inputs, file)
	}

	job, err := s.store.CreateJob(ctx, &models.Job{
		ToolID:       toolID,
		Status:       models.StatusPending,
		InputFileIDs: fileIDs,
		Options:      options,
		UserID:       userID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("Job created",
		logger.Int64("jobId", job.ID),
		logger.String("tool", toolID),
		logger.Int("inputs", len(fileIDs)),
	)

	job, err = s.setStatus(ctx, job.ID, models.StatusProcessing, nil, nil)
	if err != nil {
		return nil, err
	}

	result, runErr := s.run(ctx, job, tool, inputs, options)
	if runErr != nil {
		msg := runErr.Error()
		if failed, err := s.setStatus(ctx, job.ID, models.StatusFailed, nil, &msg); err == nil {
			job = failed
		}
		s.logger.Error("Job failed",
			logger.Int64("jobId", job.ID),
			logger.String("tool", toolID),
			logger.Error(runErr),
		)
		return job, runErr
	}

	job, err = s.setStatus(ctx, job.ID, models.StatusCompleted, &result.ID, nil)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Job completed",
		logger.Int64("jobId", job.ID),
		logger.String("tool", toolID),
		logger.Int64("outputFileId", result.ID),
	)
	return job, nil
}

// run materializes the inputs into a scratch dir, invokes the tool and
// stores the artifact as a new File owned by the job's user.
func (s *ProcessService) run(ctx context.Context, job *models.Job, tool tools.Tool, inputs []*models.File, options json.RawMessage) (*models.File, error) {
	workDir, err := os.MkdirTemp("", fmt.Sprintf("job-%d-", job.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	paths := make([]string, len(inputs))
	for i, file := range inputs {
		path, err := s.materialize(ctx, file, workDir, fmt.Sprintf("input_%d", i))
		if err != nil {
			return nil, err
		}
		paths[i] = path
	}

	req := &tools.Request{
		Files:   inputs,
		Paths:   paths,
		Options: options,
		WorkDir: workDir,
		Fetch: func(ctx context.Context, fileID int64) (*models.File, string, error) {
			file, err := s.store.GetFile(ctx, fileID)
			if err != nil {
				return nil, "", err
			}
			if err := checkOwner(file, job.UserID); err != nil {
				return nil, "", err
			}
			path, err := s.materialize(ctx, file, workDir, fmt.Sprintf("aux_%d", fileID))
			if err != nil {
				return nil, "", err
			}
			return file, path, nil
		},
	}

	result, err := tool.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	artifact, err := os.Open(result.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	defer artifact.Close()
	info, err := artifact.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact: %w", err)
	}

	key := fmt.Sprintf("job-%d-%d%s", job.ID, time.Now().UnixNano(), filepath.Ext(result.Filename))
	if _, err := s.storage.Store(ctx, artifact, key); err != nil {
		return nil, fmt.Errorf("failed to store artifact: %w", err)
	}

	metadata := map[string]any{
		models.MetaToolID:        job.ToolID,
		models.MetaSourceFileIDs: job.InputFileIDs,
	}
	for k, v := range result.Metadata {
		metadata[k] = v
	}

	output, err := s.store.CreateFile(ctx, &models.File{
		StoredName:   key,
		OriginalName: result.Filename,
		Size:         info.Size(),
		ContentType:  result.ContentType,
		UserID:       job.UserID,
		Metadata:     metadata,
	})
	if err != nil {
		// The record is the source of truth; an orphaned blob is left
		// for the retention sweep.
		if derr := s.storage.Delete(ctx, key); derr != nil {
			s.logger.Warn("Failed to delete orphaned artifact blob",
				logger.String("key", key),
				logger.Error(derr),
			)
		}
		return nil, fmt.Errorf("failed to record artifact: %w", err)
	}
	return output, nil
}

func (s *ProcessService) materialize(ctx context.Context, file *models.File, workDir, stem string) (string, error) {
	reader, err := s.storage.Get(ctx, file.StoredName)
	if err != nil {
		return "", fmt.Errorf("failed to read blob for file %d: %w", file.ID, err)
	}
	defer reader.Close()

	path := filepath.Join(workDir, stem+strings.ToLower(filepath.Ext(file.OriginalName)))
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create local copy: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, reader); err != nil {
		return "", fmt.Errorf("failed to copy blob for file %d: %w", file.ID, err)
	}
	return path, nil
}

func (s *ProcessService) setStatus(ctx context.Context, jobID int64, status models.JobStatus, outputFileID *int64, errMsg *string) (*models.Job, error) {
	job, err := s.store.UpdateJob(ctx, jobID, store.JobUpdate{
		Status:       &status,
		OutputFileID: outputFileID,
		Error:        errMsg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update job %d: %w", jobID, err)
	}
	return job, nil
}

func (s *ProcessService) GetJob(ctx context.Context, jobID int64, userID *int64) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != nil && (userID == nil || *userID != *job.UserID) {
		return nil, files.ErrForbidden
	}
	return job, nil
}

func (s *ProcessService) ListJobs(ctx context.Context, userID *int64) ([]*models.Job, error) {
	return s.store.ListJobsByOwner(ctx, userID)
}

func checkOwner(file *models.File, userID *int64) error {
	if file.UserID == nil {
		return nil
	}
	if userID == nil || *userID != *file.UserID {
		return files.ErrForbidden
	}
	return nil
}

func checkExtension(tool tools.Tool, file *models.File) error {
	accepts := tool.Accepts()
	if len(accepts) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(file.OriginalName))
	for _, a := range accepts {
		if a == ext {
			return nil
		}
	}
	return fmt.Errorf("%w: %s does not take %s files", tools.ErrUnsupportedInput, tool.ID(), ext)
}

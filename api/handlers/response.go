package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
	"github.com/CAR235/ConnexaLabPDF/internal/service/auth"
	"github.com/CAR235/ConnexaLabPDF/internal/service/files"
	"github.com/CAR235/ConnexaLabPDF/internal/service/process"
	"github.com/CAR235/ConnexaLabPDF/internal/store"
	"github.com/CAR235/ConnexaLabPDF/internal/tools"
)

// FileResponse is the public shape of a File record. StoredName stays
// internal.
type FileResponse struct {
	ID           int64          `json:"id"`
	OriginalName string         `json:"originalName"`
	Size         int64          `json:"size"`
	ContentType  string         `json:"contentType"`
	CreatedAt    string         `json:"createdAt"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type JobResponse struct {
	ID           int64   `json:"id"`
	ToolID       string  `json:"toolId"`
	Status       string  `json:"status"`
	InputFileIDs []int64 `json:"inputFileIds"`
	OutputFileID *int64  `json:"outputFileId,omitempty"`
	Error        string  `json:"error,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func toFileResponse(f *models.File) FileResponse {
	return FileResponse{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		Size:         f.Size,
		ContentType:  f.ContentType,
		CreatedAt:    f.CreatedAt.Format(time.RFC3339),
		Metadata:     f.Metadata,
	}
}

func toJobResponse(j *models.Job) JobResponse {
	return JobResponse{
		ID:           j.ID,
		ToolID:       j.ToolID,
		Status:       string(j.Status),
		InputFileIDs: j.InputFileIDs,
		OutputFileID: j.OutputFileID,
		Error:        j.Error,
		CreatedAt:    j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    j.UpdatedAt.Format(time.RFC3339),
	}
}

// statusFor maps service errors to HTTP statuses: missing records are
// 404, caller mistakes are 400, ownership violations 403, everything
// else 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, files.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, files.ErrNoFiles),
		errors.Is(err, files.ErrTooManyParts),
		errors.Is(err, files.ErrFileTooLarge),
		errors.Is(err, files.ErrUnsupportedType),
		errors.Is(err, process.ErrUnknownTool),
		errors.Is(err, process.ErrNoInput),
		errors.Is(err, process.ErrInputCount),
		errors.Is(err, tools.ErrUnsupportedInput),
		errors.Is(err, tools.ErrMissingOption):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// currentUser reads the user id set by the auth middleware. Nil means
// anonymous.
func currentUser(c *gin.Context) *int64 {
	v, ok := c.Get("userID")
	if !ok {
		return nil
	}
	id, ok := v.(int64)
	if !ok {
		return nil
	}
	return &id
}

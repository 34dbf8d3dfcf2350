package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/CAR235/ConnexaLabPDF/internal/service/process"
	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
)

type ProcessHandler struct {
	processor process.Processor
	logger    logger.Logger
}

// ProcessRequest is the body of POST /api/process/:toolId. Options are
// passed through to the tool untouched.
type ProcessRequest struct {
	FileIDs []fileID        `json:"fileIds"`
	Options json.RawMessage `json:"options,omitempty"`
}

// fileID accepts both JSON numbers and numeric strings, since clients
// commonly echo back the string ids the upload response hands out.
type fileID int64

func (f *fileID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid file id %s", data)
	}
	*f = fileID(v)
	return nil
}

func NewProcessHandler(processor process.Processor, logger logger.Logger) *ProcessHandler {
	return &ProcessHandler{
		processor: processor,
		logger:    logger,
	}
}

// Process runs the named tool synchronously and returns the terminal
// job. A failed job is reported with the job body so the caller can see
// the recorded error.
func (h *ProcessHandler) Process(c *gin.Context) {
	toolID := c.Param("toolId")

	var req ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	fileIDs := make([]int64, len(req.FileIDs))
	for i, id := range req.FileIDs {
		fileIDs[i] = int64(id)
	}

	job, err := h.processor.Process(c.Request.Context(), toolID, fileIDs, req.Options, currentUser(c))
	if err != nil {
		if job == nil {
			h.handleError(c, statusFor(err), "Processing rejected", err)
			return
		}
		// The job exists and is failed; report it with the failure
		// class mapped to a status.
		h.logger.Error("Processing failed",
			logger.Int64("jobId", job.ID),
			logger.String("tool", toolID),
			logger.Error(err),
		)
		c.JSON(statusFor(err), gin.H{
			"message": "Processing failed",
			"job":     toJobResponse(job),
		})
		return
	}

	resultFileID := ""
	if job.OutputFileID != nil {
		resultFileID = strconv.FormatInt(*job.OutputFileID, 10)
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Processing completed",
		"resultFileId": resultFileID,
		"job":          toJobResponse(job),
	})
}

func (h *ProcessHandler) GetJob(c *gin.Context) {
	jobID, err := strconv.ParseInt(c.Param("jobId"), 10, 64)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid job id", err)
		return
	}

	job, err := h.processor.GetJob(c.Request.Context(), jobID, currentUser(c))
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to get job", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": toJobResponse(job)})
}

func (h *ProcessHandler) ListJobs(c *gin.Context) {
	jobs, err := h.processor.ListJobs(c.Request.Context(), currentUser(c))
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to list jobs", err)
		return
	}
	responses := make([]JobResponse, len(jobs))
	for i, job := range jobs {
		responses[i] = toJobResponse(job)
	}
	c.JSON(http.StatusOK, gin.H{"jobs": responses})
}

func (h *ProcessHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)
	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	c.JSON(status, response)
}

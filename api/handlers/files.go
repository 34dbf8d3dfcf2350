package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/CAR235/ConnexaLabPDF/internal/service/files"
	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
)

type FileHandler struct {
	service files.FileService
	logger  logger.Logger
}

func NewFileHandler(service files.FileService, logger logger.Logger) *FileHandler {
	return &FileHandler{
		service: service,
		logger:  logger,
	}
}

// Upload accepts one or more parts under the "files" field and returns
// the created File records. The batch is all-or-nothing.
func (h *FileHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		// Single-part clients use "file".
		headers = form.File["file"]
	}

	records, err := h.service.UploadBatch(c.Request.Context(), headers, currentUser(c))
	if err != nil {
		h.handleError(c, statusFor(err), "Upload failed", err)
		return
	}

	// Ids travel as strings on the wire.
	responses := make([]FileResponse, len(records))
	fileIDs := make([]string, len(records))
	for i, rec := range records {
		responses[i] = toFileResponse(rec)
		fileIDs[i] = strconv.FormatInt(rec.ID, 10)
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Uploaded %d files", len(records)),
		"fileIds": fileIDs,
		"files":   responses,
	})
}

// Download streams the stored bytes with the original filename as the
// attachment name.
func (h *FileHandler) Download(c *gin.Context) {
	fileID, err := strconv.ParseInt(c.Param("fileId"), 10, 64)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file id", err)
		return
	}

	file, reader, err := h.service.Download(c.Request.Context(), fileID, currentUser(c))
	if err != nil {
		h.handleError(c, statusFor(err), "Download failed", err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.OriginalName))
	c.Header("Content-Type", file.ContentType)
	if file.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(file.Size, 10))
	}
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		// Headers are gone; all we can do is log.
		h.logger.Error("Failed to stream file",
			logger.Int64("fileId", fileID),
			logger.Error(err),
		)
	}
}

func (h *FileHandler) Delete(c *gin.Context) {
	fileID, err := strconv.ParseInt(c.Param("fileId"), 10, 64)
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file id", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), fileID, currentUser(c)); err != nil {
		h.handleError(c, statusFor(err), "Delete failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "File deleted",
		"fileId":  fileID,
	})
}

// List returns the requester's files; anonymous requesters see the
// unowned pool.
func (h *FileHandler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context(), currentUser(c))
	if err != nil {
		h.handleError(c, statusFor(err), "Failed to list files", err)
		return
	}
	responses := make([]FileResponse, len(records))
	for i, rec := range records {
		responses[i] = toFileResponse(rec)
	}
	c.JSON(http.StatusOK, gin.H{"files": responses})
}

func (h *FileHandler) handleError(c *gin.Context, status int, message string, err error) {
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

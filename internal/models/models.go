package models

import (
	"encoding/json"
	"time"
)

// JobStatus tracks a processing job through its lifecycle.
// Transitions: pending -> processing -> completed | failed. Both
// completed and failed are terminal.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// File is the persisted record of one stored binary artifact. A File is
// created by an upload or as the output of a tool run and is never
// mutated afterwards, except via the explicit partial update.
type File struct {
	ID           int64          `json:"id" db:"id"`
	StoredName   string         `json:"storedName" db:"stored_name"`
	OriginalName string         `json:"originalName" db:"original_name"`
	Size         int64          `json:"size" db:"size"`
	ContentType  string         `json:"contentType" db:"content_type"`
	UserID       *int64         `json:"userId,omitempty" db:"user_id"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	Metadata     map[string]any `json:"metadata,omitempty" db:"-"`
}

// Job records one processing request. InputFileIDs reference Files that
// existed when the job was created; OutputFileID is set iff the job
// completed.
type Job struct {
	ID           int64           `json:"id" db:"id"`
	ToolID       string          `json:"toolId" db:"tool_id"`
	Status       JobStatus       `json:"status" db:"status"`
	InputFileIDs []int64         `json:"inputFileIds" db:"-"`
	OutputFileID *int64          `json:"outputFileId,omitempty" db:"output_file_id"`
	Options      json.RawMessage `json:"options,omitempty" db:"options"`
	Error        string          `json:"error,omitempty" db:"error"`
	UserID       *int64          `json:"userId,omitempty" db:"user_id"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
}

// User is an optional owner identity. Files and jobs created without a
// session carry a nil UserID.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Metadata keys written by tool runs. The ledger never interprets these;
// they exist as the audit trail on output files.
const (
	MetaSourceFileIDs = "sourceFileIds"
	MetaToolID        = "toolId"
	MetaPageCount     = "pageCount"
)

// Package tools implements the operation handlers behind the tool
// dispatcher. Every tool consumes one or more input files and produces
// exactly one output artifact; the actual PDF manipulation is delegated
// to pdfcpu and, for office formats, to an external conversion backend.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

// Typed failure classes. The dispatcher records the message on the job
// and maps the class to an HTTP status.
var (
	ErrUnsupportedInput = errors.New("unsupported input type")
	ErrMissingOption    = errors.New("missing required option")
	ErrCorruptInput     = errors.New("corrupt input")
	ErrBackendFailure   = errors.New("conversion backend failure")
)

// Request carries the resolved input records together with local copies
// of their bytes. WorkDir is a per-job scratch directory; anything the
// tool writes there is discarded unless named by the returned Result.
type Request struct {
	Files   []*models.File
	Paths   []string
	Options json.RawMessage
	WorkDir string

	// Fetch materializes a file referenced from the options (watermark
	// image, signature image) into WorkDir and returns its record and
	// local path. Set by the dispatcher; nil in contexts where
	// auxiliary lookups are not available.
	Fetch func(ctx context.Context, fileID int64) (*models.File, string, error)
}

// Result names the produced artifact. Metadata becomes the audit trail
// on the output File record.
type Result struct {
	Path        string
	Filename    string
	ContentType string
	Metadata    map[string]any
}

// Tool is one operation handler.
type Tool interface {
	// ID is the public tool identifier.
	ID() string
	// Accepts lists the input file extensions the tool handles,
	// lowercase with leading dot. Empty means any.
	Accepts() []string
	// Run performs the operation. It must either return a Result or a
	// typed failure; it never leaves a half-written artifact behind as
	// the Result.
	Run(ctx context.Context, req *Request) (*Result, error)
}

var validate = validator.New()

// decodeOptions unmarshals and validates a tool's option struct.
func decodeOptions[T any](raw json.RawMessage) (*T, error) {
	opts := new(T)
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, opts); err != nil {
			return nil, fmt.Errorf("%w: malformed options: %v", ErrMissingOption, err)
		}
	}
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingOption, err)
	}
	return opts, nil
}

// requirePDF rejects non-PDF inputs up front.
func requirePDF(files ...*models.File) error {
	for _, f := range files {
		if !strings.Contains(f.ContentType, "pdf") && !strings.HasSuffix(strings.ToLower(f.OriginalName), ".pdf") {
			return fmt.Errorf("%w: %s is not a PDF", ErrUnsupportedInput, f.OriginalName)
		}
	}
	return nil
}

// baseName strips the extension from a file's user-facing name.
func baseName(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}

// Registry builds the immutable tool table injected into the
// dispatcher. Tool ids outside this table are rejected up front.
func Registry() map[string]Tool {
	all := []Tool{
		NewMergeTool(),
		NewSplitTool(),
		NewCompressTool(),
		NewRotateTool(),
		NewPageNumberTool(),
		NewRemovePagesTool(),
		NewExtractPagesTool(),
		NewRepairTool(),
		NewProtectTool(),
		NewUnlockTool(),
		NewWatermarkTool(),
		NewSignTool(),
		NewImagesToPDFTool(),
		NewPDFToImagesTool(),
		NewPDFToWordTool(),
	}
	for _, id := range []string{"word-to-pdf", "excel-to-pdf", "powerpoint-to-pdf", "html-to-pdf"} {
		all = append(all, NewConvertToPDFTool(id))
	}
	for _, id := range []string{"pdf-to-excel", "pdf-to-powerpoint"} {
		all = append(all, NewConvertFromPDFTool(id))
	}

	reg := make(map[string]Tool, len(all))
	for _, t := range all {
		reg[t.ID()] = t
	}
	return reg
}

package tools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

// MergeTool concatenates the pages of all inputs, in caller order or in
// the permutation named by options.pageOrder, into one document.
type MergeTool struct {
	conf *model.Configuration
}

func NewMergeTool() *MergeTool {
	return &MergeTool{conf: model.NewDefaultConfiguration()}
}

func (t *MergeTool) ID() string { return "merge-pdf" }

func (t *MergeTool) Accepts() []string { return []string{".pdf"} }

func (t *MergeTool) Run(ctx context.Context, req *Request) (*Result, error) {
	opts, err := decodeOptions[models.MergeOptions](req.Options)
	if err != nil {
		return nil, err
	}
	if err := requirePDF(req.Files...); err != nil {
		return nil, err
	}

	inputs := req.Paths
	if len(opts.PageOrder) == len(req.Files) && len(opts.PageOrder) > 0 {
		ordered := make([]string, 0, len(inputs))
		for _, idx := range opts.PageOrder {
			if idx < 0 || idx >= len(inputs) {
				return nil, fmt.Errorf("%w: pageOrder index %d out of range", ErrMissingOption, idx)
			}
			ordered = append(ordered, inputs[idx])
		}
		inputs = ordered
	}

	outPath := filepath.Join(req.WorkDir, "merged.pdf")
	if err := api.MergeCreateFile(inputs, outPath, false, t.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}

	pageCount, err := api.PageCountFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}

	return &Result{
		Path:        outPath,
		Filename:    "merged.pdf",
		ContentType: "application/pdf",
		Metadata: map[string]any{
			models.MetaPageCount: pageCount,
		},
	}, nil
}

package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

// CompressTool re-serializes the document through pdfcpu's optimizer.
// The quality option is a hint recorded in the audit metadata; the
// optimizer itself has no tunable target.
type CompressTool struct {
	conf *model.Configuration
}

func NewCompressTool() *CompressTool {
	return &CompressTool{conf: model.NewDefaultConfiguration()}
}

func (t *CompressTool) ID() string { return "compress-pdf" }

func (t *CompressTool) Accepts() []string { return []string{".pdf"} }

func (t *CompressTool) Run(ctx context.Context, req *Request) (*Result, error) {
	opts, err := decodeOptions[models.CompressOptions](req.Options)
	if err != nil {
		return nil, err
	}
	file := req.Files[0]
	if err := requirePDF(file); err != nil {
		return nil, err
	}

	quality := opts.Quality
	if quality == "" {
		quality = "medium"
	}

	outPath := filepath.Join(req.WorkDir, "compressed.pdf")
	if err := api.OptimizeFile(req.Paths[0], outPath, t.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat output: %w", err)
	}
	ratio := 1.0
	if file.Size > 0 {
		ratio = float64(info.Size()) / float64(file.Size)
	}

	return &Result{
		Path:        outPath,
		Filename:    "compressed_" + file.OriginalName,
		ContentType: "application/pdf",
		Metadata: map[string]any{
			"compressionLevel": quality,
			"originalSize":     file.Size,
			"compressedSize":   info.Size(),
			"compressionRatio": ratio,
		},
	}, nil
}

// RotateTool rotates the named pages (all pages when unset) by the
// given angle, default 90 degrees clockwise.
type RotateTool struct {
	conf *model.Configuration
}

func NewRotateTool() *RotateTool {
	return &RotateTool{conf: model.NewDefaultConfiguration()}
}

func (t *RotateTool) ID() string { return "rotate-pdf" }

func (t *RotateTool) Accepts() []string { return []string{".pdf"} }

func (t *RotateTool) Run(ctx context.Context, req *Request) (*Result, error) {
	opts, err := decodeOptions[models.RotateOptions](req.Options)
	if err != nil {
		return nil, err
	}
	file := req.Files[0]
	if err := requirePDF(file); err != nil {
		return nil, err
	}

	angle := opts.Angle
	if angle == 0 {
		angle = 90
	}

	pageCount, err := api.PageCountFile(req.Paths[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}
	pages := clampIndices(opts.Pages, pageCount)
	var selection []string
	if len(opts.Pages) > 0 {
		if len(pages) == 0 {
			return nil, fmt.Errorf("%w: no pages in range", ErrMissingOption)
		}
		selection = pdfcpuPages(pages)
	} else {
		for i := 0; i < pageCount; i++ {
			pages = append(pages, i)
		}
	}

	outPath := filepath.Join(req.WorkDir, "rotated.pdf")
	if err := api.RotateFile(req.Paths[0], outPath, angle, selection, t.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}

	return &Result{
		Path:        outPath,
		Filename:    "rotated_" + file.OriginalName,
		ContentType: "application/pdf",
		Metadata: map[string]any{
			"rotatedPages":  pages,
			"rotationAngle": angle,
		},
	}, nil
}

// PageNumberTool stamps a page number onto every page. The format
// template understands {n} (current page) and {total}.
type PageNumberTool struct {
	conf *model.Configuration
}

func NewPageNumberTool() *PageNumberTool {
	return &PageNumberTool{conf: model.NewDefaultConfiguration()}
}

func (t *PageNumberTool) ID() string { return "add-page-numbers" }

func (t *PageNumberTool) Accepts() []string { return []string{".pdf"} }

var pageNumberAnchors = map[string]string{
	"topLeft":      "tl",
	"topCenter":    "tc",
	"topRight":     "tr",
	"bottomLeft":   "bl",
	"bottomCenter": "bc",
	"bottomRight":  "br",
}

func (t *PageNumberTool) Run(ctx context.Context, req *Request) (*Result, error) {
	opts, err := decodeOptions[models.PageNumberOptions](req.Options)
	if err != nil {
		return nil, err
	}
	file := req.Files[0]
	if err := requirePDF(file); err != nil {
		return nil, err
	}

	start := opts.StartNumber
	if start == 0 {
		start = 1
	}
	format := opts.Format
	if format == "" {
		format = "{n}"
	}
	fontSize := opts.FontSize
	if fontSize == 0 {
		fontSize = 12
	}
	anchor, ok := pageNumberAnchors[opts.Position]
	if !ok {
		anchor = "bc"
	}

	pageCount, err := api.PageCountFile(req.Paths[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}

	desc := fmt.Sprintf("fontname:Helvetica, points:%d, pos:%s, scale:1 abs, rot:0, op:1", fontSize, anchor)
	stamps := make(map[int]*model.Watermark, pageCount)
	total := strconv.Itoa(pageCount)
	for i := 0; i < pageCount; i++ {
		text := strings.ReplaceAll(format, "{n}", strconv.Itoa(start+i))
		text = strings.ReplaceAll(text, "{total}", total)
		wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingOption, err)
		}
		stamps[i+1] = wm
	}

	outPath := filepath.Join(req.WorkDir, "numbered.pdf")
	if err := api.AddWatermarksMapFile(req.Paths[0], outPath, stamps, t.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}

	return &Result{
		Path:        outPath,
		Filename:    "numbered_" + file.OriginalName,
		ContentType: "application/pdf",
		Metadata: map[string]any{
			"startNumber":        start,
			"position":           anchor,
			"format":             format,
			models.MetaPageCount: pageCount,
		},
	}, nil
}

// RemovePagesTool drops the named 0-based pages. The whole index set is
// resolved against the original document in one operation, so later
// indices are not shifted by earlier removals.
type RemovePagesTool struct {
	conf *model.Configuration
}

func NewRemovePagesTool() *RemovePagesTool {
	return &RemovePagesTool{conf: model.NewDefaultConfiguration()}
}

func (t *RemovePagesTool) ID() string { return "remove-pages" }

func (t *RemovePagesTool) Accepts() []string { return []string{".pdf"} }

func (t *RemovePagesTool) Run(ctx context.Context, req *Request) (*Result, error) {
	opts, err := decodeOptions[models.PageSelectionOptions](req.Options)
	if err != nil {
		return nil, err
	}
	file := req.Files[0]
	if err := requirePDF(file); err != nil {
		return nil, err
	}

	pageCount, err := api.PageCountFile(req.Paths[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}
	pages := clampIndices(opts.Pages, pageCount)
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages in range", ErrMissingOption)
	}
	if len(pages) >= pageCount {
		return nil, fmt.Errorf("%w: cannot remove every page", ErrMissingOption)
	}

	outPath := filepath.Join(req.WorkDir, "edited.pdf")
	if err := api.RemovePagesFile(req.Paths[0], outPath, pdfcpuPages(pages), t.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}

	return &Result{
		Path:        outPath,
		Filename:    "edited_" + file.OriginalName,
		ContentType: "application/pdf",
		Metadata: map[string]any{
			"removedPages":      pages,
			"originalPageCount": pageCount,
			"newPageCount":      pageCount - len(pages),
		},
	}, nil
}

// ExtractPagesTool copies only the named 0-based pages into a fresh
// document, preserving the requested order.
type ExtractPagesTool struct {
	conf *model.Configuration
}

func NewExtractPagesTool() *ExtractPagesTool {
	return &ExtractPagesTool{conf: model.NewDefaultConfiguration()}
}

func (t *ExtractPagesTool) ID() string { return "extract-pages" }

func (t *ExtractPagesTool) Accepts() []string { return []string{".pdf"} }

func (t *ExtractPagesTool) Run(ctx context.Context, req *Request) (*Result, error) {
	opts, err := decodeOptions[models.PageSelectionOptions](req.Options)
	if err != nil {
		return nil, err
	}
	file := req.Files[0]
	if err := requirePDF(file); err != nil {
		return nil, err
	}

	pageCount, err := api.PageCountFile(req.Paths[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}
	pages := clampIndices(opts.Pages, pageCount)
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages in range", ErrMissingOption)
	}

	outPath := filepath.Join(req.WorkDir, "extracted.pdf")
	if err := api.CollectFile(req.Paths[0], outPath, pdfcpuPages(pages), t.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}

	return &Result{
		Path:        outPath,
		Filename:    "extracted_" + file.OriginalName,
		ContentType: "application/pdf",
		Metadata: map[string]any{
			"extractedPages":     pages,
			models.MetaPageCount: len(pages),
		},
	}, nil
}

// RepairTool re-serializes the document with relaxed validation.
// Best effort only: a document pdfcpu cannot parse at all is terminal.
type RepairTool struct {
	conf *model.Configuration
}

func NewRepairTool() *RepairTool {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &RepairTool{conf: conf}
}

func (t *RepairTool) ID() string { return "repair-pdf" }

func (t *RepairTool) Accepts() []string { return []string{".pdf"} }

func (t *RepairTool) Run(ctx context.Context, req *Request) (*Result, error) {
	file := req.Files[0]
	if err := requirePDF(file); err != nil {
		return nil, err
	}

	outPath := filepath.Join(req.WorkDir, "repaired.pdf")
	if err := api.OptimizeFile(req.Paths[0], outPath, t.conf); err != nil {
		return nil, fmt.Errorf("%w: failed to repair: %v", ErrCorruptInput, err)
	}

	return &Result{
		Path:        outPath,
		Filename:    "repaired_" + file.OriginalName,
		ContentType: "application/pdf",
		Metadata: map[string]any{
			"repaired": true,
		},
	}, nil
}

package tools

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

// SplitTool partitions one document into page chunks, either by an
// explicit range string or every N pages (default: one page per
// chunk). All chunks are bundled into a single zip archive so none are
// dropped.
type SplitTool struct {
	conf *model.Configuration
}

func NewSplitTool() *SplitTool {
	return &SplitTool{conf: model.NewDefaultConfiguration()}
}

func (t *SplitTool) ID() string { return "split-pdf" }

func (t *SplitTool) Accepts() []string { return []string{".pdf"} }

func (t *SplitTool) Run(ctx context.Context, req *Request) (*Result, error) {
	opts, err := decodeOptions[models.SplitOptions](req.Options)
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

	var chunks [][]int
	switch {
	case opts.SplitMethod == "everyNPages" && opts.EveryNPages > 0:
		chunks = ChunkEveryN(pageCount, opts.EveryNPages)
	case opts.Ranges != "":
		chunks, err = ChunkRanges(opts.Ranges, pageCount)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMissingOption, err)
		}
	default:
		chunks = ChunkEveryN(pageCount, 1)
	}

	base := baseName(file.OriginalName)
	chunkDir := filepath.Join(req.WorkDir, "chunks")
	if err := os.MkdirAll(chunkDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create chunk directory: %w", err)
	}

	var chunkPaths []string
	for i, chunk := range chunks {
		chunkPath := filepath.Join(chunkDir, fmt.Sprintf("%s_part%d.pdf", base, i+1))
		if err := api.TrimFile(req.Paths[0], chunkPath, pdfcpuPages(chunk), t.conf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
		}
		chunkPaths = append(chunkPaths, chunkPath)
	}

	outPath := filepath.Join(req.WorkDir, "split.zip")
	if err := zipFiles(outPath, chunkPaths); err != nil {
		return nil, fmt.Errorf("failed to bundle chunks: %w", err)
	}

	return &Result{
		Path:        outPath,
		Filename:    base + "_split.zip",
		ContentType: "application/zip",
		Metadata: map[string]any{
			"chunkCount": len(chunks),
			"pageGroups": chunks,
		},
	}, nil
}

// zipFiles writes a flat archive containing the named files.
func zipFiles(outPath string, paths []string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.Base(path))
		if err != nil {
			f.Close()
			return err
		}
		if _, err := io.Copy(w, f); err != nil {
			f.Close()
			return err
		}
		f.Close()
	}
	return zw.Close()
}

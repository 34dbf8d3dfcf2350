package tools

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/CAR235/ConnexaLabPDF/config"
)

// ImagesToPDFTool builds a PDF from one or more uploaded images, one
// page per image, in the caller-supplied order.
type ImagesToPDFTool struct {
	conf *model.Configuration
}

func NewImagesToPDFTool() *ImagesToPDFTool {
	return &ImagesToPDFTool{conf: model.NewDefaultConfiguration()}
}

func (t *ImagesToPDFTool) ID() string { return "jpg-to-pdf" }

func (t *ImagesToPDFTool) Accepts() []string { return []string{".jpg", ".jpeg", ".png"} }

func (t *ImagesToPDFTool) Run(ctx context.Context, req *Request) (*Result, error) {
	outPath := filepath.Join(req.WorkDir, "converted.pdf")
	imp := pdfcpu.DefaultImportConfig()
	if err := api.ImportImagesFile(req.Paths, outPath, imp, t.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}

	name := "converted.pdf"
	if len(req.Files) == 1 {
		name = baseName(req.Files[0].OriginalName) + ".pdf"
	}
	return &Result{
		Path:        outPath,
		Filename:    name,
		ContentType: "application/pdf",
		Metadata: map[string]any{
			"imageCount": len(req.Files),
		},
	}, nil
}

// PDFToImagesTool extracts the document's images and re-encodes them as
// JPEG. A single image comes back as-is; more than one is bundled into
// a zip archive.
type PDFToImagesTool struct {
	conf *model.Configuration
}

func NewPDFToImagesTool() *PDFToImagesTool {
	return &PDFToImagesTool{conf: model.NewDefaultConfiguration()}
}

func (t *PDFToImagesTool) ID() string { return "pdf-to-jpg" }

func (t *PDFToImagesTool) Accepts() []string { return []string{".pdf"} }

func (t *PDFToImagesTool) Run(ctx context.Context, req *Request) (*Result, error) {
	file := req.Files[0]
	if err := requirePDF(file); err != nil {
		return nil, err
	}

	imageDir := filepath.Join(req.WorkDir, "images")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image dir: %w", err)
	}
	if err := api.ExtractImagesFile(req.Paths[0], imageDir, nil, t.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}

	entries, err := os.ReadDir(imageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted images: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: document contains no extractable images", ErrCorruptInput)
	}

	base := baseName(file.OriginalName)
	var jpegs []string
	for i, e := range entries {
		src, err := imaging.Open(filepath.Join(imageDir, e.Name()))
		if err != nil {
			continue
		}
		dst := filepath.Join(req.WorkDir, fmt.Sprintf("%s_%d.jpg", base, i+1))
		if err := imaging.Save(src, dst, imaging.JPEGQuality(85)); err != nil {
			return nil, fmt.Errorf("failed to encode jpeg: %w", err)
		}
		jpegs = append(jpegs, dst)
	}
	if len(jpegs) == 0 {
		return nil, fmt.Errorf("%w: document contains no decodable images", ErrCorruptInput)
	}
	sort.Strings(jpegs)

	if len(jpegs) == 1 {
		return &Result{
			Path:        jpegs[0],
			Filename:    base + ".jpg",
			ContentType: "image/jpeg",
			Metadata:    map[string]any{"imageCount": 1},
		}, nil
	}

	zipPath := filepath.Join(req.WorkDir, "images.zip")
	if err := zipFiles(zipPath, jpegs); err != nil {
		return nil, fmt.Errorf("failed to bundle images: %w", err)
	}
	return &Result{
		Path:        zipPath,
		Filename:    base + "_images.zip",
		ContentType: "application/zip",
		Metadata:    map[string]any{"imageCount": len(jpegs)},
	}, nil
}

// Accepted input extensions per to-PDF conversion id.
var convertToPDFInputs = map[string][]string{
	"word-to-pdf":       {".doc", ".docx"},
	"excel-to-pdf":      {".xls", ".xlsx"},
	"powerpoint-to-pdf": {".ppt", ".pptx"},
	"html-to-pdf":       {".html", ".htm"},
}

// ConvertToPDFTool delegates office and HTML conversion to the external
// backend and returns the resulting PDF.
type ConvertToPDFTool struct {
	id string
}

func NewConvertToPDFTool(id string) *ConvertToPDFTool { return &ConvertToPDFTool{id: id} }

func (t *ConvertToPDFTool) ID() string { return t.id }

func (t *ConvertToPDFTool) Accepts() []string { return convertToPDFInputs[t.id] }

func (t *ConvertToPDFTool) Run(ctx context.Context, req *Request) (*Result, error) {
	file := req.Files[0]
	outPath := filepath.Join(req.WorkDir, "converted.pdf")
	if err := convertRemote(ctx, req.Paths[0], file.OriginalName, "pdf", outPath); err != nil {
		return nil, err
	}
	return &Result{
		Path:        outPath,
		Filename:    baseName(file.OriginalName) + ".pdf",
		ContentType: "application/pdf",
		Metadata: map[string]any{
			"convertedFrom": strings.TrimPrefix(filepath.Ext(file.OriginalName), "."),
		},
	}, nil
}

// Target format per from-PDF conversion id.
var convertFromPDFTargets = map[string]struct {
	ext         string
	contentType string
}{
	"pdf-to-excel":      {"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	"pdf-to-powerpoint": {"pptx", "application/vnd.openxmlformats-officedocument.presentationml.presentation"},
}

// ConvertFromPDFTool delegates PDF-to-office conversion to the external
// backend.
type ConvertFromPDFTool struct {
	id string
}

func NewConvertFromPDFTool(id string) *ConvertFromPDFTool { return &ConvertFromPDFTool{id: id} }

func (t *ConvertFromPDFTool) ID() string { return t.id }

func (t *ConvertFromPDFTool) Accepts() []string { return []string{".pdf"} }

func (t *ConvertFromPDFTool) Run(ctx context.Context, req *Request) (*Result, error) {
	file := req.Files[0]
	if err := requirePDF(file); err != nil {
		return nil, err
	}
	target := convertFromPDFTargets[t.id]
	outPath := filepath.Join(req.WorkDir, "converted."+target.ext)
	if err := convertRemote(ctx, req.Paths[0], file.OriginalName, target.ext, outPath); err != nil {
		return nil, err
	}
	return &Result{
		Path:        outPath,
		Filename:    baseName(file.OriginalName) + "." + target.ext,
		ContentType: target.contentType,
		Metadata: map[string]any{
			"convertedTo": target.ext,
		},
	}, nil
}

// convertRemote POSTs the document to the conversion backend as
// multipart form data ("file" part plus a "to" field naming the target
// format) and writes the response body to outPath.
func convertRemote(ctx context.Context, inPath, filename, target, outPath string) error {
	cfg := config.GetConvertConfig()
	if cfg.BackendURL == "" {
		return fmt.Errorf("%w: no conversion backend configured", ErrBackendFailure)
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			if _, cerr := io.Copy(part, in); cerr != nil {
				err = cerr
			}
		}
		if err == nil {
			err = mw.WriteField("to", target)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BackendURL+"/convert", pr)
	if err != nil {
		return fmt.Errorf("failed to build backend request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: backend returned %d: %s", ErrBackendFailure, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("%w: reading backend response: %v", ErrBackendFailure, err)
	}
	return nil
}

package tools

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFToWordTool extracts the document text and writes it into a minimal
// DOCX, one paragraph per extracted line. Layout is not preserved; this
// mirrors what text-level conversion can deliver without a rendering
// backend.
type PDFToWordTool struct{}

func NewPDFToWordTool() *PDFToWordTool { return &PDFToWordTool{} }

func (t *PDFToWordTool) ID() string { return "pdf-to-word" }

func (t *PDFToWordTool) Accepts() []string { return []string{".pdf"} }

func (t *PDFToWordTool) Run(ctx context.Context, req *Request) (*Result, error) {
	file := req.Files[0]
	if err := requirePDF(file); err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(req.Paths[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptInput, err)
	}
	defer f.Close()

	var paragraphs []string
	pageCount := r.NumPage()
	for i := 1; i <= pageCount; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				paragraphs = append(paragraphs, line)
			}
		}
	}

	outPath := filepath.Join(req.WorkDir, "converted.docx")
	if err := writeDocx(outPath, paragraphs); err != nil {
		return nil, fmt.Errorf("failed to write docx: %w", err)
	}

	return &Result{
		Path:        outPath,
		Filename:    baseName(file.OriginalName) + ".docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Metadata: map[string]any{
			"pageCount":      pageCount,
			"paragraphCount": len(paragraphs),
		},
	}, nil
}

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// writeDocx emits the three required parts of a WordprocessingML
// package: content types, package relationships and the document body.
func writeDocx(path string, paragraphs []string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", docxDocument(paragraphs)},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return err
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return err
		}
	}
	return zw.Close()
}

func docxDocument(paragraphs []string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		b.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		b.WriteString(xmlEscape(p))
		b.WriteString(`</w:t></w:r></w:p>`)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s)) //nolint:errcheck // bytes.Buffer never errors
	return buf.String()
}

package tools

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

// writeTestPDF emits a syntactically complete single-body PDF with the
// given page count. Pages are empty but carry a MediaBox, which is all
// pdfcpu needs to page-count, trim and merge them.
func writeTestPDF(t *testing.T, path string, pageCount int) {
	t.Helper()

	kids := make([]string, pageCount)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+i)
	}
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pageCount),
	}
	for i := 0; i < pageCount; i++ {
		objs = append(objs, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	offsets := make([]int, len(objs)+1)
	for i, body := range objs {
		offsets[i+1] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(objs); i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// newPDFRequest builds a Request whose i-th input is a fresh test PDF
// with pageCounts[i] pages.
func newPDFRequest(t *testing.T, options string, pageCounts ...int) *Request {
	t.Helper()

	workDir := t.TempDir()
	req := &Request{WorkDir: workDir}
	if options != "" {
		req.Options = []byte(options)
	}
	for i, n := range pageCounts {
		path := filepath.Join(workDir, fmt.Sprintf("in_%d.pdf", i))
		writeTestPDF(t, path, n)
		req.Files = append(req.Files, &models.File{
			ID:           int64(i + 1),
			OriginalName: fmt.Sprintf("doc_%d.pdf", i),
			ContentType:  "application/pdf",
		})
		req.Paths = append(req.Paths, path)
	}
	return req
}

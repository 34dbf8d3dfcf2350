package tools

import (
	"archive/zip"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDocxProducesRequiredParts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.docx")
	require.NoError(t, writeDocx(path, []string{"First line", "Second <line> & more"}))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	parts := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		parts[f.Name] = string(body)
	}

	require.Contains(t, parts, "[Content_Types].xml")
	require.Contains(t, parts, "_rels/.rels")
	require.Contains(t, parts, "word/document.xml")

	doc := parts["word/document.xml"]
	assert.Contains(t, doc, "First line")
	assert.Contains(t, doc, "&lt;line&gt;")
	assert.Equal(t, 2, strings.Count(doc, "<w:p>"))
}

func TestPageNumberStampsEveryPage(t *testing.T) {
	req := newPDFRequest(t, `{"format":"{n} / {total}","position":"bottomCenter"}`, 3)

	result, err := NewPageNumberTool().Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 3, pageCountOf(t, result.Path))
	assert.Equal(t, "bc", result.Metadata["position"])
}

func TestConvertBackendUnconfigured(t *testing.T) {
	req := newPDFRequest(t, "", 1)
	req.Files[0].OriginalName = "report.docx"
	req.Files[0].ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	_, err := NewConvertToPDFTool("word-to-pdf").Run(context.Background(), req)
	assert.ErrorIs(t, err, ErrBackendFailure)
}

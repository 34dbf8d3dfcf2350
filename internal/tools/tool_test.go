package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

func TestRegistryCoversEveryTool(t *testing.T) {
	want := []string{
		"merge-pdf", "split-pdf", "compress-pdf", "rotate-pdf",
		"add-page-numbers", "remove-pages", "extract-pages", "repair-pdf",
		"protect-pdf", "unlock-pdf", "add-watermark", "sign-pdf",
		"word-to-pdf", "excel-to-pdf", "powerpoint-to-pdf", "jpg-to-pdf",
		"html-to-pdf", "pdf-to-word", "pdf-to-excel", "pdf-to-powerpoint",
		"pdf-to-jpg",
	}

	reg := Registry()
	assert.Len(t, reg, len(want))
	for _, id := range want {
		tool, ok := reg[id]
		require.True(t, ok, "missing tool %s", id)
		assert.Equal(t, id, tool.ID())
		assert.NotEmpty(t, tool.Accepts(), "tool %s accepts nothing", id)
	}
}

func TestDecodeOptionsDefaults(t *testing.T) {
	opts, err := decodeOptions[models.SplitOptions](nil)
	require.NoError(t, err)
	assert.Zero(t, opts.EveryNPages)
}

func TestDecodeOptionsMalformedJSON(t *testing.T) {
	_, err := decodeOptions[models.SplitOptions]([]byte("{not json"))
	assert.ErrorIs(t, err, ErrMissingOption)
}

func TestDecodeOptionsValidation(t *testing.T) {
	_, err := decodeOptions[models.SplitOptions]([]byte(`{"splitMethod":"bogus"}`))
	assert.ErrorIs(t, err, ErrMissingOption)
}

func TestDecodeOptionsRequiredField(t *testing.T) {
	_, err := decodeOptions[models.PageSelectionOptions]([]byte(`{}`))
	assert.ErrorIs(t, err, ErrMissingOption)
}

func TestRequirePDF(t *testing.T) {
	pdf := &models.File{OriginalName: "a.pdf", ContentType: "application/pdf"}
	jpg := &models.File{OriginalName: "a.jpg", ContentType: "image/jpeg"}

	assert.NoError(t, requirePDF(pdf))
	assert.ErrorIs(t, requirePDF(pdf, jpg), ErrUnsupportedInput)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "report", baseName("report.pdf"))
	assert.Equal(t, "archive.tar", baseName("archive.tar.gz"))
	assert.Equal(t, "noext", baseName("noext"))
}

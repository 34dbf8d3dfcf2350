package tools

import (
	"context"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CAR235/ConnexaLabPDF/internal/models"
)

func TestMergeConcatenatesPages(t *testing.T) {
	req := newPDFRequest(t, "", 2, 5)

	result, err := NewMergeTool().Run(context.Background(), req)
	require.NoError(t, err)

	pageCount, err := api.PageCountFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, 7, pageCount)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Equal(t, 7, result.Metadata[models.MetaPageCount])
}

func TestMergeHonorsPageOrder(t *testing.T) {
	req := newPDFRequest(t, `{"pageOrder":[1,0]}`, 2, 3)

	result, err := NewMergeTool().Run(context.Background(), req)
	require.NoError(t, err)

	pageCount, err := api.PageCountFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, 5, pageCount)
}

func TestMergeRejectsBadPageOrder(t *testing.T) {
	req := newPDFRequest(t, `{"pageOrder":[0,7]}`, 2, 3)

	_, err := NewMergeTool().Run(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingOption)
}

func TestMergeRejectsNonPDF(t *testing.T) {
	req := newPDFRequest(t, "", 2, 3)
	req.Files[1].OriginalName = "photo.jpg"
	req.Files[1].ContentType = "image/jpeg"

	_, err := NewMergeTool().Run(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnsupportedInput)
}

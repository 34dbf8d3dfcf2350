package files

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CAR235/ConnexaLabPDF/internal/store"
	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
	"github.com/CAR235/ConnexaLabPDF/pkg/storage/local"
)

type upload struct {
	name    string
	content []byte
}

// makeHeaders builds real multipart.FileHeader values by writing and
// re-parsing a multipart body, the same shape gin hands the service.
func makeHeaders(t *testing.T, uploads []upload) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, u := range uploads {
		w, err := mw.CreateFormFile("files", u.name)
		require.NoError(t, err)
		_, err = w.Write(u.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["files"]
}

func newTestService(t *testing.T, cfg *ServiceConfig) (FileService, store.Store) {
	t.Helper()

	st := store.NewMemoryStore()
	blobs, err := local.NewLocalStorage(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)
	if cfg == nil {
		cfg = &ServiceConfig{
			MaxFileSize:     1 << 20,
			MaxParts:        3,
			AllowedTypes:    []string{".pdf", ".jpg"},
			RetentionPeriod: time.Hour,
		}
	}
	return NewService(st, blobs, logger.NewTestLogger(), cfg), st
}

func ptr[T any](v T) *T { return &v }

func TestUploadBatchCreatesRecords(t *testing.T) {
	svc, _ := newTestService(t, nil)
	headers := makeHeaders(t, []upload{
		{"a.pdf", []byte("%PDF-1.7 one")},
		{"b.pdf", []byte("%PDF-1.7 two")},
	})

	records, err := svc.UploadBatch(context.Background(), headers, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "a.pdf", records[0].OriginalName)
	assert.Equal(t, int64(len("%PDF-1.7 one")), records[0].Size)
	assert.Nil(t, records[0].UserID)
	assert.NotEqual(t, records[0].ID, records[1].ID)

	// bytes must round-trip through the blob store
	_, reader, err := svc.Download(context.Background(), records[1].ID, nil)
	require.NoError(t, err)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7 two"), body)
}

func TestUploadBatchRejectsEmpty(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.UploadBatch(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestUploadBatchRejectsTooManyParts(t *testing.T) {
	svc, _ := newTestService(t, nil)
	headers := makeHeaders(t, []upload{
		{"a.pdf", []byte("1")}, {"b.pdf", []byte("2")},
		{"c.pdf", []byte("3")}, {"d.pdf", []byte("4")},
	})

	_, err := svc.UploadBatch(context.Background(), headers, nil)
	assert.ErrorIs(t, err, ErrTooManyParts)
}

func TestUploadBatchRejectsUnsupportedType(t *testing.T) {
	svc, st := newTestService(t, nil)
	headers := makeHeaders(t, []upload{
		{"a.pdf", []byte("fine")},
		{"evil.exe", []byte("nope")},
	})

	_, err := svc.UploadBatch(context.Background(), headers, nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)

	// nothing from the batch may survive
	records, err := st.ListFilesByOwner(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUploadBatchRejectsOversizedFile(t *testing.T) {
	svc, _ := newTestService(t, &ServiceConfig{
		MaxFileSize:     4,
		MaxParts:        3,
		AllowedTypes:    []string{".pdf"},
		RetentionPeriod: time.Hour,
	})
	headers := makeHeaders(t, []upload{{"big.pdf", []byte("123456789")}})

	_, err := svc.UploadBatch(context.Background(), headers, nil)
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestDownloadEnforcesOwnership(t *testing.T) {
	svc, _ := newTestService(t, nil)
	headers := makeHeaders(t, []upload{{"mine.pdf", []byte("owned")}})

	records, err := svc.UploadBatch(context.Background(), headers, ptr(int64(1)))
	require.NoError(t, err)

	_, _, err = svc.Download(context.Background(), records[0].ID, nil)
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = svc.Download(context.Background(), records[0].ID, ptr(int64(2)))
	assert.ErrorIs(t, err, ErrForbidden)

	_, reader, err := svc.Download(context.Background(), records[0].ID, ptr(int64(1)))
	require.NoError(t, err)
	reader.Close()
}

func TestDownloadUnknownFile(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, _, err := svc.Download(context.Background(), 404, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteRemovesRecordAndBlob(t *testing.T) {
	svc, _ := newTestService(t, nil)
	headers := makeHeaders(t, []upload{{"gone.pdf", []byte("bye")}})

	records, err := svc.UploadBatch(context.Background(), headers, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), records[0].ID, nil))

	_, _, err = svc.Download(context.Background(), records[0].ID, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCleanupExpiredSweepsAnonymousOnly(t *testing.T) {
	// negative retention puts the cutoff in the future, so every
	// anonymous file is already expired
	svc, st := newTestService(t, &ServiceConfig{
		MaxFileSize:     1 << 20,
		MaxParts:        5,
		AllowedTypes:    []string{".pdf"},
		RetentionPeriod: -time.Minute,
	})

	anonHeaders := makeHeaders(t, []upload{{"anon.pdf", []byte("old")}})
	_, err := svc.UploadBatch(context.Background(), anonHeaders, nil)
	require.NoError(t, err)

	ownedHeaders := makeHeaders(t, []upload{{"owned.pdf", []byte("kept")}})
	owned, err := svc.UploadBatch(context.Background(), ownedHeaders, ptr(int64(1)))
	require.NoError(t, err)

	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	anonLeft, err := st.ListFilesByOwner(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, anonLeft)

	_, reader, err := svc.Download(context.Background(), owned[0].ID, ptr(int64(1)))
	require.NoError(t, err)
	reader.Close()
}

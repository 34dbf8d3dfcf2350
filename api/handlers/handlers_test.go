package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CAR235/ConnexaLabPDF/api/middleware"
	"github.com/CAR235/ConnexaLabPDF/internal/service/auth"
	"github.com/CAR235/ConnexaLabPDF/internal/service/files"
	"github.com/CAR235/ConnexaLabPDF/internal/service/process"
	"github.com/CAR235/ConnexaLabPDF/internal/store"
	"github.com/CAR235/ConnexaLabPDF/internal/tools"
	"github.com/CAR235/ConnexaLabPDF/pkg/logger"
	"github.com/CAR235/ConnexaLabPDF/pkg/storage/local"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	blobs, err := local.NewLocalStorage(t.TempDir(), logger.NewTestLogger())
	require.NoError(t, err)
	log := logger.NewTestLogger()

	fileService := files.NewService(st, blobs, log, &files.ServiceConfig{
		MaxFileSize:     1 << 20,
		MaxParts:        5,
		AllowedTypes:    []string{".pdf", ".jpg"},
		RetentionPeriod: time.Hour,
	})
	processor := process.NewService(st, blobs, tools.Registry(), log)
	authService := auth.NewService(st, log)

	h := NewHandlers(fileService, processor, authService, log)

	r := gin.New()
	r.Use(middleware.OptionalAuth(authService))
	api := r.Group("/api")
	api.POST("/upload", h.Files.Upload)
	api.POST("/process/:toolId", h.Process.Process)
	api.GET("/download/:fileId", h.Files.Download)
	api.DELETE("/files/:fileId", h.Files.Delete)
	api.GET("/jobs", h.Process.ListJobs)
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	return r
}

func doUpload(t *testing.T, r *gin.Engine, token string, names ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		w, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = w.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func doUploadBytes(t *testing.T, r *gin.Engine, name string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	w, err := mw.CreateFormFile("files", name)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// minimalPDF emits a syntactically complete single-body PDF: empty
// pages with a MediaBox and a hand-computed xref.
func minimalPDF(pageCount int) []byte {
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
	return buf.Bytes()
}

func TestUploadAndDownloadRoundTrip(t *testing.T) {
	r := newTestRouter(t)

	rec := doUpload(t, r, "", "doc.pdf")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		FileIDs []string       `json:"fileIds"`
		Files   []FileResponse `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 1)
	require.Len(t, resp.FileIDs, 1)
	assert.Equal(t, "doc.pdf", resp.Files[0].OriginalName)

	req := httptest.NewRequest("GET", "/api/download/"+resp.FileIDs[0], nil)
	dl := httptest.NewRecorder()
	r.ServeHTTP(dl, req)

	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, "content of doc.pdf", dl.Body.String())
	assert.Contains(t, dl.Header().Get("Content-Disposition"), `"doc.pdf"`)

	// A repeat download of the same id serves the same bytes.
	again := httptest.NewRecorder()
	r.ServeHTTP(again, httptest.NewRequest("GET", "/api/download/"+resp.FileIDs[0], nil))
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, dl.Body.Bytes(), again.Body.Bytes())
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	r := newTestRouter(t)

	rec := doUpload(t, r, "", "malware.exe")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadUnknownFileIs404(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/download/12345", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProcessUnknownToolIs400(t *testing.T) {
	r := newTestRouter(t)

	body := bytes.NewBufferString(`{"fileIds":[1]}`)
	req := httptest.NewRequest("POST", "/api/process/shrink-ray", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessEmptyFileIdsIs400(t *testing.T) {
	r := newTestRouter(t)

	body := bytes.NewBufferString(`{"fileIds":[]}`)
	req := httptest.NewRequest("POST", "/api/process/merge-pdf", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessRequestAcceptsStringAndNumberIds(t *testing.T) {
	var req ProcessRequest
	require.NoError(t, json.Unmarshal([]byte(`{"fileIds":["1",2]}`), &req))
	assert.Equal(t, []fileID{1, 2}, req.FileIDs)

	require.Error(t, json.Unmarshal([]byte(`{"fileIds":["abc"]}`), &req))
}

func TestProcessStringIdsReachDispatch(t *testing.T) {
	r := newTestRouter(t)

	body := bytes.NewBufferString(`{"fileIds":["999"]}`)
	req := httptest.NewRequest("POST", "/api/process/rotate-pdf", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	// The body binds; the dispatcher reports the missing file rather
	// than the handler rejecting the shape.
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProcessRotateRoundTrip(t *testing.T) {
	r := newTestRouter(t)

	up := doUploadBytes(t, r, "spin.pdf", minimalPDF(2))
	require.Equal(t, http.StatusOK, up.Code)
	var upResp struct {
		FileIDs []string `json:"fileIds"`
	}
	require.NoError(t, json.Unmarshal(up.Body.Bytes(), &upResp))
	require.Len(t, upResp.FileIDs, 1)

	// Echo the string id from the upload response straight back.
	body := fmt.Sprintf(`{"fileIds":[%q]}`, upResp.FileIDs[0])
	req := httptest.NewRequest("POST", "/api/process/rotate-pdf", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ResultFileID string `json:"resultFileId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ResultFileID)

	dl := httptest.NewRecorder()
	r.ServeHTTP(dl, httptest.NewRequest("GET", "/api/download/"+resp.ResultFileID, nil))
	assert.Equal(t, http.StatusOK, dl.Code)
	assert.NotEmpty(t, dl.Body.Bytes())
}

func TestOwnedFileHiddenFromAnonymous(t *testing.T) {
	r := newTestRouter(t)

	// register to get a token
	creds := bytes.NewBufferString(`{"username":"carol","password":"longpassword1"}`)
	regReq := httptest.NewRequest("POST", "/api/auth/register", creds)
	regReq.Header.Set("Content-Type", "application/json")
	regRec := httptest.NewRecorder()
	r.ServeHTTP(regRec, regReq)
	require.Equal(t, http.StatusCreated, regRec.Code)

	var reg struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(regRec.Body.Bytes(), &reg))
	require.NotEmpty(t, reg.Token)

	up := doUpload(t, r, reg.Token, "private.pdf")
	require.Equal(t, http.StatusOK, up.Code)
	var resp struct {
		Files []FileResponse `json:"files"`
	}
	require.NoError(t, json.Unmarshal(up.Body.Bytes(), &resp))

	// anonymous download is forbidden
	req := httptest.NewRequest("GET", fmt.Sprintf("/api/download/%d", resp.Files[0].ID), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// the owner gets the bytes
	req = httptest.NewRequest("GET", fmt.Sprintf("/api/download/%d", resp.Files[0].ID), nil)
	req.Header.Set("Authorization", "Bearer "+reg.Token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteFile(t *testing.T) {
	r := newTestRouter(t)

	up := doUpload(t, r, "", "temp.pdf")
	require.Equal(t, http.StatusOK, up.Code)
	var resp struct {
		Files []FileResponse `json:"files"`
	}
	require.NoError(t, json.Unmarshal(up.Body.Bytes(), &resp))

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/api/files/%d", resp.Files[0].ID), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest("GET", fmt.Sprintf("/api/download/%d", resp.Files[0].ID), nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

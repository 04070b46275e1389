package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"formbase/backend/common"
	"formbase/backend/model"
	"formbase/backend/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func setupFileTest(t *testing.T) *gin.Engine {
	t.Helper()
	originalPath := common.SQLitePath
	originalStorageType := common.StorageType
	originalLocalPath := common.StorageLocalPath
	common.SQLitePath = ":memory:"
	common.StorageType = "local"
	common.StorageLocalPath = t.TempDir()
	t.Cleanup(func() {
		common.SQLitePath = originalPath
		common.StorageType = originalStorageType
		common.StorageLocalPath = originalLocalPath
	})

	assert.NoError(t, model.InitDB())
	_, err := service.InitStorageBackend(context.Background())
	assert.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	// Stand-in for the auth middleware: a fixed logged-in user.
	r.Use(func(c *gin.Context) {
		c.Set("id", int64(1))
		c.Set("role", common.RoleCommonUser)
	})
	r.POST("/api/image", UploadImage)
	r.POST("/api/file", UploadFile)
	r.GET("/api/file/*path", DownloadFile)
	r.DELETE("/api/files/:id", DeleteFile)
	return r
}

func multipartBody(t *testing.T, filename string, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	assert.NoError(t, err)
	_, err = part.Write(content)
	assert.NoError(t, err)
	assert.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func doUpload(t *testing.T, r *gin.Engine, url string, filename string, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, formContentType := multipartBody(t, filename, contentType, content)
	req, _ := http.NewRequest("POST", url, body)
	req.Header.Set("Content-Type", formContentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestUploadImageSuccess(t *testing.T) {
	r := setupFileTest(t)
	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0xAB}, 100)...)

	w := doUpload(t, r, "/api/image", "bg.png", "image/png", content)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID   string `json:"id"`
			Path string `json:"path"`
			Size int64  `json:"size"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Regexp(t, `^images/\d{4}/\d{2}/[0-9a-f]{32}\.png$`, resp.Data.Path)
	assert.Equal(t, int64(len(content)), resp.Data.Size)

	// Record exists and belongs to the stubbed user.
	record, err := model.GetFileByStorageId(resp.Data.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), record.UserId)
	assert.Equal(t, "bg.png", record.Filename)
}

func TestUploadImageMagicByteMismatch(t *testing.T) {
	r := setupFileTest(t)
	w := doUpload(t, r, "/api/image", "fake.png", "image/png", []byte("<html>not a png</html>"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	// No record for a rejected upload.
	files, err := model.GetFilesByUser(1, 0, 10)
	assert.NoError(t, err)
	assert.Empty(t, files)
}

func TestUploadFileTooLarge(t *testing.T) {
	r := setupFileTest(t)
	originalMax := common.MaxFileUploadBytes
	common.MaxFileUploadBytes = 16
	t.Cleanup(func() { common.MaxFileUploadBytes = originalMax })

	w := doUpload(t, r, "/api/file", "big.pdf", "application/pdf", bytes.Repeat([]byte{1}, 64))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	files, err := model.GetFilesByUser(1, 0, 10)
	assert.NoError(t, err)
	assert.Empty(t, files, "too-large upload must not create a record")
}

func TestUploadFileInvalidType(t *testing.T) {
	r := setupFileTest(t)
	w := doUpload(t, r, "/api/file", "run.exe", "application/x-msdownload", []byte{0x4D, 0x5A})
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestDownloadRoundTrip(t *testing.T) {
	r := setupFileTest(t)
	content := []byte("%PDF-1.4 round trip body")
	w := doUpload(t, r, "/api/file", "doc.pdf", "application/pdf", content)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Path string `json:"path"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	req, _ := http.NewRequest("GET", "/api/file/"+resp.Data.Path, nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, content, w2.Body.Bytes(), "downloaded bytes must match the upload")
	assert.Contains(t, w2.Header().Get("Content-Disposition"), "doc.pdf",
		"download should carry the original filename from the record")
}

func TestDownloadTraversalRejected(t *testing.T) {
	r := setupFileTest(t)
	req, _ := http.NewRequest("GET", "/api/file/files/../../etc/passwd", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteFileOwnership(t *testing.T) {
	r := setupFileTest(t)
	content := append(append([]byte{}, pngHeader...), 1, 2, 3)
	w := doUpload(t, r, "/api/image", "a.png", "image/png", content)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			ID   string `json:"id"`
			Path string `json:"path"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	req, _ := http.NewRequest("DELETE", "/api/files/"+resp.Data.ID, nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusOK, w2.Code)

	// Gone from both the backend and the table.
	req3, _ := http.NewRequest("GET", "/api/file/"+resp.Data.Path, nil)
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, req3)
	assert.Equal(t, http.StatusNotFound, w3.Code)
	_, err := model.GetFileByStorageId(resp.Data.ID)
	assert.Error(t, err)
}

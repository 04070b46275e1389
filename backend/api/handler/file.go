package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"formbase/backend/common"
	"formbase/backend/library/storage"
	"formbase/backend/model"
	"formbase/backend/service"

	"github.com/gin-gonic/gin"
)

// storageErrStatus maps the storage error taxonomy to HTTP status codes.
func storageErrStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, storage.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, storage.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// UploadImage accepts a multipart image upload. The declared type must pass
// the image allow-list and the stream's first bytes must match it.
func UploadImage(c *gin.Context) {
	uploadHelper(c, storage.CategoryImage)
}

// UploadFile accepts a multipart generic file upload.
func UploadFile(c *gin.Context) {
	uploadHelper(c, storage.CategoryFile)
}

func uploadHelper(c *gin.Context, category string) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespError(c, http.StatusBadRequest, "missing file field", err)
		return
	}
	mimeType := fileHeader.Header.Get("Content-Type")
	size := fileHeader.Size

	if category == storage.CategoryImage {
		err = storage.ValidateImageUpload(mimeType, size, common.MaxImageUploadBytes)
	} else {
		err = storage.ValidateFileUpload(mimeType, size, common.MaxFileUploadBytes)
	}
	if err != nil {
		common.RespError(c, storageErrStatus(err), "upload rejected", err)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		common.RespError(c, http.StatusBadRequest, "failed to read upload", err)
		return
	}
	defer src.Close()

	var reader io.Reader = src
	if category == storage.CategoryImage {
		// Sniff the leading bytes before trusting the declared type.
		head := make([]byte, 512)
		n, readErr := io.ReadFull(src, head)
		if readErr != nil && readErr != io.ErrUnexpectedEOF {
			common.RespError(c, http.StatusBadRequest, "failed to read upload", readErr)
			return
		}
		if err := storage.ValidateImageContent(head[:n], mimeType); err != nil {
			common.RespError(c, storageErrStatus(err), "upload rejected", err)
			return
		}
		reader = io.MultiReader(bytes.NewReader(head[:n]), src)
	}

	backend := service.GetStorageBackend()
	result, err := backend.Upload(fileHeader.Filename, mimeType, size, reader)
	if err != nil {
		common.RespError(c, storageErrStatus(err), "upload failed", err)
		return
	}

	record := &model.File{
		StorageId: result.ID,
		UserId:    c.GetInt64("id"),
		Filename:  result.Filename,
		MimeType:  result.MimeType,
		Size:      result.Size,
		Path:      result.Path,
		Url:       result.URL,
	}
	if err := record.Insert(); err != nil {
		// No record may point at a failed bookkeeping state; drop the
		// object again so no unrecorded file lingers.
		if delErr := backend.Delete(result.Path); delErr != nil && !errors.Is(delErr, storage.ErrNotFound) {
			common.SysError("failed to roll back upload " + result.Path + ": " + delErr.Error())
		}
		common.RespError(c, http.StatusInternalServerError, "failed to record upload", err)
		return
	}
	common.RespSuccess(c, result)
}

// DownloadFile streams a stored file or redirects to a presigned URL,
// depending on the active backend.
func DownloadFile(c *gin.Context) {
	path := strings.TrimPrefix(c.Param("path"), "/")
	backend := service.GetStorageBackend()
	content, err := backend.GetFileByPath(path)
	if err != nil {
		common.RespError(c, storageErrStatus(err), "file not available", err)
		return
	}
	if content.RedirectURL != "" {
		c.Redirect(http.StatusFound, content.RedirectURL)
		return
	}
	defer content.Reader.Close()
	// Serve the original filename when the path has a record; bare objects
	// (e.g. mid-migration) still stream fine without one.
	var extraHeaders map[string]string
	if record, err := model.GetFileByPath(path); err == nil && record.Filename != "" {
		extraHeaders = map[string]string{
			"Content-Disposition": fmt.Sprintf("inline; filename=%q", record.Filename),
		}
	}
	c.DataFromReader(http.StatusOK, content.Size, content.ContentType, content.Reader, extraHeaders)
}

// DeleteFile removes a stored file and its record. Only the owner or an
// admin may delete; the backend object always goes before the row.
func DeleteFile(c *gin.Context) {
	storageId := c.Param("id")
	record, err := model.GetFileByStorageId(storageId)
	if err != nil {
		if errors.Is(err, model.ErrRecordNotFound) {
			common.RespErrorStr(c, http.StatusNotFound, "file not found")
			return
		}
		common.RespError(c, http.StatusInternalServerError, "failed to look up file", err)
		return
	}
	userID := c.GetInt64("id")
	role := c.GetInt("role")
	if record.UserId != userID && role < common.RoleAdminUser {
		common.RespErrorStr(c, http.StatusForbidden, "not allowed to delete this file")
		return
	}

	backend := service.GetStorageBackend()
	if err := backend.Delete(record.Path); err != nil && !errors.Is(err, storage.ErrNotFound) {
		common.RespError(c, storageErrStatus(err), "failed to delete file", err)
		return
	}
	if err := record.Delete(); err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to delete file record", err)
		return
	}
	common.RespSuccessStr(c, "file deleted")
}

// ListMyFiles returns the caller's uploads, newest first.
func ListMyFiles(c *gin.Context) {
	userID := c.GetInt64("id")
	files, err := model.GetFilesByUser(userID, 0, common.ItemsPerPage*10)
	if err != nil {
		common.RespError(c, http.StatusInternalServerError, "failed to list files", err)
		return
	}
	common.RespSuccess(c, files)
}

package storage

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StorageType identifies the active backend variant. The set is closed:
// callers switch over it and new variants are a compile-time concern.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
)

// Upload categories determine the first segment of the logical path.
const (
	CategoryImage = "images"
	CategoryFile  = "files"
)

// Error taxonomy shared by both backends. Validation and path errors are
// detected before any write and are recoverable by the caller.
var (
	ErrNotFound           = errors.New("file not found")
	ErrInvalidType        = errors.New("content type not allowed")
	ErrTooLarge           = errors.New("file exceeds size limit")
	ErrInvalidPath        = errors.New("invalid storage path")
	ErrBackendUnavailable = errors.New("storage backend unavailable")
)

// UploadResult is the metadata returned to callers after a successful write.
type UploadResult struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// FileContent delivers stored bytes to a client. The local backend fills
// Reader; the S3 backend returns a presigned RedirectURL instead. Callers
// must close Reader when it is non-nil.
type FileContent struct {
	Reader      io.ReadCloser
	Size        int64
	ContentType string
	RedirectURL string
}

// StorageBackend is the capability set shared by the local and S3 variants.
type StorageBackend interface {
	// Upload writes content exactly once under a freshly assigned id and
	// returns the resulting metadata. A failed upload leaves nothing
	// visible to readers.
	Upload(filename string, mimeType string, size int64, reader io.Reader) (*UploadResult, error)
	// GetFileByPath returns a way to deliver the stored bytes: a stream
	// for local storage, a presigned redirect for S3.
	GetFileByPath(path string) (*FileContent, error)
	// Delete removes the object at the given logical path. Absent objects
	// yield ErrNotFound; repeating a delete is safe.
	Delete(path string) error
	// PutAtPath writes content under a caller-chosen logical path,
	// overwriting any existing object. Used by migration.
	PutAtPath(path string, size int64, contentType string, reader io.Reader) error
	// ObjectExists reports whether an object is present at the path.
	ObjectExists(path string) (bool, error)
	Type() StorageType
}

// NewFileID returns a fresh 32-character lowercase hex identifier. Not
// content-derived: two identical uploads get distinct ids.
func NewFileID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// BuildStoragePath derives the logical, backend-independent path for a new
// upload: {category}/{yyyy}/{mm}/{id}{.ext}.
func BuildStoragePath(category string, id string, originalFilename string) string {
	now := time.Now()
	ext := strings.ToLower(path.Ext(originalFilename))
	return fmt.Sprintf("%s/%04d/%02d/%s%s", category, now.Year(), int(now.Month()), id, ext)
}

package model

import (
	"errors"
	"time"

	"github.com/burugo/thing"
)

// File tracks one stored object. A row exists only after a successful
// backend write; deletion removes the backend object first and the row
// second, so a crash mid-delete leaves an orphaned row pointing at a missing
// object, which the next cleanup pass heals.
type File struct {
	thing.BaseModel
	StorageId string `json:"storage_id" db:"storage_id,unique"` // 32-char lowercase hex, assigned at upload
	UserId    int64  `json:"user_id" db:"user_id"`              // 0 for anonymous/public submissions
	Filename  string `json:"filename" db:"filename"`            // original client-supplied name, display only
	MimeType  string `json:"mime_type" db:"mime_type"`
	Size      int64  `json:"size" db:"size"`
	Path      string `json:"path" db:"path,unique"` // logical storage-relative path
	Url       string `json:"url" db:"url"`          // legacy prefixed URL, not authoritative
}

var FileDB *thing.Thing[*File]

// FileInit is called by InitDB.
func FileInit() error {
	var err error
	FileDB, err = thing.Use[*File]()
	return err
}

func (file *File) Insert() error {
	return FileDB.Save(file)
}

func (file *File) Delete() error {
	return FileDB.Delete(file)
}

// GetFileByStorageId resolves the public 32-hex identifier to its row.
func GetFileByStorageId(storageId string) (*File, error) {
	if storageId == "" {
		return nil, errors.New("empty storage id")
	}
	files, err := FileDB.Where("storage_id = ?", storageId).Fetch(0, 1)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrRecordNotFound
	}
	return files[0], nil
}

func GetFileByPath(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("empty path")
	}
	files, err := FileDB.Where("path = ?", path).Fetch(0, 1)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrRecordNotFound
	}
	return files[0], nil
}

// GetFilesOlderThan returns rows created before the cutoff, the candidate
// set for a cleanup pass.
func GetFilesOlderThan(cutoff time.Time) ([]*File, error) {
	return FileDB.Where("created_at < ?", cutoff).Order("id ASC").All()
}

func GetFilesByUser(userId int64, startIdx int, num int) ([]*File, error) {
	return FileDB.Where("user_id = ?", userId).Order("id DESC").Fetch(startIdx, num)
}

package storage

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage stores uploads under a root directory on the local filesystem.
// Writes land in a temporary file first and are promoted with a rename, so a
// half-written upload is never visible under its final path.
type LocalStorage struct {
	root      string
	urlPrefix string
}

func NewLocalStorage(root string, urlPrefix string) (*LocalStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("local storage root must not be empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("%w: create root %s: %v", ErrBackendUnavailable, root, err)
	}
	return &LocalStorage{root: root, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (s *LocalStorage) Type() StorageType {
	return StorageTypeLocal
}

// Root returns the storage root directory. Used by the startup migration.
func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) Upload(filename string, mimeType string, size int64, reader io.Reader) (*UploadResult, error) {
	id := NewFileID()
	category := CategoryFile
	if strings.HasPrefix(normalizeMime(mimeType), "image/") {
		category = CategoryImage
	}
	logicalPath := BuildStoragePath(category, id, filename)

	written, err := s.writeAtomic(logicalPath, reader)
	if err != nil {
		return nil, err
	}
	return &UploadResult{
		ID:       id,
		Path:     logicalPath,
		URL:      s.urlFor(logicalPath),
		Filename: filename,
		Size:     written,
		MimeType: mimeType,
	}, nil
}

func (s *LocalStorage) GetFileByPath(p string) (*FileContent, error) {
	clean, err := SanitizePath(p)
	if err != nil {
		return nil, err
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrBackendUnavailable, clean, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: stat %s: %v", ErrBackendUnavailable, clean, err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(full))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &FileContent{
		Reader:      f,
		Size:        info.Size(),
		ContentType: contentType,
	}, nil
}

func (s *LocalStorage) Delete(p string) error {
	clean, err := SanitizePath(p)
	if err != nil {
		return err
	}
	full := filepath.Join(s.root, filepath.FromSlash(clean))
	err = os.Remove(full)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, clean)
		}
		return fmt.Errorf("%w: remove %s: %v", ErrBackendUnavailable, clean, err)
	}
	return nil
}

func (s *LocalStorage) PutAtPath(p string, size int64, contentType string, reader io.Reader) error {
	clean, err := SanitizePath(p)
	if err != nil {
		return err
	}
	_, err = s.writeAtomic(clean, reader)
	return err
}

func (s *LocalStorage) ObjectExists(p string) (bool, error) {
	clean, err := SanitizePath(p)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(s.root, filepath.FromSlash(clean)))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %s: %v", ErrBackendUnavailable, clean, err)
	}
	return true, nil
}

// writeAtomic streams reader into a temp file next to the root and renames
// it into place once the copy has fully succeeded.
func (s *LocalStorage) writeAtomic(logicalPath string, reader io.Reader) (int64, error) {
	full := filepath.Join(s.root, filepath.FromSlash(logicalPath))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return 0, fmt.Errorf("%w: mkdir for %s: %v", ErrBackendUnavailable, logicalPath, err)
	}
	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("%w: create temp file: %v", ErrBackendUnavailable, err)
	}
	tmpName := tmp.Name()
	written, err := io.Copy(tmp, reader)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("%w: write %s: %v", ErrBackendUnavailable, logicalPath, err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("%w: promote %s: %v", ErrBackendUnavailable, logicalPath, err)
	}
	return written, nil
}

func (s *LocalStorage) urlFor(logicalPath string) string {
	if s.urlPrefix == "" {
		return "/api/file/" + logicalPath
	}
	return s.urlPrefix + "/" + logicalPath
}

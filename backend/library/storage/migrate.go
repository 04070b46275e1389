package storage

import (
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
)

// MigrationResult aggregates one migration run. Not persisted.
type MigrationResult struct {
	MigratedFiles int      `json:"migrated_files"`
	MigratedBytes int64    `json:"migrated_bytes"`
	SkippedFiles  int      `json:"skipped_files"`
	Errors        []string `json:"errors,omitempty"`
}

// MigrateLocalToS3 walks localRoot and copies every regular file to dest
// under the same logical path. Per-file failures are recorded and do not
// abort the run; the whole thing is a best-effort batch, not a transaction.
//
// The run is safe to repeat: files already present at the destination are
// skipped and not counted as new work. When deleteAfter is set, the local
// copy is removed only after its presence at the destination has been
// confirmed.
func MigrateLocalToS3(localRoot string, dest StorageBackend, deleteAfter bool) (*MigrationResult, error) {
	result := &MigrationResult{}
	info, err := os.Stat(localRoot)
	if err != nil {
		if os.IsNotExist(err) {
			// Nothing to migrate.
			return result, nil
		}
		return nil, fmt.Errorf("%w: stat %s: %v", ErrBackendUnavailable, localRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, localRoot)
	}

	walkErr := filepath.WalkDir(localRoot, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", fullPath, err))
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(localRoot, fullPath)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", fullPath, err))
			return nil
		}
		logicalPath := filepath.ToSlash(rel)
		if _, err := SanitizePath(logicalPath); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", logicalPath, err))
			return nil
		}
		if err := migrateOne(fullPath, logicalPath, dest, deleteAfter, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", logicalPath, err))
		}
		return nil
	})
	if walkErr != nil {
		return result, fmt.Errorf("%w: walk %s: %v", ErrBackendUnavailable, localRoot, walkErr)
	}
	return result, nil
}

func migrateOne(fullPath string, logicalPath string, dest StorageBackend, deleteAfter bool, result *MigrationResult) error {
	exists, err := dest.ObjectExists(logicalPath)
	if err != nil {
		return err
	}
	if !exists {
		f, err := os.Open(fullPath)
		if err != nil {
			return err
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return err
		}
		contentType := mime.TypeByExtension(filepath.Ext(fullPath))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		err = dest.PutAtPath(logicalPath, info.Size(), contentType, f)
		_ = f.Close()
		if err != nil {
			return err
		}
		result.MigratedFiles++
		result.MigratedBytes += info.Size()
	} else {
		result.SkippedFiles++
	}

	// Never delete-before-confirm: the local copy goes only once the
	// destination object is known to exist.
	if deleteAfter {
		if err := os.Remove(fullPath); err != nil {
			return fmt.Errorf("remove local copy: %v", err)
		}
	}
	return nil
}

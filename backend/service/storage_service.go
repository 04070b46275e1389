package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"formbase/backend/common"
	"formbase/backend/library/storage"
)

// activeBackend is constructed once at startup and handed to handlers and
// the cleanup scheduler; nothing reaches for it as ambient state.
var activeBackend storage.StorageBackend

// InitStorageBackend builds the configured storage backend. Local is the
// default; S3 is selected explicitly or auto-detected from credentials in
// the config layer.
func InitStorageBackend(ctx context.Context) (storage.StorageBackend, error) {
	var err error
	switch common.StorageType {
	case "s3":
		activeBackend, err = storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:          common.S3Bucket,
			Region:          common.S3Region,
			AccessKeyID:     common.S3AccessKeyID,
			SecretAccessKey: common.S3SecretKey,
			Endpoint:        common.S3Endpoint,
			Prefix:          common.S3Prefix,
			PresignExpiry:   time.Duration(common.S3PresignMinutes) * time.Minute,
		})
	case "local":
		activeBackend, err = storage.NewLocalStorage(common.StorageLocalPath, common.StorageLocalURL)
	default:
		return nil, fmt.Errorf("unknown storage type %q", common.StorageType)
	}
	if err != nil {
		return nil, err
	}
	common.SysLog("storage backend initialized: " + string(activeBackend.Type()))
	return activeBackend, nil
}

// GetStorageBackend returns the backend constructed by InitStorageBackend.
func GetStorageBackend() storage.StorageBackend {
	return activeBackend
}

// MigrateOnStart runs the one-shot local-to-S3 migration when configured.
// It executes synchronously before the server accepts traffic, so files are
// never served from a backend they have not reached yet. The run is
// best-effort: per-file failures are logged and the process keeps going.
func MigrateOnStart(dest storage.StorageBackend) {
	if !common.StorageMigrateOnStart {
		return
	}
	if dest.Type() != storage.StorageTypeS3 {
		common.SysLog("storage migration skipped: active backend is not s3")
		return
	}
	common.SysLog("migrating local uploads to s3: " + common.StorageLocalPath)
	result, err := storage.MigrateLocalToS3(common.StorageLocalPath, dest, common.StorageDeleteAfterMigrate)
	if err != nil {
		common.SysError("storage migration failed: " + err.Error())
		return
	}
	common.SysLog(fmt.Sprintf("storage migration finished: %d files, %d bytes, %d skipped, %d errors",
		result.MigratedFiles, result.MigratedBytes, result.SkippedFiles, len(result.Errors)))
	if len(result.Errors) > 0 {
		common.SysError("storage migration errors: " + strings.Join(result.Errors, "; "))
	}
}

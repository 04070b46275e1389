package common

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

var (
	Port          = flag.Int("port", 3000, "the listening port")
	PrintVersion  = flag.Bool("version", false, "print version and exit")
	PrintHelpFlag = flag.Bool("help", false, "print help and exit")
	LogDir        = flag.String("log-dir", "", "specify the log directory")
	EnableGzip    = flag.Bool("gzip", true, "enable gzip compression")
)

func PrintHelp() {
	fmt.Println("formbase - self-hosted form builder backend")
	fmt.Println("Usage: formbase [--port <port>] [--log-dir <log directory>] [--version] [--help]")
}

func envString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func envInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("invalid value for %s: %v", key, err)
		}
		*target = i
	}
}

func envInt64(key string, target *int64) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			log.Fatalf("invalid value for %s: %v", key, err)
		}
		*target = i
	}
}

func envBool(key string, target *bool) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Fatalf("invalid value for %s: %v", key, err)
		}
		*target = b
	}
}

func init() {
	envString("SESSION_SECRET", &SessionSecret)
	if os.Getenv("SQLITE_PATH") != "" {
		SQLitePath = os.Getenv("SQLITE_PATH")
	} else {
		// check if the directory exists
		if _, err := os.Stat(filepath.Dir(SQLitePath)); os.IsNotExist(err) {
			err = os.MkdirAll(filepath.Dir(SQLitePath), 0755)
			if err != nil {
				log.Fatal(err)
			}
		}
	}

	if os.Getenv("JWT_SECRET") != "" {
		JWTSecret = os.Getenv("JWT_SECRET")
	}
	if os.Getenv("JWT_REFRESH_SECRET") != "" {
		JWTRefreshSecret = os.Getenv("JWT_REFRESH_SECRET")
	} else if os.Getenv("JWT_SECRET") != "" {
		// Keep the refresh secret distinct so access tokens never pass
		// as refresh tokens.
		JWTRefreshSecret = os.Getenv("JWT_SECRET") + ".refresh"
	}
	if os.Getenv("PORT") != "" {
		portInt, err := strconv.Atoi(os.Getenv("PORT"))
		if err != nil {
			log.Fatal(err)
		}
		Port = &portInt
	}
	if os.Getenv("ENABLE_GZIP") != "" {
		enableGzipBool, err := strconv.ParseBool(os.Getenv("ENABLE_GZIP"))
		if err != nil {
			log.Fatalf("invalid value for ENABLE_GZIP: %v", err)
		}
		*EnableGzip = enableGzipBool
	}

	// Storage backend
	envString("STORAGE_TYPE", &StorageType)
	envString("STORAGE_LOCAL_PATH", &StorageLocalPath)
	envString("STORAGE_LOCAL_URL", &StorageLocalURL)
	envString("S3_BUCKET", &S3Bucket)
	envString("S3_REGION", &S3Region)
	envString("S3_ACCESS_KEY_ID", &S3AccessKeyID)
	envString("S3_SECRET_ACCESS_KEY", &S3SecretKey)
	envString("S3_ENDPOINT", &S3Endpoint)
	envString("S3_PREFIX", &S3Prefix)
	envInt("S3_PRESIGN_MINUTES", &S3PresignMinutes)
	envBool("STORAGE_MIGRATE_ON_START", &StorageMigrateOnStart)
	envBool("STORAGE_DELETE_AFTER_MIGRATE", &StorageDeleteAfterMigrate)

	// Unset storage type falls back to s3 when credentials are present,
	// local otherwise.
	if StorageType == "" {
		if S3Bucket != "" && S3AccessKeyID != "" && S3SecretKey != "" {
			StorageType = "s3"
		} else {
			StorageType = "local"
		}
	}

	envInt64("MAX_IMAGE_UPLOAD_BYTES", &MaxImageUploadBytes)
	envInt64("MAX_FILE_UPLOAD_BYTES", &MaxFileUploadBytes)

	// Cleanup scheduler
	envBool("CLEANUP_ENABLED", &CleanupEnabled)
	envInt("CLEANUP_INTERVAL_HOURS", &CleanupIntervalHours)
	envInt("CLEANUP_MIN_AGE_DAYS", &CleanupMinAgeDays)
	envBool("CLEANUP_DRY_RUN", &CleanupDryRun)

	if *LogDir != "" {
		var err error
		*LogDir, err = filepath.Abs(*LogDir)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := os.Stat(*LogDir); os.IsNotExist(err) {
			err = os.Mkdir(*LogDir, 0777)
			if err != nil {
				log.Fatal(err)
			}
		}
	}
	if StorageType == "local" {
		if _, err := os.Stat(StorageLocalPath); os.IsNotExist(err) {
			_ = os.MkdirAll(StorageLocalPath, 0755)
		}
	}
}

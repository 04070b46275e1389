package common

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

var StartTime = time.Now().Unix() // unit: second
var Version = "v0.0.1"            // this hard coding will be replaced automatically when building, no need to manually change
var SystemName = "formbase"
var ServerAddress = "http://localhost:3000"

var SessionSecret = uuid.New().String()
var SQLitePath = "data/formbase.db"

var OptionMap = make(map[string]string)

var OptionMapRWMutex sync.RWMutex

var ItemsPerPage = 10

var PasswordLoginEnabled = true
var RegisterEnabled = true

// JWT constants
var JWTSecret = uuid.New().String()        // Secret for signing JWT tokens
var JWTRefreshSecret = uuid.New().String() // Secret for signing refresh tokens
var JWTExpiryHours = 24                    // Token expiry in hours
var JWTRefreshExpiryHours = 168            // Refresh token expiry in hours (7 days)

const (
	RoleGuestUser  = 0
	RoleCommonUser = 1
	RoleAdminUser  = 10
	RoleRootUser   = 100
)

// Storage configuration, populated from ENV in init.go
var (
	StorageType      = ""       // "local" or "s3"; empty means auto-detect from S3 credentials
	StorageLocalPath = "upload" // root directory for locally stored uploads
	StorageLocalURL  = ""       // legacy URL prefix recorded on file rows, not authoritative

	S3Bucket         = ""
	S3Region         = ""
	S3AccessKeyID    = ""
	S3SecretKey      = ""
	S3Endpoint       = "" // for S3-compatible services, e.g. MinIO
	S3Prefix         = ""
	S3PresignMinutes = 60

	StorageMigrateOnStart     = false
	StorageDeleteAfterMigrate = false
)

// Upload ceilings, bytes. Image ceiling is deliberately stricter.
var (
	MaxImageUploadBytes int64 = 10 * 1024 * 1024
	MaxFileUploadBytes  int64 = 50 * 1024 * 1024
)

// Cleanup scheduler configuration, populated from ENV in init.go
var (
	CleanupEnabled       = false
	CleanupIntervalHours = 24
	CleanupMinAgeDays    = 7
	CleanupDryRun        = false
)

// All duration's unit is seconds
var (
	GlobalApiRateLimitNum            = 60
	GlobalApiRateLimitDuration int64 = 3 * 60

	GlobalWebRateLimitNum            = 60
	GlobalWebRateLimitDuration int64 = 3 * 60

	UploadRateLimitNum            = 20
	UploadRateLimitDuration int64 = 5 * 60

	DownloadRateLimitNum            = 30
	DownloadRateLimitDuration int64 = 60

	CriticalRateLimitNum            = 20
	CriticalRateLimitDuration int64 = 20 * 60
)

var RateLimitKeyExpirationDuration = 20 * time.Minute

const (
	UserStatusEnabled  = 1 // don't use 0, 0 is the default value!
	UserStatusDisabled = 2 // also don't use 0
)

const (
	FormStatusDraft     = 1
	FormStatusPublished = 2
	FormStatusArchived  = 3
)

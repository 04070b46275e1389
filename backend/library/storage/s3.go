package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config carries everything needed to talk to an S3-compatible service.
type S3Config struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // optional, for MinIO and other S3-compatible services
	Prefix          string // optional key prefix inside the bucket
	PresignExpiry   time.Duration
}

// S3Storage stores uploads in an S3-compatible bucket. A single PutObject is
// inherently atomic, and reads are served through short-lived presigned URLs
// regenerated on every request.
type S3Storage struct {
	client        *minio.Client
	bucket        string
	prefix        string
	presignExpiry time.Duration
}

func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket must not be empty")
	}
	endpoint, secure := resolveEndpoint(cfg.Endpoint)
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create s3 client: %v", ErrBackendUnavailable, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%w: check bucket %s: %v", ErrBackendUnavailable, cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("%w: create bucket %s: %v", ErrBackendUnavailable, cfg.Bucket, err)
		}
	}

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 60 * time.Minute
	}
	return &S3Storage{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        strings.Trim(cfg.Prefix, "/"),
		presignExpiry: expiry,
	}, nil
}

func (s *S3Storage) Type() StorageType {
	return StorageTypeS3
}

func (s *S3Storage) Upload(filename string, mimeType string, size int64, reader io.Reader) (*UploadResult, error) {
	id := NewFileID()
	category := CategoryFile
	if strings.HasPrefix(normalizeMime(mimeType), "image/") {
		category = CategoryImage
	}
	logicalPath := BuildStoragePath(category, id, filename)

	info, err := s.client.PutObject(context.Background(), s.bucket, s.key(logicalPath), reader, size,
		minio.PutObjectOptions{ContentType: mimeType})
	if err != nil {
		return nil, fmt.Errorf("%w: put %s: %v", ErrBackendUnavailable, logicalPath, err)
	}
	return &UploadResult{
		ID:       id,
		Path:     logicalPath,
		URL:      fmt.Sprintf("%s/%s/%s", s.client.EndpointURL(), s.bucket, s.key(logicalPath)),
		Filename: filename,
		Size:     info.Size,
		MimeType: mimeType,
	}, nil
}

// GetFileByPath returns a presigned redirect rather than proxying bytes. The
// URL expires after the configured duration and is regenerated per request,
// never cached.
func (s *S3Storage) GetFileByPath(p string) (*FileContent, error) {
	clean, err := SanitizePath(p)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	stat, err := s.client.StatObject(ctx, s.bucket, s.key(clean), minio.StatObjectOptions{})
	if err != nil {
		return nil, s.wrapObjectError(clean, err)
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, s.key(clean), s.presignExpiry, url.Values{})
	if err != nil {
		return nil, fmt.Errorf("%w: presign %s: %v", ErrBackendUnavailable, clean, err)
	}
	return &FileContent{
		Size:        stat.Size,
		ContentType: stat.ContentType,
		RedirectURL: presigned.String(),
	}, nil
}

func (s *S3Storage) Delete(p string) error {
	clean, err := SanitizePath(p)
	if err != nil {
		return err
	}
	ctx := context.Background()
	// RemoveObject succeeds on absent keys, so stat first to keep the
	// distinct not-found signal.
	if _, err := s.client.StatObject(ctx, s.bucket, s.key(clean), minio.StatObjectOptions{}); err != nil {
		return s.wrapObjectError(clean, err)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, s.key(clean), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("%w: remove %s: %v", ErrBackendUnavailable, clean, err)
	}
	return nil
}

func (s *S3Storage) PutAtPath(p string, size int64, contentType string, reader io.Reader) error {
	clean, err := SanitizePath(p)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(context.Background(), s.bucket, s.key(clean), reader, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrBackendUnavailable, clean, err)
	}
	return nil
}

func (s *S3Storage) ObjectExists(p string) (bool, error) {
	clean, err := SanitizePath(p)
	if err != nil {
		return false, err
	}
	_, err = s.client.StatObject(context.Background(), s.bucket, s.key(clean), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %s: %v", ErrBackendUnavailable, clean, err)
	}
	return true, nil
}

func (s *S3Storage) key(logicalPath string) string {
	if s.prefix == "" {
		return logicalPath
	}
	return s.prefix + "/" + logicalPath
}

func (s *S3Storage) wrapObjectError(p string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, p, err)
}

// resolveEndpoint splits an optional scheme off the configured endpoint.
// An empty endpoint means AWS proper.
func resolveEndpoint(endpoint string) (host string, secure bool) {
	if endpoint == "" {
		return "s3.amazonaws.com", true
	}
	if strings.HasPrefix(endpoint, "http://") {
		return strings.TrimPrefix(endpoint, "http://"), false
	}
	if strings.HasPrefix(endpoint, "https://") {
		return strings.TrimPrefix(endpoint, "https://"), true
	}
	return endpoint, true
}

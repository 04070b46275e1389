package storage

import (
	"bytes"
	"fmt"
	"strings"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
}

var allowedFileTypes = map[string]bool{
	"image/jpeg":         true,
	"image/png":          true,
	"image/gif":          true,
	"image/webp":         true,
	"application/pdf":    true,
	"text/plain":         true,
	"text/csv":           true,
	"application/zip":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
}

// ValidateImageUpload checks the declared MIME type against the image
// allow-list and the image size ceiling.
func ValidateImageUpload(mimeType string, size int64, maxBytes int64) error {
	if !allowedImageTypes[normalizeMime(mimeType)] {
		return fmt.Errorf("%w: %s", ErrInvalidType, mimeType)
	}
	if size > maxBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, size, maxBytes)
	}
	return nil
}

// ValidateFileUpload checks the declared MIME type against the generic file
// allow-list and the file size ceiling.
func ValidateFileUpload(mimeType string, size int64, maxBytes int64) error {
	if !allowedFileTypes[normalizeMime(mimeType)] {
		return fmt.Errorf("%w: %s", ErrInvalidType, mimeType)
	}
	if size > maxBytes {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, size, maxBytes)
	}
	return nil
}

func normalizeMime(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// ValidateImageContent verifies the first bytes of the stream match the
// declared image type's signature. The declared type alone is never trusted:
// a mismatch rejects the upload even when the allow-list check passed.
// Binary signatures need the first 16 bytes; SVG detection wants a few
// hundred so the <svg element after an XML declaration is visible.
func ValidateImageContent(head []byte, mimeType string) error {
	switch normalizeMime(mimeType) {
	case "image/jpeg":
		if len(head) >= 3 && bytes.Equal(head[:3], []byte{0xFF, 0xD8, 0xFF}) {
			return nil
		}
	case "image/png":
		if len(head) >= 8 && bytes.Equal(head[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}) {
			return nil
		}
	case "image/gif":
		if len(head) >= 4 && bytes.Equal(head[:4], []byte("GIF8")) {
			return nil
		}
	case "image/webp":
		if len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WEBP")) {
			return nil
		}
	case "image/svg+xml":
		// An XML declaration alone proves nothing; an <svg element must
		// appear in the head either way.
		trimmed := bytes.TrimLeft(head, " \t\r\n")
		if bytes.HasPrefix(trimmed, []byte("<svg")) {
			return nil
		}
		if bytes.HasPrefix(trimmed, []byte("<?xml")) && bytes.Contains(trimmed, []byte("<svg")) {
			return nil
		}
	}
	return fmt.Errorf("%w: content does not match declared type %s", ErrInvalidType, mimeType)
}

// SanitizePath validates a logical storage path before any filesystem or
// bucket-key use. This is a security boundary: traversal segments, absolute
// paths and backslashes are rejected outright, never silently cleaned up.
func SanitizePath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.ContainsRune(p, '\\') {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: absolute path %q", ErrInvalidPath, p)
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
		}
	}
	return p, nil
}

package storage

import (
	"fmt"
	"strings"
)

// AllowedContentTypes defines the MIME types accepted for uploads.
var AllowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,

	"application/pdf":                                                         true,
	"application/vnd.ms-excel":                                                true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"application/msword":                                                      true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain":                                                              true,
	"text/csv":                                                                true,
}

// LogoContentTypes are the only formats the PDF renderer can embed.
var LogoContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// NormalizeContentType drops parameters such as charset and lowercases.
func NormalizeContentType(contentType string) string {
	normalized := strings.Split(contentType, ";")[0]
	return strings.TrimSpace(strings.ToLower(normalized))
}

func validateContentType(allowed map[string]bool, contentType string) error {
	if !allowed[NormalizeContentType(contentType)] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

func validateFileSize(sizeBytes, maxFileSize int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if sizeBytes > maxFileSize {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, maxFileSize)
	}
	return nil
}

func (s *MinIOService) ValidateContentType(contentType string) error {
	return validateContentType(AllowedContentTypes, contentType)
}

func (s *MinIOService) ValidateFileSize(sizeBytes int64) error {
	return validateFileSize(sizeBytes, s.maxFileSize)
}

// ValidateLogoContentType accepts PNG and JPEG only.
func ValidateLogoContentType(contentType string) error {
	return validateContentType(LogoContentTypes, contentType)
}

func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}

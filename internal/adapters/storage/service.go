// Package storage provides a domain-agnostic interface for S3-compatible
// object storage, used for uploads, company logos and sent quote PDFs.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL contains the URL and metadata for a presigned download.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StorageService defines the object storage operations modules rely on.
type StorageService interface {
	// GenerateDownloadURL creates a presigned GET URL valid for PresignedURLTTL.
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)

	// DownloadFile streams an object. The caller closes the reader.
	DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error)

	DeleteObject(ctx context.Context, bucket, fileKey string) error

	// UploadFile stores reader under folder with a collision-free name
	// "<base>_<uuid8><ext>" and returns the full key.
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// PutObject stores data under an exact key, replacing any previous object.
	PutObject(ctx context.Context, bucket, fileKey, contentType string, data []byte) error

	EnsureBucketExists(ctx context.Context, bucket string) error

	ValidateContentType(contentType string) error
	ValidateFileSize(sizeBytes int64) error
	GetMaxFileSize() int64
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}

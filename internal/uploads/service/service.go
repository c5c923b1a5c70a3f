package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"devis_backend/internal/adapters/storage"
	"devis_backend/platform/apperr"
	"devis_backend/platform/logger"

	"github.com/google/uuid"
)

const msgStorageUnavailable = "stockage de fichiers non configuré"

// UploadResult points at a stored object.
type UploadResult struct {
	FileKey   string    `json:"fileKey"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Service struct {
	storage storage.StorageService
	bucket  string
	log     *logger.Logger
}

// New accepts a nil store; uploads then answer 503.
func New(store storage.StorageService, bucket string, log *logger.Logger) *Service {
	return &Service{storage: store, bucket: bucket, log: log}
}

// Upload stores a file under the company folder and presigns a download URL.
func (s *Service) Upload(ctx context.Context, companyID uuid.UUID, fileName, contentType string, size int64, r io.Reader) (UploadResult, error) {
	if s.storage == nil {
		return UploadResult{}, apperr.Unavailable(msgStorageUnavailable)
	}
	if err := s.storage.ValidateContentType(contentType); err != nil {
		return UploadResult{}, apperr.Validation(err.Error())
	}
	if err := s.storage.ValidateFileSize(size); err != nil {
		return UploadResult{}, apperr.Validation(err.Error())
	}

	key, err := s.storage.UploadFile(ctx, s.bucket, companyID.String(), fileName, storage.NormalizeContentType(contentType), r, size)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload file: %w", err)
	}
	presigned, err := s.storage.GenerateDownloadURL(ctx, s.bucket, key)
	if err != nil {
		return UploadResult{}, fmt.Errorf("presign upload: %w", err)
	}
	s.log.WithContext(ctx).Info("file uploaded", "companyId", companyID, "key", key, "size", size)
	return UploadResult{FileKey: key, URL: presigned.URL, ExpiresAt: presigned.ExpiresAt}, nil
}

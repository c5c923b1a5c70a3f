package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// PresignedURLTTL is the lifetime of download links.
const PresignedURLTTL = time.Hour

var ErrNotConfigured = errors.New("object storage is not configured")

// MinIOService implements StorageService on an S3-compatible MinIO endpoint.
type MinIOService struct {
	client      *minio.Client
	maxFileSize int64
}

func NewMinIOService(cfg Config) (*MinIOService, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, ErrNotConfigured
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	return &MinIOService{client: client, maxFileSize: cfg.GetMinIOMaxFileSize()}, nil
}

func (s *MinIOService) EnsureBucketExists(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// GenerateDownloadURL presigns a GET whose response downloads under the
// name the user uploaded, without the uniqueness suffix.
func (s *MinIOService) GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error) {
	params := url.Values{}
	params.Set("response-content-disposition", mime.FormatMediaType("attachment", map[string]string{"filename": DisplayName(fileKey)}))

	expiresAt := time.Now().Add(PresignedURLTTL)
	signed, err := s.client.PresignedGetObject(ctx, bucket, fileKey, PresignedURLTTL, params)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", fileKey, err)
	}
	return &PresignedURL{URL: signed.String(), FileKey: fileKey, ExpiresAt: expiresAt}, nil
}

func (s *MinIOService) DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, bucket, fileKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", fileKey, err)
	}
	return obj, nil
}

func (s *MinIOService) DeleteObject(ctx context.Context, bucket, fileKey string) error {
	if err := s.client.RemoveObject(ctx, bucket, fileKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", fileKey, err)
	}
	return nil
}

func (s *MinIOService) UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error) {
	fileKey := UniqueKey(folder, fileName)
	if err := s.put(ctx, bucket, fileKey, contentType, reader, size); err != nil {
		return "", err
	}
	return fileKey, nil
}

func (s *MinIOService) PutObject(ctx context.Context, bucket, fileKey, contentType string, data []byte) error {
	return s.put(ctx, bucket, fileKey, contentType, bytes.NewReader(data), int64(len(data)))
}

func (s *MinIOService) put(ctx context.Context, bucket, fileKey, contentType string, reader io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, bucket, fileKey, reader, size, minio.PutObjectOptions{
		ContentType: NormalizeContentType(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", fileKey, err)
	}
	return nil
}

func (s *MinIOService) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// ReadObject downloads a whole object, refusing anything above limit bytes
// when limit is positive.
func ReadObject(ctx context.Context, svc StorageService, bucket, fileKey string, limit int64) ([]byte, error) {
	if svc == nil {
		return nil, ErrNotConfigured
	}
	rc, err := svc.DownloadFile(ctx, bucket, fileKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", fileKey, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("object %s exceeds %d bytes", fileKey, limit)
	}
	return data, nil
}

const uniqueSuffixLen = 8

// UniqueKey builds "<folder>/<base>_<uuid8><ext>" from a client file name.
func UniqueKey(folder, fileName string) string {
	fileName = path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if fileName == "." || fileName == "/" {
		fileName = "file"
	}
	ext := path.Ext(fileName)
	base := strings.TrimSuffix(fileName, ext)
	if base == "" {
		base = "file"
	}
	key := base + "_" + uuid.NewString()[:uniqueSuffixLen] + strings.ToLower(ext)
	if folder == "" {
		return key
	}
	return path.Join(folder, key)
}

// DisplayName reverses UniqueKey: "a/devis_1a2b3c4d.pdf" gives "devis.pdf".
func DisplayName(fileKey string) string {
	name := path.Base(fileKey)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	if i := strings.LastIndexByte(base, '_'); i > 0 && len(base)-i-1 == uniqueSuffixLen {
		base = base[:i]
	}
	return base + ext
}

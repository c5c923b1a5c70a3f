package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryService keeps objects in process memory. It backs tests and local
// runs without MinIO.
type MemoryService struct {
	mu          sync.RWMutex
	objects     map[string][]byte
	maxFileSize int64
}

func NewMemoryService(maxFileSize int64) *MemoryService {
	return &MemoryService{objects: make(map[string][]byte), maxFileSize: maxFileSize}
}

func objectID(bucket, key string) string { return bucket + "/" + key }

func (m *MemoryService) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*PresignedURL, error) {
	if !m.Exists(bucket, fileKey) {
		return nil, fmt.Errorf("object %s not found", fileKey)
	}
	return &PresignedURL{
		URL:       "memory://" + objectID(bucket, fileKey),
		FileKey:   fileKey,
		ExpiresAt: time.Now().Add(PresignedURLTTL),
	}, nil
}

func (m *MemoryService) DownloadFile(_ context.Context, bucket, fileKey string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[objectID(bucket, fileKey)]
	if !ok {
		return nil, fmt.Errorf("failed to get object %s: not found", fileKey)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryService) DeleteObject(_ context.Context, bucket, fileKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, objectID(bucket, fileKey))
	return nil
}

func (m *MemoryService) UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	key := UniqueKey(folder, fileName)
	return key, m.PutObject(ctx, bucket, key, contentType, data)
}

func (m *MemoryService) PutObject(_ context.Context, bucket, fileKey, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectID(bucket, fileKey)] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryService) EnsureBucketExists(context.Context, string) error { return nil }

func (m *MemoryService) ValidateContentType(contentType string) error {
	return validateContentType(AllowedContentTypes, contentType)
}

func (m *MemoryService) ValidateFileSize(sizeBytes int64) error {
	return validateFileSize(sizeBytes, m.maxFileSize)
}

func (m *MemoryService) GetMaxFileSize() int64 { return m.maxFileSize }

func (m *MemoryService) Exists(bucket, fileKey string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[objectID(bucket, fileKey)]
	return ok
}

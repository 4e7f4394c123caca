package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"

	"github.com/sareehouse/storefront-api/utils"
)

// MockImageService is a mock implementation of ImageService for testing
type MockImageService struct {
	images  map[string][]byte
	deleted []string
	next    int
	mu      sync.RWMutex
}

// NewMockImageService creates a new mock image service
func NewMockImageService() *MockImageService {
	return &MockImageService{
		images: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global image service instance for testing
func (m *MockImageService) SetAsMockForTesting() {
	SetImageService(m)
}

// UploadProductImage validates the file and keeps it in memory
func (m *MockImageService) UploadProductImage(_ context.Context, productID uint, fileHeader *multipart.FileHeader) (ImageAsset, error) {
	img, err := utils.ReadImageFile(fileHeader)
	if err != nil {
		return ImageAsset{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	key := fmt.Sprintf("products/%d/mock-%d%s", productID, m.next, img.Extension)
	m.images[key] = img.Content

	return ImageAsset{URL: "https://images.test/" + key, PublicID: key}, nil
}

// DeleteImage forgets an image
func (m *MockImageService) DeleteImage(_ context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	m.mu.Lock()
	delete(m.images, publicID)
	m.deleted = append(m.deleted, publicID)
	m.mu.Unlock()
	return nil
}

// ImageExists checks if an image exists in mock storage
func (m *MockImageService) ImageExists(publicID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.images[publicID]
	return exists
}

// Deleted returns the public ids passed to DeleteImage
func (m *MockImageService) Deleted() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.deleted...)
}

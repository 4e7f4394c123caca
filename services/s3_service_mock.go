package services

import (
	"context"
	"sync"
)

// MockS3Service is an in-memory S3Interface for testing
type MockS3Service struct {
	objects map[string][]byte
	mu      sync.RWMutex
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		objects: make(map[string][]byte),
	}
}

// SetAsMockForTesting sets this mock as the global S3 service instance for testing
func (m *MockS3Service) SetAsMockForTesting() {
	SetS3Service(m)
}

// PutObject stores body under key
func (m *MockS3Service) PutObject(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	m.objects[key] = body
	m.mu.Unlock()
	return nil
}

// DeleteObject removes key
func (m *MockS3Service) DeleteObject(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// PublicURL returns a fake bucket URL for key
func (m *MockS3Service) PublicURL(key string) string {
	return "https://test-bucket.s3.ap-south-1.amazonaws.com/" + key
}

// FileExists checks if a file exists in mock storage
func (m *MockS3Service) FileExists(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.objects[key]
	return exists
}

// Count returns the number of stored objects
func (m *MockS3Service) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

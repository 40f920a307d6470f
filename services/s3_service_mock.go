package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockBlobStore is an in-memory BlobStore for testing
type MockBlobStore struct {
	mu            sync.RWMutex
	objects       map[string][]byte
	contentTypes  map[string]string
	bucketExists  bool
	failKeys      map[string]error
	uploadCalls   int
	bucketCreates int
}

// NewMockBlobStore creates a mock store whose bucket already exists
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
		failKeys:     make(map[string]error),
		bucketExists: true,
	}
}

// SetAsMockForTesting sets this mock as the global blob store instance
func (m *MockBlobStore) SetAsMockForTesting() {
	SetBlobStore(m)
}

// WithoutBucket makes the next uploads fail with ErrBucketNotFound until CreateBucket runs
func (m *MockBlobStore) WithoutBucket() *MockBlobStore {
	m.mu.Lock()
	m.bucketExists = false
	m.mu.Unlock()
	return m
}

// FailUploadsContaining makes uploads whose key contains fragment fail with err
func (m *MockBlobStore) FailUploadsContaining(fragment string, err error) {
	m.mu.Lock()
	m.failKeys[fragment] = err
	m.mu.Unlock()
}

// Upload simulates storing an object
func (m *MockBlobStore) Upload(ctx context.Context, key string, body []byte, contentType string, upsert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.uploadCalls++
	if !m.bucketExists {
		return fmt.Errorf("%w: mock bucket missing", ErrBucketNotFound)
	}
	for fragment, err := range m.failKeys {
		if strings.Contains(key, fragment) {
			return err
		}
	}
	if _, exists := m.objects[key]; exists && !upsert {
		return fmt.Errorf("%w: %s", ErrObjectExists, key)
	}

	stored := make([]byte, len(body))
	copy(stored, body)
	m.objects[key] = stored
	m.contentTypes[key] = contentType
	return nil
}

// PublicURL returns a deterministic mock URL
func (m *MockBlobStore) PublicURL(key string) string {
	return fmt.Sprintf("https://test-bucket.s3.eu-west-3.amazonaws.com/%s", key)
}

// CreateBucket simulates bucket creation
func (m *MockBlobStore) CreateBucket(ctx context.Context) error {
	m.mu.Lock()
	m.bucketExists = true
	m.bucketCreates++
	m.mu.Unlock()
	return nil
}

// Object returns a stored object's content
func (m *MockBlobStore) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	body, ok := m.objects[key]
	return body, ok
}

// ContentType returns the content type an object was stored with
func (m *MockBlobStore) ContentType(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contentTypes[key]
}

// Keys returns every stored key
func (m *MockBlobStore) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

// UploadCalls returns how many uploads were attempted
func (m *MockBlobStore) UploadCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uploadCalls
}

// BucketCreates returns how many times CreateBucket ran
func (m *MockBlobStore) BucketCreates() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bucketCreates
}

// Clear removes all objects
func (m *MockBlobStore) Clear() {
	m.mu.Lock()
	m.objects = make(map[string][]byte)
	m.contentTypes = make(map[string]string)
	m.mu.Unlock()
}

// mock_storage.go - Mock storage and fetcher implementations for testing
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/layermap/backend/internal/loader"
	"github.com/layermap/backend/internal/models"
	"github.com/layermap/backend/internal/storage"
)

// MockStorage implements storage.Store for testing
type MockStorage struct {
	files    map[string]*models.FileInfo
	fileData map[string][]byte
	mu       sync.RWMutex
}

// NewMockStorage creates a new empty mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		files:    make(map[string]*models.FileInfo),
		fileData: make(map[string][]byte),
	}
}

func (m *MockStorage) Save(name, contentType string, r io.Reader) (*models.FileInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	file := m.AddFile(generateTestID(), name, data)
	file.ContentType = contentType
	return file, nil
}

func (m *MockStorage) Get(id string) (*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	file, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return file, nil
}

func (m *MockStorage) List(limit int) ([]*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var files []*models.FileInfo
	for _, file := range m.files {
		files = append(files, file)
		if limit > 0 && len(files) >= limit {
			break
		}
	}
	return files, nil
}

func (m *MockStorage) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.files[id]; !exists {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}

	delete(m.files, id)
	delete(m.fileData, id)
	return nil
}

func (m *MockStorage) Open(id string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.fileData[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// AddFile adds a file directly to the mock
func (m *MockStorage) AddFile(id string, name string, data []byte) *models.FileInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	file := &models.FileInfo{
		ID:         id,
		Name:       name,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
		Status:     "uploaded",
	}
	m.files[id] = file
	m.fileData[id] = data
	return file
}

// GetFileCount returns the number of stored files
func (m *MockStorage) GetFileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

// generateTestID generates a simple test ID
var testIDCounter int
var testIDMutex sync.Mutex

func generateTestID() string {
	testIDMutex.Lock()
	defer testIDMutex.Unlock()
	testIDCounter++
	return fmt.Sprintf("test-id-%d", testIDCounter)
}

// ScriptedFetcher answers fetches from a fixed table. Unknown URLs fail.
type ScriptedFetcher struct {
	mu       sync.Mutex
	payloads map[string]any
	errs     map[string]error
	calls    []string
}

// NewScriptedFetcher creates an empty fetcher.
func NewScriptedFetcher() *ScriptedFetcher {
	return &ScriptedFetcher{payloads: make(map[string]any), errs: make(map[string]error)}
}

// Respond registers the payload returned for url.
func (f *ScriptedFetcher) Respond(url string, payload any) *ScriptedFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads[url] = payload
	return f
}

// Fail registers the error returned for url.
func (f *ScriptedFetcher) Fail(url string, err error) *ScriptedFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[url] = err
	return f
}

func (f *ScriptedFetcher) Fetch(_ context.Context, url string) (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if p, ok := f.payloads[url]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("GET %s: unexpected status 404", url)
}

// Calls returns the fetched URLs in order.
func (f *ScriptedFetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var _ loader.Fetcher = (*ScriptedFetcher)(nil)

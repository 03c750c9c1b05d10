package gcsuploader

import (
	"context"
	"fmt"
	"sync"
)

// BlobStore stages uploaded statement bytes until an import job picks them
// up. Objects are addressed by gs:// style URIs.
type BlobStore interface {
	// Upload stores data under objectName and returns its URI.
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)

	// Fetch downloads the bytes behind uri.
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// MemoryBlobStore keeps objects in process memory. The API server uses it
// when no bucket is configured, so async imports still work on one host.
type MemoryBlobStore struct {
	bucket  string
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryBlobStore creates an empty in-memory store that reports URIs under
// bucket.
func NewMemoryBlobStore(bucket string) *MemoryBlobStore {
	return &MemoryBlobStore{bucket: bucket, objects: make(map[string][]byte)}
}

func (m *MemoryBlobStore) Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	uri := BuildURI(m.bucket, objectName)
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.objects[uri] = cp
	m.mu.Unlock()
	return uri, nil
}

func (m *MemoryBlobStore) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[uri]
	if !ok {
		return nil, fmt.Errorf("Fetch: object %s not found", uri)
	}
	return data, nil
}

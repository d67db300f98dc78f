package database

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/locvowork/feeltime/internal/domain"
)

// Bucket is the flat key/value object medium used by the object-storage backend.
// Read returns domain.ErrNotFound for a missing key. Every other failure wraps
// domain.ErrStorageUnavailable.
type Bucket interface {
	List(ctx context.Context, prefix string) ([]string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Write(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// MemoryBucket is an in-process Bucket, used by tests and local runs without cloud credentials.
type MemoryBucket struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryBucket creates an empty bucket.
func NewMemoryBucket() *MemoryBucket {
	return &MemoryBucket{objects: make(map[string][]byte)}
}

// List returns the keys under prefix in lexical order.
func (m *MemoryBucket) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryBucket) Read(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryBucket) Write(ctx context.Context, key string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.objects[key] = buf
	m.mu.Unlock()
	return nil
}

// Delete removes key. Deleting a missing key returns domain.ErrNotFound.
func (m *MemoryBucket) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; !ok {
		return domain.ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *MemoryBucket) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryBucket) Close() error {
	return nil
}

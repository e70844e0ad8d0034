package store

import (
	"context"
	"sync"
)

type MemoryBackend struct {
	mu       sync.Mutex
	blob     []byte
	revision int64
	saved    bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Read(ctx context.Context) ([]byte, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.saved {
		return nil, m.revision, ErrNotFound
	}

	blob := make([]byte, len(m.blob))
	copy(blob, m.blob)
	return blob, m.revision, nil
}

func (m *MemoryBackend) Write(ctx context.Context, blob []byte, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.revision != expected {
		return 0, ErrStaleRevision
	}

	m.blob = make([]byte, len(blob))
	copy(m.blob, blob)
	m.revision++
	m.saved = true
	return m.revision, nil
}

func (m *MemoryBackend) Close() error {
	return nil
}

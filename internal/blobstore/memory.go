package blobstore

import (
	"context"
	"sync"
)

// Memory is an in-memory CAS backend, the reference implementation used
// by tests and by embedders that don't need durability across restarts.
type Memory struct {
	mu     sync.RWMutex
	opened bool
	blobs  map[string][]byte
}

// NewMemory constructs an unopened Memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Open(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = true
	return nil
}

func (m *Memory) Get(ctx context.Context, hash string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.opened {
		return nil, nil
	}
	b, ok := m.blobs[hash]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

func (m *Memory) Put(ctx context.Context, hash string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.opened {
		return nil
	}
	if _, exists := m.blobs[hash]; exists {
		// idempotent: same hash keeps first payload
		return nil
	}
	m.blobs[hash] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Has(ctx context.Context, hash string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.opened {
		return false, nil
	}
	_, ok := m.blobs[hash]
	return ok, nil
}

func (m *Memory) Delete(ctx context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.opened {
		return nil
	}
	delete(m.blobs, hash)
	return nil
}

func (m *Memory) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = false
	return nil
}

// SaveTree and LoadTree give Memory double duty as the persistence
// backend's tree store too, keyed on a fixed sentinel name since a
// BlobStore instance backs exactly one VFS snapshot. Unlike Put, every
// SaveTree call overwrites: the snapshot is not content-addressed, it is
// the single latest tree state.
const treeKey = "__lifo_tree_snapshot__"

func (m *Memory) SaveTree(ctx context.Context, serialized []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.opened {
		return nil
	}
	m.blobs[treeKey] = append([]byte(nil), serialized...)
	return nil
}

func (m *Memory) LoadTree(ctx context.Context) ([]byte, error) {
	return m.Get(ctx, treeKey)
}

package storage

import (
	"context"
	"sync"
)

// MemoryBackend keeps records in process memory. It is what tests use in
// place of the database, and it lets them inject read/write failures.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string][]byte

	// FailLoad and FailSave, when set, are returned instead of touching the map.
	FailLoad error
	FailSave error

	saves int
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string][]byte)}
}

func (m *MemoryBackend) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailLoad != nil {
		return nil, m.FailLoad
	}
	data, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBackend) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailSave != nil {
		return m.FailSave
	}
	m.records[key] = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Put stores raw bytes directly, bypassing failure injection.
func (m *MemoryBackend) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = append([]byte(nil), data...)
}

// Raw returns a copy of the bytes stored under key.
func (m *MemoryBackend) Raw(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.records[key]
	return append([]byte(nil), data...), ok
}

// Saves reports how many successful Save calls have been made.
func (m *MemoryBackend) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// SetFailLoad sets the injected load error under the backend lock.
func (m *MemoryBackend) SetFailLoad(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailLoad = err
}

// SetFailSave sets the injected save error under the backend lock.
func (m *MemoryBackend) SetFailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailSave = err
}

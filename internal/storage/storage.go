// Package storage holds the key/value backends cart snapshots are written to.
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when no record exists for the key
var ErrNotFound = errors.New("storage: record not found")

// Storage is a byte oriented key/value store. Implementations must be safe for
// concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// MemoryStorage keeps records in process. Failures can be injected for tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string][]byte

	getErr    error
	setErr    error
	deleteErr error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: make(map[string][]byte)}
}

// FailWith makes subsequent calls of the named operation ("get", "set",
// "delete") return err. A nil err clears the failure.
func (m *MemoryStorage) FailWith(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch op {
	case "get":
		m.getErr = err
	case "set":
		m.setErr = err
	case "delete":
		m.deleteErr = err
	}
}

func (m *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.records[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.records, key)
	return nil
}

// Len reports the number of stored records
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// ABOUTME: In-process key-value store
// ABOUTME: Used for ephemeral sessions and as the test double for Store

package kvstore

import (
	"context"
	"errors"
	"sync"
)

type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
	fail bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return "", false, unavailable("get", errFailing)
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return unavailable("set", errFailing)
	}
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return unavailable("remove", errFailing)
	}
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// SetFailing makes every later operation return ErrUnavailable until reset.
func (m *MemoryStore) SetFailing(fail bool) {
	m.mu.Lock()
	m.fail = fail
	m.mu.Unlock()
}

var errFailing = errors.New("simulated failure")

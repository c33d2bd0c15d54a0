package kv

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Client. An optional per-value quota emulates
// the item limit of browser-style storage.
type Memory struct {
	mu    sync.RWMutex
	data  map[string][]byte
	quota int
}

var _ Client = (*Memory)(nil)

// NewMemory returns an empty store. quota <= 0 disables the limit.
func NewMemory(quota int) *Memory {
	return &Memory{data: make(map[string][]byte), quota: quota}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(v), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	if m.quota > 0 && len(value) > m.quota {
		return &QuotaError{Key: key, Size: len(value), Limit: m.quota}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Close() error { return nil }

// Keys returns every stored key in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

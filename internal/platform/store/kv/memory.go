package kv

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// Memory is a process-local Backend
type Memory struct {
	mu   sync.RWMutex
	data map[Namespace]map[string][]byte
}

// NewMemory returns an empty Memory backend
func NewMemory() *Memory {
	return &Memory{data: map[Namespace]map[string][]byte{}}
}

var _ Backend = (*Memory)(nil)

func (m *Memory) Get(_ context.Context, ns Namespace, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[ns][key]
	return slices.Clone(v), ok, nil
}

func (m *Memory) Put(_ context.Context, ns Namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs, ok := m.data[ns]
	if !ok {
		recs = map[string][]byte{}
		m.data[ns] = recs
	}
	recs[key] = slices.Clone(value)
	return nil
}

func (m *Memory) Remove(_ context.Context, ns Namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[ns], key)
	return nil
}

func (m *Memory) All(_ context.Context, ns Namespace) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.data[ns]))
	for k, v := range m.data[ns] {
		out[k] = slices.Clone(v)
	}
	return out, nil
}

func (m *Memory) DropRepository(_ context.Context, repositoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	maps.DeleteFunc(m.data, func(ns Namespace, _ map[string][]byte) bool {
		return ns.Repository == repositoryID && repositoryID != ""
	})
	return nil
}

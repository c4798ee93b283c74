package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"CompetitorScanner/internal/ports"
)

// Memory is an in-process KeyValueStore for tests and local development.
// It mirrors the Redis store's key layout and JSON encoding.
type Memory struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

var _ ports.KeyValueStore = (*Memory)(nil)

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: map[string]json.RawMessage{}}
}

// Put stores the JSON encoding of value.
func (m *Memory) Put(ctx context.Context, ns ports.Namespace, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[compositeKey(ns, key)] = raw
	return nil
}

// Get decodes the stored value into dest; ErrNotFound when absent.
func (m *Memory) Get(ctx context.Context, ns ports.Namespace, key string, dest any) error {
	m.mu.RLock()
	raw, ok := m.data[compositeKey(ns, key)]
	m.mu.RUnlock()
	if !ok {
		return ports.ErrNotFound
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	return nil
}

// Search lists the namespace's entries in key order, capped at limit when
// limit is positive.
func (m *Memory) Search(ctx context.Context, ns ports.Namespace, limit int) ([]ports.Entry, error) {
	prefix := compositeKey(ns, "")

	m.mu.RLock()
	entries := make([]ports.Entry, 0)
	for k, v := range m.data {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		entries = append(entries, ports.Entry{
			Key:   strings.TrimPrefix(k, prefix),
			Value: append(json.RawMessage(nil), v...),
		})
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Delete removes the key; deleting an absent key is not an error.
func (m *Memory) Delete(ctx context.Context, ns ports.Namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, compositeKey(ns, key))
	return nil
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process backend. Objects are held until the Memory
// is garbage collected; Close does not discard them so tests can
// inspect state after a batch completes.
type Memory struct {
	mu      sync.Mutex
	objects map[string]Object
	puts    int
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

// Put stores a copy of object.
func (m *Memory) Put(ctx context.Context, object Object) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := object.validate(); err != nil {
		return err
	}

	object.Data = slices.Clone(object.Data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[object.Key] = object
	m.puts++
	return nil
}

// Get returns the object stored at key.
func (m *Memory) Get(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	object, ok := m.objects[key]
	return object, ok
}

// Keys returns every stored key in sorted order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// Puts returns the number of successful Put calls, counting
// overwrites.
func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Kind returns KindMemory.
func (m *Memory) Kind() Kind { return KindMemory }

// Close is a no-op.
func (m *Memory) Close() error { return nil }

package store

import (
	"context"
	"sync"
)

// Memory keeps the snapshot in memory. Nothing survives a restart.
type Memory struct {
	mu   sync.Mutex
	snap Snapshot
	ok   bool
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Save implements Store.
func (m *Memory) Save(ctx context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snap = snap
	m.ok = true
	return nil
}

// Load implements Store.
func (m *Memory) Load(ctx context.Context) (Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.snap, m.ok, nil
}

// Clear implements Store.
func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.snap = Snapshot{}
	m.ok = false
	return nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

package backend

import (
	"context"
	"sync"

	"github.com/goliatone/go-settings/internal/deepcopy"
)

// MemoryBackend is a minimal in-memory Backend intended for tests and
// examples. Values are deep-copied on the way in and out so it behaves like a
// real serialization boundary.
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	value    any
	autoload bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: map[string]memoryRecord{}}
}

func (b *MemoryBackend) Read(_ context.Context, ref Ref, key string) (any, bool, error) {
	id, err := ref.Identifier(key)
	if err != nil {
		return nil, false, err
	}

	b.mu.RLock()
	record, ok := b.records[id]
	b.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return deepcopy.Clone(record.value), true, nil
}

// Add stores a new row and reports false when the row already exists.
func (b *MemoryBackend) Add(_ context.Context, ref Ref, key string, value any, autoload bool) (bool, error) {
	id, err := ref.Identifier(key)
	if err != nil {
		return false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.records[id]; exists {
		return false, nil
	}
	b.records[id] = memoryRecord{value: deepcopy.Clone(value), autoload: autoload}
	return true, nil
}

// Update writes the row unconditionally, creating it when missing.
func (b *MemoryBackend) Update(_ context.Context, ref Ref, key string, value any, autoload bool) (bool, error) {
	id, err := ref.Identifier(key)
	if err != nil {
		return false, err
	}

	b.mu.Lock()
	b.records[id] = memoryRecord{value: deepcopy.Clone(value), autoload: autoload}
	b.mu.Unlock()
	return true, nil
}

func (b *MemoryBackend) Delete(_ context.Context, ref Ref, key string) (bool, error) {
	id, err := ref.Identifier(key)
	if err != nil {
		return false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.records[id]; !exists {
		return false, nil
	}
	delete(b.records, id)
	return true, nil
}

// Autoload reports the stored autoload flag for one row. Exposed for tests
// and diagnostics.
func (b *MemoryBackend) Autoload(ref Ref, key string) (bool, bool) {
	id, err := ref.Identifier(key)
	if err != nil {
		return false, false
	}

	b.mu.RLock()
	record, ok := b.records[id]
	b.mu.RUnlock()
	return record.autoload, ok
}

// Len reports the number of stored rows.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

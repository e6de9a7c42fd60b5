package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore keeps documents in process memory. Close does not discard
// data, so one MemoryStore can back several import runs.
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string]map[string]map[string]any
	commits int
	writes  int
	closed  int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]map[string]any)}
}

func (m *MemoryStore) NewBatch(collection string) WriteBatch {
	return &memoryBatch{store: m, collection: collection}
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

// Get returns a copy of the document stored under collection/id.
func (m *MemoryStore) Get(collection, id string) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.data[collection][id]
	if !ok {
		return nil, false
	}
	return copyMap(doc), true
}

// IDs returns the sorted document ids in collection.
func (m *MemoryStore) IDs(collection string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.data[collection]))
	for id := range m.data[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a deep copy of every document in collection.
func (m *MemoryStore) Snapshot(collection string) map[string]map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]map[string]any, len(m.data[collection]))
	for id, doc := range m.data[collection] {
		out[id] = copyMap(doc)
	}
	return out
}

// Commits returns the number of committed batches.
func (m *MemoryStore) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.commits
}

// Writes returns the number of document writes across all commits.
func (m *MemoryStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Closed returns how many times Close was called.
func (m *MemoryStore) Closed() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

type memoryWrite struct {
	id     string
	fields map[string]any
}

type memoryBatch struct {
	store      *MemoryStore
	collection string
	writes     []memoryWrite
}

func (b *memoryBatch) Set(id string, fields map[string]any) {
	b.writes = append(b.writes, memoryWrite{id: id, fields: copyMap(fields)})
}

func (b *memoryBatch) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory: commit: %w", err)
	}

	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	coll, ok := b.store.data[b.collection]
	if !ok {
		coll = make(map[string]map[string]any)
		b.store.data[b.collection] = coll
	}
	for _, w := range b.writes {
		coll[w.id] = w.fields
	}
	b.store.commits++
	b.store.writes += len(b.writes)
	return nil
}

func copyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

// Package memory provides an in-memory storage engine used by tests.
// It implements the database.Storage interface and can simulate an
// interrupted batch write to exercise the atomicity contract.
package memory

import (
	"sort"
	"sync"

	"github.com/veritascoin/veritas/foundation/blockchain/database"
)

// Memory represents the in-memory engine. Keys are ordered on
// iteration to match the durable engine's behavior.
type Memory struct {
	mu       sync.RWMutex
	data     map[string]map[string][]byte
	batchErr error
}

// New constructs an empty engine with every namespace initialized.
func New() *Memory {
	data := make(map[string]map[string][]byte)
	for _, ns := range database.Namespaces {
		data[ns] = make(map[string][]byte)
	}

	return &Memory{data: data}
}

// FailNextBatch arms the engine to reject the next ApplyBatch call
// with the specified error, leaving the store untouched. This models
// a crash between starting and committing a durable write.
func (m *Memory) FailNextBatch(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.batchErr = err
}

// Close has nothing to release.
func (m *Memory) Close() error {
	return nil
}

// Get retrieves the value for a key inside a namespace.
func (m *Memory) Get(ns string, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.data[ns][string(key)]
	if !exists {
		return nil, database.ErrKeyNotFound
	}

	return append([]byte(nil), value...), nil
}

// Set writes a single key inside a namespace.
func (m *Memory) Set(ns string, key []byte, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[ns][string(key)] = append([]byte(nil), value...)

	return nil
}

// Delete removes a single key inside a namespace.
func (m *Memory) Delete(ns string, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data[ns], string(key))

	return nil
}

// Exists reports whether a key is present.
func (m *Memory) Exists(ns string, key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.data[ns][string(key)]

	return exists, nil
}

// ApplyBatch applies every operation under one lock section so readers
// never observe a half-applied batch. An armed failure rejects the
// batch without touching the store.
func (m *Memory) ApplyBatch(batch database.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.batchErr != nil {
		err := m.batchErr
		m.batchErr = nil
		return err
	}

	for _, del := range batch.Deletes {
		delete(m.data[del.NS], string(del.Key))
	}
	for _, set := range batch.Sets {
		m.data[set.NS][string(set.Key)] = append([]byte(nil), set.Value...)
	}

	return nil
}

// ForEach walks one namespace in key order.
func (m *Memory) ForEach(ns string, fn func(key []byte, value []byte) error) error {
	m.mu.RLock()
	keys := make([]string, 0, len(m.data[ns]))
	for key := range m.data[ns] {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	values := make([][]byte, len(keys))
	for i, key := range keys {
		values[i] = append([]byte(nil), m.data[ns][key]...)
	}
	m.mu.RUnlock()

	for i, key := range keys {
		if err := fn([]byte(key), values[i]); err != nil {
			return err
		}
	}

	return nil
}

package userdict

import (
	"context"
	"fmt"
	"iter"
	"sort"
	"sync"
)

// Memory is an in-memory Store. Words are kept msgpack-encoded like in
// Badger so both stores share one codec. It is safe for concurrent use and
// intended for tests and throwaway servers.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, id string) (Word, error) {
	m.mu.RLock()
	v, ok := m.data[string(wordKey(id))]
	m.mu.RUnlock()
	if !ok {
		return Word{}, fmt.Errorf("%w: %s", ErrWordNotFound, id)
	}
	return decodeWord(v)
}

func (m *Memory) Put(_ context.Context, id string, w Word) error {
	data, err := encodeWord(w)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data[string(wordKey(id))] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) PutAll(_ context.Context, entries []Entry) error {
	encoded := make(map[string][]byte, len(entries))
	for _, e := range entries {
		data, err := encodeWord(e.Word)
		if err != nil {
			return err
		}
		encoded[string(wordKey(e.ID))] = data
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range encoded {
		m.data[k] = v
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.data, string(wordKey(id)))
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context) iter.Seq2[Entry, error] {
	// Snapshot under read lock.
	m.mu.RLock()
	keys := make([]string, 0, len(m.data))
	values := make(map[string][]byte, len(m.data))
	for k, v := range m.data {
		keys = append(keys, k)
		values[k] = v
	}
	m.mu.RUnlock()
	sort.Strings(keys)

	return func(yield func(Entry, error) bool) {
		for _, k := range keys {
			w, err := decodeWord(values[k])
			if !yield(Entry{ID: wordID([]byte(k)), Word: w}, err) {
				return
			}
		}
	}
}

func (m *Memory) Close() error {
	return nil
}

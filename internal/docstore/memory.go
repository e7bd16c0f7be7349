package docstore

import (
	"context"
	"reflect"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store. Documents are copied on the way in and out.
type Memory struct {
	mu   sync.RWMutex
	cols map[string]map[string]map[string]any
	err  error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{cols: make(map[string]map[string]map[string]any)}
}

// FailWith makes every later call return err. Pass nil to recover.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Memory) Get(_ context.Context, collection, id string) (Document, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return Document{}, false, m.err
	}
	data, ok := m.cols[collection][id]
	if !ok {
		return Document{}, false, nil
	}
	return Document{ID: id, Data: copyData(data)}, true, nil
}

func (m *Memory) Set(_ context.Context, collection, id string, data map[string]any, merge bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	col := m.collection(collection)
	existing, ok := col[id]
	if !merge || !ok {
		col[id] = copyData(data)
		return nil
	}
	for k, v := range data {
		existing[k] = v
	}
	return nil
}

func (m *Memory) Add(_ context.Context, collection string, data map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	id := uuid.NewString()
	m.collection(collection)[id] = copyData(data)
	return id, nil
}

// Query returns matches ordered by id.
func (m *Memory) Query(_ context.Context, collection, field string, value any) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	var docs []Document
	for id, data := range m.cols[collection] {
		if v, ok := data[field]; ok && reflect.DeepEqual(v, value) {
			docs = append(docs, Document{ID: id, Data: copyData(data)})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (m *Memory) collection(name string) map[string]map[string]any {
	col, ok := m.cols[name]
	if !ok {
		col = make(map[string]map[string]any)
		m.cols[name] = col
	}
	return col
}

func copyData(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

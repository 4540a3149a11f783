package store

import (
	"sort"
	"sync"

	"github.com/openv2x/openv2x/internal/ldm/model"
)

// Memory is the baseline in-memory Backend: a mutex-guarded map with a
// monotonic sequence counter for insertion ordering.
type Memory struct {
	mu      sync.Mutex
	objects map[string]*model.DataObject
	nextSeq uint64
}

var _ Backend = (*Memory)(nil)

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string]*model.DataObject),
	}
}

func (m *Memory) Upsert(key string, obj *model.DataObject) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.objects[key]; ok {
		obj.Seq = existing.Seq
	} else {
		m.nextSeq++
		obj.Seq = m.nextSeq
	}
	m.objects[key] = obj
	return nil
}

func (m *Memory) Get(key string) (*model.DataObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	obj, ok := m.objects[key]
	return obj, ok
}

func (m *Memory) Scan() []*model.DataObject {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*model.DataObject, 0, len(m.objects))
	for _, obj := range m.objects {
		out = append(out, obj)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.objects, key)
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.objects)
}

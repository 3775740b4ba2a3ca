package store

import (
	"sync"

	"github.com/abdul-hamid-achik/hitdraft/packages/core/draft"
)

// MemoryStore implements Store in memory for the life of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	items []draft.Saved
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(s draft.Saved) error {
	if err := s.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, s.Clone())
	return nil
}

func (m *MemoryStore) List() ([]draft.Saved, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]draft.Saved, len(m.items))
	for i, s := range m.items {
		out[i] = s.Clone()
	}
	return out, nil
}

func (m *MemoryStore) Get(index int) (draft.Saved, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := checkIndex(index, len(m.items)); err != nil {
		return draft.Saved{}, err
	}
	return m.items[index].Clone(), nil
}

func (m *MemoryStore) Load(index int) (draft.Draft, error) {
	s, err := m.Get(index)
	if err != nil {
		return draft.Draft{}, err
	}
	return s.Draft, nil
}

func (m *MemoryStore) Delete(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := checkIndex(index, len(m.items)); err != nil {
		return err
	}
	m.items = append(m.items[:index], m.items[index+1:]...)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

package storage

import (
	"fmt"
	"sync"

	ecs "github.com/embergate/ecs"
)

// sparseStrategy stores components in a plain map keyed by entity, for
// component types that only a small fraction of entities carry (spec.md
// §3's per-type StorageKind choice). Grounded on shared.go's map-based
// storage shape, without the value deduplication shared.go adds.
type sparseStrategy struct{}

// NewSparseStrategy constructs a sparse-set storage strategy.
func NewSparseStrategy() ecs.StorageStrategy {
	return sparseStrategy{}
}

func (sparseStrategy) Name() string {
	return "sparse"
}

func (sparseStrategy) NewStore(t ecs.ComponentType) ecs.ComponentStore {
	return &sparseStore{typ: t, values: make(map[ecs.EntityID]sparseEntry)}
}

type sparseEntry struct {
	value any
	ticks ecs.ComponentTicks
}

type sparseStore struct {
	mu     sync.RWMutex
	typ    ecs.ComponentType
	values map[ecs.EntityID]sparseEntry
}

func (s *sparseStore) ComponentType() ecs.ComponentType {
	return s.typ
}

func (s *sparseStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

func (s *sparseStore) Has(id ecs.EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[id]
	return ok
}

func (s *sparseStore) Get(id ecs.EntityID) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.values[id]
	if !ok {
		return nil, false
	}
	return entry.value, true
}

func (s *sparseStore) Ticks(id ecs.EntityID) (ecs.ComponentTicks, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.values[id]
	if !ok {
		return ecs.ComponentTicks{}, false
	}
	return entry.ticks, true
}

func (s *sparseStore) Iterate(fn func(ecs.EntityID, any, ecs.ComponentTicks) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, entry := range s.values {
		if !fn(id, entry.value, entry.ticks) {
			return
		}
	}
}

func (s *sparseStore) Set(id ecs.EntityID, value any, ticks ecs.ComponentTicks) error {
	if id.IsZero() {
		return fmt.Errorf("sparse: cannot set zero entity")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[id] = sparseEntry{value: value, ticks: ticks}
	return nil
}

func (s *sparseStore) Remove(id ecs.EntityID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[id]; !ok {
		return false
	}
	delete(s.values, id)
	return true
}

func (s *sparseStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[ecs.EntityID]sparseEntry)
}

var _ ecs.ComponentStore = (*sparseStore)(nil)

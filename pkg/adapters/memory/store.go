package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/cedar/pkg/domain"
)

// Store implements ports.DefinitionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Definition
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Definition),
	}
}

// Save stores a deep copy of the definition.
func (s *Store) Save(ctx context.Context, id string, def *domain.Definition) error {
	cp := def.Clone()
	if cp == nil {
		cp = &domain.Definition{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = cp
	return nil
}

// Load retrieves a copy of the definition so callers cannot mutate the store.
func (s *Store) Load(ctx context.Context, id string) (*domain.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.data[id]
	if !ok {
		return nil, domain.ErrDefinitionNotFound
	}
	return def.Clone(), nil
}

// Delete removes the definition.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

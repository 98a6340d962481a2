package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/fluxgraph/pkg/domain"
)

// Store implements ports.ProjectStore in memory.
// Projects are immutable values, so the store keeps the saved pointers without copying.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Project
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Project),
	}
}

// Save keeps p under name.
func (s *Store) Save(ctx context.Context, name string, p *domain.Project) error {
	if p == nil {
		return fmt.Errorf("%w: nil project", domain.ErrPrecondition)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = p
	return nil
}

// Load retrieves the project saved under name.
func (s *Store) Load(ctx context.Context, name string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[name]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return p, nil
}

// Delete removes the project.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns the saved project names.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/ports"
)

// Registry manages the available factories, keyed by their "pack/factory" reference.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]*domain.Factory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]*domain.Factory),
	}
}

// NewDefault creates a registry holding the built-in factories.
func NewDefault() *Registry {
	r := NewRegistry()
	for _, f := range Builtins() {
		_ = r.Register(f)
	}
	return r
}

// Register adds a factory to the registry.
// If a factory with the same reference exists, it is overwritten.
func (r *Registry) Register(f *domain.Factory) error {
	if f == nil || f.FactoryID == "" {
		return fmt.Errorf("%w: factory without id", domain.ErrPrecondition)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[f.Ref()] = f
	return nil
}

// Load registers every factory provided by l.
func (r *Registry) Load(ctx context.Context, l ports.FactoryLoader) (int, error) {
	factories, err := l.LoadFactories(ctx)
	if err != nil {
		return 0, fmt.Errorf("load factories: %w", err)
	}
	for _, f := range factories {
		if err := r.Register(f); err != nil {
			return 0, err
		}
	}
	return len(factories), nil
}

// Lookup returns the factory registered under ref.
// Returns an error wrapping domain.ErrUnknownFactory if there is none.
func (r *Registry) Lookup(ref string) (*domain.Factory, error) {
	r.mu.RLock()
	f, ok := r.factories[ref]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrPrecondition, domain.ErrUnknownFactory, ref)
	}
	return f, nil
}

// List returns every factory sorted by reference.
func (r *Registry) List() []*domain.Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Factory, 0, len(r.factories))
	for _, f := range r.factories {
		out = append(out, f)
	}
	slices.SortFunc(out, func(a, b *domain.Factory) int {
		return strings.Compare(a.Ref(), b.Ref())
	})
	return out
}

// ByKind returns the factories of the given kind sorted by reference.
func (r *Registry) ByKind(kind domain.Kind) []*domain.Factory {
	return slices.DeleteFunc(r.List(), func(f *domain.Factory) bool {
		return f.Kind != kind
	})
}

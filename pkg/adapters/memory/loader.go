package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/fluxgraph/pkg/domain"
)

// Loader implements ports.FactoryLoader over a fixed list of factories.
type Loader struct {
	factories []*domain.Factory
}

// NewLoader creates a loader serving the given factories.
func NewLoader(factories ...*domain.Factory) *Loader {
	return &Loader{factories: factories}
}

// LoadFactories returns the factories. Factories without an id are rejected.
func (l *Loader) LoadFactories(ctx context.Context) ([]*domain.Factory, error) {
	for _, f := range l.factories {
		if f == nil || f.FactoryID == "" {
			return nil, fmt.Errorf("factory missing ID")
		}
	}
	return l.factories, nil
}

package ports

import (
	"context"

	"github.com/aretw0/fluxgraph/pkg/domain"
)

// FactoryLoader provides factories from an external catalog (files, packs).
type FactoryLoader interface {
	LoadFactories(ctx context.Context) ([]*domain.Factory, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload of factory catalogs.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying catalog changes.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

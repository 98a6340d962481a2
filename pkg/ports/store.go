package ports

import (
	"context"

	"github.com/aretw0/fluxgraph/pkg/domain"
)

// ProjectStore defines the interface for persisting projects by name.
type ProjectStore interface {
	// Save persists the project under name, replacing any previous version.
	Save(ctx context.Context, name string, p *domain.Project) error

	// Load retrieves the project saved under name.
	// Returns domain.ErrProjectNotFound if there is none.
	Load(ctx context.Context, name string) (*domain.Project, error)

	// Delete removes the project saved under name. Deleting a missing project is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of the saved projects in lexical order.
	List(ctx context.Context) ([]string, error)
}

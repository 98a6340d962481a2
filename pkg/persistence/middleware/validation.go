package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/ports"
)

type validationMiddleware struct {
	next  ports.ProjectStore
	check func(*domain.Project) error
}

// NewValidationMiddleware creates a middleware that refuses to save projects rejected by
// check. Loads are not checked, so a broken project can still be opened and repaired.
func NewValidationMiddleware(check func(*domain.Project) error) Middleware {
	return func(next ports.ProjectStore) ports.ProjectStore {
		return &validationMiddleware{next: next, check: check}
	}
}

func (m *validationMiddleware) Save(ctx context.Context, name string, p *domain.Project) error {
	if err := m.check(p); err != nil {
		return fmt.Errorf("%w: refusing to save project %s: %w", domain.ErrPrecondition, name, err)
	}
	return m.next.Save(ctx, name, p)
}

func (m *validationMiddleware) Load(ctx context.Context, name string) (*domain.Project, error) {
	return m.next.Load(ctx, name)
}

func (m *validationMiddleware) Delete(ctx context.Context, name string) error {
	return m.next.Delete(ctx, name)
}

func (m *validationMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

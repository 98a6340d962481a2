package middleware_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/fluxgraph/pkg/adapters/memory"
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/persistence/middleware"
	contract "github.com/aretw0/fluxgraph/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rejectUntitled(p *domain.Project) error {
	if p.Name == "" {
		return errors.New("project has no name")
	}
	return nil
}

func TestValidationMiddleware(t *testing.T) {
	underlying := memory.NewStore()
	store := middleware.NewValidationMiddleware(rejectUntitled)(underlying)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "ok", contract.SampleProject(t, "ok")))

	err := store.Save(ctx, "bad", domain.NewProject(""))
	assert.ErrorIs(t, err, domain.ErrPrecondition)
	assert.ErrorContains(t, err, "project has no name")

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, names)

	// Loads are never checked.
	require.NoError(t, underlying.Save(ctx, "legacy", domain.NewProject("")))
	_, err = store.Load(ctx, "legacy")
	assert.NoError(t, err)
	require.NoError(t, store.Delete(ctx, "legacy"))
}

func TestChain(t *testing.T) {
	var order []string
	trace := func(tag string) middleware.Middleware {
		return middleware.NewValidationMiddleware(func(*domain.Project) error {
			order = append(order, tag)
			return nil
		})
	}

	store := middleware.Chain(memory.NewStore(), trace("outer"), trace("inner"))
	require.NoError(t, store.Save(context.Background(), "p", domain.NewProject("p")))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

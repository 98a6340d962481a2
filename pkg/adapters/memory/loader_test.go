package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/fluxgraph/pkg/adapters/memory"
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLoader(t *testing.T) {
	loader := memory.NewLoader(
		&domain.Factory{FactoryID: "sum", PackID: "math", Kind: domain.KindModule},
		&domain.Factory{FactoryID: "avg", PackID: "math", Kind: domain.KindModule},
	)

	reg := registry.NewRegistry()
	n, err := reg.Load(context.Background(), loader)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = reg.Lookup("math/avg")
	assert.NoError(t, err)
}

func TestInMemoryLoader_MissingID(t *testing.T) {
	_, err := memory.NewLoader(&domain.Factory{}).LoadFactories(context.Background())
	assert.Error(t, err)
}

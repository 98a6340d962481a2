package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/fluxgraph/pkg/adaptor"
	"github.com/aretw0/fluxgraph/pkg/document"
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/edit"
	"github.com/aretw0/fluxgraph/pkg/ports"
	"github.com/aretw0/fluxgraph/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Codec returns the codec stores under contract test must be built with: the default
// registry and adaptor compiler.
func Codec(format document.Format) document.Codec {
	return document.Codec{
		Format:    format,
		Factories: registry.NewDefault(),
		Compiler:  adaptor.NewCompiler(),
	}
}

// SampleProject builds a small project exercising modules, plugins, an adaptor, a nested layer
// and rendering metadata.
func SampleProject(t *testing.T, name string) *domain.Project {
	t.Helper()
	reg := registry.NewDefault()
	relay, err := reg.Lookup("core/relay")
	require.NoError(t, err)
	group, err := reg.Lookup("core/group")
	require.NoError(t, err)
	logger, err := reg.Lookup("core/logger")
	require.NoError(t, err)

	ids := &edit.Sequence{}
	p := domain.NewProject(name)
	p, m1, err := edit.AddModule(p, ids, relay, edit.Position{X: 0, Y: 0}, domain.RootLayerID)
	require.NoError(t, err)
	p, m2, err := edit.AddModule(p, ids, relay, edit.Position{X: 120, Y: 0}, domain.RootLayerID)
	require.NoError(t, err)
	p, _, err = edit.AddPlugin(p, ids, logger, m2)
	require.NoError(t, err)
	p, c, err := edit.AddConnection(p, ids,
		domain.SlotRef{ModuleID: m1.ModuleID, SlotID: "out1"},
		domain.SlotRef{ModuleID: m2.ModuleID, SlotID: "in1"})
	require.NoError(t, err)
	a, err := adaptor.NewCompiler().Compile("a1", "data")
	require.NoError(t, err)
	p, _, err = edit.AddAdaptor(p, c, a)
	require.NoError(t, err)
	p, _, err = edit.CreateLayer(p, ids, group, []string{m1.ModuleID}, domain.RootLayerID, "Inputs")
	require.NoError(t, err)
	return p
}

// RunProjectStoreContract runs a suite of tests to verify that a ProjectStore implementation
// adheres to the defined interface contract. Stores that serialize must use Codec.
func RunProjectStoreContract(t *testing.T, store ports.ProjectStore) {
	t.Helper()
	ctx := context.Background()
	name := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		p := SampleProject(t, name)
		require.NoError(t, store.Save(ctx, name, p), "Save should not return error")

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, p.Name, loaded.Name)
		assert.Equal(t, p.Workflow.ModuleIDs(), loaded.Workflow.ModuleIDs())
		assert.Len(t, loaded.Workflow.Connections, len(p.Workflow.Connections))
		assert.Equal(t, p.Workflow.RootLayerTree.LayerIDs(), loaded.Workflow.RootLayerTree.LayerIDs())

		want, err := document.Marshal(p, document.JSON)
		require.NoError(t, err)
		got, err := document.Marshal(loaded, document.JSON)
		require.NoError(t, err)
		assert.JSONEq(t, string(want), string(got), "round trip must be lossless")
	})

	t.Run("Overwrite", func(t *testing.T) {
		p := SampleProject(t, name)
		p, err := edit.UpdateProjectProperties(p, name, "second version")
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, name, p))

		loaded, err := store.Load(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, "second version", loaded.Description)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+name)
		assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, name, SampleProject(t, name)))

		require.NoError(t, store.Delete(ctx, name), "Delete should not return error")

		_, err := store.Load(ctx, name)
		assert.ErrorIs(t, err, domain.ErrProjectNotFound, "Load after Delete should return ErrProjectNotFound")
		assert.NoError(t, store.Delete(ctx, name), "Deleting twice should not return error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := name + "-1"
		id2 := name + "-2"
		require.NoError(t, store.Save(ctx, id2, SampleProject(t, id2)))
		require.NoError(t, store.Save(ctx, id1, SampleProject(t, id1)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		names, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, id1)
		assert.Contains(t, names, id2)
		assert.IsNonDecreasing(t, names)
	})
}

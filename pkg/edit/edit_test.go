package edit_test

import (
	"testing"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/edit"
	"github.com/aretw0/fluxgraph/pkg/layer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	var s edit.Sequence
	assert.Equal(t, "m1", s.NewID("m"))
	assert.Equal(t, "m2", s.NewID("m"))
	assert.Equal(t, "c1", s.NewID("c"))

	id := edit.UUIDs{}.NewID("m")
	assert.Len(t, id, len("m-")+36)
}

func TestFresh(t *testing.T) {
	used := map[string]bool{"m1": true, "m2": true}
	f := edit.Fresh{Base: &edit.Sequence{}, Taken: func(id string) bool { return used[id] }}
	assert.Equal(t, "m3", f.NewID("m"))
	assert.Equal(t, "c1", f.NewID("c"))
}

func TestAddModule(t *testing.T) {
	ids := &edit.Sequence{}
	p0 := domain.NewProject("demo")

	p1, m1 := addModule(t, p0, ids, 0, 0)
	assert.Equal(t, "m1", m1.ModuleID)
	assert.Equal(t, []*domain.Module{m1}, p1.Workflow.Modules)
	assert.Equal(t, []string{"m1"}, p1.Workflow.RootLayerTree.ModuleIDs)
	v, ok := p1.View("m1")
	require.True(t, ok)
	assert.Equal(t, 0.0, v.XWorld)
	requirePartition(t, p1)

	// the input snapshot is untouched
	assert.Empty(t, p0.Workflow.Modules)
	assert.Empty(t, p0.Workflow.RootLayerTree.ModuleIDs)

	t.Run("Unknown Layer", func(t *testing.T) {
		_, _, err := edit.AddModule(p1, ids, portsFactory, edit.Position{}, "nope")
		assert.ErrorIs(t, err, domain.ErrLayerNotFound)
		assert.ErrorIs(t, err, domain.ErrPrecondition)
	})

	t.Run("Wrong Factory Kind", func(t *testing.T) {
		_, _, err := edit.AddModule(p1, ids, pluginFactory, edit.Position{}, domain.RootLayerID)
		assert.ErrorIs(t, err, domain.ErrUnknownFactory)
		_, _, err = edit.AddModule(p1, ids, groupFactory, edit.Position{}, domain.RootLayerID)
		assert.ErrorIs(t, err, domain.ErrUnknownFactory)
	})

	t.Run("Snapshots Do Not Share Arrays", func(t *testing.T) {
		a, _ := addModule(t, p1, ids, 1, 1)
		b, _ := addModule(t, p1, ids, 2, 2)
		assert.NotEqual(t, a.Workflow.Modules[1].ModuleID, b.Workflow.Modules[1].ModuleID)
		assert.Len(t, p1.Workflow.Modules, 1)
	})
}

func TestConnections(t *testing.T) {
	ids := &edit.Sequence{}
	p, m1 := addModule(t, domain.NewProject("demo"), ids, 0, 0)
	p, m2 := addModule(t, p, ids, 10, 10)
	p, c1 := connect(t, p, ids, m1.ModuleID, m2.ModuleID)
	assert.Equal(t, "c1", c1.ConnectionID)

	t.Run("Duplicate Id", func(t *testing.T) {
		_, err := edit.AddConnectionValue(p, &domain.Connection{ConnectionID: "c1"})
		assert.ErrorIs(t, err, domain.ErrDuplicateID)
		_, err = edit.AddConnectionValue(p, &domain.Connection{ConnectionID: "m1"})
		assert.ErrorIs(t, err, domain.ErrDuplicateID)
	})

	t.Run("No Slot Validation", func(t *testing.T) {
		_, c, err := edit.AddConnection(p, ids, domain.SlotRef{ModuleID: "m1", SlotID: "nope"}, domain.SlotRef{ModuleID: "m2", SlotID: "in1"})
		require.NoError(t, err)
		assert.Equal(t, "nope", c.Start.SlotID)
	})

	t.Run("Delete", func(t *testing.T) {
		next, err := edit.DeleteConnections(p, []*domain.Connection{c1})
		require.NoError(t, err)
		assert.Empty(t, next.Workflow.Connections)

		_, err = edit.DeleteConnections(p, nil)
		assert.ErrorIs(t, err, domain.ErrNoChange)
		_, err = edit.DeleteConnections(next, []*domain.Connection{c1})
		assert.ErrorIs(t, err, domain.ErrConnectionNotFound)
	})

	t.Run("Adaptors Replace The Connection", func(t *testing.T) {
		a := &domain.Adaptor{AdaptorID: "a1", Source: "data * 2"}
		withA, c2, err := edit.AddAdaptor(p, c1, a)
		require.NoError(t, err)
		assert.NotSame(t, c1, c2)
		assert.Same(t, a, c2.Adaptor)
		assert.Equal(t, []*domain.Connection{c2}, withA.Workflow.Connections)
		assert.Nil(t, c1.Adaptor)

		_, _, err = edit.AddAdaptor(withA, c2, a)
		assert.ErrorIs(t, err, domain.ErrDuplicateID)

		_, _, err = edit.UpdateAdaptor(withA, c2, &domain.Adaptor{AdaptorID: "a1", Source: "data * 2"})
		assert.ErrorIs(t, err, domain.ErrNoChange)

		updated, c3, err := edit.UpdateAdaptor(withA, c2, &domain.Adaptor{AdaptorID: "a1", Source: "data + 1"})
		require.NoError(t, err)
		assert.Equal(t, "data + 1", c3.Adaptor.Source)

		cleared, c4, err := edit.DeleteAdaptor(updated, c3)
		require.NoError(t, err)
		assert.Nil(t, c4.Adaptor)
		assert.Equal(t, c1.ConnectionID, cleared.Workflow.Connections[0].ConnectionID)

		_, _, err = edit.DeleteAdaptor(cleared, c4)
		assert.ErrorIs(t, err, domain.ErrNoChange)
	})
}

func TestUpdateModule(t *testing.T) {
	ids := &edit.Sequence{}
	p, m1 := addModule(t, domain.NewProject("demo"), ids, 0, 0)
	p, m2 := addModule(t, p, ids, 10, 10)
	p, _, err := edit.UpdateModule(p, m1, domain.Configuration{Data: map[string]any{"outputs": 2}})
	require.NoError(t, err)
	m1, _ = p.Workflow.Module("m1")
	p, c1 := connect(t, p, ids, "m1", "m2")
	p, c2, err := edit.AddConnection(p, ids, domain.SlotRef{ModuleID: "m1", SlotID: "out2"}, domain.SlotRef{ModuleID: "m2", SlotID: "in1"})
	require.NoError(t, err)
	p, plugin, err := edit.AddPlugin(p, ids, pluginFactory, m1)
	require.NoError(t, err)

	t.Run("Identical Configuration", func(t *testing.T) {
		_, _, err := edit.UpdateModule(p, m1, m1.Configuration)
		assert.ErrorIs(t, err, domain.ErrNoChange)
		// defaults are filled in before comparing
		_, _, err = edit.UpdateModule(p, m2, domain.Configuration{})
		assert.ErrorIs(t, err, domain.ErrNoChange)
	})

	t.Run("Drops Connections To Vanished Slots", func(t *testing.T) {
		next, updated, err := edit.UpdateModule(p, m1, domain.Configuration{Data: map[string]any{"outputs": 1}})
		require.NoError(t, err)
		assert.Equal(t, "m1", updated.ModuleID)
		assert.NotSame(t, m1, updated)
		assert.Len(t, updated.Outputs, 1)

		assert.Equal(t, []*domain.Connection{c1}, next.Workflow.Connections, "out2 is gone, out1 is kept as is")
		assert.NotContains(t, next.Workflow.Connections, c2)

		got, _ := next.Workflow.Module("m1")
		assert.Same(t, updated, got)
	})

	t.Run("Rebuilds Plugins", func(t *testing.T) {
		next, updated, err := edit.UpdateModule(p, m1, domain.Configuration{Title: "renamed", Data: map[string]any{"outputs": 2}})
		require.NoError(t, err)
		require.Len(t, next.Workflow.Plugins, 1)
		rebuilt := next.Workflow.Plugins[0]
		assert.Equal(t, plugin.ModuleID, rebuilt.ModuleID)
		assert.NotSame(t, plugin, rebuilt)
		assert.Same(t, updated, rebuilt.Parent)
	})

	t.Run("Invalid Configuration", func(t *testing.T) {
		_, _, err := edit.UpdateModule(p, m1, domain.Configuration{Data: map[string]any{"outputs": "many"}})
		assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
	})

	t.Run("Unknown Module", func(t *testing.T) {
		_, _, err := edit.UpdateModule(p, &domain.Module{ModuleID: "zz"}, domain.Configuration{})
		assert.ErrorIs(t, err, domain.ErrModuleNotFound)
	})
}

func TestDuplicateModules(t *testing.T) {
	ids := &edit.Sequence{}
	p, m1 := addModule(t, domain.NewProject("demo"), ids, 0, 0)
	p, m2 := addModule(t, p, ids, 10, 10)
	p, _ = connect(t, p, ids, m1.ModuleID, m2.ModuleID)

	next, created, err := edit.DuplicateModules(p, ids, []*domain.Module{m1, m2}, domain.RootLayerID)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Len(t, next.Workflow.Modules, 4)
	assert.Len(t, next.Workflow.Connections, 2)

	dupConn := next.Workflow.Connections[1]
	assert.Equal(t, created[0].ModuleID, dupConn.Start.ModuleID)
	assert.Equal(t, created[1].ModuleID, dupConn.End.ModuleID)

	v, ok := next.View(created[1].ModuleID)
	require.True(t, ok)
	assert.Equal(t, 10.0+edit.DuplicateOffset, v.XWorld)
	requirePartition(t, next)

	_, _, err = edit.DuplicateModules(p, ids, nil, domain.RootLayerID)
	assert.ErrorIs(t, err, domain.ErrNoChange)
}

func TestMoveAndAlign(t *testing.T) {
	ids := &edit.Sequence{}
	p, _ := addModule(t, domain.NewProject("demo"), ids, 0, 0)
	p, _ = addModule(t, p, ids, 10, 20)
	v2, _ := p.View("m2")

	t.Run("Below Threshold", func(t *testing.T) {
		_, err := edit.MoveModules(p, map[string]edit.Position{"m1": {X: 0.3, Y: 0.3}})
		assert.ErrorIs(t, err, domain.ErrNoChange)
	})

	t.Run("Moves Only Given Views", func(t *testing.T) {
		next, err := edit.MoveModules(p, map[string]edit.Position{"m1": {X: 5, Y: 5}})
		require.NoError(t, err)
		v, _ := next.View("m1")
		assert.Equal(t, 5.0, v.XWorld)
		same, _ := next.View("m2")
		assert.Same(t, v2, same)
	})

	t.Run("Unknown Module", func(t *testing.T) {
		_, err := edit.MoveModules(p, map[string]edit.Position{"zz": {}})
		assert.ErrorIs(t, err, domain.ErrModuleNotFound)
	})

	t.Run("Align", func(t *testing.T) {
		next, err := edit.AlignModules(p, []string{"m1", "m2"}, edit.Horizontal)
		require.NoError(t, err)
		a, _ := next.View("m1")
		b, _ := next.View("m2")
		assert.Equal(t, 10.0, a.YWorld)
		assert.Equal(t, 10.0, b.YWorld)
		assert.Equal(t, 10.0, b.XWorld)

		_, err = edit.AlignModules(next, []string{"m1", "m2"}, edit.Horizontal)
		assert.ErrorIs(t, err, domain.ErrNoChange)
	})
}

func TestCreateLayer(t *testing.T) {
	ids := &edit.Sequence{}
	p, m1 := addModule(t, domain.NewProject("demo"), ids, 0, 0)
	p, m2 := addModule(t, p, ids, 10, 20)
	p, _ = addModule(t, p, ids, 100, 100)
	p, plugin, err := edit.AddPlugin(p, ids, pluginFactory, m1)
	require.NoError(t, err)

	next, group, err := edit.AddGroup(p, ids, groupFactory, []string{m1.ModuleID, m2.ModuleID}, domain.RootLayerID, "")
	require.NoError(t, err)
	requirePartition(t, next)

	assert.Equal(t, "Group", group.Title())
	owned, ok := layer.FindByGroup(next.Workflow.RootLayerTree, group.ModuleID)
	require.True(t, ok)
	assert.Equal(t, []string{"m1", plugin.ModuleID, "m2"}, owned.ModuleIDs, "plugins follow their parent")
	assert.Equal(t, owned.LayerID, group.Configuration.Data[edit.LayerIDKey])
	assert.ElementsMatch(t, []string{"m3", group.ModuleID}, next.Workflow.RootLayerTree.ModuleIDs)

	v, ok := next.View(group.ModuleID)
	require.True(t, ok)
	assert.Equal(t, 5.0, v.XWorld)
	assert.Equal(t, 10.0, v.YWorld)

	t.Run("Nested Group Keeps Nesting", func(t *testing.T) {
		outer, comp, err := edit.AddComponent(next, ids, componentFactory, []string{group.ModuleID, "m3"}, domain.RootLayerID, "outer")
		require.NoError(t, err)
		requirePartition(t, outer)
		compLayer, ok := layer.FindByGroup(outer.Workflow.RootLayerTree, comp.ModuleID)
		require.True(t, ok)
		require.Len(t, compLayer.Children, 1)
		assert.Equal(t, owned.LayerID, compLayer.Children[0].LayerID)
	})

	t.Run("Selection Outside Active Layer", func(t *testing.T) {
		_, _, err := edit.AddGroup(next, ids, groupFactory, []string{"m1"}, domain.RootLayerID, "")
		assert.ErrorIs(t, err, layer.ErrModuleNotInLayer)
		assert.ErrorIs(t, err, domain.ErrPrecondition)
	})

	t.Run("Empty Selection", func(t *testing.T) {
		_, _, err := edit.AddGroup(next, ids, groupFactory, nil, domain.RootLayerID, "")
		assert.ErrorIs(t, err, domain.ErrNoChange)
	})

	t.Run("Kind Mismatch", func(t *testing.T) {
		_, _, err := edit.AddComponent(p, ids, groupFactory, []string{"m1"}, domain.RootLayerID, "")
		assert.ErrorIs(t, err, domain.ErrUnknownFactory)
	})

	t.Run("Rename", func(t *testing.T) {
		renamed, err := edit.RenameLayer(next, owned.LayerID, "inner")
		require.NoError(t, err)
		node, _, _ := layer.Find(renamed.Workflow.RootLayerTree, owned.LayerID)
		assert.Equal(t, "inner", node.Title)
		_, err = edit.RenameLayer(renamed, owned.LayerID, "inner")
		assert.ErrorIs(t, err, domain.ErrNoChange)
		_, err = edit.RenameLayer(renamed, "nope", "x")
		assert.ErrorIs(t, err, domain.ErrLayerNotFound)
	})
}

func TestDeleteModules(t *testing.T) {
	ids := &edit.Sequence{}
	p, m1 := addModule(t, domain.NewProject("demo"), ids, 0, 0)
	p, m2 := addModule(t, p, ids, 10, 10)
	p, m3 := addModule(t, p, ids, 20, 20)
	p, c12 := connect(t, p, ids, m1.ModuleID, m2.ModuleID)
	p, _ = connect(t, p, ids, m2.ModuleID, m3.ModuleID)
	p, plugin, err := edit.AddPlugin(p, ids, pluginFactory, m2)
	require.NoError(t, err)
	p, group, err := edit.AddGroup(p, ids, groupFactory, []string{m2.ModuleID, m3.ModuleID}, domain.RootLayerID, "g")
	require.NoError(t, err)
	p, box, err := edit.AddDescriptionBox(p, ids, "notes", []string{m1.ModuleID, m2.ModuleID}, "#fff")
	require.NoError(t, err)

	t.Run("Closure", func(t *testing.T) {
		closure := edit.DeletionClosure(p.Workflow, []*domain.Module{group})
		assert.Len(t, closure, 4)
		for _, id := range []string{group.ModuleID, m2.ModuleID, m3.ModuleID, plugin.ModuleID} {
			assert.True(t, closure.Has(id), id)
		}
	})

	t.Run("Container Cascades", func(t *testing.T) {
		next, err := edit.DeleteModules(p, []*domain.Module{group})
		require.NoError(t, err)
		requirePartition(t, next)

		assert.Equal(t, []*domain.Module{m1}, next.Workflow.Modules)
		assert.Empty(t, next.Workflow.Plugins)
		assert.Empty(t, next.Workflow.Connections)
		assert.Empty(t, next.Workflow.RootLayerTree.Children, "emptied layer is pruned")
		require.Len(t, next.BuilderRendering.ModulesView, 1)

		require.Len(t, next.BuilderRendering.DescriptionBoxes, 1)
		assert.Equal(t, []string{m1.ModuleID}, next.BuilderRendering.DescriptionBoxes[0].ModuleIDs)
		assert.Equal(t, []string{m1.ModuleID, m2.ModuleID}, box.ModuleIDs, "original box untouched")
	})

	t.Run("Plugin Parent Cascades", func(t *testing.T) {
		next, err := edit.DeleteModules(p, []*domain.Module{m2})
		require.NoError(t, err)
		requirePartition(t, next)
		assert.Empty(t, next.Workflow.Plugins)
		assert.Empty(t, next.Workflow.Connections)
		_, ok := next.Workflow.Module(m3.ModuleID)
		assert.True(t, ok)
	})

	t.Run("Empty Box Dropped", func(t *testing.T) {
		next, err := edit.DeleteModules(p, []*domain.Module{m1, group})
		require.NoError(t, err)
		assert.Empty(t, next.BuilderRendering.DescriptionBoxes)
		assert.Empty(t, next.Workflow.Modules)
		assert.NotContains(t, next.Workflow.Connections, c12)
	})

	t.Run("Empty Input", func(t *testing.T) {
		_, err := edit.DeleteModules(p, nil)
		assert.ErrorIs(t, err, domain.ErrNoChange)
	})

	t.Run("Unknown Module", func(t *testing.T) {
		_, err := edit.DeleteModules(p, []*domain.Module{{ModuleID: "zz"}})
		assert.ErrorIs(t, err, domain.ErrModuleNotFound)
	})
}

func TestDescriptionBoxes(t *testing.T) {
	ids := &edit.Sequence{}
	p, m1 := addModule(t, domain.NewProject("demo"), ids, 0, 0)

	p, box, err := edit.AddDescriptionBox(p, ids, "notes", []string{m1.ModuleID}, "red")
	require.NoError(t, err)
	assert.Equal(t, "box1", box.DescriptionBoxID)

	_, _, err = edit.AddDescriptionBox(p, ids, "bad", []string{"zz"}, "")
	assert.ErrorIs(t, err, domain.ErrModuleNotFound)

	_, _, err = edit.UpdateDescriptionBox(p, box, "notes", []string{m1.ModuleID}, "red")
	assert.ErrorIs(t, err, domain.ErrNoChange)

	updated, b2, err := edit.UpdateDescriptionBox(p, box, "notes", []string{m1.ModuleID}, "blue")
	require.NoError(t, err)
	assert.Equal(t, box.DescriptionBoxID, b2.DescriptionBoxID)
	assert.Equal(t, []*domain.DescriptionBox{b2}, updated.BuilderRendering.DescriptionBoxes)

	emptied, _, err := edit.UpdateDescriptionBox(p, box, "notes", nil, "red")
	require.NoError(t, err)
	assert.Empty(t, emptied.BuilderRendering.DescriptionBoxes)

	_, err = edit.DeleteDescriptionBoxes(emptied, []*domain.DescriptionBox{box})
	assert.ErrorIs(t, err, domain.ErrDescriptionBoxNotFound)
}

func TestProjectProperties(t *testing.T) {
	p := domain.NewProject("demo")

	_, err := edit.UpdateProjectProperties(p, "demo", "")
	assert.ErrorIs(t, err, domain.ErrNoChange)
	next, err := edit.UpdateProjectProperties(p, "demo", "a description")
	require.NoError(t, err)
	assert.Equal(t, "a description", next.Description)
	assert.Same(t, p.Workflow, next.Workflow)

	runner, err := edit.UpdateRunnerRendering(p, "<div/>", "")
	require.NoError(t, err)
	assert.Equal(t, "<div/>", runner.RunnerRendering.Layout)
	_, err = edit.UpdateRunnerRendering(runner, "<div/>", "")
	assert.ErrorIs(t, err, domain.ErrNoChange)

	req, err := edit.UpdateRequirements(p, domain.Requirements{FluxPacks: []string{"core"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"core"}, req.Requirements.FluxPacks)
	_, err = edit.UpdateRequirements(req, domain.Requirements{FluxPacks: []string{"core"}})
	assert.ErrorIs(t, err, domain.ErrNoChange)
}

package history_test

import (
	"context"
	"testing"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/edit"
	"github.com/aretw0/fluxgraph/pkg/history"
	"github.com/aretw0/fluxgraph/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var portsFactory = &domain.Factory{
	FactoryID: "ports",
	Kind:      domain.KindModule,
	Title:     "Ports",
	Shape:     schema.Shape{"outputs": {Type: schema.Int(), Default: 1}},
	Slots: func(cfg domain.Configuration) (in, out []domain.SlotSpec) {
		var c struct {
			Outputs int `mapstructure:"outputs"`
		}
		_ = cfg.Decode(&c)
		if c.Outputs > 0 {
			out = []domain.SlotSpec{{SlotID: "out1"}}
		}
		return []domain.SlotSpec{{SlotID: "in1"}}, out
	},
}

var groupFactory = &domain.Factory{FactoryID: "group", Kind: domain.KindGroup, Title: "Group"}

// recorder counts notifications per category for the last transition.
type recorder struct {
	history.NoopObserver
	counts      map[string]int
	activeLayer string
	rejected    int
	last        history.Event
	wiredOnConn int
	store       *history.Store
}

func newRecorder() *recorder { return &recorder{counts: map[string]int{}} }

func (r *recorder) reset() { r.counts = map[string]int{} }

func (r *recorder) OnModulesChanged(context.Context, history.Event, domain.Delta[*domain.Module]) {
	r.counts["modules"]++
}

func (r *recorder) OnConnectionsChanged(_ context.Context, ev history.Event, _ domain.Delta[*domain.Connection]) {
	r.counts["connections"]++
	if r.store != nil {
		r.wiredOnConn = r.store.Wiring().Len()
	}
}

func (r *recorder) OnViewsChanged(context.Context, history.Event, domain.Delta[*domain.ModuleView]) {
	r.counts["views"]++
}

func (r *recorder) OnActiveLayerChanged(_ context.Context, _ history.Event, id string) {
	r.counts["active"]++
	r.activeLayer = id
}

func (r *recorder) OnDescriptionBoxesChanged(context.Context, history.Event, domain.Delta[*domain.DescriptionBox]) {
	r.counts["boxes"]++
}

func (r *recorder) OnTransition(_ context.Context, ev history.Event) {
	r.counts["transition"]++
	r.last = ev
}

func (r *recorder) OnRejected(context.Context, history.Transition, error) { r.rejected++ }

type fixture struct {
	t     *testing.T
	ctx   context.Context
	ids   *edit.Sequence
	store *history.Store
	rec   *recorder
}

func newFixture(t *testing.T, opts ...history.Option) *fixture {
	rec := newRecorder()
	store, err := history.NewStore(domain.NewProject("test"), append(opts, history.WithObserver(rec))...)
	require.NoError(t, err)
	rec.store = store
	return &fixture{t: t, ctx: context.Background(), ids: &edit.Sequence{}, store: store, rec: rec}
}

func (f *fixture) commit(p *domain.Project, err error) {
	f.t.Helper()
	require.NoError(f.t, err)
	f.rec.reset()
	require.NoError(f.t, f.store.Commit(f.ctx, p, true))
}

func (f *fixture) addModule(x float64) *domain.Module {
	f.t.Helper()
	p, m, err := edit.AddModule(f.store.Current(), f.ids, portsFactory, edit.Position{X: x}, f.store.ActiveLayer())
	f.commit(p, err)
	return m
}

func (f *fixture) connect(from, to string) *domain.Connection {
	f.t.Helper()
	p, c, err := edit.AddConnection(f.store.Current(), f.ids,
		domain.SlotRef{ModuleID: from, SlotID: "out1"}, domain.SlotRef{ModuleID: to, SlotID: "in1"})
	f.commit(p, err)
	return c
}

// requireExactWiring checks that the wired connections are the current ones, by identity.
func (f *fixture) requireExactWiring() {
	f.t.Helper()
	conns := f.store.Current().Workflow.Connections
	require.Equal(f.t, len(conns), f.store.Wiring().Len())
	for _, c := range conns {
		require.True(f.t, f.store.Wiring().Has(c), "connection %s not wired", c.ConnectionID)
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.addModule(0)
	p1 := f.store.Current()
	f.addModule(10)
	p2 := f.store.Current()

	moved, err := f.store.Undo(f.ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Same(t, p1, f.store.Current())

	moved, err = f.store.Redo(f.ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Same(t, p2, f.store.Current())

	moved, err = f.store.Redo(f.ctx)
	require.NoError(t, err)
	assert.False(t, moved, "redo at the tail is a no-op")
}

func TestUndoAtStartIsNoop(t *testing.T) {
	f := newFixture(t)
	moved, err := f.store.Undo(f.ctx)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 0, f.rec.counts["transition"])
}

func TestRedoBranchLoss(t *testing.T) {
	f := newFixture(t)
	f.addModule(0)
	f.addModule(10)
	_, err := f.store.Undo(f.ctx)
	require.NoError(t, err)
	require.True(t, f.store.CanRedo())

	f.addModule(20)
	p3 := f.store.Current()
	assert.Equal(t, 3, f.store.Len())
	assert.False(t, f.store.CanRedo())

	moved, err := f.store.Redo(f.ctx)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Same(t, p3, f.store.Current())
}

func TestCoalescing(t *testing.T) {
	f := newFixture(t)
	m := f.addModule(0)
	before := f.store.Len()

	for i := 1; i <= 5; i++ {
		p, err := edit.MoveModules(f.store.Current(), map[string]edit.Position{m.ModuleID: {X: float64(i * 10)}})
		require.NoError(t, err)
		require.NoError(t, f.store.Commit(f.ctx, p, false))
	}
	assert.Equal(t, before, f.store.Len())
	v, _ := f.store.Current().View(m.ModuleID)
	assert.Equal(t, 50.0, v.XWorld)
	assert.Equal(t, history.TransitionAmend, f.rec.last.Transition)

	t.Run("Single Snapshot", func(t *testing.T) {
		g := newFixture(t)
		for range 3 {
			p, err := edit.UpdateProjectProperties(g.store.Current(), "renamed", g.store.Current().Description+"x")
			require.NoError(t, err)
			require.NoError(t, g.store.Commit(g.ctx, p, false))
		}
		assert.Equal(t, 1, g.store.Len())
		assert.Equal(t, "xxx", g.store.Current().Description)
	})
}

func TestSubscriptionExactness(t *testing.T) {
	f := newFixture(t)
	m1 := f.addModule(0)
	m2 := f.addModule(10)
	m3 := f.addModule(20)
	f.connect(m1.ModuleID, m2.ModuleID)
	f.connect(m2.ModuleID, m3.ModuleID)
	f.requireExactWiring()

	// replacing m2 re-wires both connections against its new slots
	p, updated, err := edit.UpdateModule(f.store.Current(), m2, domain.Configuration{Title: "renamed"})
	f.commit(p, err)
	f.requireExactWiring()
	in, _ := updated.Input("in1")
	m1.Outputs[0].Emit(domain.Message{Data: 1})
	assert.Equal(t, 1, in.Count())

	// dropping an output slot drops its connection
	p, _, err = edit.UpdateModule(f.store.Current(), updated, domain.Configuration{Data: map[string]any{"outputs": 0}})
	f.commit(p, err)
	assert.Len(t, f.store.Current().Workflow.Connections, 1)
	f.requireExactWiring()

	for f.store.CanUndo() {
		_, err := f.store.Undo(f.ctx)
		require.NoError(t, err)
		f.requireExactWiring()
	}
	for f.store.CanRedo() {
		_, err := f.store.Redo(f.ctx)
		require.NoError(t, err)
		f.requireExactWiring()
	}
}

func TestNotificationsAtMostOncePerCategory(t *testing.T) {
	f := newFixture(t)
	m1 := f.addModule(0)
	assert.Equal(t, map[string]int{"modules": 1, "views": 1, "transition": 1}, f.rec.counts)

	m2 := f.addModule(10)
	f.connect(m1.ModuleID, m2.ModuleID)
	assert.Equal(t, map[string]int{"connections": 1, "transition": 1}, f.rec.counts)
	assert.Equal(t, 1, f.rec.wiredOnConn, "wiring is done before observers run")

	p, group, err := edit.AddGroup(f.store.Current(), f.ids, groupFactory, []string{m1.ModuleID, m2.ModuleID}, domain.RootLayerID, "")
	f.commit(p, err)
	assert.Equal(t, map[string]int{"modules": 1, "views": 1, "transition": 1}, f.rec.counts)

	owned := f.store.Current().Workflow.RootLayerTree.Children[0]
	f.rec.reset()
	require.NoError(t, f.store.SetActiveLayer(f.ctx, owned.LayerID))
	assert.Equal(t, map[string]int{"active": 1, "transition": 1}, f.rec.counts)
	assert.Equal(t, owned.LayerID, f.store.ActiveLayer())

	p, box, err := edit.AddDescriptionBox(f.store.Current(), f.ids, "note", []string{m1.ModuleID}, "")
	f.commit(p, err)
	assert.Equal(t, map[string]int{"boxes": 1, "transition": 1}, f.rec.counts)
	assert.Equal(t, "box1", box.DescriptionBoxID)

	// deleting the group removes modules, connection, views, box and the active layer at once
	p, err = edit.DeleteModules(f.store.Current(), []*domain.Module{group})
	f.commit(p, err)
	assert.Equal(t, map[string]int{"modules": 1, "connections": 1, "views": 1, "active": 1, "boxes": 1, "transition": 1}, f.rec.counts)
	assert.Equal(t, domain.RootLayerID, f.store.ActiveLayer())
	assert.Equal(t, domain.RootLayerID, f.rec.activeLayer)

	require.Error(t, f.store.SetActiveLayer(f.ctx, owned.LayerID))
}

func TestRejectedCommitLeavesHistoryUnchanged(t *testing.T) {
	f := newFixture(t)
	m1 := f.addModule(0)
	m2 := f.addModule(10)
	before := f.store.Current()

	p, _, err := edit.AddConnection(before, f.ids,
		domain.SlotRef{ModuleID: m1.ModuleID, SlotID: "out9"}, domain.SlotRef{ModuleID: m2.ModuleID, SlotID: "in1"})
	require.NoError(t, err)
	f.rec.reset()

	err = f.store.Commit(f.ctx, p, true)
	assert.ErrorIs(t, err, domain.ErrUnresolvedSlot)
	assert.Same(t, before, f.store.Current())
	assert.Equal(t, 3, f.store.Len())
	assert.Equal(t, 1, f.rec.rejected)
	assert.Zero(t, f.rec.counts["transition"])
	f.requireExactWiring()
}

func TestCapacityAndReset(t *testing.T) {
	f := newFixture(t, history.WithCapacity(3))
	for i := range 5 {
		f.addModule(float64(i))
	}
	assert.Equal(t, 3, f.store.Len())
	assert.Equal(t, 2, f.store.Index())
	assert.Len(t, f.store.Snapshots()[0].Workflow.Modules, 3, "oldest snapshots dropped")

	fresh := domain.NewProject("other")
	f.rec.reset()
	require.NoError(t, f.store.Reset(f.ctx, fresh))
	assert.Equal(t, 1, f.store.Len())
	assert.Same(t, fresh, f.store.Current())
	assert.Equal(t, 1, f.rec.counts["modules"])
	assert.Equal(t, history.TransitionReset, f.rec.last.Transition)
	f.requireExactWiring()

	assert.Error(t, f.store.Commit(f.ctx, nil, true))
}

func TestResetLeavesActiveLayer(t *testing.T) {
	f := newFixture(t)
	m1 := f.addModule(0)
	p, _, err := edit.AddGroup(f.store.Current(), f.ids, groupFactory, []string{m1.ModuleID}, domain.RootLayerID, "")
	f.commit(p, err)
	inner := f.store.Current().Workflow.RootLayerTree.Children[0].LayerID
	require.NoError(t, f.store.SetActiveLayer(f.ctx, inner))

	// another project built the same way reuses the layer id
	ids := &edit.Sequence{}
	other, o1, err := edit.AddModule(domain.NewProject("other"), ids, portsFactory, edit.Position{}, domain.RootLayerID)
	require.NoError(t, err)
	other, _, err = edit.AddGroup(other, ids, groupFactory, []string{o1.ModuleID}, domain.RootLayerID, "")
	require.NoError(t, err)
	require.Equal(t, inner, other.Workflow.RootLayerTree.Children[0].LayerID)

	f.rec.reset()
	require.NoError(t, f.store.Reset(f.ctx, other))
	assert.Equal(t, domain.RootLayerID, f.store.ActiveLayer())
	assert.Equal(t, 1, f.rec.counts["active"])
	assert.Equal(t, domain.RootLayerID, f.rec.activeLayer)
}

func TestNewStoreWiresInitialProject(t *testing.T) {
	ids := &edit.Sequence{}
	p, m1, err := edit.AddModule(domain.NewProject("x"), ids, portsFactory, edit.Position{}, domain.RootLayerID)
	require.NoError(t, err)
	p, _, err = edit.AddModule(p, ids, portsFactory, edit.Position{}, domain.RootLayerID)
	require.NoError(t, err)
	p, c, err := edit.AddConnection(p, ids, domain.SlotRef{ModuleID: m1.ModuleID, SlotID: "out1"}, domain.SlotRef{ModuleID: "m2", SlotID: "in1"})
	require.NoError(t, err)

	store, err := history.NewStore(p)
	require.NoError(t, err)
	assert.True(t, store.Wiring().Has(c))
	assert.Equal(t, domain.RootLayerID, store.ActiveLayer())

	store.Close()
	assert.Equal(t, 0, store.Wiring().Len())

	broken, _, err := edit.AddConnection(p, ids, domain.SlotRef{ModuleID: "zz", SlotID: "out1"}, domain.SlotRef{ModuleID: "m2", SlotID: "in1"})
	require.NoError(t, err)
	_, err = history.NewStore(broken)
	assert.ErrorIs(t, err, domain.ErrUnresolvedSlot)
}

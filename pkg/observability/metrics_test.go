package observability_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/edit"
	"github.com/aretw0/fluxgraph/pkg/history"
	"github.com/aretw0/fluxgraph/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sourceFactory = &domain.Factory{
	FactoryID: "source",
	Kind:      domain.KindModule,
	Slots: func(domain.Configuration) (in, out []domain.SlotSpec) {
		return []domain.SlotSpec{{SlotID: "in1"}}, []domain.SlotSpec{{SlotID: "out1"}}
	},
}

func TestMetricsObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg, "fluxgraph")
	require.NoError(t, err)

	ctx := context.Background()
	store, err := history.NewStore(domain.NewProject("m"), history.WithObserver(metrics))
	require.NoError(t, err)

	ids := &edit.Sequence{}
	p, m1, err := edit.AddModule(store.Current(), ids, sourceFactory, edit.Position{}, domain.RootLayerID)
	require.NoError(t, err)
	require.NoError(t, store.Commit(ctx, p, true))
	p, _, err = edit.AddConnection(store.Current(), ids,
		domain.SlotRef{ModuleID: m1.ModuleID, SlotID: "out1"}, domain.SlotRef{ModuleID: m1.ModuleID, SlotID: "in1"})
	require.NoError(t, err)
	require.NoError(t, store.Commit(ctx, p, true))
	_, err = store.Undo(ctx)
	require.NoError(t, err)

	bad, _, err := edit.AddConnection(store.Current(), ids,
		domain.SlotRef{ModuleID: m1.ModuleID, SlotID: "nope"}, domain.SlotRef{ModuleID: m1.ModuleID, SlotID: "in1"})
	require.NoError(t, err)
	require.Error(t, store.Commit(ctx, bad, true))

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Transitions().WithLabelValues("commit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Transitions().WithLabelValues("undo")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Rejected().WithLabelValues("commit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Notifications().WithLabelValues("modules")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Notifications().WithLabelValues("connections")))

	expected := `
# HELP fluxgraph_history_snapshots Number of snapshots held by the history.
# TYPE fluxgraph_history_snapshots gauge
fluxgraph_history_snapshots 3
# HELP fluxgraph_history_index Position of the current snapshot.
# TYPE fluxgraph_history_index gauge
fluxgraph_history_index 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fluxgraph_history_snapshots", "fluxgraph_history_index"))

	t.Run("Shared Registry", func(t *testing.T) {
		again, err := observability.NewMetrics(reg, "fluxgraph")
		require.NoError(t, err)
		assert.Same(t, metrics.Transitions(), again.Transitions())
	})
}

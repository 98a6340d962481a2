package edit_test

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/edit"
	"github.com/aretw0/fluxgraph/pkg/layer"
	"github.com/stretchr/testify/require"
)

// TestPartitionHoldsUnderRandomEdits applies random operation sequences and checks after
// every step that the layer tree partitions the module and plugin ids, and that ids are unique.
func TestPartitionHoldsUnderRandomEdits(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		rng := rand.New(rand.NewPCG(seed, seed*7))
		ids := &edit.Sequence{}
		p := domain.NewProject("random")

		for step := 0; step < 60; step++ {
			next, err := randomEdit(rng, p, ids)
			if err != nil {
				require.Truef(t, errors.Is(err, domain.ErrNoChange) || errors.Is(err, domain.ErrPrecondition),
					"seed %d step %d: unexpected error %v", seed, step, err)
				continue
			}
			p = next

			all := p.Workflow.ModuleIDs()
			require.NoErrorf(t, layer.CheckPartition(p.Workflow.RootLayerTree, all), "seed %d step %d", seed, step)
			slices.Sort(all)
			require.Equalf(t, len(all), len(slices.Compact(all)), "seed %d step %d: duplicated module id", seed, step)
			for _, c := range p.Workflow.Connections {
				_, okStart := p.Workflow.Module(c.Start.ModuleID)
				_, okEnd := p.Workflow.Module(c.End.ModuleID)
				require.Truef(t, okStart && okEnd, "seed %d step %d: dangling connection %s", seed, step, c)
			}
		}
	}
}

func randomEdit(rng *rand.Rand, p *domain.Project, ids edit.IDGenerator) (*domain.Project, error) {
	w := p.Workflow
	layerIDs := w.RootLayerTree.LayerIDs()
	activeLayer := layerIDs[rng.IntN(len(layerIDs))]
	pick := func() *domain.Module {
		all := w.AllModules()
		if len(all) == 0 {
			return nil
		}
		return all[rng.IntN(len(all))]
	}

	switch rng.IntN(7) {
	case 0, 1:
		next, _, err := edit.AddModule(p, ids, portsFactory, edit.Position{X: rng.Float64() * 100, Y: rng.Float64() * 100}, activeLayer)
		return next, err
	case 2:
		a, b := pick(), pick()
		if a == nil || b == nil {
			return nil, domain.ErrNoChange
		}
		next, _, err := edit.AddConnection(p, ids,
			domain.SlotRef{ModuleID: a.ModuleID, SlotID: "out1"},
			domain.SlotRef{ModuleID: b.ModuleID, SlotID: "in1"})
		return next, err
	case 3:
		m := pick()
		if m == nil {
			return nil, domain.ErrNoChange
		}
		return edit.DeleteModules(p, []*domain.Module{m})
	case 4:
		node, _, _ := layer.Find(w.RootLayerTree, activeLayer)
		if len(node.ModuleIDs) == 0 {
			return nil, domain.ErrNoChange
		}
		n := 1 + rng.IntN(len(node.ModuleIDs))
		selection := slices.Clone(node.ModuleIDs[:n])
		next, _, err := edit.AddGroup(p, ids, groupFactory, selection, activeLayer, "")
		return next, err
	case 5:
		m := pick()
		if m == nil || m.IsPlugin() {
			return nil, domain.ErrNoChange
		}
		next, _, err := edit.AddPlugin(p, ids, pluginFactory, m)
		return next, err
	default:
		m := pick()
		if m == nil || m.Factory != portsFactory {
			return nil, domain.ErrNoChange
		}
		next, _, err := edit.UpdateModule(p, m, domain.Configuration{Data: map[string]any{"outputs": 1 + rng.IntN(3)}})
		return next, err
	}
}

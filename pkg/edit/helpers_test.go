package edit_test

import (
	"fmt"
	"testing"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/edit"
	"github.com/aretw0/fluxgraph/pkg/layer"
	"github.com/aretw0/fluxgraph/pkg/schema"
	"github.com/stretchr/testify/require"
)

// ports builds in1..inN / out1..outN from the "inputs" and "outputs" configuration keys.
var portsFactory = &domain.Factory{
	FactoryID: "ports",
	PackID:    "test",
	Kind:      domain.KindModule,
	Title:     "Ports",
	Shape: schema.Shape{
		"inputs":  {Type: schema.Int(), Default: 1},
		"outputs": {Type: schema.Int(), Default: 1},
	},
	Slots: func(cfg domain.Configuration) (in, out []domain.SlotSpec) {
		var c struct {
			Inputs  int `mapstructure:"inputs"`
			Outputs int `mapstructure:"outputs"`
		}
		_ = cfg.Decode(&c)
		for i := 1; i <= c.Inputs; i++ {
			in = append(in, domain.SlotSpec{SlotID: fmt.Sprintf("in%d", i)})
		}
		for i := 1; i <= c.Outputs; i++ {
			out = append(out, domain.SlotSpec{SlotID: fmt.Sprintf("out%d", i)})
		}
		return in, out
	},
}

var groupFactory = &domain.Factory{
	FactoryID: "group",
	PackID:    "test",
	Kind:      domain.KindGroup,
	Title:     "Group",
	Shape:     schema.Shape{edit.LayerIDKey: {Type: schema.String(), Default: ""}},
}

var componentFactory = &domain.Factory{
	FactoryID: "component",
	PackID:    "test",
	Kind:      domain.KindComponent,
	Title:     "Component",
}

var pluginFactory = &domain.Factory{
	FactoryID: "logger",
	PackID:    "test",
	Kind:      domain.KindPlugin,
	Title:     "Logger",
	Slots: func(domain.Configuration) (in, out []domain.SlotSpec) {
		return []domain.SlotSpec{{SlotID: "in1"}}, nil
	},
}

func addModule(t *testing.T, p *domain.Project, ids edit.IDGenerator, x, y float64) (*domain.Project, *domain.Module) {
	t.Helper()
	next, m, err := edit.AddModule(p, ids, portsFactory, edit.Position{X: x, Y: y}, domain.RootLayerID)
	require.NoError(t, err)
	return next, m
}

func connect(t *testing.T, p *domain.Project, ids edit.IDGenerator, from, to string) (*domain.Project, *domain.Connection) {
	t.Helper()
	next, c, err := edit.AddConnection(p, ids,
		domain.SlotRef{ModuleID: from, SlotID: "out1"},
		domain.SlotRef{ModuleID: to, SlotID: "in1"})
	require.NoError(t, err)
	return next, c
}

func requirePartition(t *testing.T, p *domain.Project) {
	t.Helper()
	require.NoError(t, layer.CheckPartition(p.Workflow.RootLayerTree, p.Workflow.ModuleIDs()))
}

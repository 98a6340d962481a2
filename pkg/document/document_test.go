package document_test

import (
	"slices"
	"strings"
	"testing"

	"github.com/aretw0/fluxgraph/pkg/adaptor"
	"github.com/aretw0/fluxgraph/pkg/document"
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/edit"
	"github.com/aretw0/fluxgraph/pkg/layer"
	"github.com/aretw0/fluxgraph/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProject(t *testing.T, reg *registry.Registry) *domain.Project {
	t.Helper()
	ids := &edit.Sequence{}
	relay, err := reg.Lookup("core/relay")
	require.NoError(t, err)
	group, _ := reg.Lookup("core/group")
	logger, _ := reg.Lookup("core/logger")
	constant, _ := reg.Lookup("core/constant")

	p := domain.NewProject("sample")
	p, m1, err := edit.AddModule(p, ids, relay, edit.Position{X: 10, Y: 20}, domain.RootLayerID)
	require.NoError(t, err)
	p, m2, err := edit.AddModule(p, ids, relay, edit.Position{X: 100, Y: 20}, domain.RootLayerID)
	require.NoError(t, err)
	p, m3, err := edit.AddModule(p, ids, relay, edit.Position{X: 200, Y: 20}, domain.RootLayerID)
	require.NoError(t, err)
	p, m2, err = edit.UpdateModule(p, m2, domain.Configuration{Data: map[string]any{registry.KeyOutputsCount: 2}})
	require.NoError(t, err)
	p, _, err = edit.AddPlugin(p, ids, logger, m2)
	require.NoError(t, err)
	p, m5, err := edit.AddModule(p, ids, constant, edit.Position{X: 300, Y: 20}, domain.RootLayerID)
	require.NoError(t, err)
	p, _, err = edit.UpdateModule(p, m5, domain.Configuration{Data: map[string]any{
		registry.KeyConstantValue: map[string]any{"n": 3, "ratio": 2.5, "tags": []string{"a", "b"}},
	}})
	require.NoError(t, err)

	p, c, err := edit.AddConnection(p, ids,
		domain.SlotRef{ModuleID: m1.ModuleID, SlotID: "out1"},
		domain.SlotRef{ModuleID: m2.ModuleID, SlotID: "in1"})
	require.NoError(t, err)
	a, err := adaptor.NewCompiler().Compile("a1", "upper(data)")
	require.NoError(t, err)
	p, _, err = edit.AddAdaptor(p, c, a)
	require.NoError(t, err)

	p, _, err = edit.CreateLayer(p, ids, group, []string{m3.ModuleID}, domain.RootLayerID, "Inner")
	require.NoError(t, err)
	p, _, err = edit.AddDescriptionBox(p, ids, "Notes", []string{m1.ModuleID}, "#ff0")
	require.NoError(t, err)
	p, err = edit.UpdateRequirements(p, domain.Requirements{FluxPacks: []string{"core"}, Libraries: map[string]string{"lodash": "4"}})
	require.NoError(t, err)
	return p
}

func TestRoundTrip(t *testing.T) {
	reg := registry.NewDefault()
	compiler := adaptor.NewCompiler()
	original := sampleProject(t, reg)

	for _, format := range []document.Format{document.JSON, document.YAML} {
		t.Run(string(format), func(t *testing.T) {
			first, err := document.Marshal(original, format)
			require.NoError(t, err)

			loaded, err := document.Unmarshal(first, format, reg, compiler)
			require.NoError(t, err)

			second, err := document.Marshal(loaded, format)
			require.NoError(t, err)
			assert.Equal(t, string(first), string(second))

			assert.Equal(t, original.Workflow.ModuleIDs(), loaded.Workflow.ModuleIDs())
			assert.Len(t, loaded.Workflow.Connections, 1)
			assert.NoError(t, layer.CheckPartition(loaded.Workflow.RootLayerTree, loaded.Workflow.ModuleIDs()))
			assert.Equal(t, original.Workflow.RootLayerTree.LayerIDs(), loaded.Workflow.RootLayerTree.LayerIDs())

			plugin := loaded.Workflow.Plugins[0]
			parent, ok := loaded.Workflow.Module(plugin.Parent.ModuleID)
			require.True(t, ok)
			assert.Same(t, parent, plugin.Parent)

			conn := loaded.Workflow.Connections[0]
			require.NotNil(t, conn.Adaptor)
			out, err := conn.Adaptor.Apply(domain.Message{Data: "hi"})
			require.NoError(t, err)
			assert.Equal(t, "HI", out.Data)

			for _, o := range slices.Concat(original.Workflow.Modules, original.Workflow.Plugins) {
				l, ok := loaded.Workflow.Module(o.ModuleID)
				require.True(t, ok, o.ModuleID)
				assert.True(t, o.Configuration.Equal(l.Configuration), "configuration of %s: %#v != %#v", o.ModuleID, o.Configuration.Data, l.Configuration.Data)
				_, _, err := edit.UpdateModule(loaded, l, o.Configuration)
				assert.ErrorIs(t, err, domain.ErrNoChange, o.ModuleID)
			}

			assert.Equal(t, original.Requirements, loaded.Requirements)
			assert.Len(t, loaded.BuilderRendering.ModulesView, len(original.BuilderRendering.ModulesView))
			assert.Len(t, loaded.BuilderRendering.DescriptionBoxes, 1)
		})
	}
}

func TestUnmarshal_WithoutCompiler(t *testing.T) {
	reg := registry.NewDefault()
	data, err := document.Marshal(sampleProject(t, reg), document.JSON)
	require.NoError(t, err)

	p, err := document.Unmarshal(data, document.JSON, reg, nil)
	require.NoError(t, err)
	a := p.Workflow.Connections[0].Adaptor
	assert.Equal(t, "upper(data)", a.Source)
	assert.Nil(t, a.Transform)
}

func TestUnmarshal_Errors(t *testing.T) {
	reg := registry.NewDefault()

	tests := []struct {
		name   string
		doc    string
		target error
	}{
		{
			name:   "Unknown Factory",
			doc:    `{"workflow":{"modules":[{"moduleId":"m1","factory":"nope/x"}]}}`,
			target: domain.ErrUnknownFactory,
		},
		{
			name: "Duplicate Module",
			doc: `{"workflow":{"modules":[{"moduleId":"m1","factory":"core/relay"},{"moduleId":"m1","factory":"core/relay"}],
				"rootLayerTree":{"layerId":"root","moduleIds":["m1"]}}}`,
			target: domain.ErrDuplicateID,
		},
		{
			name: "Connection Reusing Module Id",
			doc: `{"workflow":{"modules":[{"moduleId":"m1","factory":"core/relay"}],
				"connections":[{"connectionId":"m1","start":{"moduleId":"m1","slotId":"out1"},"end":{"moduleId":"m1","slotId":"in1"}}]}}`,
			target: domain.ErrDuplicateID,
		},
		{
			name: "Orphan Plugin",
			doc: `{"workflow":{"modules":[{"moduleId":"m1","factory":"core/relay"}],
				"plugins":[{"moduleId":"p1","factory":"core/logger","parent":"m9"}]}}`,
			target: domain.ErrModuleNotFound,
		},
		{
			name:   "Plugin As Module",
			doc:    `{"workflow":{"modules":[{"moduleId":"m1","factory":"core/logger"}]}}`,
			target: domain.ErrPrecondition,
		},
		{
			name:   "Invalid Configuration",
			doc:    `{"workflow":{"modules":[{"moduleId":"m1","factory":"core/relay","data":{"explicitInputsCount":"x"}}]}}`,
			target: domain.ErrInvalidConfiguration,
		},
		{
			name: "Broken Partition",
			doc: `{"workflow":{"modules":[{"moduleId":"m1","factory":"core/relay"}],
				"rootLayerTree":{"layerId":"root","moduleIds":[]}}}`,
			target: domain.ErrPrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := document.Unmarshal([]byte(tt.doc), document.JSON, reg, adaptor.NewCompiler())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestUnmarshal_MissingTree(t *testing.T) {
	doc := `{"version":1,"name":"n","workflow":{"modules":[{"moduleId":"m1","factory":"core/relay"}]}}`
	p, err := document.Unmarshal([]byte(doc), document.JSON, registry.NewDefault(), nil)
	require.NoError(t, err)
	assert.Equal(t, domain.RootLayerID, p.Workflow.RootLayerTree.LayerID)
	assert.Equal(t, []string{"m1"}, p.Workflow.RootLayerTree.ModuleIDs)
}

func TestUnmarshal_FutureVersion(t *testing.T) {
	_, err := document.Unmarshal([]byte(`{"version":99}`), document.JSON, registry.NewDefault(), nil)
	assert.ErrorContains(t, err, "unsupported document version")
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, document.YAML, document.FormatFromPath("a/b.YML"))
	assert.Equal(t, document.YAML, document.FormatFromPath("b.yaml"))
	assert.Equal(t, document.JSON, document.FormatFromPath("b.json"))
	assert.Equal(t, document.JSON, document.FormatFromPath("b"))
}

func TestRead_YAML(t *testing.T) {
	d, err := document.Read(strings.NewReader("version: 1\nname: demo\n"), document.YAML)
	require.NoError(t, err)
	assert.Equal(t, "demo", d.Name)
}

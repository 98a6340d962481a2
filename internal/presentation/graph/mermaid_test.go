package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/fluxgraph/internal/presentation/graph"
	"github.com/aretw0/fluxgraph/pkg/domain"
	contract "github.com/aretw0/fluxgraph/pkg/ports/tests"
)

func TestGenerateMermaid(t *testing.T) {
	// m1 (in layer "Inputs" owned by m4) -> m2, with an adaptor; m3 is a plugin of m2.
	sample := contract.SampleProject(t, "sample")

	tests := []struct {
		name     string
		project  *domain.Project
		overlay  *graph.GraphOverlay
		contains []string
		excludes []string
	}{
		{
			name:     "Empty Project",
			project:  domain.NewProject("empty"),
			contains: []string{"graph LR\n"},
			excludes: []string{"subgraph"},
		},
		{
			name:    "Layers As Subgraphs",
			project: sample,
			contains: []string{
				"    subgraph m4[\"Inputs\"]\n        m1[\"Relay\"]\n    end\n",
				"    m2[\"Relay\"]\n",
			},
			excludes: []string{"m4[\"Inputs\"]]"},
		},
		{
			name:    "Plugins And Connections",
			project: sample,
			contains: []string{
				"m3[[\"Logger\"]]",
				"m2 -.- m3",
				"m1 ==>|\"out1 → in1\"| m2",
			},
		},
		{
			name:    "Overlay",
			project: sample,
			overlay: &graph.GraphOverlay{ActiveLayer: "layer1", Selected: []string{"m1", "m1", "m2"}},
			contains: []string{
				"classDef selected",
				"class m1 selected;",
				"class m2 selected;",
				"class m4 active;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.project, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("GenerateMermaid() = \n%v\nUnwanted substring: %v", got, unwanted)
				}
			}
			if tt.overlay != nil && strings.Count(got, "class m1 selected;") != 1 {
				t.Errorf("selected modules must be styled once:\n%v", got)
			}
		})
	}
}

package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/layer"
)

// GraphOverlay contains editing state to visualize on the graph.
type GraphOverlay struct {
	ActiveLayer string
	Selected    []string
}

// GenerateMermaid produces a Mermaid flowchart of a project. Every layer below the root is
// a subgraph named after the container module that owns it, so that connections to the
// container attach to the subgraph.
// It applies semantic styling:
// - Module: [Rectangle]
// - Plugin: [[Subroutine]], linked to its parent with a dotted line
// - Constant (no inputs): ([Stadium])
// Connections carrying an adaptor are drawn thick.
func GenerateMermaid(p *domain.Project, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	w := p.Workflow
	containers := make(map[string]*layer.Tree)
	if w.RootLayerTree != nil {
		w.RootLayerTree.Walk(func(node, parent *layer.Tree) {
			if node.GroupID != "" {
				containers[node.GroupID] = node
			}
		})
		writeLayer(&sb, w, w.RootLayerTree, containers, "    ")
	}

	for _, plugin := range w.Plugins {
		if plugin.Parent != nil {
			fmt.Fprintf(&sb, "    %s -.- %s\n", sanitizeMermaidID(plugin.Parent.ModuleID), sanitizeMermaidID(plugin.ModuleID))
		}
	}

	for _, c := range w.Connections {
		label := strings.ReplaceAll(c.Start.SlotID+" → "+c.End.SlotID, "\"", "'")
		arrow := "-->"
		if c.Adaptor != nil {
			arrow = "==>"
		}
		fmt.Fprintf(&sb, "    %s %s|\"%s\"| %s\n", sanitizeMermaidID(c.Start.ModuleID), arrow, label, sanitizeMermaidID(c.End.ModuleID))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString("    classDef active fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Selected {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" {
				seen[safeID] = true
				fmt.Fprintf(&sb, "    class %s selected;\n", safeID)
			}
		}
		if node, _, ok := layer.Find(w.RootLayerTree, overlay.ActiveLayer); ok && node.GroupID != "" {
			fmt.Fprintf(&sb, "    class %s active;\n", sanitizeMermaidID(node.GroupID))
		}
	}

	return sb.String()
}

// writeLayer writes the modules of node. A container module is written as the subgraph of
// the layer it owns.
func writeLayer(sb *strings.Builder, w *domain.Workflow, node *layer.Tree, containers map[string]*layer.Tree, indent string) {
	for _, id := range node.ModuleIDs {
		m, ok := w.Module(id)
		if !ok {
			continue
		}
		safeID := sanitizeMermaidID(id)
		label := strings.ReplaceAll(m.Title(), "\"", "'")

		if child, ok := containers[id]; ok {
			title := child.Title
			if title == "" {
				title = label
			}
			fmt.Fprintf(sb, "%ssubgraph %s[\"%s\"]\n", indent, safeID, strings.ReplaceAll(title, "\"", "'"))
			writeLayer(sb, w, child, containers, indent+"    ")
			fmt.Fprintf(sb, "%send\n", indent)
			continue
		}

		opener, closer := "[", "]"
		switch {
		case m.IsPlugin():
			opener, closer = "[[", "]]"
		case len(m.Inputs) == 0 && len(m.Outputs) > 0:
			opener, closer = "([", "])"
		}
		fmt.Fprintf(sb, "%s%s%s\"%s\"%s\n", indent, safeID, opener, label, closer)
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

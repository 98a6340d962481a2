package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/layer"
)

// ValidateProject checks the structural invariants of a project: the layer tree partitions the
// modules, ids are unique, connections resolve to slots, plugins hang off live modules, layers
// are owned by containers, one layer at most each, and views and description boxes name
// existing modules.
func ValidateProject(p *domain.Project) error {
	if problems := Problems(p); len(problems) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}

// Problems lists every violation found in p, in a stable order.
func Problems(p *domain.Project) []string {
	if p == nil || p.Workflow == nil {
		return []string{"project has no workflow"}
	}
	w := p.Workflow

	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	// 1. Unique ids
	seen := make(map[string]string)
	claim := func(id, what string) {
		if prev, ok := seen[id]; ok {
			add("Duplicate id '%s' (%s and %s)", id, prev, what)
			return
		}
		seen[id] = what
	}
	for _, m := range w.Modules {
		claim(m.ModuleID, "module")
	}
	for _, m := range w.Plugins {
		claim(m.ModuleID, "plugin")
	}
	for _, c := range w.Connections {
		claim(c.ConnectionID, "connection")
	}

	// 2. Partition
	if w.RootLayerTree == nil {
		add("Missing root layer")
	} else if err := layer.CheckPartition(w.RootLayerTree, w.ModuleIDs()); err != nil {
		var perr *layer.PartitionError
		if errors.As(err, &perr) {
			for _, id := range perr.Missing {
				add("Module '%s' belongs to no layer", id)
			}
			for _, id := range perr.Duplicated {
				add("Module '%s' belongs to several layers", id)
			}
			for _, id := range perr.Unknown {
				add("Layer tree names unknown module '%s'", id)
			}
			for _, id := range perr.DuplicatedLayers {
				add("Duplicate layer id '%s'", id)
			}
		} else {
			add("%v", err)
		}
	}

	// 3. Containers and the layers they own
	if w.RootLayerTree != nil {
		owners := make(map[string]int)
		w.RootLayerTree.Walk(func(node, _ *layer.Tree) {
			if node.GroupID == "" {
				return
			}
			owners[node.GroupID]++
			m, ok := w.Module(node.GroupID)
			if !ok {
				add("Layer '%s' is owned by unknown module '%s'", node.LayerID, node.GroupID)
			} else if !m.IsContainer() {
				add("Layer '%s' is owned by '%s', which is not a container", node.LayerID, node.GroupID)
			}
		})
		for _, m := range w.Modules {
			// Zero is fine: the layer of an emptied container is pruned.
			if n := owners[m.ModuleID]; n > 1 {
				add("Module '%s' owns %d layers", m.ModuleID, n)
			}
		}
	}

	// 4. Plugins
	for _, pl := range w.Plugins {
		if pl.Parent == nil {
			add("Plugin '%s' has no parent", pl.ModuleID)
			continue
		}
		parent, ok := w.Module(pl.Parent.ModuleID)
		if !ok || parent.IsPlugin() {
			add("Plugin '%s' is attached to missing module '%s'", pl.ModuleID, pl.Parent.ModuleID)
		} else if parent != pl.Parent {
			add("Plugin '%s' is attached to a stale instance of '%s'", pl.ModuleID, pl.Parent.ModuleID)
		}
	}

	// 5. Connections
	for _, c := range w.Connections {
		start, ok := w.Module(c.Start.ModuleID)
		if !ok {
			add("Connection '%s' starts at missing module '%s'", c.ConnectionID, c.Start.ModuleID)
		} else if _, ok := start.Output(c.Start.SlotID); !ok {
			add("Connection '%s' starts at missing output %s", c.ConnectionID, c.Start)
		}
		end, ok := w.Module(c.End.ModuleID)
		if !ok {
			add("Connection '%s' ends at missing module '%s'", c.ConnectionID, c.End.ModuleID)
		} else if _, ok := end.Input(c.End.SlotID); !ok {
			add("Connection '%s' ends at missing input %s", c.ConnectionID, c.End)
		}
	}

	// 6. Rendering metadata
	views := make(map[string]bool)
	for _, v := range p.BuilderRendering.ModulesView {
		if views[v.ModuleID] {
			add("Module '%s' has several views", v.ModuleID)
		}
		views[v.ModuleID] = true
		if _, ok := w.Module(v.ModuleID); !ok {
			add("View of missing module '%s'", v.ModuleID)
		}
	}
	for _, b := range p.BuilderRendering.DescriptionBoxes {
		for _, id := range b.ModuleIDs {
			if _, ok := w.Module(id); !ok {
				add("Description box '%s' names missing module '%s'", b.DescriptionBoxID, id)
			}
		}
	}

	return errs
}

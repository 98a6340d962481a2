package edit

import (
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/layer"
)

// Closure is the set of module ids removed together by a deletion.
type Closure map[string]struct{}

// Has reports whether id is part of the closure.
func (c Closure) Has(id string) bool {
	_, ok := c[id]
	return ok
}

// DeletionClosure computes the ids removed when deleting modules: the modules themselves,
// every module nested in the layer of a removed container, and every plugin attached to a
// removed module, transitively.
func DeletionClosure(w *domain.Workflow, modules []*domain.Module) Closure {
	closure := make(Closure)
	queue := moduleIDs(modules)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if closure.Has(id) {
			continue
		}
		closure[id] = struct{}{}

		if owned, ok := layer.FindByGroup(w.RootLayerTree, id); ok {
			queue = append(queue, owned.ModuleIDsDeep()...)
		}
		for _, plugin := range w.PluginsOf(id) {
			queue = append(queue, plugin.ModuleID)
		}
	}
	return closure
}

// DeleteModules removes the deletion closure of modules in one step: modules, plugins,
// connections touching a removed id, views, description box references (boxes left empty
// are dropped) and the layer tree, filtered then pruned.
func DeleteModules(p *domain.Project, modules []*domain.Module) (*domain.Project, error) {
	if len(modules) == 0 {
		return nil, domain.ErrNoChange
	}
	w := p.Workflow
	for _, m := range modules {
		if _, err := currentModule(w, m); err != nil {
			return nil, err
		}
	}

	closure := DeletionClosure(w, modules)
	keepModule := func(m *domain.Module) bool { return !closure.Has(m.ModuleID) }

	next := cloneWorkflow(w)
	next.Modules = filter(w.Modules, keepModule)
	next.Plugins = filter(w.Plugins, keepModule)
	next.Connections = filter(w.Connections, func(c *domain.Connection) bool {
		return !closure.Has(c.Start.ModuleID) && !closure.Has(c.End.ModuleID)
	})
	next.RootLayerTree = layer.Prune(layer.Clone(w.RootLayerTree, func(id string) bool {
		return !closure.Has(id)
	}))

	r := p.BuilderRendering
	r.ModulesView = filter(r.ModulesView, func(v *domain.ModuleView) bool { return !closure.Has(v.ModuleID) })
	r.DescriptionBoxes = prunedBoxes(r.DescriptionBoxes, closure)

	return p.WithWorkflow(next).WithRendering(r), nil
}

// prunedBoxes drops removed ids from the boxes. Untouched boxes keep their identity.
func prunedBoxes(boxes []*domain.DescriptionBox, closure Closure) []*domain.DescriptionBox {
	out := make([]*domain.DescriptionBox, 0, len(boxes))
	for _, b := range boxes {
		kept := filter(b.ModuleIDs, func(id string) bool { return !closure.Has(id) })
		switch {
		case len(kept) == len(b.ModuleIDs):
			out = append(out, b)
		case len(kept) > 0:
			nb := *b
			nb.ModuleIDs = kept
			out = append(out, &nb)
		}
	}
	return out
}

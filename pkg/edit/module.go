package edit

import (
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/layer"
)

// DuplicateOffset is the world distance between a duplicated module and its source.
const DuplicateOffset = 50

// Position is a point in world coordinates.
type Position struct {
	X float64
	Y float64
}

// AddModule builds a module from factory with a fresh id, appends it to the workflow, inserts
// its id in the active layer and places its view at pos.
func AddModule(p *domain.Project, ids IDGenerator, factory *domain.Factory, pos Position, activeLayerID string) (*domain.Project, *domain.Module, error) {
	if factory == nil {
		return nil, nil, precondition(domain.ErrUnknownFactory, "nil factory")
	}
	switch {
	case factory.Kind == domain.KindPlugin:
		return nil, nil, precondition(domain.ErrUnknownFactory, "plugin factory %s needs a parent module", factory.Ref())
	case factory.IsContainer():
		return nil, nil, precondition(domain.ErrUnknownFactory, "container factory %s is created around a selection", factory.Ref())
	}

	w := p.Workflow
	id := freshID(w, ids, "m")
	tree, err := layer.InsertModules(w.RootLayerTree, activeLayerID, id)
	if err != nil {
		return nil, nil, precondition(domain.ErrLayerNotFound, "%s", activeLayerID)
	}
	m, err := factory.NewModule(id, domain.Configuration{}, nil)
	if err != nil {
		return nil, nil, err
	}

	next := cloneWorkflow(w)
	next.Modules = appendCopy(w.Modules, m)
	next.RootLayerTree = tree

	r := p.BuilderRendering
	r.ModulesView = appendCopy(r.ModulesView, &domain.ModuleView{ModuleID: id, XWorld: pos.X, YWorld: pos.Y})

	return p.WithWorkflow(next).WithRendering(r), m, nil
}

// DuplicateModules copies the given modules into the active layer with fresh ids, their views
// offset by DuplicateOffset. Connections between two duplicated modules are duplicated too.
// Containers and plugins cannot be duplicated.
func DuplicateModules(p *domain.Project, ids IDGenerator, modules []*domain.Module, activeLayerID string) (*domain.Project, []*domain.Module, error) {
	if len(modules) == 0 {
		return nil, nil, domain.ErrNoChange
	}
	w := p.Workflow
	if _, _, ok := layer.Find(w.RootLayerTree, activeLayerID); !ok {
		return nil, nil, precondition(domain.ErrLayerNotFound, "%s", activeLayerID)
	}

	next := cloneWorkflow(w)
	r := p.BuilderRendering
	remap := make(map[string]string, len(modules))
	created := make([]*domain.Module, 0, len(modules))
	newIDs := make([]string, 0, len(modules))
	var views []*domain.ModuleView

	for _, sel := range modules {
		src, err := currentModule(w, sel)
		if err != nil {
			return nil, nil, err
		}
		if src.IsContainer() || src.IsPlugin() {
			return nil, nil, precondition(domain.ErrPrecondition, "module %s cannot be duplicated", src.ModuleID)
		}
		if _, dup := remap[src.ModuleID]; dup {
			continue
		}
		id := freshID(next, ids, "m")
		if src.Factory == nil {
			return nil, nil, precondition(domain.ErrUnknownFactory, "module %s has no factory", src.ModuleID)
		}
		m, err := src.Factory.NewModule(id, src.Configuration.Clone(), nil)
		if err != nil {
			return nil, nil, err
		}
		remap[src.ModuleID] = id
		created = append(created, m)
		newIDs = append(newIDs, id)
		// freshID must see the ids drawn so far
		next.Modules = appendCopy(next.Modules, m)

		view := &domain.ModuleView{ModuleID: id, XWorld: DuplicateOffset, YWorld: DuplicateOffset}
		if v, ok := p.View(src.ModuleID); ok {
			view.XWorld, view.YWorld = v.XWorld+DuplicateOffset, v.YWorld+DuplicateOffset
		}
		views = append(views, view)
	}

	for _, c := range w.Connections {
		start, okStart := remap[c.Start.ModuleID]
		end, okEnd := remap[c.End.ModuleID]
		if !okStart || !okEnd {
			continue
		}
		dup := &domain.Connection{
			ConnectionID: freshID(next, ids, "c"),
			Start:        domain.SlotRef{ModuleID: start, SlotID: c.Start.SlotID},
			End:          domain.SlotRef{ModuleID: end, SlotID: c.End.SlotID},
			Adaptor:      c.Adaptor,
		}
		next.Connections = appendCopy(next.Connections, dup)
	}

	tree, err := layer.InsertModules(w.RootLayerTree, activeLayerID, newIDs...)
	if err != nil {
		return nil, nil, precondition(domain.ErrLayerNotFound, "%s", activeLayerID)
	}
	next.RootLayerTree = tree
	r.ModulesView = appendCopy(r.ModulesView, views...)

	return p.WithWorkflow(next).WithRendering(r), created, nil
}

// UpdateModule replaces a module with a new value holding the same id and cfg. Connections
// whose endpoint slot does not exist on the new value are dropped, and the plugins of the
// module are rebuilt against it. An unchanged configuration returns domain.ErrNoChange.
func UpdateModule(p *domain.Project, module *domain.Module, cfg domain.Configuration) (*domain.Project, *domain.Module, error) {
	w := p.Workflow
	cur, err := currentModule(w, module)
	if err != nil {
		return nil, nil, err
	}

	cfg = cfg.Clone()
	if cur.Factory != nil {
		cfg.Data = cur.Factory.Shape.Complete(cfg.Data)
		if cfg.Title == "" {
			cfg.Title = cur.Factory.Title
		}
	}
	if cur.Configuration.Equal(cfg) {
		return nil, nil, domain.ErrNoChange
	}

	updated, err := cur.Rebuild(cfg, cur.Parent)
	if err != nil {
		return nil, nil, err
	}

	next := cloneWorkflow(w)
	if cur.IsPlugin() {
		next.Plugins = replace(w.Plugins, cur, updated)
	} else {
		next.Modules = replace(w.Modules, cur, updated)
	}
	next.Connections = filter(w.Connections, func(c *domain.Connection) bool {
		if c.Start.ModuleID == updated.ModuleID {
			if _, ok := updated.Output(c.Start.SlotID); !ok {
				return false
			}
		}
		if c.End.ModuleID == updated.ModuleID {
			if _, ok := updated.Input(c.End.SlotID); !ok {
				return false
			}
		}
		return true
	})
	if err := rebuildPlugins(next, updated); err != nil {
		return nil, nil, err
	}
	return p.WithWorkflow(next), updated, nil
}

// rebuildPlugins rebuilds every plugin attached to parent (recursively) so that Parent
// points at the current value. w must be a private copy.
func rebuildPlugins(w *domain.Workflow, parent *domain.Module) error {
	for _, plugin := range w.PluginsOf(parent.ModuleID) {
		rebuilt, err := plugin.Rebuild(plugin.Configuration, parent)
		if err != nil {
			return err
		}
		w.Plugins = replace(w.Plugins, plugin, rebuilt)
		if err := rebuildPlugins(w, rebuilt); err != nil {
			return err
		}
	}
	return nil
}

// AddPlugin builds a plugin attached to parent and places it in the parent's layer.
func AddPlugin(p *domain.Project, ids IDGenerator, factory *domain.Factory, parent *domain.Module) (*domain.Project, *domain.Module, error) {
	if factory == nil {
		return nil, nil, precondition(domain.ErrUnknownFactory, "nil factory")
	}
	if factory.Kind != domain.KindPlugin {
		return nil, nil, precondition(domain.ErrUnknownFactory, "factory %s does not build plugins", factory.Ref())
	}
	w := p.Workflow
	cur, err := currentModule(w, parent)
	if err != nil {
		return nil, nil, err
	}
	home, ok := layer.LayerOf(w.RootLayerTree, cur.ModuleID)
	if !ok {
		return nil, nil, precondition(domain.ErrLayerNotFound, "module %s is in no layer", cur.ModuleID)
	}

	id := freshID(w, ids, "m")
	plugin, err := factory.NewModule(id, domain.Configuration{}, cur)
	if err != nil {
		return nil, nil, err
	}
	tree, err := layer.InsertModules(w.RootLayerTree, home.LayerID, id)
	if err != nil {
		return nil, nil, precondition(domain.ErrLayerNotFound, "%s", home.LayerID)
	}

	next := cloneWorkflow(w)
	next.Plugins = appendCopy(w.Plugins, plugin)
	next.RootLayerTree = tree
	return p.WithWorkflow(next), plugin, nil
}

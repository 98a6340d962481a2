package edit

import (
	"slices"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/layer"
)

// LayerIDKey is the configuration key through which container factories learn the id of
// the layer they own, when their shape declares it.
const LayerIDKey = "layerId"

// CreateLayer wraps the selected modules of the active layer into a new container module
// built by factory, and moves them into a new child layer owned by it. Plugins of selected
// modules follow their parent. The container view sits at the average position of the
// selected views.
func CreateLayer(p *domain.Project, ids IDGenerator, factory *domain.Factory, moduleIDs []string, activeLayerID, title string) (*domain.Project, *domain.Module, error) {
	if factory == nil {
		return nil, nil, precondition(domain.ErrUnknownFactory, "nil factory")
	}
	if !factory.IsContainer() {
		return nil, nil, precondition(domain.ErrUnknownFactory, "factory %s does not build containers", factory.Ref())
	}
	if len(moduleIDs) == 0 {
		return nil, nil, domain.ErrNoChange
	}

	w := p.Workflow
	active, _, ok := layer.Find(w.RootLayerTree, activeLayerID)
	if !ok {
		return nil, nil, precondition(domain.ErrLayerNotFound, "%s", activeLayerID)
	}
	selection, err := expandSelection(w, active, moduleIDs)
	if err != nil {
		return nil, nil, err
	}

	groupID := freshID(w, ids, "m")
	layerID := freshLayerID(w.RootLayerTree, ids)
	if title == "" {
		title = factory.Title
	}

	cfg := domain.Configuration{Title: title, Data: map[string]any{}}
	if _, ok := factory.Shape[LayerIDKey]; ok {
		cfg.Data[LayerIDKey] = layerID
	}
	group, err := factory.NewModule(groupID, cfg, nil)
	if err != nil {
		return nil, nil, err
	}

	tree, err := layer.CreateChildLayer(w.RootLayerTree, activeLayerID, layer.ChildLayer{
		LayerID:   layerID,
		Title:     title,
		GroupID:   groupID,
		ModuleIDs: selection,
	})
	if err != nil {
		return nil, nil, precondition(err, "create layer in %s", activeLayerID)
	}

	next := cloneWorkflow(w)
	next.Modules = appendCopy(w.Modules, group)
	next.RootLayerTree = tree

	r := p.BuilderRendering
	r.ModulesView = appendCopy(r.ModulesView, averageView(p, groupID, selection))

	return p.WithWorkflow(next).WithRendering(r), group, nil
}

// AddGroup is CreateLayer for group factories.
func AddGroup(p *domain.Project, ids IDGenerator, factory *domain.Factory, moduleIDs []string, activeLayerID, title string) (*domain.Project, *domain.Module, error) {
	if factory != nil && factory.Kind != domain.KindGroup {
		return nil, nil, precondition(domain.ErrUnknownFactory, "factory %s is not a group", factory.Ref())
	}
	return CreateLayer(p, ids, factory, moduleIDs, activeLayerID, title)
}

// AddComponent is CreateLayer for component factories.
func AddComponent(p *domain.Project, ids IDGenerator, factory *domain.Factory, moduleIDs []string, activeLayerID, title string) (*domain.Project, *domain.Module, error) {
	if factory != nil && factory.Kind != domain.KindComponent {
		return nil, nil, precondition(domain.ErrUnknownFactory, "factory %s is not a component", factory.Ref())
	}
	return CreateLayer(p, ids, factory, moduleIDs, activeLayerID, title)
}

// RenameLayer changes the title of a layer.
func RenameLayer(p *domain.Project, layerID, title string) (*domain.Project, error) {
	w := p.Workflow
	node, _, ok := layer.Find(w.RootLayerTree, layerID)
	if !ok {
		return nil, precondition(domain.ErrLayerNotFound, "%s", layerID)
	}
	if node.Title == title {
		return nil, domain.ErrNoChange
	}
	tree, err := layer.Rename(w.RootLayerTree, layerID, title)
	if err != nil {
		return nil, precondition(domain.ErrLayerNotFound, "%s", layerID)
	}
	next := cloneWorkflow(w)
	next.RootLayerTree = tree
	return p.WithWorkflow(next), nil
}

// expandSelection checks that every id is held by the active layer and adds the plugins of
// selected modules living in the same layer.
func expandSelection(w *domain.Workflow, active *layer.Tree, ids []string) ([]string, error) {
	var out []string
	var add func(id string)
	add = func(id string) {
		if slices.Contains(out, id) {
			return
		}
		out = append(out, id)
		for _, plugin := range w.PluginsOf(id) {
			if slices.Contains(active.ModuleIDs, plugin.ModuleID) {
				add(plugin.ModuleID)
			}
		}
	}
	for _, id := range ids {
		if _, ok := w.Module(id); !ok {
			return nil, precondition(domain.ErrModuleNotFound, "%s", id)
		}
		if !slices.Contains(active.ModuleIDs, id) {
			return nil, precondition(layer.ErrModuleNotInLayer, "%s not in layer %s", id, active.LayerID)
		}
		add(id)
	}
	return out, nil
}

func freshLayerID(tree *layer.Tree, ids IDGenerator) string {
	for {
		id := ids.NewID("layer")
		if _, _, taken := layer.Find(tree, id); !taken {
			return id
		}
	}
}

// averageView places id at the mean position of the views of ids.
func averageView(p *domain.Project, id string, ids []string) *domain.ModuleView {
	view := &domain.ModuleView{ModuleID: id}
	n := 0
	for _, member := range ids {
		if v, ok := p.View(member); ok {
			view.XWorld += v.XWorld
			view.YWorld += v.YWorld
			n++
		}
	}
	if n > 0 {
		view.XWorld /= float64(n)
		view.YWorld /= float64(n)
	}
	return view
}

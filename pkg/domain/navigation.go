package domain

import (
	"fmt"

	"github.com/aretw0/fluxgraph/pkg/layer"
)

// DisplayedModule is a module rendered while a layer is active.
type DisplayedModule struct {
	Module *Module
	// OutsideLayer is set for modules of the parent layer, drawn around the active one.
	OutsideLayer bool
}

// ActiveLayerModules returns the modules and plugins held directly by the given layer,
// in layer order.
func (p *Project) ActiveLayerModules(layerID string) ([]*Module, error) {
	node, _, ok := layer.Find(p.Workflow.RootLayerTree, layerID)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrPrecondition, ErrLayerNotFound, layerID)
	}
	return p.resolve(node.ModuleIDs), nil
}

// DisplayedModules returns the modules of the given layer followed by the modules of its
// parent layer, the latter tagged OutsideLayer. The container module owning the active layer
// is not repeated.
func (p *Project) DisplayedModules(layerID string) ([]DisplayedModule, error) {
	node, parent, ok := layer.Find(p.Workflow.RootLayerTree, layerID)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", ErrPrecondition, ErrLayerNotFound, layerID)
	}

	var out []DisplayedModule
	for _, m := range p.resolve(node.ModuleIDs) {
		out = append(out, DisplayedModule{Module: m})
	}
	if parent == nil {
		return out, nil
	}
	for _, m := range p.resolve(parent.ModuleIDs) {
		if m.ModuleID == node.GroupID {
			continue
		}
		out = append(out, DisplayedModule{Module: m, OutsideLayer: true})
	}
	return out, nil
}

// resolve maps ids to modules, skipping ids that do not resolve.
func (p *Project) resolve(ids []string) []*Module {
	out := make([]*Module, 0, len(ids))
	for _, id := range ids {
		if m, ok := p.Workflow.Module(id); ok {
			out = append(out, m)
		}
	}
	return out
}

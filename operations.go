package fluxgraph

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/edit"
)

// Factory references of the built-in containers.
const (
	GroupFactory     = "core/group"
	ComponentFactory = "core/component"
)

// AddModule builds a module from the registered factory and places it in the active layer.
func (e *Editor) AddModule(ctx context.Context, factoryRef string, pos edit.Position) (*domain.Module, error) {
	f, err := e.factories.Lookup(factoryRef)
	if err != nil {
		return nil, err
	}
	next, m, err := edit.AddModule(e.Project(), e.ids, f, pos, e.ActiveLayer())
	changed, err := e.commit(ctx, next, err, true)
	if err != nil || !changed {
		return nil, err
	}
	e.logger.Debug("module added", "module", m.ModuleID, "factory", factoryRef)
	return m, nil
}

// AddPlugin attaches a plugin built from the registered factory to a module.
func (e *Editor) AddPlugin(ctx context.Context, factoryRef, parentID string) (*domain.Module, error) {
	f, err := e.factories.Lookup(factoryRef)
	if err != nil {
		return nil, err
	}
	parent, err := e.module(parentID)
	if err != nil {
		return nil, err
	}
	next, m, err := edit.AddPlugin(e.Project(), e.ids, f, parent)
	changed, err := e.commit(ctx, next, err, true)
	if err != nil || !changed {
		return nil, err
	}
	return m, nil
}

// DuplicateModules copies modules into the active layer and returns the copies.
func (e *Editor) DuplicateModules(ctx context.Context, moduleIDs []string) ([]*domain.Module, error) {
	modules, err := e.modules(moduleIDs)
	if err != nil {
		return nil, err
	}
	next, created, err := edit.DuplicateModules(e.Project(), e.ids, modules, e.ActiveLayer())
	changed, err := e.commit(ctx, next, err, true)
	if err != nil || !changed {
		return nil, err
	}
	return created, nil
}

// UpdateModule sets the configuration of a module.
func (e *Editor) UpdateModule(ctx context.Context, moduleID string, cfg domain.Configuration) (bool, error) {
	m, err := e.module(moduleID)
	if err != nil {
		return false, err
	}
	next, _, err := edit.UpdateModule(e.Project(), m, cfg)
	return e.commit(ctx, next, err, true)
}

// DeleteModules removes modules together with their plugins, connections and the contents
// of the layers they own.
func (e *Editor) DeleteModules(ctx context.Context, moduleIDs []string) (bool, error) {
	modules, err := e.modules(moduleIDs)
	if err != nil {
		return false, err
	}
	next, err := edit.DeleteModules(e.Project(), modules)
	return e.commit(ctx, next, err, true)
}

// MoveModules moves module views. A drag streams its intermediate positions with asNewState
// false so that it occupies one history entry.
func (e *Editor) MoveModules(ctx context.Context, positions map[string]edit.Position, asNewState bool) (bool, error) {
	next, err := edit.MoveModules(e.Project(), positions)
	return e.commit(ctx, next, err, asNewState)
}

// AlignModules aligns module views along axis.
func (e *Editor) AlignModules(ctx context.Context, moduleIDs []string, axis edit.Axis) (bool, error) {
	next, err := edit.AlignModules(e.Project(), moduleIDs, axis)
	return e.commit(ctx, next, err, true)
}

// Connect wires an output slot to an input slot.
func (e *Editor) Connect(ctx context.Context, start, end domain.SlotRef) (*domain.Connection, error) {
	next, c, err := edit.AddConnection(e.Project(), e.ids, start, end)
	changed, err := e.commit(ctx, next, err, true)
	if err != nil || !changed {
		return nil, err
	}
	e.logger.Debug("connection added", "connection", c.ConnectionID, "start", start.String(), "end", end.String())
	return c, nil
}

// DeleteConnections removes connections by id.
func (e *Editor) DeleteConnections(ctx context.Context, connectionIDs []string) (bool, error) {
	conns := make([]*domain.Connection, 0, len(connectionIDs))
	for _, id := range connectionIDs {
		c, err := e.connection(id)
		if err != nil {
			return false, err
		}
		conns = append(conns, c)
	}
	next, err := edit.DeleteConnections(e.Project(), conns)
	return e.commit(ctx, next, err, true)
}

// SetAdaptor compiles source and attaches it to a connection, replacing its adaptor if any.
// A blank source removes the adaptor.
func (e *Editor) SetAdaptor(ctx context.Context, connectionID, source string) (bool, error) {
	c, err := e.connection(connectionID)
	if err != nil {
		return false, err
	}
	p := e.Project()

	if strings.TrimSpace(source) == "" {
		next, _, err := edit.DeleteAdaptor(p, c)
		return e.commit(ctx, next, err, true)
	}

	var id string
	if c.Adaptor != nil {
		id = c.Adaptor.AdaptorID
	} else {
		id = e.ids.NewID("a")
	}
	a, err := e.compiler.Compile(id, source)
	if err != nil {
		return false, err
	}

	var next *domain.Project
	if c.Adaptor == nil {
		next, _, err = edit.AddAdaptor(p, c, a)
	} else {
		next, _, err = edit.UpdateAdaptor(p, c, a)
	}
	return e.commit(ctx, next, err, true)
}

// Group wraps modules of the active layer into a new group and its layer.
func (e *Editor) Group(ctx context.Context, moduleIDs []string, title string) (*domain.Module, error) {
	return e.CreateLayer(ctx, GroupFactory, moduleIDs, title)
}

// CreateLayer wraps modules of the active layer into a container built by the registered
// factory. It returns nil when the selection is empty.
func (e *Editor) CreateLayer(ctx context.Context, factoryRef string, moduleIDs []string, title string) (*domain.Module, error) {
	f, err := e.factories.Lookup(factoryRef)
	if err != nil {
		return nil, err
	}
	next, group, err := edit.CreateLayer(e.Project(), e.ids, f, moduleIDs, e.ActiveLayer(), title)
	changed, err := e.commit(ctx, next, err, true)
	if err != nil || !changed {
		return nil, err
	}
	return group, nil
}

// RenameLayer sets the title of a layer.
func (e *Editor) RenameLayer(ctx context.Context, layerID, title string) (bool, error) {
	next, err := edit.RenameLayer(e.Project(), layerID, title)
	return e.commit(ctx, next, err, true)
}

// AddDescriptionBox adds a documentation box around modules.
func (e *Editor) AddDescriptionBox(ctx context.Context, title string, moduleIDs []string, color string) (*domain.DescriptionBox, error) {
	next, box, err := edit.AddDescriptionBox(e.Project(), e.ids, title, moduleIDs, color)
	changed, err := e.commit(ctx, next, err, true)
	if err != nil || !changed {
		return nil, err
	}
	return box, nil
}

// UpdateDescriptionBox replaces the content of a description box.
func (e *Editor) UpdateDescriptionBox(ctx context.Context, boxID, title string, moduleIDs []string, color string) (bool, error) {
	box, err := e.descriptionBox(boxID)
	if err != nil {
		return false, err
	}
	next, _, err := edit.UpdateDescriptionBox(e.Project(), box, title, moduleIDs, color)
	return e.commit(ctx, next, err, true)
}

// DeleteDescriptionBoxes removes description boxes by id.
func (e *Editor) DeleteDescriptionBoxes(ctx context.Context, boxIDs []string) (bool, error) {
	boxes := make([]*domain.DescriptionBox, 0, len(boxIDs))
	for _, id := range boxIDs {
		box, err := e.descriptionBox(id)
		if err != nil {
			return false, err
		}
		boxes = append(boxes, box)
	}
	next, err := edit.DeleteDescriptionBoxes(e.Project(), boxes)
	return e.commit(ctx, next, err, true)
}

// UpdateProperties sets the project name and description.
func (e *Editor) UpdateProperties(ctx context.Context, name, description string) (bool, error) {
	next, err := edit.UpdateProjectProperties(e.Project(), name, description)
	return e.commit(ctx, next, err, true)
}

// UpdateRequirements sets the packs and libraries of the project.
func (e *Editor) UpdateRequirements(ctx context.Context, req domain.Requirements) (bool, error) {
	next, err := edit.UpdateRequirements(e.Project(), req)
	return e.commit(ctx, next, err, true)
}

// UpdateRunnerRendering sets the runner page source. Keystrokes are committed with
// asNewState false.
func (e *Editor) UpdateRunnerRendering(ctx context.Context, layout, style string, asNewState bool) (bool, error) {
	next, err := edit.UpdateRunnerRendering(e.Project(), layout, style)
	return e.commit(ctx, next, err, asNewState)
}

func (e *Editor) module(id string) (*domain.Module, error) {
	m, ok := e.Project().Workflow.Module(id)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrPrecondition, domain.ErrModuleNotFound, id)
	}
	return m, nil
}

func (e *Editor) modules(ids []string) ([]*domain.Module, error) {
	out := make([]*domain.Module, 0, len(ids))
	for _, id := range ids {
		m, err := e.module(id)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (e *Editor) connection(id string) (*domain.Connection, error) {
	c, ok := e.Project().Workflow.Connection(id)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrPrecondition, domain.ErrConnectionNotFound, id)
	}
	return c, nil
}

func (e *Editor) descriptionBox(id string) (*domain.DescriptionBox, error) {
	box, ok := e.Project().DescriptionBox(id)
	if !ok {
		return nil, fmt.Errorf("%w: %w: %s", domain.ErrPrecondition, domain.ErrDescriptionBoxNotFound, id)
	}
	return box, nil
}

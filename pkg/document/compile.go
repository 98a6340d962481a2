package document

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/layer"
)

// Factories resolves factory references.
type Factories interface {
	Lookup(ref string) (*domain.Factory, error)
}

// Compiler compiles adaptor sources.
type Compiler interface {
	Compile(id, source string) (*domain.Adaptor, error)
}

// FromProject converts a project to its persisted form.
func FromProject(p *domain.Project) *Document {
	d := &Document{
		Version:     Version,
		Name:        p.Name,
		Description: p.Description,
		Requirements: Requirements{
			FluxPacks: slices.Clone(p.Requirements.FluxPacks),
			Libraries: maps.Clone(p.Requirements.Libraries),
		},
		RunnerRendering: RunnerRendering{
			Layout: p.RunnerRendering.Layout,
			Style:  p.RunnerRendering.Style,
		},
	}

	w := p.Workflow
	d.Workflow.Modules = make([]Module, 0, len(w.Modules))
	for _, m := range w.Modules {
		d.Workflow.Modules = append(d.Workflow.Modules, fromModule(m))
	}
	d.Workflow.Plugins = make([]Module, 0, len(w.Plugins))
	for _, m := range w.Plugins {
		d.Workflow.Plugins = append(d.Workflow.Plugins, fromModule(m))
	}
	d.Workflow.Connections = make([]Connection, 0, len(w.Connections))
	for _, c := range w.Connections {
		dc := Connection{
			ID:    c.ConnectionID,
			Start: SlotRef{Module: c.Start.ModuleID, Slot: c.Start.SlotID},
			End:   SlotRef{Module: c.End.ModuleID, Slot: c.End.SlotID},
		}
		if c.Adaptor != nil {
			dc.Adaptor = &Adaptor{ID: c.Adaptor.AdaptorID, Source: c.Adaptor.Source}
		}
		d.Workflow.Connections = append(d.Workflow.Connections, dc)
	}
	if w.RootLayerTree != nil {
		d.Workflow.Layers = fromTree(w.RootLayerTree)
	}

	r := p.BuilderRendering
	d.BuilderRendering.ModulesView = make([]ModuleView, 0, len(r.ModulesView))
	for _, v := range r.ModulesView {
		d.BuilderRendering.ModulesView = append(d.BuilderRendering.ModulesView, ModuleView{ModuleID: v.ModuleID, X: v.XWorld, Y: v.YWorld})
	}
	d.BuilderRendering.DescriptionBoxes = make([]DescriptionBox, 0, len(r.DescriptionBoxes))
	for _, b := range r.DescriptionBoxes {
		d.BuilderRendering.DescriptionBoxes = append(d.BuilderRendering.DescriptionBoxes, DescriptionBox{
			ID:        b.DescriptionBoxID,
			Title:     b.Title,
			ModuleIDs: slices.Clone(b.ModuleIDs),
			Color:     b.Color,
		})
	}
	return d
}

func fromModule(m *domain.Module) Module {
	dm := Module{
		ID:          m.ModuleID,
		Title:       m.Configuration.Title,
		Description: m.Configuration.Description,
		Data:        maps.Clone(m.Configuration.Data),
	}
	if m.Factory != nil {
		dm.Factory = m.Factory.Ref()
	}
	if m.Parent != nil {
		dm.Parent = m.Parent.ModuleID
	}
	return dm
}

func fromTree(t *layer.Tree) Layer {
	l := Layer{
		ID:        t.LayerID,
		Title:     t.Title,
		GroupID:   t.GroupID,
		ModuleIDs: slices.Clone(t.ModuleIDs),
	}
	if l.ModuleIDs == nil {
		l.ModuleIDs = []string{}
	}
	for _, c := range t.Children {
		l.Children = append(l.Children, fromTree(c))
	}
	return l
}

// Project builds the project described by d. Factories are resolved through factories and
// adaptor sources are compiled with compiler; a nil compiler keeps adaptors as source only.
func (d *Document) Project(factories Factories, compiler Compiler) (*domain.Project, error) {
	if d.Version > Version {
		return nil, fmt.Errorf("unsupported document version %d", d.Version)
	}

	w := &domain.Workflow{
		Modules:     make([]*domain.Module, 0, len(d.Workflow.Modules)),
		Connections: make([]*domain.Connection, 0, len(d.Workflow.Connections)),
		Plugins:     make([]*domain.Module, 0, len(d.Workflow.Plugins)),
	}
	byID := make(map[string]*domain.Module)

	for _, dm := range d.Workflow.Modules {
		if dm.Parent != "" {
			return nil, fmt.Errorf("%w: module %s has a parent", domain.ErrPrecondition, dm.ID)
		}
		m, err := buildModule(factories, dm, nil, byID)
		if err != nil {
			return nil, err
		}
		w.Modules = append(w.Modules, m)
		byID[m.ModuleID] = m
	}

	plugins, err := buildPlugins(factories, d.Workflow.Plugins, byID)
	if err != nil {
		return nil, err
	}
	w.Plugins = plugins

	for _, dc := range d.Workflow.Connections {
		if dc.ID == "" || w.HasID(dc.ID) {
			return nil, fmt.Errorf("%w: %w: connection %q", domain.ErrPrecondition, domain.ErrDuplicateID, dc.ID)
		}
		c := &domain.Connection{
			ConnectionID: dc.ID,
			Start:        domain.SlotRef{ModuleID: dc.Start.Module, SlotID: dc.Start.Slot},
			End:          domain.SlotRef{ModuleID: dc.End.Module, SlotID: dc.End.Slot},
		}
		if dc.Adaptor != nil {
			a := &domain.Adaptor{AdaptorID: dc.Adaptor.ID, Source: dc.Adaptor.Source}
			if compiler != nil {
				if a, err = compiler.Compile(dc.Adaptor.ID, dc.Adaptor.Source); err != nil {
					return nil, fmt.Errorf("connection %s: %w", dc.ID, err)
				}
			}
			c.Adaptor = a
		}
		w.Connections = append(w.Connections, c)
	}

	if d.Workflow.Layers.ID == "" {
		w.RootLayerTree = layer.New(domain.RootLayerID, "Main", w.ModuleIDs()...)
	} else {
		w.RootLayerTree = toTree(d.Workflow.Layers)
	}
	if err := layer.CheckPartition(w.RootLayerTree, w.ModuleIDs()); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPrecondition, err)
	}

	p := &domain.Project{
		Name:        d.Name,
		Description: d.Description,
		Requirements: domain.Requirements{
			FluxPacks: slices.Clone(d.Requirements.FluxPacks),
			Libraries: maps.Clone(d.Requirements.Libraries),
		},
		Workflow: w,
		RunnerRendering: domain.RunnerRendering{
			Layout: d.RunnerRendering.Layout,
			Style:  d.RunnerRendering.Style,
		},
	}
	p.BuilderRendering.ModulesView = make([]*domain.ModuleView, 0, len(d.BuilderRendering.ModulesView))
	for _, v := range d.BuilderRendering.ModulesView {
		p.BuilderRendering.ModulesView = append(p.BuilderRendering.ModulesView, &domain.ModuleView{ModuleID: v.ModuleID, XWorld: v.X, YWorld: v.Y})
	}
	p.BuilderRendering.DescriptionBoxes = make([]*domain.DescriptionBox, 0, len(d.BuilderRendering.DescriptionBoxes))
	for _, b := range d.BuilderRendering.DescriptionBoxes {
		p.BuilderRendering.DescriptionBoxes = append(p.BuilderRendering.DescriptionBoxes, &domain.DescriptionBox{
			DescriptionBoxID: b.ID,
			Title:            b.Title,
			ModuleIDs:        slices.Clone(b.ModuleIDs),
			Color:            b.Color,
		})
	}
	return p, nil
}

func buildModule(factories Factories, dm Module, parent *domain.Module, byID map[string]*domain.Module) (*domain.Module, error) {
	if _, dup := byID[dm.ID]; dup {
		return nil, fmt.Errorf("%w: %w: module %q", domain.ErrPrecondition, domain.ErrDuplicateID, dm.ID)
	}
	f, err := factories.Lookup(dm.Factory)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", dm.ID, err)
	}
	if isPlugin := parent != nil; isPlugin != (f.Kind == domain.KindPlugin) {
		return nil, fmt.Errorf("%w: module %s: factory %s has kind %s", domain.ErrPrecondition, dm.ID, dm.Factory, f.Kind)
	}
	cfg := domain.Configuration{Title: dm.Title, Description: dm.Description, Data: maps.Clone(dm.Data)}
	m, err := f.NewModule(dm.ID, cfg, parent)
	if err != nil {
		return nil, fmt.Errorf("module %s: %w", dm.ID, err)
	}
	return m, nil
}

// buildPlugins resolves plugins whose parent may itself be a plugin listed later. The
// document order is kept.
func buildPlugins(factories Factories, docs []Module, byID map[string]*domain.Module) ([]*domain.Module, error) {
	built := make([]*domain.Module, len(docs))
	pending := len(docs)
	for pending > 0 {
		progress := false
		for i, dm := range docs {
			if built[i] != nil {
				continue
			}
			parent, ok := byID[dm.Parent]
			if !ok {
				continue
			}
			m, err := buildModule(factories, dm, parent, byID)
			if err != nil {
				return nil, err
			}
			built[i] = m
			byID[m.ModuleID] = m
			pending--
			progress = true
		}
		if !progress {
			for i, dm := range docs {
				if built[i] == nil {
					return nil, fmt.Errorf("%w: %w: parent %q of plugin %s", domain.ErrPrecondition, domain.ErrModuleNotFound, dm.Parent, dm.ID)
				}
			}
		}
	}
	return built, nil
}

func toTree(l Layer) *layer.Tree {
	t := layer.New(l.ID, l.Title, l.ModuleIDs...)
	t.GroupID = l.GroupID
	for _, c := range l.Children {
		t.Children = append(t.Children, toTree(c))
	}
	return t
}

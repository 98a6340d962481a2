package domain

import (
	"slices"

	"github.com/aretw0/fluxgraph/pkg/layer"
)

// RootLayerID is the layer id of the root of every layer tree built by NewProject.
const RootLayerID = "root"

// Project is the top-level versioned unit. Everything else is owned by it.
type Project struct {
	Name             string
	Description      string
	Requirements     Requirements
	Workflow         *Workflow
	BuilderRendering BuilderRendering
	RunnerRendering  RunnerRendering
}

// Requirements lists the packs and libraries a project depends on.
type Requirements struct {
	FluxPacks []string
	// Libraries maps a library name to its version.
	Libraries map[string]string
}

// BuilderRendering holds the builder-side rendering metadata.
type BuilderRendering struct {
	ModulesView      []*ModuleView
	DescriptionBoxes []*DescriptionBox
}

// ModuleView is the position of a module in world coordinates.
type ModuleView struct {
	ModuleID string
	XWorld   float64
	YWorld   float64
}

// DescriptionBox is a free-floating annotation around a set of modules.
// It is documentation only and takes no part in the graph topology.
type DescriptionBox struct {
	DescriptionBoxID string
	Title            string
	ModuleIDs        []string
	Color            string
}

// RunnerRendering holds the source text of the runner page.
type RunnerRendering struct {
	Layout string
	Style  string
}

// Workflow is the graph: modules, plugins, connections and their layer tree.
type Workflow struct {
	Modules       []*Module
	Connections   []*Connection
	Plugins       []*Module
	RootLayerTree *layer.Tree
}

// NewProject returns an empty project whose layer tree is a single empty root.
func NewProject(name string) *Project {
	return &Project{
		Name:     name,
		Workflow: NewWorkflow(),
	}
}

// NewWorkflow returns an empty workflow with an empty root layer.
func NewWorkflow() *Workflow {
	return &Workflow{
		Modules:       []*Module{},
		Connections:   []*Connection{},
		Plugins:       []*Module{},
		RootLayerTree: layer.New(RootLayerID, "Main"),
	}
}

// WithWorkflow returns a shallow copy of the project holding w.
func (p *Project) WithWorkflow(w *Workflow) *Project {
	next := *p
	next.Workflow = w
	return &next
}

// WithRendering returns a shallow copy of the project holding r.
func (p *Project) WithRendering(r BuilderRendering) *Project {
	next := *p
	next.BuilderRendering = r
	return &next
}

// View returns the rendering position of a module.
func (p *Project) View(moduleID string) (*ModuleView, bool) {
	for _, v := range p.BuilderRendering.ModulesView {
		if v.ModuleID == moduleID {
			return v, true
		}
	}
	return nil, false
}

// DescriptionBox returns a description box by id.
func (p *Project) DescriptionBox(id string) (*DescriptionBox, bool) {
	for _, b := range p.BuilderRendering.DescriptionBoxes {
		if b.DescriptionBoxID == id {
			return b, true
		}
	}
	return nil, false
}

// AllModules returns Modules followed by Plugins in a new slice.
func (w *Workflow) AllModules() []*Module {
	if w == nil {
		return nil
	}
	return slices.Concat(w.Modules, w.Plugins)
}

// Module looks a module or plugin up by id.
func (w *Workflow) Module(id string) (*Module, bool) {
	if w == nil {
		return nil, false
	}
	for _, m := range w.Modules {
		if m.ModuleID == id {
			return m, true
		}
	}
	for _, m := range w.Plugins {
		if m.ModuleID == id {
			return m, true
		}
	}
	return nil, false
}

// Connection looks a connection up by id.
func (w *Workflow) Connection(id string) (*Connection, bool) {
	if w == nil {
		return nil, false
	}
	for _, c := range w.Connections {
		if c.ConnectionID == id {
			return c, true
		}
	}
	return nil, false
}

// HasConnection reports whether c (by identity) is part of the workflow.
func (w *Workflow) HasConnection(c *Connection) bool {
	return w != nil && slices.Contains(w.Connections, c)
}

// ConnectionsOf returns the connections with an endpoint on moduleID.
func (w *Workflow) ConnectionsOf(moduleID string) []*Connection {
	if w == nil {
		return nil
	}
	var out []*Connection
	for _, c := range w.Connections {
		if c.Touches(moduleID) {
			out = append(out, c)
		}
	}
	return out
}

// PluginsOf returns the plugins attached to the module with the given id.
func (w *Workflow) PluginsOf(parentID string) []*Module {
	if w == nil {
		return nil
	}
	var out []*Module
	for _, p := range w.Plugins {
		if p.Parent != nil && p.Parent.ModuleID == parentID {
			out = append(out, p)
		}
	}
	return out
}

// ModuleIDs returns the ids of Modules then Plugins.
func (w *Workflow) ModuleIDs() []string {
	all := w.AllModules()
	ids := make([]string, len(all))
	for i, m := range all {
		ids[i] = m.ModuleID
	}
	return ids
}

// HasID reports whether an id is used by any module, plugin or connection.
func (w *Workflow) HasID(id string) bool {
	if _, ok := w.Module(id); ok {
		return true
	}
	_, ok := w.Connection(id)
	return ok
}

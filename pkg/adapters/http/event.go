package http

import (
	"github.com/aretw0/fluxgraph"
	"github.com/aretw0/fluxgraph/pkg/domain"
)

// IDDelta lists the ids created and removed by a change.
type IDDelta struct {
	Created []string `json:"created,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Event is the SSE payload announcing a change of a project.
type Event struct {
	Project string       `json:"project"`
	Type    string       `json:"type"` // changed, replaced, deleted
	Op      fluxgraph.Op `json:"op,omitempty"`

	Modules     IDDelta `json:"modules,omitempty"`
	Connections IDDelta `json:"connections,omitempty"`
	// ActiveLayer is set when the active layer moved.
	ActiveLayer string `json:"activeLayer,omitempty"`
	CanUndo     bool   `json:"canUndo"`
	CanRedo     bool   `json:"canRedo"`
}

// NewEvent describes what op changed between before and the current snapshot of e.
func NewEvent(name string, op fluxgraph.Op, before *domain.Project, e *fluxgraph.Editor) Event {
	ev := Event{
		Project: name,
		Type:    "changed",
		Op:      op,
		CanUndo: e.CanUndo(),
		CanRedo: e.CanRedo(),
	}
	switch op {
	case fluxgraph.OpSetActiveLayer, fluxgraph.OpEnterLayer, fluxgraph.OpLeaveLayer:
		ev.ActiveLayer = e.ActiveLayer()
	}

	d := domain.DiffWorkflows(before.Workflow, e.Project().Workflow)
	for _, m := range d.Modules.Created {
		ev.Modules.Created = append(ev.Modules.Created, m.ModuleID)
	}
	for _, m := range d.Modules.Removed {
		ev.Modules.Removed = append(ev.Modules.Removed, m.ModuleID)
	}
	for _, c := range d.Connections.Created {
		ev.Connections.Created = append(ev.Connections.Created, c.ConnectionID)
	}
	for _, c := range d.Connections.Removed {
		ev.Connections.Removed = append(ev.Connections.Removed, c.ConnectionID)
	}
	return ev
}

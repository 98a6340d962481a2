package edit

import (
	"math"

	"github.com/aretw0/fluxgraph/pkg/domain"
)

// MoveThreshold is the total displacement, in world units, under which a move is noise.
const MoveThreshold = 1.0

// Axis selects the alignment direction of AlignModules.
type Axis int

const (
	// Horizontal puts the modules on one row (same Y).
	Horizontal Axis = iota
	// Vertical puts the modules on one column (same X).
	Vertical
)

// MoveModules sets the view of each module id to its new position. Moved views are new
// values; the others keep their identity. A total displacement below MoveThreshold returns
// domain.ErrNoChange.
func MoveModules(p *domain.Project, positions map[string]Position) (*domain.Project, error) {
	if len(positions) == 0 {
		return nil, domain.ErrNoChange
	}
	for id := range positions {
		if _, ok := p.View(id); !ok {
			return nil, precondition(domain.ErrModuleNotFound, "no view for module %s", id)
		}
	}

	total := 0.0
	views := make([]*domain.ModuleView, len(p.BuilderRendering.ModulesView))
	for i, v := range p.BuilderRendering.ModulesView {
		views[i] = v
		pos, ok := positions[v.ModuleID]
		if !ok {
			continue
		}
		d := math.Hypot(pos.X-v.XWorld, pos.Y-v.YWorld)
		if d == 0 {
			continue
		}
		total += d
		views[i] = &domain.ModuleView{ModuleID: v.ModuleID, XWorld: pos.X, YWorld: pos.Y}
	}
	if total < MoveThreshold {
		return nil, domain.ErrNoChange
	}

	r := p.BuilderRendering
	r.ModulesView = views
	return p.WithRendering(r), nil
}

// AlignModules aligns the views of the given modules on the mean of their coordinate along
// the other axis.
func AlignModules(p *domain.Project, ids []string, axis Axis) (*domain.Project, error) {
	if len(ids) < 2 {
		return nil, domain.ErrNoChange
	}
	sum := 0.0
	current := make(map[string]*domain.ModuleView, len(ids))
	for _, id := range ids {
		v, ok := p.View(id)
		if !ok {
			return nil, precondition(domain.ErrModuleNotFound, "no view for module %s", id)
		}
		current[id] = v
		if axis == Horizontal {
			sum += v.YWorld
		} else {
			sum += v.XWorld
		}
	}
	mean := sum / float64(len(current))

	positions := make(map[string]Position, len(current))
	for id, v := range current {
		if axis == Horizontal {
			positions[id] = Position{X: v.XWorld, Y: mean}
		} else {
			positions[id] = Position{X: mean, Y: v.YWorld}
		}
	}
	return MoveModules(p, positions)
}

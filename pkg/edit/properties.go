package edit

import (
	"maps"
	"slices"

	"github.com/aretw0/fluxgraph/pkg/domain"
)

// UpdateProjectProperties changes the name and description of the project.
func UpdateProjectProperties(p *domain.Project, name, description string) (*domain.Project, error) {
	if p.Name == name && p.Description == description {
		return nil, domain.ErrNoChange
	}
	next := *p
	next.Name = name
	next.Description = description
	return &next, nil
}

// UpdateRunnerRendering changes the runner page source. It is typically committed with
// coalescing while the user types.
func UpdateRunnerRendering(p *domain.Project, layout, style string) (*domain.Project, error) {
	if p.RunnerRendering.Layout == layout && p.RunnerRendering.Style == style {
		return nil, domain.ErrNoChange
	}
	next := *p
	next.RunnerRendering = domain.RunnerRendering{Layout: layout, Style: style}
	return &next, nil
}

// UpdateRequirements replaces the packs and libraries the project depends on.
func UpdateRequirements(p *domain.Project, req domain.Requirements) (*domain.Project, error) {
	if slices.Equal(p.Requirements.FluxPacks, req.FluxPacks) && maps.Equal(p.Requirements.Libraries, req.Libraries) {
		return nil, domain.ErrNoChange
	}
	next := *p
	next.Requirements = domain.Requirements{
		FluxPacks: slices.Clone(req.FluxPacks),
		Libraries: maps.Clone(req.Libraries),
	}
	return &next, nil
}

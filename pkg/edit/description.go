package edit

import (
	"slices"

	"github.com/aretw0/fluxgraph/pkg/domain"
)

// AddDescriptionBox creates a description box around the given modules.
func AddDescriptionBox(p *domain.Project, ids IDGenerator, title string, moduleIDs []string, color string) (*domain.Project, *domain.DescriptionBox, error) {
	if len(moduleIDs) == 0 {
		return nil, nil, domain.ErrNoChange
	}
	if err := checkModules(p.Workflow, moduleIDs); err != nil {
		return nil, nil, err
	}

	var id string
	for {
		id = ids.NewID("box")
		if _, taken := p.DescriptionBox(id); !taken {
			break
		}
	}
	box := &domain.DescriptionBox{
		DescriptionBoxID: id,
		Title:            title,
		ModuleIDs:        slices.Compact(slices.Clone(moduleIDs)),
		Color:            color,
	}
	r := p.BuilderRendering
	r.DescriptionBoxes = appendCopy(r.DescriptionBoxes, box)
	return p.WithRendering(r), box, nil
}

// UpdateDescriptionBox replaces box with a value holding the same id and the given fields.
// An empty module list deletes the box.
func UpdateDescriptionBox(p *domain.Project, box *domain.DescriptionBox, title string, moduleIDs []string, color string) (*domain.Project, *domain.DescriptionBox, error) {
	cur, err := currentBox(p, box)
	if err != nil {
		return nil, nil, err
	}
	if len(moduleIDs) == 0 {
		next, err := DeleteDescriptionBoxes(p, []*domain.DescriptionBox{cur})
		return next, nil, err
	}
	if cur.Title == title && cur.Color == color && slices.Equal(cur.ModuleIDs, moduleIDs) {
		return nil, nil, domain.ErrNoChange
	}
	if err := checkModules(p.Workflow, moduleIDs); err != nil {
		return nil, nil, err
	}

	updated := &domain.DescriptionBox{
		DescriptionBoxID: cur.DescriptionBoxID,
		Title:            title,
		ModuleIDs:        slices.Clone(moduleIDs),
		Color:            color,
	}
	r := p.BuilderRendering
	r.DescriptionBoxes = replace(r.DescriptionBoxes, cur, updated)
	return p.WithRendering(r), updated, nil
}

// DeleteDescriptionBoxes removes the given boxes.
func DeleteDescriptionBoxes(p *domain.Project, boxes []*domain.DescriptionBox) (*domain.Project, error) {
	if len(boxes) == 0 {
		return nil, domain.ErrNoChange
	}
	drop := make(map[*domain.DescriptionBox]struct{}, len(boxes))
	for _, b := range boxes {
		cur, err := currentBox(p, b)
		if err != nil {
			return nil, err
		}
		drop[cur] = struct{}{}
	}
	r := p.BuilderRendering
	r.DescriptionBoxes = filter(r.DescriptionBoxes, func(b *domain.DescriptionBox) bool {
		_, gone := drop[b]
		return !gone
	})
	return p.WithRendering(r), nil
}

func currentBox(p *domain.Project, box *domain.DescriptionBox) (*domain.DescriptionBox, error) {
	if box == nil {
		return nil, precondition(domain.ErrDescriptionBoxNotFound, "nil")
	}
	cur, ok := p.DescriptionBox(box.DescriptionBoxID)
	if !ok {
		return nil, precondition(domain.ErrDescriptionBoxNotFound, "%s", box.DescriptionBoxID)
	}
	return cur, nil
}

func checkModules(w *domain.Workflow, ids []string) error {
	for _, id := range ids {
		if _, ok := w.Module(id); !ok {
			return precondition(domain.ErrModuleNotFound, "%s", id)
		}
	}
	return nil
}

package domain

// Delta is the identity difference between two snapshots of a collection.
type Delta[T comparable] struct {
	// Created holds elements of the new snapshot absent from the old one.
	Created []T
	// Removed holds elements of the old snapshot absent from the new one.
	Removed []T
}

// IsEmpty reports whether nothing was created or removed.
func (d Delta[T]) IsEmpty() bool {
	return len(d.Created) == 0 && len(d.Removed) == 0
}

// IdentityDiff compares two lists by identity. For pointer element types an element that
// was rebuilt with the same logical id appears in both Created and Removed.
// Order follows the input lists.
func IdentityDiff[T comparable](oldList, newList []T) Delta[T] {
	var d Delta[T]
	if len(oldList) == 0 && len(newList) == 0 {
		return d
	}

	inOld := make(map[T]struct{}, len(oldList))
	for _, e := range oldList {
		inOld[e] = struct{}{}
	}
	inNew := make(map[T]struct{}, len(newList))
	for _, e := range newList {
		inNew[e] = struct{}{}
	}

	for _, e := range newList {
		if _, ok := inOld[e]; !ok {
			d.Created = append(d.Created, e)
		}
	}
	for _, e := range oldList {
		if _, ok := inNew[e]; !ok {
			d.Removed = append(d.Removed, e)
		}
	}
	return d
}

// WorkflowDelta is the structural difference between two workflows.
type WorkflowDelta struct {
	// Modules merges the module and plugin deltas.
	Modules     Delta[*Module]
	Connections Delta[*Connection]
}

// IsEmpty reports whether neither modules nor connections changed.
func (d WorkflowDelta) IsEmpty() bool {
	return d.Modules.IsEmpty() && d.Connections.IsEmpty()
}

// DiffWorkflows computes the delta between two workflows. A nil workflow counts as empty.
//
// Besides the identity diff of each list, every created (removed) module or plugin marks as
// created (removed) every connection of the new (old) workflow touching its id, even when
// the connection value itself is unchanged. Slots are owned by module instances, so such a
// connection must be wired again against the new instance. A connection can therefore be
// both removed and created in the same delta.
func DiffWorkflows(oldW, newW *Workflow) WorkflowDelta {
	var d WorkflowDelta
	if oldW == newW {
		return d
	}
	if oldW == nil {
		oldW = &Workflow{}
	}
	if newW == nil {
		newW = &Workflow{}
	}

	// 1. Connections
	d.Connections = IdentityDiff(oldW.Connections, newW.Connections)

	// 2. Modules, then 3. plugins, with cascading connection marking
	for _, pair := range [2][2][]*Module{
		{oldW.Modules, newW.Modules},
		{oldW.Plugins, newW.Plugins},
	} {
		md := IdentityDiff(pair[0], pair[1])
		for _, m := range md.Created {
			d.Connections.Created = append(d.Connections.Created, newW.ConnectionsOf(m.ModuleID)...)
		}
		for _, m := range md.Removed {
			d.Connections.Removed = append(d.Connections.Removed, oldW.ConnectionsOf(m.ModuleID)...)
		}
		d.Modules.Created = append(d.Modules.Created, md.Created...)
		d.Modules.Removed = append(d.Modules.Removed, md.Removed...)
	}

	// 4. De-duplicate
	d.Modules.Created = unique(d.Modules.Created)
	d.Modules.Removed = unique(d.Modules.Removed)
	d.Connections.Created = unique(d.Connections.Created)
	d.Connections.Removed = unique(d.Connections.Removed)
	return d
}

// DiffViews returns the identity delta of the module views of two projects.
func DiffViews(oldP, newP *Project) Delta[*ModuleView] {
	var oldV, newV []*ModuleView
	if oldP != nil {
		oldV = oldP.BuilderRendering.ModulesView
	}
	if newP != nil {
		newV = newP.BuilderRendering.ModulesView
	}
	return IdentityDiff(oldV, newV)
}

// DiffDescriptionBoxes returns the identity delta of the description boxes of two projects.
func DiffDescriptionBoxes(oldP, newP *Project) Delta[*DescriptionBox] {
	var oldB, newB []*DescriptionBox
	if oldP != nil {
		oldB = oldP.BuilderRendering.DescriptionBoxes
	}
	if newP != nil {
		newB = newP.BuilderRendering.DescriptionBoxes
	}
	return IdentityDiff(oldB, newB)
}

// unique keeps the first occurrence of each element.
func unique[T comparable](list []T) []T {
	if len(list) < 2 {
		return list
	}
	seen := make(map[T]struct{}, len(list))
	out := list[:0:0]
	for _, e := range list {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

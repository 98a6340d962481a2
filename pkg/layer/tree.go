package layer

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrLayerNotFound is returned when a layer id does not resolve in the tree.
	ErrLayerNotFound = errors.New("layer not found")

	// ErrDuplicateLayer is returned when a new layer reuses an existing layer id.
	ErrDuplicateLayer = errors.New("duplicate layer id")

	// ErrModuleNotInLayer is returned when a selection references module ids that the
	// target layer does not hold.
	ErrModuleNotInLayer = errors.New("module not in layer")
)

// Tree is a node of the layer hierarchy.
type Tree struct {
	// LayerID is unique across the whole tree.
	LayerID string

	Title string

	// GroupID is the id of the container module that owns this layer.
	// It is empty for the root.
	GroupID string

	Children []*Tree

	// ModuleIDs are the modules displayed directly in this layer.
	ModuleIDs []string
}

// ChildLayer describes a layer to insert with CreateChildLayer.
type ChildLayer struct {
	LayerID   string
	Title     string
	GroupID   string
	ModuleIDs []string
}

// New creates a leaf layer.
func New(layerID, title string, moduleIDs ...string) *Tree {
	return &Tree{
		LayerID:   layerID,
		Title:     title,
		Children:  []*Tree{},
		ModuleIDs: slices.Clone(nonNil(moduleIDs)),
	}
}

// Find searches the tree depth-first and returns the first node with the given id,
// along with its parent (nil for the root).
func Find(tree *Tree, id string) (node, parent *Tree, ok bool) {
	return find(tree, nil, func(t *Tree) bool { return t.LayerID == id })
}

// FindByGroup returns the layer owned by the given container module.
func FindByGroup(tree *Tree, groupID string) (*Tree, bool) {
	if groupID == "" {
		return nil, false
	}
	node, _, ok := find(tree, nil, func(t *Tree) bool { return t.GroupID == groupID })
	return node, ok
}

// LayerOf returns the layer whose own ModuleIDs hold moduleID.
func LayerOf(tree *Tree, moduleID string) (*Tree, bool) {
	node, _, ok := find(tree, nil, func(t *Tree) bool { return slices.Contains(t.ModuleIDs, moduleID) })
	return node, ok
}

func find(t, parent *Tree, match func(*Tree) bool) (*Tree, *Tree, bool) {
	if t == nil {
		return nil, nil, false
	}
	if match(t) {
		return t, parent, true
	}
	for _, child := range t.Children {
		if node, p, ok := find(child, t, match); ok {
			return node, p, true
		}
	}
	return nil, nil, false
}

// Clone returns a deep copy of tree in which every node's ModuleIDs only retains the ids
// accepted by keep. A nil keep retains everything. Nodes left empty keep their place.
func Clone(tree *Tree, keep func(moduleID string) bool) *Tree {
	if tree == nil {
		return nil
	}
	ids := make([]string, 0, len(tree.ModuleIDs))
	for _, id := range tree.ModuleIDs {
		if keep == nil || keep(id) {
			ids = append(ids, id)
		}
	}
	children := make([]*Tree, 0, len(tree.Children))
	for _, child := range tree.Children {
		children = append(children, Clone(child, keep))
	}
	return &Tree{
		LayerID:   tree.LayerID,
		Title:     tree.Title,
		GroupID:   tree.GroupID,
		Children:  children,
		ModuleIDs: ids,
	}
}

// Prune returns a copy of tree without the child nodes whose whole subtree holds no module id.
// The root itself is always kept.
func Prune(tree *Tree) *Tree {
	if tree == nil {
		return nil
	}
	children := make([]*Tree, 0, len(tree.Children))
	for _, child := range tree.Children {
		if child.CountDeep() == 0 {
			continue
		}
		children = append(children, Prune(child))
	}
	return &Tree{
		LayerID:   tree.LayerID,
		Title:     tree.Title,
		GroupID:   tree.GroupID,
		Children:  children,
		ModuleIDs: slices.Clone(tree.ModuleIDs),
	}
}

// CreateChildLayer moves child.ModuleIDs out of the parent layer into a new child layer.
// Existing children of the parent owned by one of the selected modules move along with them,
// so grouping a selection that contains groups keeps their nesting. When child.GroupID is set,
// the owning container module id is inserted in the parent layer, keeping the partition intact.
func CreateChildLayer(tree *Tree, parentID string, child ChildLayer) (*Tree, error) {
	parent, _, ok := Find(tree, parentID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, parentID)
	}
	if _, _, exists := Find(tree, child.LayerID); exists || child.LayerID == "" {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateLayer, child.LayerID)
	}

	selected := make(map[string]bool, len(child.ModuleIDs))
	members := make([]string, 0, len(child.ModuleIDs))
	for _, id := range child.ModuleIDs {
		if selected[id] {
			continue
		}
		if !slices.Contains(parent.ModuleIDs, id) {
			return nil, fmt.Errorf("%w: %q is not in layer %q", ErrModuleNotInLayer, id, parentID)
		}
		selected[id] = true
		members = append(members, id)
	}

	return replace(tree, parentID, func(p *Tree) *Tree {
		kept := make([]string, 0, len(p.ModuleIDs)+1)
		for _, id := range p.ModuleIDs {
			if !selected[id] {
				kept = append(kept, id)
			}
		}
		if child.GroupID != "" {
			kept = append(kept, child.GroupID)
		}

		var stay, moved []*Tree
		for _, c := range p.Children {
			if c.GroupID != "" && selected[c.GroupID] {
				moved = append(moved, Clone(c, nil))
			} else {
				stay = append(stay, Clone(c, nil))
			}
		}

		node := &Tree{
			LayerID:   child.LayerID,
			Title:     child.Title,
			GroupID:   child.GroupID,
			Children:  nonNilTrees(moved),
			ModuleIDs: members,
		}
		return &Tree{
			LayerID:   p.LayerID,
			Title:     p.Title,
			GroupID:   p.GroupID,
			Children:  append(nonNilTrees(stay), node),
			ModuleIDs: kept,
		}
	}), nil
}

// InsertModules returns a copy of tree with moduleIDs appended to the given layer.
func InsertModules(tree *Tree, layerID string, moduleIDs ...string) (*Tree, error) {
	if _, _, ok := Find(tree, layerID); !ok {
		return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, layerID)
	}
	return replace(tree, layerID, func(t *Tree) *Tree {
		n := Clone(t, nil)
		n.ModuleIDs = append(n.ModuleIDs, moduleIDs...)
		return n
	}), nil
}

// Rename returns a copy of tree where the given layer carries a new title.
func Rename(tree *Tree, layerID, title string) (*Tree, error) {
	if _, _, ok := Find(tree, layerID); !ok {
		return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, layerID)
	}
	return replace(tree, layerID, func(t *Tree) *Tree {
		n := Clone(t, nil)
		n.Title = title
		return n
	}), nil
}

// replace copies tree, substituting the first node with the given id by fn(node).
func replace(t *Tree, id string, fn func(*Tree) *Tree) *Tree {
	if t.LayerID == id {
		return fn(t)
	}
	children := make([]*Tree, 0, len(t.Children))
	for _, c := range t.Children {
		children = append(children, replace(c, id, fn))
	}
	return &Tree{
		LayerID:   t.LayerID,
		Title:     t.Title,
		GroupID:   t.GroupID,
		Children:  children,
		ModuleIDs: slices.Clone(t.ModuleIDs),
	}
}

// Walk visits every node depth-first, parents before children.
func (t *Tree) Walk(fn func(node, parent *Tree)) {
	t.walk(nil, fn)
}

func (t *Tree) walk(parent *Tree, fn func(node, parent *Tree)) {
	if t == nil {
		return
	}
	fn(t, parent)
	for _, c := range t.Children {
		c.walk(t, fn)
	}
}

// ModuleIDsDeep returns every module id held by the subtree, in depth-first order.
func (t *Tree) ModuleIDsDeep() []string {
	var ids []string
	t.Walk(func(node, _ *Tree) {
		ids = append(ids, node.ModuleIDs...)
	})
	return ids
}

// CountDeep returns the number of module ids held by the subtree.
func (t *Tree) CountDeep() int {
	n := 0
	t.Walk(func(node, _ *Tree) {
		n += len(node.ModuleIDs)
	})
	return n
}

// LayerIDs returns every layer id of the subtree, in depth-first order.
func (t *Tree) LayerIDs() []string {
	var ids []string
	t.Walk(func(node, _ *Tree) {
		ids = append(ids, node.LayerID)
	})
	return ids
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func nonNilTrees(trees []*Tree) []*Tree {
	if trees == nil {
		return []*Tree{}
	}
	return trees
}

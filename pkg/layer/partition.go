package layer

import (
	"fmt"
	"sort"
	"strings"
)

// PartitionError reports how a tree fails to partition a set of module ids.
type PartitionError struct {
	// Missing ids belong to the workflow but to no layer.
	Missing []string
	// Duplicated ids appear in more than one place of the tree.
	Duplicated []string
	// Unknown ids appear in the tree but not in the workflow.
	Unknown []string
	// DuplicatedLayers are layer ids used by more than one node.
	DuplicatedLayers []string
}

func (e *PartitionError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing %v", e.Missing))
	}
	if len(e.Duplicated) > 0 {
		parts = append(parts, fmt.Sprintf("duplicated %v", e.Duplicated))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, fmt.Sprintf("unknown %v", e.Unknown))
	}
	if len(e.DuplicatedLayers) > 0 {
		parts = append(parts, fmt.Sprintf("duplicated layers %v", e.DuplicatedLayers))
	}
	return "layer tree is not a partition: " + strings.Join(parts, ", ")
}

// CheckPartition verifies that the ModuleIDs of all nodes of tree form a partition of ids,
// and that layer ids are unique. It returns a *PartitionError otherwise.
func CheckPartition(tree *Tree, ids []string) error {
	expected := make(map[string]bool, len(ids))
	for _, id := range ids {
		expected[id] = true
	}

	seen := make(map[string]int)
	layers := make(map[string]int)
	tree.Walk(func(node, _ *Tree) {
		layers[node.LayerID]++
		for _, id := range node.ModuleIDs {
			seen[id]++
		}
	})

	perr := &PartitionError{}
	for id := range expected {
		if seen[id] == 0 {
			perr.Missing = append(perr.Missing, id)
		}
	}
	for id, n := range seen {
		if n > 1 {
			perr.Duplicated = append(perr.Duplicated, id)
		}
		if !expected[id] {
			perr.Unknown = append(perr.Unknown, id)
		}
	}
	for id, n := range layers {
		if n > 1 {
			perr.DuplicatedLayers = append(perr.DuplicatedLayers, id)
		}
	}

	if len(perr.Missing)+len(perr.Duplicated)+len(perr.Unknown)+len(perr.DuplicatedLayers) == 0 {
		return nil
	}
	sort.Strings(perr.Missing)
	sort.Strings(perr.Duplicated)
	sort.Strings(perr.Unknown)
	sort.Strings(perr.DuplicatedLayers)
	return perr
}

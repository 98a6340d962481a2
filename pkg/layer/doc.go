/*
Package layer implements the hierarchical grouping of module identifiers used to nest
modules inside groups and components.

A layer tree is a recursive partition: every module identifier of a workflow lives in exactly
one node of the tree. Nodes are never mutated; every operation returns fresh nodes, so two
snapshots of a project can share the old tree while the new one is being edited.

# Operations

  - Find: depth-first lookup of a node (and its parent) by layer id.
  - Clone: deep copy filtering module ids through a predicate.
  - Prune: drops child subtrees that no longer hold any module id.
  - CreateChildLayer: moves a selection of module ids (and the layers owned by selected groups)
    into a new child node.
*/
package layer

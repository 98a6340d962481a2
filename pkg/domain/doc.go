/*
Package domain contains the document model of the fluxgraph engine.

Every entity is an immutable value held by pointer. An edit never changes a field in place:
it builds a new value, often reusing the same logical identifier. Two snapshots are therefore
compared by pointer identity, and a module that "changed" shows up as removed (old pointer)
and created (new pointer) in a Delta while carrying the same ModuleID.

# Key Entities

  - Project: the versioned unit (metadata, Workflow, rendering metadata).
  - Workflow: modules, plugins, connections and the layer tree partitioning module ids.
  - Module: an instance of a Factory with a Configuration and live input/output slots.
    A plugin is a Module with a non-nil Parent.
  - Connection: a wire from an output slot to an input slot, with an optional Adaptor.
  - Delta / WorkflowDelta: identity differences between two snapshots (see DiffWorkflows).

The package performs no I/O. Mutation lives in pkg/edit, history in pkg/history.
*/
package domain

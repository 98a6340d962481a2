/*
Package history implements the undo/redo buffer of a project.

A Store holds a list of immutable *domain.Project snapshots and the index of the current one.
Commit pushes (or, when coalescing, replaces) a snapshot and discards the redo branch; Undo
and Redo move the index. Each transition:

 1. computes domain.DiffWorkflows between the previous and the new current workflow;
 2. reconciles the dataflow wiring with the connection delta, rejecting the transition when
    a connection endpoint does not resolve;
 3. notifies the Observer at most once per category (modules, connections, views, active
    layer, description boxes), then once with OnTransition.

Observers therefore always see wiring that matches the snapshot they are given.
*/
package history

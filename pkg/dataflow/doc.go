// Package dataflow keeps live producer to consumer wiring in line with the connections of a
// workflow.
//
// A Manager holds one wiring per connection, keyed by connection identity. Reconcile applies a
// connection delta: removed connections are unwired first, then created connections are
// wired by subscribing the end input slot to the start output slot, through the connection
// adaptor when there is one. A connection reported as both removed and created is therefore
// wired again against the current slots.
//
// A Manager is owned by one editing session and is not safe for concurrent use.
package dataflow

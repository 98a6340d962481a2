// Package edit holds the mutation operations of a project.
//
// Every operation takes the current *domain.Project and returns a new one. The input is never
// modified and new slices are always allocated, so older snapshots kept by the history stay
// valid. An operation that would change nothing observable returns domain.ErrNoChange;
// precondition violations wrap domain.ErrPrecondition and a more specific sentinel.
//
// Operations do not commit anything: callers hand the result to a history.Store.
package edit

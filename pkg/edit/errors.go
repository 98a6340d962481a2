package edit

import (
	"fmt"
	"slices"

	"github.com/aretw0/fluxgraph/pkg/domain"
)

func precondition(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", domain.ErrPrecondition, sentinel, fmt.Sprintf(format, args...))
}

// appendCopy appends to a fresh slice so the backing array of older snapshots is never shared.
func appendCopy[T any](list []T, items ...T) []T {
	return slices.Concat(list, items)
}

// replace returns a copy of list where old (by identity) is replaced by repl.
func replace[T comparable](list []T, old, repl T) []T {
	out := slices.Clone(list)
	for i, e := range out {
		if e == old {
			out[i] = repl
		}
	}
	return out
}

// filter returns a fresh slice of the elements for which keep returns true.
func filter[T any](list []T, keep func(T) bool) []T {
	out := make([]T, 0, len(list))
	for _, e := range list {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func cloneWorkflow(w *domain.Workflow) *domain.Workflow {
	next := *w
	return &next
}

// freshID draws identifiers until one is unused by modules, plugins and connections.
func freshID(w *domain.Workflow, ids IDGenerator, prefix string) string {
	for {
		id := ids.NewID(prefix)
		if !w.HasID(id) {
			return id
		}
	}
}

func currentModule(w *domain.Workflow, m *domain.Module) (*domain.Module, error) {
	if m == nil {
		return nil, precondition(domain.ErrModuleNotFound, "nil module")
	}
	cur, ok := w.Module(m.ModuleID)
	if !ok {
		return nil, precondition(domain.ErrModuleNotFound, "%s", m.ModuleID)
	}
	return cur, nil
}

func currentConnection(w *domain.Workflow, c *domain.Connection) (*domain.Connection, error) {
	if c == nil {
		return nil, precondition(domain.ErrConnectionNotFound, "nil connection")
	}
	cur, ok := w.Connection(c.ConnectionID)
	if !ok {
		return nil, precondition(domain.ErrConnectionNotFound, "%s", c.ConnectionID)
	}
	return cur, nil
}

// moduleIDs returns the distinct ids of modules, keeping order.
func moduleIDs(modules []*domain.Module) []string {
	out := make([]string, 0, len(modules))
	for _, m := range modules {
		if m != nil && !slices.Contains(out, m.ModuleID) {
			out = append(out, m.ModuleID)
		}
	}
	return out
}

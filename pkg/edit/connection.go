package edit

import (
	"slices"

	"github.com/aretw0/fluxgraph/pkg/domain"
)

// AddConnection appends a connection with a fresh id from start to end.
// Slot compatibility is not checked here; wiring resolves the slots.
func AddConnection(p *domain.Project, ids IDGenerator, start, end domain.SlotRef) (*domain.Project, *domain.Connection, error) {
	c := &domain.Connection{
		ConnectionID: freshID(p.Workflow, ids, "c"),
		Start:        start,
		End:          end,
	}
	next, err := AddConnectionValue(p, c)
	if err != nil {
		return nil, nil, err
	}
	return next, c, nil
}

// AddConnectionValue appends c as is. Its id must be unused.
func AddConnectionValue(p *domain.Project, c *domain.Connection) (*domain.Project, error) {
	if c == nil {
		return nil, precondition(domain.ErrConnectionNotFound, "nil connection")
	}
	w := p.Workflow
	if c.ConnectionID == "" || w.HasID(c.ConnectionID) {
		return nil, precondition(domain.ErrDuplicateID, "connection id %q", c.ConnectionID)
	}
	next := cloneWorkflow(w)
	next.Connections = appendCopy(w.Connections, c)
	return p.WithWorkflow(next), nil
}

// DeleteConnections removes the given connections.
func DeleteConnections(p *domain.Project, conns []*domain.Connection) (*domain.Project, error) {
	if len(conns) == 0 {
		return nil, domain.ErrNoChange
	}
	w := p.Workflow
	drop := make(map[*domain.Connection]struct{}, len(conns))
	for _, c := range conns {
		cur, err := currentConnection(w, c)
		if err != nil {
			return nil, err
		}
		drop[cur] = struct{}{}
	}
	next := cloneWorkflow(w)
	next.Connections = filter(w.Connections, func(c *domain.Connection) bool {
		_, gone := drop[c]
		return !gone
	})
	return p.WithWorkflow(next), nil
}

// AddAdaptor replaces conn with a value carrying a. The connection must have no adaptor yet.
func AddAdaptor(p *domain.Project, conn *domain.Connection, a *domain.Adaptor) (*domain.Project, *domain.Connection, error) {
	cur, err := currentConnection(p.Workflow, conn)
	if err != nil {
		return nil, nil, err
	}
	if a == nil {
		return nil, nil, domain.ErrNoChange
	}
	if cur.Adaptor != nil {
		return nil, nil, precondition(domain.ErrDuplicateID, "connection %s already has adaptor %s", cur.ConnectionID, cur.Adaptor.AdaptorID)
	}
	return swapConnection(p, cur, cur.WithAdaptor(a))
}

// UpdateAdaptor replaces the adaptor of conn. An adaptor with the same source returns
// domain.ErrNoChange.
func UpdateAdaptor(p *domain.Project, conn *domain.Connection, a *domain.Adaptor) (*domain.Project, *domain.Connection, error) {
	cur, err := currentConnection(p.Workflow, conn)
	if err != nil {
		return nil, nil, err
	}
	if cur.Adaptor == nil {
		return nil, nil, precondition(domain.ErrConnectionNotFound, "connection %s has no adaptor", cur.ConnectionID)
	}
	if a == nil {
		return DeleteAdaptor(p, cur)
	}
	if a == cur.Adaptor || (a.AdaptorID == cur.Adaptor.AdaptorID && a.Source == cur.Adaptor.Source) {
		return nil, nil, domain.ErrNoChange
	}
	return swapConnection(p, cur, cur.WithAdaptor(a))
}

// DeleteAdaptor replaces conn with a value without adaptor.
func DeleteAdaptor(p *domain.Project, conn *domain.Connection) (*domain.Project, *domain.Connection, error) {
	cur, err := currentConnection(p.Workflow, conn)
	if err != nil {
		return nil, nil, err
	}
	if cur.Adaptor == nil {
		return nil, nil, domain.ErrNoChange
	}
	return swapConnection(p, cur, cur.WithAdaptor(nil))
}

func swapConnection(p *domain.Project, old, repl *domain.Connection) (*domain.Project, *domain.Connection, error) {
	w := p.Workflow
	if !slices.Contains(w.Connections, old) {
		return nil, nil, precondition(domain.ErrConnectionNotFound, "%s", old.ConnectionID)
	}
	next := cloneWorkflow(w)
	next.Connections = replace(w.Connections, old, repl)
	return p.WithWorkflow(next), repl, nil
}

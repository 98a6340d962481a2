package dataflow

import (
	"log/slog"
	"sort"

	"github.com/aretw0/fluxgraph/internal/logging"
	"github.com/aretw0/fluxgraph/pkg/domain"
)

// Wiring is the active subscription of one connection.
type Wiring struct {
	Start  *domain.OutputSlot
	End    *domain.InputSlot
	cancel func()
}

// Manager maps connections (by identity) to their active wiring.
type Manager struct {
	logger  *slog.Logger
	wirings map[*domain.Connection]Wiring
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for wiring events and adaptor failures.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager without wirings.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		logger:  logging.NewNop(),
		wirings: make(map[*domain.Connection]Wiring),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type plan struct {
	conn *domain.Connection
	out  *domain.OutputSlot
	in   *domain.InputSlot
}

// Reconcile applies a connection delta against the current modules and plugins.
//
// Every created connection is resolved before anything changes: when an endpoint does not
// resolve, a *SlotResolutionError is returned and the wirings are left untouched. Then removed
// connections are unwired (absent entries are ignored) and created ones are wired.
func (m *Manager) Reconcile(delta domain.Delta[*domain.Connection], modules, plugins []*domain.Module) error {
	byID := make(map[string]*domain.Module, len(modules)+len(plugins))
	for _, list := range [][]*domain.Module{modules, plugins} {
		for _, mod := range list {
			byID[mod.ModuleID] = mod
		}
	}

	plans := make([]plan, 0, len(delta.Created))
	for _, c := range delta.Created {
		p, err := resolve(c, byID)
		if err != nil {
			return err
		}
		plans = append(plans, p)
	}

	for _, c := range delta.Removed {
		m.unwire(c)
	}
	for _, p := range plans {
		// a connection created while still wired is replaced, never doubled
		m.unwire(p.conn)
		m.wire(p)
	}
	return nil
}

func resolve(c *domain.Connection, byID map[string]*domain.Module) (plan, error) {
	p := plan{conn: c}
	if start, ok := byID[c.Start.ModuleID]; ok {
		p.out, _ = start.Output(c.Start.SlotID)
	}
	if p.out == nil {
		return p, &SlotResolutionError{Connection: c, Side: "start", Ref: c.Start}
	}
	if end, ok := byID[c.End.ModuleID]; ok {
		p.in, _ = end.Input(c.End.SlotID)
	}
	if p.in == nil {
		return p, &SlotResolutionError{Connection: c, Side: "end", Ref: c.End}
	}
	return p, nil
}

func (m *Manager) wire(p plan) {
	c, in := p.conn, p.in
	logger := m.logger
	cancel := p.out.Subscribe(func(msg domain.Message) {
		out, err := c.Adaptor.Apply(msg)
		if err != nil {
			logger.Warn("adaptor failed, message dropped",
				"connection", c.ConnectionID,
				"error", err)
			return
		}
		in.Receive(out)
	})
	m.wirings[c] = Wiring{Start: p.out, End: p.in, cancel: cancel}
	m.logger.Debug("connection wired", "connection", c.ConnectionID, "start", c.Start.String(), "end", c.End.String())
}

func (m *Manager) unwire(c *domain.Connection) {
	w, ok := m.wirings[c]
	if !ok {
		return
	}
	w.cancel()
	delete(m.wirings, c)
	m.logger.Debug("connection unwired", "connection", c.ConnectionID)
}

// Len returns the number of active wirings.
func (m *Manager) Len() int {
	return len(m.wirings)
}

// Has reports whether c (by identity) is wired.
func (m *Manager) Has(c *domain.Connection) bool {
	_, ok := m.wirings[c]
	return ok
}

// Wiring returns the wiring of c.
func (m *Manager) Wiring(c *domain.Connection) (Wiring, bool) {
	w, ok := m.wirings[c]
	return w, ok
}

// Connections returns the wired connections ordered by id.
func (m *Manager) Connections() []*domain.Connection {
	out := make([]*domain.Connection, 0, len(m.wirings))
	for c := range m.wirings {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConnectionID < out[j].ConnectionID })
	return out
}

// Close cancels every wiring.
func (m *Manager) Close() {
	for c := range m.wirings {
		m.unwire(c)
	}
}

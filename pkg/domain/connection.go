package domain

import "fmt"

// SlotRef addresses one slot of one module.
type SlotRef struct {
	ModuleID string
	SlotID   string
}

func (r SlotRef) String() string {
	return r.ModuleID + "." + r.SlotID
}

// Adaptor is a value transform applied between the two ends of a connection.
// Source is the persisted expression; Transform is its compiled form.
type Adaptor struct {
	AdaptorID string
	Source    string
	Transform func(Message) (Message, error)
}

// Apply runs the transform. An adaptor without a compiled transform passes msg through.
func (a *Adaptor) Apply(msg Message) (Message, error) {
	if a == nil || a.Transform == nil {
		return msg, nil
	}
	out, err := a.Transform(msg)
	if err != nil {
		return Message{}, fmt.Errorf("adaptor %s: %w", a.AdaptorID, err)
	}
	return out, nil
}

// Connection is a directed wire from an output slot (Start) to an input slot (End).
type Connection struct {
	ConnectionID string
	Start        SlotRef
	End          SlotRef
	Adaptor      *Adaptor
}

// Touches reports whether either endpoint is on moduleID.
func (c *Connection) Touches(moduleID string) bool {
	return c.Start.ModuleID == moduleID || c.End.ModuleID == moduleID
}

// WithAdaptor returns a new connection value with the same id and endpoints.
func (c *Connection) WithAdaptor(a *Adaptor) *Connection {
	next := *c
	next.Adaptor = a
	return &next
}

func (c *Connection) String() string {
	return fmt.Sprintf("%s(%s -> %s)", c.ConnectionID, c.Start, c.End)
}

package dataflow

import (
	"fmt"

	"github.com/aretw0/fluxgraph/pkg/domain"
)

// SlotResolutionError reports a connection endpoint that names no slot of the current modules.
type SlotResolutionError struct {
	Connection *domain.Connection
	// Side is "start" or "end".
	Side string
	Ref  domain.SlotRef
}

func (e *SlotResolutionError) Error() string {
	return fmt.Sprintf("connection %s: unresolved %s slot %s", e.Connection.ConnectionID, e.Side, e.Ref)
}

// Unwrap exposes domain.ErrPrecondition and domain.ErrUnresolvedSlot.
func (e *SlotResolutionError) Unwrap() []error {
	return []error{domain.ErrPrecondition, domain.ErrUnresolvedSlot}
}

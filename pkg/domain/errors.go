package domain

import (
	"errors"

	"github.com/aretw0/fluxgraph/pkg/layer"
)

// ErrNoChange is returned by an edit that would not change anything observable.
// Callers check for it instead of committing.
var ErrNoChange = errors.New("no change")

// ErrPrecondition is wrapped by every precondition violation (malformed input or graph).
var ErrPrecondition = errors.New("precondition violation")

// ErrLayerNotFound is returned when a layer id does not resolve in the layer tree.
var ErrLayerNotFound = layer.ErrLayerNotFound

// ErrModuleNotFound is returned when a module id does not resolve in the workflow.
var ErrModuleNotFound = errors.New("module not found")

// ErrConnectionNotFound is returned when a connection is not part of the workflow.
var ErrConnectionNotFound = errors.New("connection not found")

// ErrDuplicateID is returned when a new entity reuses an identifier already in use.
var ErrDuplicateID = errors.New("duplicate id")

// ErrUnresolvedSlot is returned when a connection endpoint names no existing slot.
var ErrUnresolvedSlot = errors.New("unresolved slot")

// ErrUnknownFactory is returned when a factory reference is not registered.
var ErrUnknownFactory = errors.New("unknown factory")

// ErrInvalidConfiguration is returned when configuration data does not match the factory shape.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ErrDescriptionBoxNotFound is returned when a description box id does not resolve.
var ErrDescriptionBoxNotFound = errors.New("description box not found")

// ErrProjectNotFound is returned by project stores when no project is saved under a name.
var ErrProjectNotFound = errors.New("project not found")

package fluxgraph

import (
	"context"
	"fmt"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/edit"
)

// Op names an editor operation carried by an Operation.
type Op string

const (
	OpAddModule              Op = "addModule"
	OpAddPlugin              Op = "addPlugin"
	OpDuplicateModules       Op = "duplicateModules"
	OpUpdateModule           Op = "updateModule"
	OpDeleteModules          Op = "deleteModules"
	OpMoveModules            Op = "moveModules"
	OpAlignModules           Op = "alignModules"
	OpConnect                Op = "connect"
	OpDeleteConnections      Op = "deleteConnections"
	OpSetAdaptor             Op = "setAdaptor"
	OpCreateLayer            Op = "createLayer"
	OpRenameLayer            Op = "renameLayer"
	OpAddDescriptionBox      Op = "addDescriptionBox"
	OpUpdateDescriptionBox   Op = "updateDescriptionBox"
	OpDeleteDescriptionBoxes Op = "deleteDescriptionBoxes"
	OpUpdateProperties       Op = "updateProperties"
	OpUpdateRequirements     Op = "updateRequirements"
	OpUpdateRunnerRendering  Op = "updateRunnerRendering"
	OpSetActiveLayer         Op = "setActiveLayer"
	OpEnterLayer             Op = "enterLayer"
	OpLeaveLayer             Op = "leaveLayer"
	OpUndo                   Op = "undo"
	OpRedo                   Op = "redo"
)

// Point is a position in world coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Endpoint addresses a slot in an Operation.
type Endpoint struct {
	ModuleID string `json:"moduleId" yaml:"moduleId"`
	SlotID   string `json:"slotId" yaml:"slotId"`
}

// Operation is the serializable form of an editor call, used by the transports.
// Only the fields of the named Op are read.
type Operation struct {
	Op Op `json:"op" yaml:"op"`

	Factory       string            `json:"factory,omitempty" yaml:"factory,omitempty"`
	Position      Point             `json:"position,omitempty" yaml:"position,omitempty"`
	Positions     map[string]Point  `json:"positions,omitempty" yaml:"positions,omitempty"`
	ModuleID      string            `json:"moduleId,omitempty" yaml:"moduleId,omitempty"`
	ModuleIDs     []string          `json:"moduleIds,omitempty" yaml:"moduleIds,omitempty"`
	ConnectionID  string            `json:"connectionId,omitempty" yaml:"connectionId,omitempty"`
	ConnectionIDs []string          `json:"connectionIds,omitempty" yaml:"connectionIds,omitempty"`
	Start         Endpoint          `json:"start,omitempty" yaml:"start,omitempty"`
	End           Endpoint          `json:"end,omitempty" yaml:"end,omitempty"`
	Source        string            `json:"source,omitempty" yaml:"source,omitempty"`
	LayerID       string            `json:"layerId,omitempty" yaml:"layerId,omitempty"`
	BoxID         string            `json:"boxId,omitempty" yaml:"boxId,omitempty"`
	BoxIDs        []string          `json:"boxIds,omitempty" yaml:"boxIds,omitempty"`
	Title         string            `json:"title,omitempty" yaml:"title,omitempty"`
	Description   string            `json:"description,omitempty" yaml:"description,omitempty"`
	Color         string            `json:"color,omitempty" yaml:"color,omitempty"`
	Axis          string            `json:"axis,omitempty" yaml:"axis,omitempty"`
	Data          map[string]any    `json:"data,omitempty" yaml:"data,omitempty"`
	FluxPacks     []string          `json:"fluxPacks,omitempty" yaml:"fluxPacks,omitempty"`
	Libraries     map[string]string `json:"libraries,omitempty" yaml:"libraries,omitempty"`
	Layout        string            `json:"layout,omitempty" yaml:"layout,omitempty"`
	Style         string            `json:"style,omitempty" yaml:"style,omitempty"`

	// Coalesce amends the current snapshot instead of pushing a new one (moves, runner
	// rendering).
	Coalesce bool `json:"coalesce,omitempty" yaml:"coalesce,omitempty"`
}

// Result is the outcome of an Operation.
type Result struct {
	Changed bool `json:"changed"`
	// IDs lists the entities the operation created.
	IDs []string `json:"ids,omitempty"`
}

// Apply runs op against the editor.
func (e *Editor) Apply(ctx context.Context, op Operation) (Result, error) {
	switch op.Op {
	case OpAddModule:
		m, err := e.AddModule(ctx, op.Factory, edit.Position(op.Position))
		return created(err, moduleID(m))
	case OpAddPlugin:
		m, err := e.AddPlugin(ctx, op.Factory, op.ModuleID)
		return created(err, moduleID(m))
	case OpDuplicateModules:
		modules, err := e.DuplicateModules(ctx, op.ModuleIDs)
		ids := make([]string, len(modules))
		for i, m := range modules {
			ids[i] = m.ModuleID
		}
		return created(err, ids...)
	case OpUpdateModule:
		return result(e.UpdateModule(ctx, op.ModuleID, domain.Configuration{
			Title:       op.Title,
			Description: op.Description,
			Data:        op.Data,
		}))
	case OpDeleteModules:
		return result(e.DeleteModules(ctx, op.ModuleIDs))
	case OpMoveModules:
		positions := make(map[string]edit.Position, len(op.Positions))
		for id, pt := range op.Positions {
			positions[id] = edit.Position(pt)
		}
		return result(e.MoveModules(ctx, positions, !op.Coalesce))
	case OpAlignModules:
		axis, err := ParseAxis(op.Axis)
		if err != nil {
			return Result{}, err
		}
		return result(e.AlignModules(ctx, op.ModuleIDs, axis))
	case OpConnect:
		c, err := e.Connect(ctx,
			domain.SlotRef{ModuleID: op.Start.ModuleID, SlotID: op.Start.SlotID},
			domain.SlotRef{ModuleID: op.End.ModuleID, SlotID: op.End.SlotID})
		id := ""
		if c != nil {
			id = c.ConnectionID
		}
		return created(err, id)
	case OpDeleteConnections:
		return result(e.DeleteConnections(ctx, op.ConnectionIDs))
	case OpSetAdaptor:
		return result(e.SetAdaptor(ctx, op.ConnectionID, op.Source))
	case OpCreateLayer:
		factory := op.Factory
		if factory == "" {
			factory = GroupFactory
		}
		m, err := e.CreateLayer(ctx, factory, op.ModuleIDs, op.Title)
		return created(err, moduleID(m))
	case OpRenameLayer:
		return result(e.RenameLayer(ctx, op.LayerID, op.Title))
	case OpAddDescriptionBox:
		box, err := e.AddDescriptionBox(ctx, op.Title, op.ModuleIDs, op.Color)
		id := ""
		if box != nil {
			id = box.DescriptionBoxID
		}
		return created(err, id)
	case OpUpdateDescriptionBox:
		return result(e.UpdateDescriptionBox(ctx, op.BoxID, op.Title, op.ModuleIDs, op.Color))
	case OpDeleteDescriptionBoxes:
		return result(e.DeleteDescriptionBoxes(ctx, op.BoxIDs))
	case OpUpdateProperties:
		return result(e.UpdateProperties(ctx, op.Title, op.Description))
	case OpUpdateRequirements:
		return result(e.UpdateRequirements(ctx, domain.Requirements{FluxPacks: op.FluxPacks, Libraries: op.Libraries}))
	case OpUpdateRunnerRendering:
		return result(e.UpdateRunnerRendering(ctx, op.Layout, op.Style, !op.Coalesce))
	case OpSetActiveLayer:
		before := e.ActiveLayer()
		if err := e.SetActiveLayer(ctx, op.LayerID); err != nil {
			return Result{}, err
		}
		return Result{Changed: before != e.ActiveLayer()}, nil
	case OpEnterLayer:
		before := e.ActiveLayer()
		if err := e.EnterLayer(ctx, op.ModuleID); err != nil {
			return Result{}, err
		}
		return Result{Changed: before != e.ActiveLayer()}, nil
	case OpLeaveLayer:
		return result(e.LeaveLayer(ctx))
	case OpUndo:
		return result(e.Undo(ctx))
	case OpRedo:
		return result(e.Redo(ctx))
	}
	return Result{}, fmt.Errorf("%w: %w: %q", domain.ErrPrecondition, ErrUnknownCommand, op.Op)
}

// ParseAxis maps "horizontal" (or "") and "vertical" to an alignment axis.
func ParseAxis(s string) (edit.Axis, error) {
	switch s {
	case "", "horizontal":
		return edit.Horizontal, nil
	case "vertical":
		return edit.Vertical, nil
	}
	return 0, fmt.Errorf("%w: unknown axis %q", domain.ErrPrecondition, s)
}

func result(changed bool, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return Result{Changed: changed}, nil
}

func created(err error, ids ...string) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	var out []string
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return Result{Changed: len(out) > 0, IDs: out}, nil
}

func moduleID(m *domain.Module) string {
	if m == nil {
		return ""
	}
	return m.ModuleID
}

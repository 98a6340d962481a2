package history

import (
	"context"
	"log/slog"

	"github.com/aretw0/fluxgraph/pkg/domain"
)

// Transition names what moved the history.
type Transition string

const (
	TransitionCommit      Transition = "commit"
	TransitionAmend       Transition = "amend" // commit with coalescing
	TransitionUndo        Transition = "undo"
	TransitionRedo        Transition = "redo"
	TransitionReset       Transition = "reset"
	TransitionActiveLayer Transition = "active_layer"
)

// Event describes a completed transition. Wiring is already consistent with Project when
// observers are called.
type Event struct {
	Transition Transition
	Previous   *domain.Project
	Project    *domain.Project
	Index      int
	Len        int
}

// Observer receives change notifications, at most one call per category and transition,
// followed by OnTransition.
//
// Implementations should be fast; they run synchronously on the editing goroutine.
type Observer interface {
	OnModulesChanged(ctx context.Context, ev Event, delta domain.Delta[*domain.Module])
	OnConnectionsChanged(ctx context.Context, ev Event, delta domain.Delta[*domain.Connection])
	// OnViewsChanged is also called when only the layer tree changed; delta is then empty.
	OnViewsChanged(ctx context.Context, ev Event, delta domain.Delta[*domain.ModuleView])
	OnActiveLayerChanged(ctx context.Context, ev Event, layerID string)
	OnDescriptionBoxesChanged(ctx context.Context, ev Event, delta domain.Delta[*domain.DescriptionBox])

	// OnTransition is called once per completed transition, after the category callbacks.
	OnTransition(ctx context.Context, ev Event)
	// OnRejected is called when a transition failed and the history was left unchanged.
	OnRejected(ctx context.Context, t Transition, err error)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnModulesChanged(context.Context, Event, domain.Delta[*domain.Module]) {}

func (NoopObserver) OnConnectionsChanged(context.Context, Event, domain.Delta[*domain.Connection]) {}

func (NoopObserver) OnViewsChanged(context.Context, Event, domain.Delta[*domain.ModuleView]) {}

func (NoopObserver) OnActiveLayerChanged(context.Context, Event, string) {}

func (NoopObserver) OnDescriptionBoxesChanged(context.Context, Event, domain.Delta[*domain.DescriptionBox]) {
}

func (NoopObserver) OnTransition(context.Context, Event) {}

func (NoopObserver) OnRejected(context.Context, Transition, error) {}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Modules          func(ctx context.Context, ev Event, delta domain.Delta[*domain.Module])
	Connections      func(ctx context.Context, ev Event, delta domain.Delta[*domain.Connection])
	Views            func(ctx context.Context, ev Event, delta domain.Delta[*domain.ModuleView])
	ActiveLayer      func(ctx context.Context, ev Event, layerID string)
	DescriptionBoxes func(ctx context.Context, ev Event, delta domain.Delta[*domain.DescriptionBox])
	Transition       func(ctx context.Context, ev Event)
	Rejected         func(ctx context.Context, t Transition, err error)
}

func (f ObserverFuncs) OnModulesChanged(ctx context.Context, ev Event, d domain.Delta[*domain.Module]) {
	if f.Modules != nil {
		f.Modules(ctx, ev, d)
	}
}

func (f ObserverFuncs) OnConnectionsChanged(ctx context.Context, ev Event, d domain.Delta[*domain.Connection]) {
	if f.Connections != nil {
		f.Connections(ctx, ev, d)
	}
}

func (f ObserverFuncs) OnViewsChanged(ctx context.Context, ev Event, d domain.Delta[*domain.ModuleView]) {
	if f.Views != nil {
		f.Views(ctx, ev, d)
	}
}

func (f ObserverFuncs) OnActiveLayerChanged(ctx context.Context, ev Event, layerID string) {
	if f.ActiveLayer != nil {
		f.ActiveLayer(ctx, ev, layerID)
	}
}

func (f ObserverFuncs) OnDescriptionBoxesChanged(ctx context.Context, ev Event, d domain.Delta[*domain.DescriptionBox]) {
	if f.DescriptionBoxes != nil {
		f.DescriptionBoxes(ctx, ev, d)
	}
}

func (f ObserverFuncs) OnTransition(ctx context.Context, ev Event) {
	if f.Transition != nil {
		f.Transition(ctx, ev)
	}
}

func (f ObserverFuncs) OnRejected(ctx context.Context, t Transition, err error) {
	if f.Rejected != nil {
		f.Rejected(ctx, t, err)
	}
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each non-nil observer
// in obs, in order.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnModulesChanged(ctx context.Context, ev Event, d domain.Delta[*domain.Module]) {
	for _, o := range c.observers {
		o.OnModulesChanged(ctx, ev, d)
	}
}

func (c *CompositeObserver) OnConnectionsChanged(ctx context.Context, ev Event, d domain.Delta[*domain.Connection]) {
	for _, o := range c.observers {
		o.OnConnectionsChanged(ctx, ev, d)
	}
}

func (c *CompositeObserver) OnViewsChanged(ctx context.Context, ev Event, d domain.Delta[*domain.ModuleView]) {
	for _, o := range c.observers {
		o.OnViewsChanged(ctx, ev, d)
	}
}

func (c *CompositeObserver) OnActiveLayerChanged(ctx context.Context, ev Event, layerID string) {
	for _, o := range c.observers {
		o.OnActiveLayerChanged(ctx, ev, layerID)
	}
}

func (c *CompositeObserver) OnDescriptionBoxesChanged(ctx context.Context, ev Event, d domain.Delta[*domain.DescriptionBox]) {
	for _, o := range c.observers {
		o.OnDescriptionBoxesChanged(ctx, ev, d)
	}
}

func (c *CompositeObserver) OnTransition(ctx context.Context, ev Event) {
	for _, o := range c.observers {
		o.OnTransition(ctx, ev)
	}
}

func (c *CompositeObserver) OnRejected(ctx context.Context, t Transition, err error) {
	for _, o := range c.observers {
		o.OnRejected(ctx, t, err)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer logging every notification at debug level and
// rejected transitions at warn level. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnModulesChanged(ctx context.Context, ev Event, d domain.Delta[*domain.Module]) {
	o.Logger.DebugContext(ctx, "modules_changed",
		slog.String("transition", string(ev.Transition)),
		slog.Int("created", len(d.Created)),
		slog.Int("removed", len(d.Removed)),
	)
}

func (o *LoggingObserver) OnConnectionsChanged(ctx context.Context, ev Event, d domain.Delta[*domain.Connection]) {
	o.Logger.DebugContext(ctx, "connections_changed",
		slog.String("transition", string(ev.Transition)),
		slog.Int("created", len(d.Created)),
		slog.Int("removed", len(d.Removed)),
	)
}

func (o *LoggingObserver) OnViewsChanged(ctx context.Context, ev Event, d domain.Delta[*domain.ModuleView]) {
	o.Logger.DebugContext(ctx, "views_changed",
		slog.String("transition", string(ev.Transition)),
		slog.Int("created", len(d.Created)),
		slog.Int("removed", len(d.Removed)),
	)
}

func (o *LoggingObserver) OnActiveLayerChanged(ctx context.Context, ev Event, layerID string) {
	o.Logger.DebugContext(ctx, "active_layer_changed",
		slog.String("transition", string(ev.Transition)),
		slog.String("layer", layerID),
	)
}

func (o *LoggingObserver) OnDescriptionBoxesChanged(ctx context.Context, ev Event, d domain.Delta[*domain.DescriptionBox]) {
	o.Logger.DebugContext(ctx, "description_boxes_changed",
		slog.String("transition", string(ev.Transition)),
		slog.Int("created", len(d.Created)),
		slog.Int("removed", len(d.Removed)),
	)
}

func (o *LoggingObserver) OnTransition(ctx context.Context, ev Event) {
	o.Logger.DebugContext(ctx, "history_transition",
		slog.String("transition", string(ev.Transition)),
		slog.Int("index", ev.Index),
		slog.Int("len", ev.Len),
	)
}

func (o *LoggingObserver) OnRejected(ctx context.Context, t Transition, err error) {
	o.Logger.WarnContext(ctx, "history_transition_rejected",
		slog.String("transition", string(t)),
		slog.Any("error", err),
	)
}

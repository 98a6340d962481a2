package history

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/fluxgraph/internal/logging"
	"github.com/aretw0/fluxgraph/pkg/dataflow"
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/layer"
)

// Store is the undo/redo buffer of one editing session. It owns the dataflow wiring of the
// current snapshot. Every transition diffs the workflows, reconciles the wiring and only then
// notifies the observer.
//
// A Store is not safe for concurrent use; sessions serialize access (see pkg/session).
type Store struct {
	snapshots   []*domain.Project
	index       int
	activeLayer string

	capacity int
	wiring   *dataflow.Manager
	observer Observer
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithObserver adds an observer. Several observers are called in registration order.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = NewCompositeObserver(s.observer, o)
	}
}

// WithLogger sets the logger. It is also handed to the default dataflow manager.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCapacity bounds the number of snapshots; the oldest are dropped first.
// Zero means unbounded.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithManager sets the dataflow manager owning the wiring.
func WithManager(m *dataflow.Manager) Option {
	return func(s *Store) {
		s.wiring = m
	}
}

// NewStore creates a history holding initial as its only snapshot and wires its connections.
// The active layer is the root layer.
func NewStore(initial *domain.Project, opts ...Option) (*Store, error) {
	if initial == nil || initial.Workflow == nil {
		return nil, fmt.Errorf("%w: nil project", domain.ErrPrecondition)
	}
	s := &Store{
		logger: logging.NewNop(),
	}
	s.observer = NoopObserver{}
	for _, opt := range opts {
		opt(s)
	}
	if s.wiring == nil {
		s.wiring = dataflow.NewManager(dataflow.WithLogger(s.logger))
	}

	delta := domain.DiffWorkflows(nil, initial.Workflow)
	if err := s.wiring.Reconcile(delta.Connections, initial.Workflow.Modules, initial.Workflow.Plugins); err != nil {
		return nil, fmt.Errorf("wire initial project: %w", err)
	}
	s.snapshots = []*domain.Project{initial}
	s.activeLayer = rootLayerID(initial)
	return s, nil
}

// Current returns the current snapshot.
func (s *Store) Current() *domain.Project {
	return s.snapshots[s.index]
}

// Len returns the number of snapshots.
func (s *Store) Len() int { return len(s.snapshots) }

// Index returns the position of the current snapshot.
func (s *Store) Index() int { return s.index }

// CanUndo reports whether Undo would move.
func (s *Store) CanUndo() bool { return s.index > 0 }

// CanRedo reports whether Redo would move.
func (s *Store) CanRedo() bool { return s.index < len(s.snapshots)-1 }

// Snapshots returns a copy of the snapshot list.
func (s *Store) Snapshots() []*domain.Project { return slices.Clone(s.snapshots) }

// ActiveLayer returns the id of the layer being edited.
func (s *Store) ActiveLayer() string { return s.activeLayer }

// Wiring returns the dataflow manager of the session.
func (s *Store) Wiring() *dataflow.Manager { return s.wiring }

// Commit records p as the new current snapshot. The redo branch is discarded. When
// asNewState is false the current snapshot is replaced instead of kept, so that a stream of
// high-frequency edits (dragging, typing) occupies a single history entry.
//
// If the wiring cannot be reconciled with p, the commit is rejected and the history is
// unchanged.
func (s *Store) Commit(ctx context.Context, p *domain.Project, asNewState bool) error {
	t := TransitionCommit
	if !asNewState {
		t = TransitionAmend
	}
	if p == nil || p.Workflow == nil {
		err := fmt.Errorf("%w: nil project", domain.ErrPrecondition)
		s.observer.OnRejected(ctx, t, err)
		return err
	}

	snapshots := slices.Clone(s.snapshots[:s.index+1])
	if !asNewState {
		snapshots = snapshots[:len(snapshots)-1]
	}
	snapshots = append(snapshots, p)
	if s.capacity > 0 && len(snapshots) > s.capacity {
		snapshots = snapshots[len(snapshots)-s.capacity:]
	}

	return s.apply(ctx, t, snapshots, len(snapshots)-1)
}

// Undo moves to the previous snapshot. It returns false at the start of the history.
func (s *Store) Undo(ctx context.Context) (bool, error) {
	if !s.CanUndo() {
		return false, nil
	}
	if err := s.apply(ctx, TransitionUndo, s.snapshots, s.index-1); err != nil {
		return false, err
	}
	return true, nil
}

// Redo moves to the next snapshot. It returns false at the end of the history.
func (s *Store) Redo(ctx context.Context) (bool, error) {
	if !s.CanRedo() {
		return false, nil
	}
	if err := s.apply(ctx, TransitionRedo, s.snapshots, s.index+1); err != nil {
		return false, err
	}
	return true, nil
}

// Reset replaces the whole history with p, as when another project is loaded. The active
// layer goes back to the root of p.
func (s *Store) Reset(ctx context.Context, p *domain.Project) error {
	if p == nil || p.Workflow == nil {
		err := fmt.Errorf("%w: nil project", domain.ErrPrecondition)
		s.observer.OnRejected(ctx, TransitionReset, err)
		return err
	}
	return s.apply(ctx, TransitionReset, []*domain.Project{p}, 0)
}

// SetActiveLayer changes the layer being edited.
func (s *Store) SetActiveLayer(ctx context.Context, layerID string) error {
	cur := s.Current()
	if _, _, ok := layer.Find(cur.Workflow.RootLayerTree, layerID); !ok {
		return fmt.Errorf("%w: %w: %s", domain.ErrPrecondition, domain.ErrLayerNotFound, layerID)
	}
	if layerID == s.activeLayer {
		return nil
	}
	s.activeLayer = layerID
	ev := Event{Transition: TransitionActiveLayer, Previous: cur, Project: cur, Index: s.index, Len: len(s.snapshots)}
	s.observer.OnActiveLayerChanged(ctx, ev, layerID)
	s.observer.OnTransition(ctx, ev)
	return nil
}

// Close releases every wiring.
func (s *Store) Close() {
	s.wiring.Close()
}

// apply moves to snapshots[to]: it reconciles the wiring with the workflow delta, installs the
// new state, then notifies. Nothing changes when reconciliation fails.
func (s *Store) apply(ctx context.Context, t Transition, snapshots []*domain.Project, to int) error {
	from := s.Current()
	next := snapshots[to]

	delta := domain.DiffWorkflows(from.Workflow, next.Workflow)
	if err := s.wiring.Reconcile(delta.Connections, next.Workflow.Modules, next.Workflow.Plugins); err != nil {
		s.logger.WarnContext(ctx, "history transition rejected", "transition", string(t), "error", err)
		s.observer.OnRejected(ctx, t, err)
		return fmt.Errorf("%s: %w", t, err)
	}

	s.snapshots = snapshots
	s.index = to

	// A reset loads another project: its layers are unrelated even when ids collide.
	activeChanged := t == TransitionReset
	if _, _, ok := layer.Find(next.Workflow.RootLayerTree, s.activeLayer); !ok || activeChanged {
		s.activeLayer = rootLayerID(next)
		activeChanged = true
	}

	ev := Event{Transition: t, Previous: from, Project: next, Index: s.index, Len: len(s.snapshots)}
	s.notify(ctx, ev, delta, activeChanged)
	return nil
}

// notify emits at most one notification per category.
func (s *Store) notify(ctx context.Context, ev Event, delta domain.WorkflowDelta, activeChanged bool) {
	from, to := ev.Previous, ev.Project

	if !delta.Modules.IsEmpty() {
		s.observer.OnModulesChanged(ctx, ev, delta.Modules)
	}
	if !delta.Connections.IsEmpty() {
		s.observer.OnConnectionsChanged(ctx, ev, delta.Connections)
	}
	views := domain.DiffViews(from, to)
	if !views.IsEmpty() || from.Workflow.RootLayerTree != to.Workflow.RootLayerTree {
		s.observer.OnViewsChanged(ctx, ev, views)
	}
	if activeChanged {
		s.observer.OnActiveLayerChanged(ctx, ev, s.activeLayer)
	}
	if boxes := domain.DiffDescriptionBoxes(from, to); !boxes.IsEmpty() {
		s.observer.OnDescriptionBoxesChanged(ctx, ev, boxes)
	}
	s.observer.OnTransition(ctx, ev)
}

func rootLayerID(p *domain.Project) string {
	if p.Workflow.RootLayerTree == nil {
		return ""
	}
	return p.Workflow.RootLayerTree.LayerID
}

package fluxgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/fluxgraph/internal/logging"
	"github.com/aretw0/fluxgraph/pkg/adaptor"
	"github.com/aretw0/fluxgraph/pkg/dataflow"
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/edit"
	"github.com/aretw0/fluxgraph/pkg/history"
	"github.com/aretw0/fluxgraph/pkg/layer"
	"github.com/aretw0/fluxgraph/pkg/registry"
)

// Editor is the high-level entry point for the fluxgraph library.
// It binds the mutation operations to a history store: every successful edit is committed,
// reconciled against the dataflow wiring and announced to the observers.
//
// An Editor is not safe for concurrent use. pkg/session serializes access for servers.
type Editor struct {
	history   *history.Store
	factories *registry.Registry
	compiler  *adaptor.Compiler
	ids       edit.IDGenerator
	observers []history.Observer
	capacity  int
	logger    *slog.Logger
	Name      string
}

// Option defines a functional option for configuring the Editor.
type Option func(*Editor)

// WithLogger sets a custom logger for the editor and its history.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithObserver registers an observer of history transitions. It can be passed several times.
func WithObserver(o history.Observer) Option {
	return func(e *Editor) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithRegistry sets the factory registry. Defaults to registry.NewDefault.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Editor) {
		e.factories = r
	}
}

// WithCompiler sets the adaptor expression compiler. Defaults to adaptor.NewCompiler.
func WithCompiler(c *adaptor.Compiler) Option {
	return func(e *Editor) {
		e.compiler = c
	}
}

// WithIDGenerator sets the generator of fresh identifiers. Defaults to edit.UUIDs.
func WithIDGenerator(ids edit.IDGenerator) Option {
	return func(e *Editor) {
		e.ids = ids
	}
}

// WithSequentialIDs makes the editor draw short ids (m1, c1, layer1, ...) that skip the ids
// already used by its project.
func WithSequentialIDs() Option {
	return func(e *Editor) {
		e.ids = edit.Fresh{Base: &edit.Sequence{}, Taken: e.idInUse}
	}
}

// WithCapacity bounds the number of history snapshots.
func WithCapacity(n int) Option {
	return func(e *Editor) {
		e.capacity = n
	}
}

// WithName sets the name used in logs.
func WithName(name string) Option {
	return func(e *Editor) {
		e.Name = name
	}
}

// New creates an editor whose history starts at p. A nil p starts from an empty project.
func New(p *domain.Project, opts ...Option) (*Editor, error) {
	e := &Editor{}
	for _, opt := range opts {
		opt(e)
	}

	if p == nil {
		p = domain.NewProject("untitled")
	}
	if e.Name == "" {
		e.Name = p.Name
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	e.logger = e.logger.With("project", e.Name)
	if e.factories == nil {
		e.factories = registry.NewDefault()
	}
	if e.compiler == nil {
		e.compiler = adaptor.NewCompiler()
	}
	if e.ids == nil {
		e.ids = edit.UUIDs{}
	}

	storeOpts := []history.Option{
		history.WithLogger(e.logger),
		history.WithCapacity(e.capacity),
	}
	for _, o := range e.observers {
		storeOpts = append(storeOpts, history.WithObserver(o))
	}
	store, err := history.NewStore(p, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}
	e.history = store
	return e, nil
}

// idInUse reports whether any entity of the current snapshot is identified by id.
func (e *Editor) idInUse(id string) bool {
	p := e.Project()
	if p.Workflow.HasID(id) {
		return true
	}
	if _, _, ok := layer.Find(p.Workflow.RootLayerTree, id); ok {
		return true
	}
	if _, ok := p.DescriptionBox(id); ok {
		return true
	}
	for _, c := range p.Workflow.Connections {
		if c.Adaptor != nil && c.Adaptor.AdaptorID == id {
			return true
		}
	}
	return false
}

// Project returns the current snapshot.
func (e *Editor) Project() *domain.Project {
	return e.history.Current()
}

// Registry returns the factory registry of the editor.
func (e *Editor) Registry() *registry.Registry {
	return e.factories
}

// Compiler returns the adaptor compiler of the editor.
func (e *Editor) Compiler() *adaptor.Compiler {
	return e.compiler
}

// History returns the underlying history store.
func (e *Editor) History() *history.Store {
	return e.history
}

// Wiring returns the live dataflow wiring of the current snapshot.
func (e *Editor) Wiring() *dataflow.Manager {
	return e.history.Wiring()
}

// Undo moves back one snapshot. It reports false at the start of the history.
func (e *Editor) Undo(ctx context.Context) (bool, error) {
	return e.history.Undo(ctx)
}

// Redo moves forward one snapshot. It reports false at the end of the history.
func (e *Editor) Redo(ctx context.Context) (bool, error) {
	return e.history.Redo(ctx)
}

// CanUndo reports whether Undo would move.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }

// CanRedo reports whether Redo would move.
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// Reset replaces the whole history with p.
func (e *Editor) Reset(ctx context.Context, p *domain.Project) error {
	return e.history.Reset(ctx, p)
}

// ActiveLayer returns the id of the layer being edited.
func (e *Editor) ActiveLayer() string {
	return e.history.ActiveLayer()
}

// SetActiveLayer changes the layer being edited.
func (e *Editor) SetActiveLayer(ctx context.Context, layerID string) error {
	return e.history.SetActiveLayer(ctx, layerID)
}

// EnterLayer activates the layer owned by the given container module.
func (e *Editor) EnterLayer(ctx context.Context, groupID string) error {
	node, ok := layer.FindByGroup(e.Project().Workflow.RootLayerTree, groupID)
	if !ok {
		return fmt.Errorf("%w: %w: no layer owned by %s", domain.ErrPrecondition, domain.ErrLayerNotFound, groupID)
	}
	return e.SetActiveLayer(ctx, node.LayerID)
}

// LeaveLayer activates the parent of the active layer. It reports false at the root.
func (e *Editor) LeaveLayer(ctx context.Context) (bool, error) {
	_, parent, ok := layer.Find(e.Project().Workflow.RootLayerTree, e.ActiveLayer())
	if !ok || parent == nil {
		return false, nil
	}
	return true, e.SetActiveLayer(ctx, parent.LayerID)
}

// ActiveLayerModules returns the modules held by the active layer.
func (e *Editor) ActiveLayerModules() ([]*domain.Module, error) {
	return e.Project().ActiveLayerModules(e.ActiveLayer())
}

// DisplayedModules returns the modules drawn while the active layer is open.
func (e *Editor) DisplayedModules() ([]domain.DisplayedModule, error) {
	return e.Project().DisplayedModules(e.ActiveLayer())
}

// Close releases the wiring of the current snapshot.
func (e *Editor) Close() {
	e.history.Close()
}

// commit records the outcome of an edit. domain.ErrNoChange is not an error: it reports
// changed == false and nothing is committed.
func (e *Editor) commit(ctx context.Context, next *domain.Project, err error, asNewState bool) (bool, error) {
	if errors.Is(err, domain.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := e.history.Commit(ctx, next, asNewState); err != nil {
		return false, err
	}
	return true, nil
}

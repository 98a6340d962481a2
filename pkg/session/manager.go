package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"log/slog"

	"github.com/aretw0/fluxgraph"
	"github.com/aretw0/fluxgraph/internal/logging"
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates editing sessions: one Editor per project name, loaded from and saved
// to a ProjectStore, with every access to a name serialized.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.ProjectStore

	mu      sync.Mutex                   // Global lock for the maps
	locks   map[string]*lockEntry        // Map of active locks
	editors map[string]*fluxgraph.Editor // Open editors; each is guarded by its name lock

	locker     ports.DistributedLocker // Optional distributed locker
	lockTTL    time.Duration
	editorOpts []fluxgraph.Option
	logger     *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEditorOptions sets the options every opened editor is built with.
func WithEditorOptions(opts ...fluxgraph.Option) Option {
	return func(m *Manager) {
		m.editorOpts = append(m.editorOpts, opts...)
	}
}

// NewManager creates a new Session Manager with the given project store.
func NewManager(store ports.ProjectStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		editors: make(map[string]*fluxgraph.Editor),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(name) after unlocking.
func (m *Manager) acquire(name string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		entry = &lockEntry{}
		m.locks[name] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, name)
	}
}

func (m *Manager) editor(name string) (*fluxgraph.Editor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.editors[name]
	return e, ok
}

func (m *Manager) setEditor(name string, e *fluxgraph.Editor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e == nil {
		delete(m.editors, name)
		return
	}
	m.editors[name] = e
}

// open returns the open editor of name, loading it from the store if needed.
// It must be called under the name lock.
func (m *Manager) open(ctx context.Context, name string, create bool) (*fluxgraph.Editor, error) {
	if e, ok := m.editor(name); ok {
		return e, nil
	}

	p, err := m.store.Load(ctx, name)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrProjectNotFound) && create:
		p = domain.NewProject(name)
		// Persist immediately to reserve the name
		if err := m.store.Save(ctx, name, p); err != nil {
			return nil, fmt.Errorf("failed to initialize project: %w", err)
		}
	default:
		return nil, err
	}

	opts := append([]fluxgraph.Option{fluxgraph.WithLogger(m.logger), fluxgraph.WithName(name)}, m.editorOpts...)
	e, err := fluxgraph.New(p, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open project %s: %w", name, err)
	}
	m.setEditor(name, e)
	m.logger.Debug("project opened", "project", name)
	return e, nil
}

// Open returns the editor of an existing project.
// Returns domain.ErrProjectNotFound if the store has no such project.
func (m *Manager) Open(ctx context.Context, name string) (*fluxgraph.Editor, error) {
	var e *fluxgraph.Editor
	err := m.WithLock(ctx, name, func(ctx context.Context) error {
		var err error
		e, err = m.open(ctx, name, false)
		return err
	})
	return e, err
}

// OpenOrCreate returns the editor of a project, creating an empty project if none is stored.
func (m *Manager) OpenOrCreate(ctx context.Context, name string) (*fluxgraph.Editor, error) {
	var e *fluxgraph.Editor
	err := m.WithLock(ctx, name, func(ctx context.Context) error {
		var err error
		e, err = m.open(ctx, name, true)
		return err
	})
	return e, err
}

// Edit runs fn against the editor of an existing project while holding its lock, then saves
// the project if fn changed it. The project is saved even when fn fails after a change.
func (m *Manager) Edit(ctx context.Context, name string, fn func(context.Context, *fluxgraph.Editor) error) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		e, err := m.open(ctx, name, false)
		if err != nil {
			return err
		}
		before := e.Project()
		fnErr := fn(ctx, e)
		if after := e.Project(); after != before {
			if err := m.store.Save(ctx, name, after); err != nil {
				return errors.Join(fnErr, fmt.Errorf("failed to save project %s: %w", name, err))
			}
		}
		return fnErr
	})
}

// View runs fn against the current snapshot of a project while holding its lock.
func (m *Manager) View(ctx context.Context, name string, fn func(*domain.Project) error) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		if e, ok := m.editor(name); ok {
			return fn(e.Project())
		}
		p, err := m.store.Load(ctx, name)
		if err != nil {
			return err
		}
		return fn(p)
	})
}

// Put stores p under name. An open editor is reset to p once the store accepted it, which
// clears its history. A refused save leaves the editor untouched.
func (m *Manager) Put(ctx context.Context, name string, p *domain.Project) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		if p == nil || p.Workflow == nil {
			return fmt.Errorf("%w: nil project", domain.ErrPrecondition)
		}
		if err := m.store.Save(ctx, name, p); err != nil {
			return err
		}
		e, ok := m.editor(name)
		if !ok {
			return nil
		}
		if err := e.Reset(ctx, p); err != nil {
			// The editor kept its state: put it back in the store.
			if rerr := m.store.Save(ctx, name, e.Project()); rerr != nil {
				return errors.Join(err, fmt.Errorf("failed to restore project %s: %w", name, rerr))
			}
			return err
		}
		return nil
	})
}

// Save persists the current snapshot of an open project.
func (m *Manager) Save(ctx context.Context, name string) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		e, ok := m.editor(name)
		if !ok {
			return fmt.Errorf("%w: project %s is not open", domain.ErrPrecondition, name)
		}
		return m.store.Save(ctx, name, e.Project())
	})
}

// Close saves and closes the editor of a project. Closing a project that is not open is a
// no-op.
func (m *Manager) Close(ctx context.Context, name string) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		e, ok := m.editor(name)
		if !ok {
			return nil
		}
		err := m.store.Save(ctx, name, e.Project())
		e.Close()
		m.setEditor(name, nil)
		return err
	})
}

// CloseAll closes every open editor.
func (m *Manager) CloseAll(ctx context.Context) error {
	var errs []error
	for _, name := range m.OpenNames() {
		if err := m.Close(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delete closes the project and removes it from the store.
func (m *Manager) Delete(ctx context.Context, name string) error {
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		if e, ok := m.editor(name); ok {
			e.Close()
			m.setEditor(name, nil)
		}
		return m.store.Delete(ctx, name)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// OpenNames returns the names of the open projects, sorted.
func (m *Manager) OpenNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.editors))
	for name := range m.editors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Store returns the underlying project store.
func (m *Manager) Store() ports.ProjectStore {
	return m.store
}

// WithLock executes a function while holding the lock for the project name.
func (m *Manager) WithLock(ctx context.Context, name string, fn func(context.Context) error) error {
	entry := m.acquire(name)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(name)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, name, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"project", name,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

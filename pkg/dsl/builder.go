package dsl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/fluxgraph/pkg/adaptor"
	"github.com/aretw0/fluxgraph/pkg/document"
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/edit"
	"github.com/aretw0/fluxgraph/pkg/registry"
)

// GroupFactory is the factory of the containers created by Group.
const GroupFactory = "core/group"

// Builder manages the project construction.
type Builder struct {
	name        string
	description string
	factories   document.Factories
	compiler    document.Compiler

	modules     []*ModuleBuilder
	byAlias     map[string]*ModuleBuilder
	connections []*ConnectionBuilder
	groups      []group

	ids map[string]string
}

type group struct {
	alias   string
	title   string
	aliases []string
}

// Option configures a Builder.
type Option func(*Builder)

// WithFactories sets where factory references are resolved. Defaults to the builtin registry.
func WithFactories(f document.Factories) Option {
	return func(b *Builder) { b.factories = f }
}

// WithCompiler sets the adaptor compiler. Defaults to adaptor.NewCompiler().
func WithCompiler(c document.Compiler) Option {
	return func(b *Builder) { b.compiler = c }
}

// New creates a new project builder.
func New(name string, opts ...Option) *Builder {
	b := &Builder{
		name:    name,
		byAlias: make(map[string]*ModuleBuilder),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.factories == nil {
		b.factories = registry.NewDefault()
	}
	if b.compiler == nil {
		b.compiler = adaptor.NewCompiler()
	}
	return b
}

// Describe sets the project description.
func (b *Builder) Describe(description string) *Builder {
	b.description = description
	return b
}

// Add declares a module instantiated from factory.
// If the alias already exists, it returns the existing builder.
func (b *Builder) Add(alias, factory string) *ModuleBuilder {
	if mb, ok := b.byAlias[alias]; ok {
		return mb
	}
	mb := &ModuleBuilder{alias: alias, factory: factory, builder: b}
	b.modules = append(b.modules, mb)
	b.byAlias[alias] = mb
	return mb
}

// Connect declares a connection between two "alias.slot" endpoints.
func (b *Builder) Connect(from, to string) *ConnectionBuilder {
	cb := &ConnectionBuilder{from: from, to: to}
	b.connections = append(b.connections, cb)
	return cb
}

// Group wraps the modules of members in a container, named alias, owning a new layer titled
// title. Groups are created in declaration order, so a later group may enclose an earlier one.
func (b *Builder) Group(alias, title string, members ...string) *Builder {
	b.groups = append(b.groups, group{alias: alias, title: title, aliases: members})
	return b
}

// ID returns the identifier allocated to alias by the last Build.
func (b *Builder) ID(alias string) string {
	return b.ids[alias]
}

// Build compiles the declarations into a project. Modules are added in declaration order,
// then plugins, connections and groups.
func (b *Builder) Build() (*domain.Project, error) {
	ids := &edit.Sequence{}
	b.ids = make(map[string]string)
	built := make(map[string]*domain.Module)
	p := domain.NewProject(b.name)
	p.Description = b.description

	var err error
	for _, mb := range b.modules {
		if mb.parent != "" {
			continue
		}
		f, lerr := b.factories.Lookup(mb.factory)
		if lerr != nil {
			return nil, fmt.Errorf("module %q: %w", mb.alias, lerr)
		}
		var m *domain.Module
		p, m, err = edit.AddModule(p, ids, f, mb.position, domain.RootLayerID)
		if err != nil {
			return nil, fmt.Errorf("module %q: %w", mb.alias, err)
		}
		if p, m, err = configure(p, m, mb.config); err != nil {
			return nil, fmt.Errorf("module %q: %w", mb.alias, err)
		}
		built[mb.alias] = m
		b.ids[mb.alias] = m.ModuleID
	}

	for _, mb := range b.modules {
		if mb.parent == "" {
			continue
		}
		parent, ok := built[mb.parent]
		if !ok {
			return nil, fmt.Errorf("plugin %q: unknown parent %q", mb.alias, mb.parent)
		}
		f, lerr := b.factories.Lookup(mb.factory)
		if lerr != nil {
			return nil, fmt.Errorf("plugin %q: %w", mb.alias, lerr)
		}
		var m *domain.Module
		p, m, err = edit.AddPlugin(p, ids, f, parent)
		if err != nil {
			return nil, fmt.Errorf("plugin %q: %w", mb.alias, err)
		}
		b.ids[mb.alias] = m.ModuleID
	}

	for _, cb := range b.connections {
		start, serr := b.endpoint(cb.from)
		end, eerr := b.endpoint(cb.to)
		if err := errors.Join(serr, eerr); err != nil {
			return nil, err
		}
		var c *domain.Connection
		p, c, err = edit.AddConnection(p, ids, start, end)
		if err != nil {
			return nil, fmt.Errorf("connection %s -> %s: %w", cb.from, cb.to, err)
		}
		if cb.source == "" {
			continue
		}
		a, cerr := b.compiler.Compile(ids.NewID("a"), cb.source)
		if cerr != nil {
			return nil, fmt.Errorf("connection %s -> %s: %w", cb.from, cb.to, cerr)
		}
		if p, _, err = edit.AddAdaptor(p, c, a); err != nil {
			return nil, fmt.Errorf("connection %s -> %s: %w", cb.from, cb.to, err)
		}
	}

	for _, g := range b.groups {
		f, lerr := b.factories.Lookup(GroupFactory)
		if lerr != nil {
			return nil, lerr
		}
		members := make([]string, len(g.aliases))
		for j, alias := range g.aliases {
			id, ok := b.ids[alias]
			if !ok {
				return nil, fmt.Errorf("group %q: unknown module %q", g.title, alias)
			}
			members[j] = id
		}
		var m *domain.Module
		p, m, err = edit.CreateLayer(p, ids, f, members, domain.RootLayerID, g.title)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.title, err)
		}
		b.ids[g.alias] = m.ModuleID
	}
	return p, nil
}

func (b *Builder) endpoint(ref string) (domain.SlotRef, error) {
	alias, slot, ok := strings.Cut(ref, ".")
	if !ok || slot == "" {
		return domain.SlotRef{}, fmt.Errorf("%w: endpoint %q must be alias.slot", domain.ErrPrecondition, ref)
	}
	id, ok := b.ids[alias]
	if !ok {
		return domain.SlotRef{}, fmt.Errorf("%w: endpoint %q: unknown module %q", domain.ErrPrecondition, ref, alias)
	}
	return domain.SlotRef{ModuleID: id, SlotID: slot}, nil
}

func configure(p *domain.Project, m *domain.Module, cfg *domain.Configuration) (*domain.Project, *domain.Module, error) {
	if cfg == nil {
		return p, m, nil
	}
	next, nm, err := edit.UpdateModule(p, m, *cfg)
	if errors.Is(err, domain.ErrNoChange) {
		return p, m, nil
	}
	return next, nm, err
}

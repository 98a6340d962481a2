package dsl

import (
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/edit"
)

// ModuleBuilder provides a fluent API for configuring a module.
type ModuleBuilder struct {
	alias    string
	factory  string
	parent   string
	position edit.Position
	config   *domain.Configuration
	builder  *Builder
}

// At sets the position of the module in world coordinates.
func (m *ModuleBuilder) At(x, y float64) *ModuleBuilder {
	m.position = edit.Position{X: x, Y: y}
	return m
}

// Titled overrides the factory title.
func (m *ModuleBuilder) Titled(title string) *ModuleBuilder {
	m.configuration().Title = title
	return m
}

// Set stores a configuration value. Keys the factory reads, like explicitInputsCount,
// reshape the slots of the module.
func (m *ModuleBuilder) Set(key string, value any) *ModuleBuilder {
	cfg := m.configuration()
	if cfg.Data == nil {
		cfg.Data = make(map[string]any)
	}
	cfg.Data[key] = value
	return m
}

// Plugin attaches a plugin instantiated from factory to the module. It returns the module
// builder so calls keep chaining on the parent.
func (m *ModuleBuilder) Plugin(alias, factory string) *ModuleBuilder {
	p := m.builder.Add(alias, factory)
	p.parent = m.alias
	return m
}

func (m *ModuleBuilder) configuration() *domain.Configuration {
	if m.config == nil {
		m.config = &domain.Configuration{}
	}
	return m.config
}

// ConnectionBuilder configures a declared connection.
type ConnectionBuilder struct {
	from, to string
	source   string
}

// Via attaches an adaptor compiled from source to the connection.
func (c *ConnectionBuilder) Via(source string) *ConnectionBuilder {
	c.source = source
	return c
}

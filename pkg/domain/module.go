package domain

import (
	"fmt"
	"maps"
	"reflect"

	"github.com/aretw0/fluxgraph/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

// Kind classifies factories.
type Kind string

const (
	// KindModule builds ordinary graph nodes.
	KindModule Kind = "module"
	// KindGroup builds containers that own a layer of the tree.
	KindGroup Kind = "group"
	// KindComponent builds reusable containers that own a layer of the tree.
	KindComponent Kind = "component"
	// KindPlugin builds modules attached to a parent module.
	KindPlugin Kind = "plugin"
)

// SlotSpec declares one input or output slot of a module.
type SlotSpec struct {
	SlotID string
	Title  string
}

// Factory is the capability descriptor a module is built from.
type Factory struct {
	FactoryID   string
	PackID      string
	Kind        Kind
	Title       string
	Description string

	// Shape is the configuration shape. Defaults are taken from it.
	Shape schema.Shape

	// Slots computes the slots of a module from its configuration.
	// A nil Slots builds a module without slots.
	Slots func(cfg Configuration) (inputs, outputs []SlotSpec)
}

// Ref returns the "pack/factory" reference of the factory.
func (f *Factory) Ref() string {
	if f.PackID == "" {
		return f.FactoryID
	}
	return f.PackID + "/" + f.FactoryID
}

// IsContainer reports whether modules built by f own a layer.
func (f *Factory) IsContainer() bool {
	return f.Kind == KindGroup || f.Kind == KindComponent
}

// Defaults returns the default configuration data of the factory.
func (f *Factory) Defaults() map[string]any {
	return f.Shape.Defaults()
}

// NewModule builds a module from the factory. Missing configuration keys take their default,
// and the result is validated against the shape. A non-nil parent builds a plugin.
func (f *Factory) NewModule(id string, cfg Configuration, parent *Module) (*Module, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty module id", ErrPrecondition)
	}
	cfg.Data = f.Shape.Complete(cfg.Data)
	if err := schema.Validate(f.Shape, cfg.Data); err != nil {
		return nil, fmt.Errorf("%w: %w: factory %s: %w", ErrPrecondition, ErrInvalidConfiguration, f.Ref(), err)
	}
	if cfg.Title == "" {
		cfg.Title = f.Title
	}

	m := &Module{
		ModuleID:      id,
		Factory:       f,
		Configuration: cfg,
		Parent:        parent,
		Inputs:        []*InputSlot{},
		Outputs:       []*OutputSlot{},
	}
	if f.Slots != nil {
		inputs, outputs := f.Slots(cfg)
		for _, s := range inputs {
			m.Inputs = append(m.Inputs, NewInputSlot(s.SlotID, s.Title))
		}
		for _, s := range outputs {
			m.Outputs = append(m.Outputs, NewOutputSlot(s.SlotID, s.Title))
		}
	}
	return m, nil
}

// Configuration is the configuration value of a module.
type Configuration struct {
	Title       string
	Description string
	Data        map[string]any
}

// Decode decodes the configuration data into target (a pointer to a struct or map)
// using `mapstructure` tags.
func (c Configuration) Decode(target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(c.Data); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

// Equal reports whether two configurations hold the same values.
func (c Configuration) Equal(other Configuration) bool {
	return c.Title == other.Title &&
		c.Description == other.Description &&
		reflect.DeepEqual(nonNilData(c.Data), nonNilData(other.Data))
}

// Clone returns a copy of the configuration with its own top-level data map.
func (c Configuration) Clone() Configuration {
	c.Data = maps.Clone(c.Data)
	return c
}

func nonNilData(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// Module is an instance of a Factory. Slots are live objects owned by this instance;
// rebuilding the module rebuilds them.
type Module struct {
	ModuleID      string
	Factory       *Factory
	Configuration Configuration
	Inputs        []*InputSlot
	Outputs       []*OutputSlot

	// Parent is set for plugins only.
	Parent *Module
}

// IsPlugin reports whether the module is attached to a parent module.
func (m *Module) IsPlugin() bool {
	return m.Parent != nil
}

// IsContainer reports whether the module owns a layer.
func (m *Module) IsContainer() bool {
	return m.Factory != nil && m.Factory.IsContainer()
}

// Title returns the configured title, falling back to the module id.
func (m *Module) Title() string {
	if m.Configuration.Title != "" {
		return m.Configuration.Title
	}
	return m.ModuleID
}

// Input returns the input slot with the given id.
func (m *Module) Input(slotID string) (*InputSlot, bool) {
	for _, s := range m.Inputs {
		if s.SlotID == slotID {
			return s, true
		}
	}
	return nil, false
}

// Output returns the output slot with the given id.
func (m *Module) Output(slotID string) (*OutputSlot, bool) {
	for _, s := range m.Outputs {
		if s.SlotID == slotID {
			return s, true
		}
	}
	return nil, false
}

// Rebuild returns a new module value with the same id and factory and the given
// configuration and parent. Its slots are fresh.
func (m *Module) Rebuild(cfg Configuration, parent *Module) (*Module, error) {
	if m.Factory == nil {
		return nil, fmt.Errorf("%w: %w: module %s has no factory", ErrPrecondition, ErrUnknownFactory, m.ModuleID)
	}
	return m.Factory.NewModule(m.ModuleID, cfg, parent)
}

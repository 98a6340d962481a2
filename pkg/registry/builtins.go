package registry

import (
	"fmt"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/schema"
)

// CorePack is the pack id of the built-in factories.
const CorePack = "core"

// Configuration keys understood by the built-in factories.
const (
	KeyLayerID       = "layerId"
	KeyInputsCount   = "explicitInputsCount"
	KeyOutputsCount  = "explicitOutputsCount"
	KeyConstantValue = "value"
)

// portCounts is the decoded form of the explicit slot count keys.
type portCounts struct {
	Inputs  int `mapstructure:"explicitInputsCount"`
	Outputs int `mapstructure:"explicitOutputsCount"`
}

// countedSlots builds in1..inN and out1..outN from the explicit count keys.
func countedSlots(cfg domain.Configuration) (inputs, outputs []domain.SlotSpec) {
	var c portCounts
	if err := cfg.Decode(&c); err != nil {
		return nil, nil
	}
	for i := 1; i <= c.Inputs; i++ {
		inputs = append(inputs, domain.SlotSpec{SlotID: fmt.Sprintf("in%d", i), Title: fmt.Sprintf("Input %d", i)})
	}
	for i := 1; i <= c.Outputs; i++ {
		outputs = append(outputs, domain.SlotSpec{SlotID: fmt.Sprintf("out%d", i), Title: fmt.Sprintf("Output %d", i)})
	}
	return inputs, outputs
}

func containerShape() schema.Shape {
	return schema.Shape{
		KeyLayerID:      {Type: schema.String(), Default: "", Description: "Layer owned by the container."},
		KeyInputsCount:  {Type: schema.Int(), Default: 0, Description: "Number of input slots exposed by the container."},
		KeyOutputsCount: {Type: schema.Int(), Default: 0, Description: "Number of output slots exposed by the container."},
	}
}

// Builtins returns fresh copies of the built-in factories:
//
//   - core/group and core/component, containers owning a layer
//   - core/relay, a module with a configurable number of slots
//   - core/constant, a module with a single output
//   - core/logger, a plugin with a single input
func Builtins() []*domain.Factory {
	return []*domain.Factory{
		{
			FactoryID:   "group",
			PackID:      CorePack,
			Kind:        domain.KindGroup,
			Title:       "Group",
			Description: "Groups modules into a nested layer.",
			Shape:       containerShape(),
			Slots:       countedSlots,
		},
		{
			FactoryID:   "component",
			PackID:      CorePack,
			Kind:        domain.KindComponent,
			Title:       "Component",
			Description: "Reusable container with explicit inputs and outputs.",
			Shape:       containerShape(),
			Slots:       countedSlots,
		},
		{
			FactoryID:   "relay",
			PackID:      CorePack,
			Kind:        domain.KindModule,
			Title:       "Relay",
			Description: "Forwards messages between its slots.",
			Shape: schema.Shape{
				KeyInputsCount:  {Type: schema.Int(), Default: 1},
				KeyOutputsCount: {Type: schema.Int(), Default: 1},
			},
			Slots: countedSlots,
		},
		{
			FactoryID: "constant",
			PackID:    CorePack,
			Kind:      domain.KindModule,
			Title:     "Constant",
			Shape: schema.Shape{
				KeyConstantValue: {Type: schema.Any(), Default: ""},
			},
			Slots: func(domain.Configuration) (inputs, outputs []domain.SlotSpec) {
				return nil, []domain.SlotSpec{{SlotID: "out1", Title: "Value"}}
			},
		},
		{
			FactoryID: "logger",
			PackID:    CorePack,
			Kind:      domain.KindPlugin,
			Title:     "Logger",
			Slots: func(domain.Configuration) (inputs, outputs []domain.SlotSpec) {
				return []domain.SlotSpec{{SlotID: "in1", Title: "Message"}}, nil
			},
		},
	}
}

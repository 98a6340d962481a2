package document

// Version is the document format version written by Encode.
const Version = 1

// Document is the persisted form of a project.
type Document struct {
	Version          int              `json:"version" yaml:"version"`
	Name             string           `json:"name" yaml:"name"`
	Description      string           `json:"description,omitempty" yaml:"description,omitempty"`
	Requirements     Requirements     `json:"requirements" yaml:"requirements"`
	Workflow         Workflow         `json:"workflow" yaml:"workflow"`
	BuilderRendering BuilderRendering `json:"builderRendering" yaml:"builderRendering"`
	RunnerRendering  RunnerRendering  `json:"runnerRendering" yaml:"runnerRendering"`
}

type Requirements struct {
	FluxPacks []string          `json:"fluxPacks" yaml:"fluxPacks"`
	Libraries map[string]string `json:"libraries" yaml:"libraries"`
}

type Workflow struct {
	Modules     []Module     `json:"modules" yaml:"modules"`
	Connections []Connection `json:"connections" yaml:"connections"`
	Plugins     []Module     `json:"plugins" yaml:"plugins"`
	Layers      Layer        `json:"rootLayerTree" yaml:"rootLayerTree"`
}

// Module is a module or a plugin. Factory holds the "pack/factory" reference; Parent is set
// for plugins only.
type Module struct {
	ID          string         `json:"moduleId" yaml:"moduleId"`
	Factory     string         `json:"factory" yaml:"factory"`
	Title       string         `json:"title,omitempty" yaml:"title,omitempty"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Data        map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	Parent      string         `json:"parent,omitempty" yaml:"parent,omitempty"`
}

type SlotRef struct {
	Module string `json:"moduleId" yaml:"moduleId"`
	Slot   string `json:"slotId" yaml:"slotId"`
}

type Connection struct {
	ID      string   `json:"connectionId" yaml:"connectionId"`
	Start   SlotRef  `json:"start" yaml:"start"`
	End     SlotRef  `json:"end" yaml:"end"`
	Adaptor *Adaptor `json:"adaptor,omitempty" yaml:"adaptor,omitempty"`
}

// Adaptor persists the expression source only; it is compiled again on load.
type Adaptor struct {
	ID     string `json:"adaptorId" yaml:"adaptorId"`
	Source string `json:"source" yaml:"source"`
}

type Layer struct {
	ID        string   `json:"layerId" yaml:"layerId"`
	Title     string   `json:"title" yaml:"title"`
	GroupID   string   `json:"groupId,omitempty" yaml:"groupId,omitempty"`
	ModuleIDs []string `json:"moduleIds" yaml:"moduleIds"`
	Children  []Layer  `json:"children,omitempty" yaml:"children,omitempty"`
}

type BuilderRendering struct {
	ModulesView      []ModuleView     `json:"modulesView" yaml:"modulesView"`
	DescriptionBoxes []DescriptionBox `json:"descriptionBoxes" yaml:"descriptionBoxes"`
}

type ModuleView struct {
	ModuleID string  `json:"moduleId" yaml:"moduleId"`
	X        float64 `json:"xWorld" yaml:"xWorld"`
	Y        float64 `json:"yWorld" yaml:"yWorld"`
}

type DescriptionBox struct {
	ID        string   `json:"descriptionBoxId" yaml:"descriptionBoxId"`
	Title     string   `json:"title" yaml:"title"`
	ModuleIDs []string `json:"moduleIds" yaml:"moduleIds"`
	Color     string   `json:"color,omitempty" yaml:"color,omitempty"`
}

type RunnerRendering struct {
	Layout string `json:"layout" yaml:"layout"`
	Style  string `json:"style" yaml:"style"`
}

package hcl

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/aretw0/fluxgraph/internal/logging"
	"github.com/aretw0/fluxgraph/pkg/adaptor"
	"github.com/aretw0/fluxgraph/pkg/domain"
	"github.com/aretw0/fluxgraph/pkg/schema"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/mitchellh/mapstructure"
)

// fileRoot is the top-level structure of a catalog file.
type fileRoot struct {
	Packs  []*packBlock `hcl:"pack,block"`
	Remain hcl.Body     `hcl:",remain"`
}

type packBlock struct {
	ID        string          `hcl:"id,label"`
	Factories []*factoryBlock `hcl:"factory,block"`
}

type factoryBlock struct {
	ID          string        `hcl:"id,label"`
	Kind        string        `hcl:"kind,optional"`
	Title       string        `hcl:"title,optional"`
	Description string        `hcl:"description,optional"`
	Inputs      []string      `hcl:"inputs,optional"`
	Outputs     []string      `hcl:"outputs,optional"`
	InputsFrom  string        `hcl:"inputs_from,optional"`
	OutputsFrom string        `hcl:"outputs_from,optional"`
	Fields      []*fieldBlock `hcl:"field,block"`
}

type fieldBlock struct {
	Name        string         `hcl:"name,label"`
	Type        string         `hcl:"type,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
}

// Loader implements ports.FactoryLoader over HCL catalog files:
//
//	pack "math" {
//	  factory "sum" {
//	    title       = "Sum"
//	    inputs_from = "terms"
//	    outputs     = ["result"]
//	    field "terms" {
//	      type    = "int"
//	      default = 2
//	    }
//	  }
//	}
type Loader struct {
	paths  []string
	logger *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		ld.logger = l
	}
}

// NewLoader creates a loader reading the given files and directories. Directories are walked
// for .hcl files; missing paths are skipped.
func NewLoader(paths []string, opts ...Option) *Loader {
	l := &Loader{paths: paths, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFactories parses every catalog file and returns the factories it declares.
func (l *Loader) LoadFactories(ctx context.Context) ([]*domain.Factory, error) {
	files, err := l.files()
	if err != nil {
		return nil, err
	}
	l.logger.DebugContext(ctx, "loading factory catalogs", "files", len(files))

	parser := hclparse.NewParser()
	seen := make(map[string]string)
	var out []*domain.Factory
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, pack := range root.Packs {
			for _, fb := range pack.Factories {
				f, err := translateFactory(pack.ID, fb)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", file, err)
				}
				if prev, dup := seen[f.Ref()]; dup {
					return nil, fmt.Errorf("%w: factory %s declared in %s and %s", domain.ErrDuplicateID, f.Ref(), prev, file)
				}
				seen[f.Ref()] = file
				out = append(out, f)
			}
		}
	}
	l.logger.DebugContext(ctx, "factory catalogs loaded", "factories", len(out))
	return out, nil
}

func translateFactory(packID string, fb *factoryBlock) (*domain.Factory, error) {
	kind := domain.Kind(fb.Kind)
	switch kind {
	case "":
		kind = domain.KindModule
	case domain.KindModule, domain.KindGroup, domain.KindComponent, domain.KindPlugin:
	default:
		return nil, fmt.Errorf("factory %s/%s: unknown kind %q", packID, fb.ID, fb.Kind)
	}

	shape := schema.Shape{}
	for _, fd := range fb.Fields {
		typ, err := schema.ParseType(fd.Type)
		if err != nil {
			return nil, fmt.Errorf("factory %s/%s field %s: %w", packID, fb.ID, fd.Name, err)
		}
		field := schema.Field{Type: typ, Description: fd.Description}
		if fd.Default != nil {
			val, diags := fd.Default.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("factory %s/%s field %s: %w", packID, fb.ID, fd.Name, diags)
			}
			if field.Default, err = adaptor.Native(val); err != nil {
				return nil, fmt.Errorf("factory %s/%s field %s: %w", packID, fb.ID, fd.Name, err)
			}
		}
		shape[fd.Name] = field
	}
	for _, key := range []string{fb.InputsFrom, fb.OutputsFrom} {
		if _, ok := shape[key]; key != "" && !ok {
			return nil, fmt.Errorf("factory %s/%s: slot count key %q is not a field", packID, fb.ID, key)
		}
	}

	inputs, outputs := slices.Clone(fb.Inputs), slices.Clone(fb.Outputs)
	inputsFrom, outputsFrom := fb.InputsFrom, fb.OutputsFrom
	return &domain.Factory{
		FactoryID:   fb.ID,
		PackID:      packID,
		Kind:        kind,
		Title:       fb.Title,
		Description: fb.Description,
		Shape:       shape,
		Slots: func(cfg domain.Configuration) (in, out []domain.SlotSpec) {
			return slotSpecs(cfg, inputs, inputsFrom, "in"), slotSpecs(cfg, outputs, outputsFrom, "out")
		},
	}, nil
}

// slotSpecs lists the static slots followed by prefix1..prefixN, N read from the countKey
// configuration value.
func slotSpecs(cfg domain.Configuration, static []string, countKey, prefix string) []domain.SlotSpec {
	specs := make([]domain.SlotSpec, 0, len(static))
	for _, id := range static {
		specs = append(specs, domain.SlotSpec{SlotID: id, Title: id})
	}
	if countKey == "" {
		return specs
	}
	var n int
	if err := mapstructure.WeakDecode(cfg.Data[countKey], &n); err != nil {
		return specs
	}
	for i := 1; i <= n; i++ {
		id := fmt.Sprintf("%s%d", prefix, i)
		specs = append(specs, domain.SlotSpec{SlotID: id, Title: id})
	}
	return specs
}

// files walks all configured paths and returns the .hcl files found, in lexical order per path.
func (l *Loader) files() ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}

	for _, path := range l.paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return all, nil
}

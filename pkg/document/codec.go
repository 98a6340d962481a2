package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aretw0/fluxgraph/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Format is a serialization format.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension, defaulting to JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Marshal serializes a project.
func Marshal(p *domain.Project, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, p, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal parses data and builds the project it describes.
func Unmarshal(data []byte, format Format, factories Factories, compiler Compiler) (*domain.Project, error) {
	return Decode(bytes.NewReader(data), format, factories, compiler)
}

// Encode writes the persisted form of p to w.
func Encode(w io.Writer, p *domain.Project, format Format) error {
	d := FromProject(p)
	switch format {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case JSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// Decode reads a persisted project from r.
func Decode(r io.Reader, format Format, factories Factories, compiler Compiler) (*domain.Project, error) {
	d, err := Read(r, format)
	if err != nil {
		return nil, err
	}
	return d.Project(factories, compiler)
}

// Read parses a document without resolving it.
func Read(r io.Reader, format Format) (*Document, error) {
	var d Document
	switch format {
	case YAML:
		if err := yaml.NewDecoder(r).Decode(&d); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	case JSON, "":
		dec := json.NewDecoder(r)
		dec.UseNumber()
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	return &d, nil
}

// Codec binds a format to the collaborators needed to rebuild projects. Stores hold one.
type Codec struct {
	Format    Format
	Factories Factories
	Compiler  Compiler
}

// Marshal serializes p in the codec format.
func (c Codec) Marshal(p *domain.Project) ([]byte, error) {
	return Marshal(p, c.Format)
}

// Unmarshal rebuilds a project from data.
func (c Codec) Unmarshal(data []byte) (*domain.Project, error) {
	if c.Factories == nil {
		return nil, fmt.Errorf("%w: codec without factories", domain.ErrPrecondition)
	}
	return Unmarshal(data, c.Format, c.Factories, c.Compiler)
}

// Ext returns the file extension of the codec format.
func (c Codec) Ext() string {
	if c.Format == YAML {
		return ".yaml"
	}
	return ".json"
}

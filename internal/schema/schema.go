// Package schema reads model definitions from YAML and turns them into
// defined sqliter Models.
package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tinywasm/sqliter"
)

// Sentinel errors for schema documents.
var (
	ErrDuplicateModel = errors.New("duplicate model")
	ErrUnknownModel   = errors.New("unknown referenced model")
)

// File is a parsed schema document.
type File struct {
	Models []Model `yaml:"models"`
}

// Model declares one table.
type Model struct {
	Name       string     `yaml:"name"`
	Title      string     `yaml:"title,omitempty"`
	Properties []Property `yaml:"properties"`
}

// Property declares one column. Type is a catalog name such as TEXT or FLAGS.
type Property struct {
	Name        string     `yaml:"name"`
	Type        string     `yaml:"type"`
	Default     any        `yaml:"default,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Allowed     []any      `yaml:"allowed,omitempty"`
	References  *Reference `yaml:"references,omitempty"`
}

// Reference points a property at another model's column.
type Reference struct {
	Model    string `yaml:"model"`
	Column   string `yaml:"column,omitempty"`
	Enforced bool   `yaml:"enforced,omitempty"`
}

// Load reads and parses the schema file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a schema document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	return &f, nil
}

// Build defines every model of the document in order. opts are applied
// to each Model before its title.
func (f *File) Build(opts ...sqliter.Option) ([]*sqliter.Model, error) {
	declared := make(map[string]bool, len(f.Models))
	for _, def := range f.Models {
		if declared[def.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateModel, def.Name)
		}
		declared[def.Name] = true
	}

	models := make([]*sqliter.Model, 0, len(f.Models))
	for _, def := range f.Models {
		props, err := def.properties(declared)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", def.Name, err)
		}
		modelOpts := opts
		if def.Title != "" {
			modelOpts = append(append([]sqliter.Option(nil), opts...), sqliter.WithTitle(def.Title))
		}
		m := sqliter.New(def.Name, modelOpts...)
		if err := m.Define(props...); err != nil {
			return nil, fmt.Errorf("model %s: %w", def.Name, err)
		}
		models = append(models, m)
	}
	return models, nil
}

func (def Model) properties(declared map[string]bool) ([]sqliter.Property, error) {
	props := make([]sqliter.Property, 0, len(def.Properties))
	for _, p := range def.Properties {
		t, err := sqliter.LookupType(p.Type, sqliter.TypeOptions{Allowed: p.Allowed})
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", p.Name, err)
		}
		prop := sqliter.Property{
			Name:        p.Name,
			Type:        t,
			Default:     p.Default,
			Description: p.Description,
		}
		if ref := p.References; ref != nil {
			if !declared[ref.Model] {
				return nil, fmt.Errorf("property %s: %w: %s", p.Name, ErrUnknownModel, ref.Model)
			}
			column := ref.Column
			if column == "" {
				column = sqliter.IDColumn
			}
			prop.Foreign = &sqliter.ForeignKey{Table: ref.Model, Column: column, Enforced: ref.Enforced}
		}
		props = append(props, prop)
	}
	return props, nil
}

// Find returns the model called name.
func Find(models []*sqliter.Model, name string) (*sqliter.Model, bool) {
	for _, m := range models {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

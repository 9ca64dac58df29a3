// Package schema is the lookup table from a component kind to the ordered
// property fields a property panel offers for it. The editor core treats
// node properties as an opaque bag; only this registry gives them meaning.
package schema

import (
	_ "embed"
	"errors"
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
)

//go:embed kinds.yaml
var defaultKinds []byte

var (
	ErrUnknownKind  = errors.New("unknown kind")
	ErrInvalidValue = errors.New("invalid property value")
)

type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldSelect  FieldType = "select"
)

type Field struct {
	Key     string    `yaml:"key" json:"key"`
	Type    FieldType `yaml:"type" json:"type"`
	Label   string    `yaml:"label" json:"label"`
	Options []string  `yaml:"options,omitempty" json:"options,omitempty"`
	Min     *float64  `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64  `yaml:"max,omitempty" json:"max,omitempty"`
	Default any       `yaml:"default,omitempty" json:"default,omitempty"`
}

type Kind struct {
	Kind        string         `yaml:"kind" json:"kind"`
	DisplayName string         `yaml:"displayName" json:"displayName"`
	Color       string         `yaml:"color" json:"color"`
	Size        *document.Size `yaml:"size,omitempty" json:"size,omitempty"`
	Fields      []Field        `yaml:"fields" json:"fields"`
}

type file struct {
	Kinds []Kind `yaml:"kinds"`
}

// Registry is read-only after construction and safe for concurrent use.
type Registry struct {
	kinds  []Kind
	byKind map[string]int
}

// Default returns the registry built from the embedded kind table.
func Default() (*Registry, error) {
	return Parse(defaultKinds)
}

// Parse builds a registry from YAML.
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse kinds: %w", err)
	}

	r := &Registry{byKind: make(map[string]int, len(f.Kinds))}
	for _, k := range f.Kinds {
		if k.Kind == "" {
			return nil, errors.New("parse kinds: kind without a name")
		}
		if _, dup := r.byKind[k.Kind]; dup {
			return nil, fmt.Errorf("parse kinds: duplicate kind %q", k.Kind)
		}
		for _, fd := range k.Fields {
			if err := fd.check(); err != nil {
				return nil, fmt.Errorf("parse kinds: %s.%s: %w", k.Kind, fd.Key, err)
			}
			if fd.Default != nil {
				if err := fd.Validate(fd.Default); err != nil {
					return nil, fmt.Errorf("parse kinds: %s.%s default: %w", k.Kind, fd.Key, err)
				}
			}
		}
		r.byKind[k.Kind] = len(r.kinds)
		r.kinds = append(r.kinds, k)
	}
	return r, nil
}

func (f Field) check() error {
	switch f.Type {
	case FieldString, FieldNumber, FieldBoolean:
	case FieldSelect:
		if len(f.Options) == 0 {
			return errors.New("select field without options")
		}
	default:
		return fmt.Errorf("unsupported field type %q", f.Type)
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return errors.New("min above max")
	}
	return nil
}

// Validate checks a single property value against the field's type and
// constraints. Numbers may arrive as any Go numeric type.
func (f Field) Validate(v any) error {
	switch f.Type {
	case FieldString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%s: want string, got %T: %w", f.Key, v, ErrInvalidValue)
		}
	case FieldBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%s: want boolean, got %T: %w", f.Key, v, ErrInvalidValue)
		}
	case FieldSelect:
		s, ok := v.(string)
		if !ok || !slices.Contains(f.Options, s) {
			return fmt.Errorf("%s: %v not one of %v: %w", f.Key, v, f.Options, ErrInvalidValue)
		}
	case FieldNumber:
		n, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("%s: want number, got %T: %w", f.Key, v, ErrInvalidValue)
		}
		if f.Min != nil && n < *f.Min {
			return fmt.Errorf("%s: %v below %v: %w", f.Key, n, *f.Min, ErrInvalidValue)
		}
		if f.Max != nil && n > *f.Max {
			return fmt.Errorf("%s: %v above %v: %w", f.Key, n, *f.Max, ErrInvalidValue)
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// Kinds returns every kind in table order.
func (r *Registry) Kinds() []Kind {
	return slices.Clone(r.kinds)
}

func (r *Registry) Kind(kind string) (Kind, error) {
	i, ok := r.byKind[kind]
	if !ok {
		return Kind{}, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
	return r.kinds[i], nil
}

// Fields returns the ordered property fields of kind.
func (r *Registry) Fields(kind string) ([]Field, error) {
	k, err := r.Kind(kind)
	if err != nil {
		return nil, err
	}
	return slices.Clone(k.Fields), nil
}

// Template returns the palette template for kind, with every field that
// has a default filled into DefaultProperties.
func (r *Registry) Template(kind string) (document.ComponentTemplate, error) {
	k, err := r.Kind(kind)
	if err != nil {
		return document.ComponentTemplate{}, err
	}

	props := make(map[string]any, len(k.Fields))
	for _, f := range k.Fields {
		if f.Default == nil {
			continue
		}
		if n, ok := toFloat(f.Default); ok {
			props[f.Key] = n
			continue
		}
		props[f.Key] = f.Default
	}

	tpl := document.ComponentTemplate{
		Kind:        k.Kind,
		DisplayName: k.DisplayName,
		Color:       k.Color,
	}
	if len(props) > 0 {
		tpl.DefaultProperties = props
	}
	if k.Size != nil {
		size := *k.Size
		tpl.DefaultSize = &size
	}
	return tpl, nil
}

// Validate checks a node's properties against its kind. Keys the kind does
// not declare are left alone.
func (r *Registry) Validate(kind string, props map[string]any) error {
	k, err := r.Kind(kind)
	if err != nil {
		return err
	}
	fields := make(map[string]Field, len(k.Fields))
	for _, f := range k.Fields {
		fields[f.Key] = f
	}
	var errs []error
	for _, key := range slices.Sorted(maps.Keys(props)) {
		f, ok := fields[key]
		if !ok {
			continue
		}
		if err := f.Validate(props[key]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

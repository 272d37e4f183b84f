package platform

import (
	"fmt"
	"math"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/piewpiew/pkg/data"
	"github.com/aretw0/piewpiew/pkg/data/validators"
)

// Schema declares model types in YAML:
//
//	models:
//	  person:
//	    fields:
//	      name: {type: string, required: true, max_length: 5}
//	      age:  {type: integer, min: 0, max: 150}
type Schema struct {
	Models map[string]ModelSchema `yaml:"models"`
}

// ModelSchema declares the fields of one model type.
type ModelSchema struct {
	Fields map[string]FieldSchema `yaml:"fields"`
}

// FieldSchema declares one field and its validators.
type FieldSchema struct {
	Type      string   `yaml:"type"`
	Required  bool     `yaml:"required"`
	Min       *float64 `yaml:"min"`
	Max       *float64 `yaml:"max"`
	MinLength *int     `yaml:"min_length"`
	MaxLength *int     `yaml:"max_length"`
	Pattern   string   `yaml:"pattern"`
	Message   string   `yaml:"message"`
}

// LoadSchema reads and parses a schema file.
func LoadSchema(path string) (*Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return ParseSchema(raw)
}

// ParseSchema parses a YAML schema.
func ParseSchema(raw []byte) (*Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	if len(s.Models) == 0 {
		return nil, fmt.Errorf("schema declares no models")
	}
	return &s, nil
}

// Names returns the declared model names, sorted.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Models))
	for name := range s.Models {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Define declares every model type of the schema wired to the configured adaptor.
func (s *Schema) Define(opts ...Option) (map[string]*data.ModelType, error) {
	topts := TypeOptions(opts...)
	out := make(map[string]*data.ModelType, len(s.Models))
	for _, name := range s.Names() {
		fields := make(data.Fields, len(s.Models[name].Fields))
		for fname, decl := range s.Models[name].Fields {
			f, err := decl.build()
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, fname, err)
			}
			fields[fname] = f
		}
		out[name] = data.NewModelType(name, fields, topts...)
	}
	return out, nil
}

func (f FieldSchema) build() (*data.Field, error) {
	kind := data.Kind(f.Type)
	switch kind {
	case "":
		kind = data.KindAny
	case data.KindAny, data.KindString, data.KindInteger, data.KindFloat, data.KindBoolean:
	default:
		return nil, fmt.Errorf("unknown field type %q", f.Type)
	}

	var opts []data.FieldOption
	if f.Required {
		opts = append(opts, data.Required())
	}

	var vopts []validators.Option
	if f.Message != "" {
		for _, key := range []string{validators.MsgOutOfRange, validators.MsgTooLongNoMinLength, validators.MsgTooShortNoMaxLength, validators.MsgNoMatch} {
			vopts = append(vopts, validators.WithMessage(key, f.Message))
		}
	}

	if f.Min != nil || f.Max != nil {
		lo, hi := -math.MaxFloat64, math.MaxFloat64
		if f.Min != nil {
			lo = *f.Min
		}
		if f.Max != nil {
			hi = *f.Max
		}
		opts = append(opts, data.WithValidators(validators.NewRange(lo, hi, vopts...)))
	}

	if f.MinLength != nil || f.MaxLength != nil {
		var v *validators.StringValidator
		switch {
		case f.MinLength != nil && f.MaxLength != nil:
			v = validators.NewLength(*f.MinLength, *f.MaxLength, vopts...)
		case f.MinLength != nil:
			v = validators.MinLength(*f.MinLength, vopts...)
		default:
			v = validators.MaxLength(*f.MaxLength, vopts...)
		}
		opts = append(opts, data.WithValidators(v))
	}

	if f.Pattern != "" {
		v, err := validators.NewPattern(f.Pattern, vopts...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, data.WithValidators(v))
	}

	return data.NewField(kind, opts...), nil
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/piewpiew"
	"github.com/aretw0/piewpiew/pkg/data"
)

// openModel resolves the store root and schema, opens the fs adaptor and returns
// the named model type.
func openModel(name string) (*data.ModelType, error) {
	root := storeDir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if found, err := piewpiew.FindRoot(wd); err == nil {
			root = found
		} else {
			root = wd
		}
	}

	path := schemaPath
	if path == "" {
		path = filepath.Join(root, "piewpiew.yaml")
	}
	schema, err := piewpiew.LoadSchema(path)
	if err != nil {
		return nil, err
	}

	adaptor, err := piewpiew.Open(root,
		piewpiew.WithAdapter("fs"),
		piewpiew.WithFormat(format),
		piewpiew.WithReadOnly(readOnly),
		piewpiew.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, err
	}

	types, err := schema.Define(piewpiew.WithAdaptor(adaptor), piewpiew.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}
	t, ok := types[name]
	if !ok {
		return nil, fmt.Errorf("unknown model %q (schema declares %s)", name, strings.Join(schema.Names(), ", "))
	}
	return t, nil
}

// parseValues turns key=value arguments into field values of t.
func parseValues(t *data.ModelType, args []string) (map[string]any, error) {
	values := make(map[string]any, len(args))
	for _, arg := range args {
		key, text, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		f, ok := t.Field(key)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", data.ErrUnknownField, t.Name(), key)
		}
		v, err := f.Parse(text)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		values[key] = v
	}
	return values, nil
}

// parseLookups turns field__lookup=value arguments into filter lookups. The value
// is parsed with the field's kind; "in" takes a comma-separated list and "isnull"
// a boolean.
func parseLookups(t *data.ModelType, args []string) (data.Lookups, error) {
	lookups := make(data.Lookups, len(args))
	for _, arg := range args {
		key, text, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected lookup=value, got %q", arg)
		}
		name, suffix := data.SplitLookup(key)
		f, ok := t.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", data.ErrUnknownField, t.Name(), name)
		}

		switch suffix {
		case "in":
			var list []any
			for _, part := range strings.Split(text, ",") {
				v, err := f.Parse(strings.TrimSpace(part))
				if err != nil {
					return nil, fmt.Errorf("%s: %w", key, err)
				}
				list = append(list, v)
			}
			lookups[key] = list
		case "isnull":
			lookups[key] = text != "false" && text != "0"
		case "contains", "icontains", "startswith", "endswith", "iexact":
			lookups[key] = text
		default:
			v, err := f.Parse(text)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			lookups[key] = v
		}
	}
	return lookups, nil
}

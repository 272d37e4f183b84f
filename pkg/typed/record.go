// Package typed layers Go generics over models: struct views of instances,
// typed attribute accessors and blocking manager calls.
package typed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/piewpiew/pkg/data"
)

// Record wraps a model instance with a typed view of its properties.
type Record[T any] struct {
	Model *data.Model
	Data  T
}

// Save writes Data back into the instance, persists it and refreshes Data with
// whatever the adaptor assigned (such as the identifier).
func (r *Record[T]) Save(ctx context.Context) error {
	if r.Model == nil {
		return fmt.Errorf("record is detached (missing model)")
	}

	values, err := Encode(r.Data)
	if err != nil {
		return err
	}
	if err := r.Model.SetMany(values); err != nil {
		return err
	}
	if err := save(ctx, r.Model); err != nil {
		return err
	}

	refreshed, err := Decode[T](r.Model)
	if err != nil {
		return err
	}
	r.Data = refreshed
	return nil
}

// Encode converts v to the property map of an instance through its JSON form.
// Numbers are kept as json.Number and cleaned by the receiving field.
func Encode[T any](v T) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("failed to convert typed data to map: %w", err)
	}
	return values, nil
}

// Decode converts the properties of m to T through their JSON form.
func Decode[T any](m *data.Model) (T, error) {
	var out T
	raw, err := json.Marshal(m.Properties())
	if err != nil {
		return out, fmt.Errorf("properties marshal failed: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("unmarshal to target type failed: %w", err)
	}
	return out, nil
}

func wrap[T any](m *data.Model) (*Record[T], error) {
	v, err := Decode[T](m)
	if err != nil {
		return nil, fmt.Errorf("failed to process record %s: %w", m, err)
	}
	return &Record[T]{Model: m, Data: v}, nil
}

func save(ctx context.Context, m *data.Model) error {
	ch := make(chan error, 1)
	m.Save(ctx, func(res data.SaveResult) { ch <- res.Err })
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

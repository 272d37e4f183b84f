package typed

import (
	"context"

	"github.com/aretw0/piewpiew/pkg/core"
	"github.com/aretw0/piewpiew/pkg/data"
)

// Manager wraps a data.Manager with blocking, type-safe calls.
type Manager[T any] struct {
	m *data.Manager
}

// NewManager creates a typed manager for t.
func NewManager[T any](t *data.ModelType) *Manager[T] {
	return &Manager[T]{m: t.Objects()}
}

// Objects returns the underlying manager.
func (m *Manager[T]) Objects() *data.Manager { return m.m }

// New builds an unsaved record from v.
func (m *Manager[T]) New(v T) (*Record[T], error) {
	values, err := Encode(v)
	if err != nil {
		return nil, err
	}
	inst, err := m.m.Model().New(values)
	if err != nil {
		return nil, err
	}
	return wrap[T](inst)
}

// Create validates and saves v, returning the stored record.
func (m *Manager[T]) Create(ctx context.Context, v T) (*Record[T], error) {
	values, err := Encode(v)
	if err != nil {
		return nil, err
	}

	type result struct {
		m   *data.Model
		err error
	}
	ch := make(chan result, 1)
	m.m.Create(ctx, values, func(inst *data.Model, err error) { ch <- result{inst, err} })

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return wrap[T](res.m)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// All returns every stored record.
func (m *Manager[T]) All(ctx context.Context) ([]*Record[T], error) {
	return m.collect(m.m.NewQuerySet().Fetch(ctx))
}

// Filter returns the stored records matching any of the lookups.
func (m *Manager[T]) Filter(ctx context.Context, lookups data.Lookups) ([]*Record[T], error) {
	return m.collect(m.m.Filter(lookups).Fetch(ctx))
}

// Watch observes changes to the stored records.
func (m *Manager[T]) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return m.m.Watch(ctx, pattern)
}

func (m *Manager[T]) collect(records []*data.Model, err error) ([]*Record[T], error) {
	if err != nil {
		return nil, err
	}
	out := make([]*Record[T], 0, len(records))
	for _, r := range records {
		rec, err := wrap[T](r)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

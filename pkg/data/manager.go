package data

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aretw0/piewpiew/pkg/core"
)

// Manager is the persistence surface of one ModelType. It builds query sets and
// routes save and load requests to the storage adaptor; nothing else talks to the
// adaptor directly.
type Manager struct {
	typ          *ModelType
	adaptor      Adaptor
	lookups      *FieldLookups
	logger       *slog.Logger
	queryTimeout time.Duration

	queries atomic.Int64
	loads   atomic.Int64
	saves   atomic.Int64
}

func newManager(t *ModelType, cfg *typeConfig) *Manager {
	return &Manager{
		typ:          t,
		adaptor:      cfg.adaptor,
		lookups:      cfg.lookups,
		logger:       cfg.logger.With("model", t.name),
		queryTimeout: cfg.queryTimeout,
	}
}

// Model returns the model type this manager serves.
func (m *Manager) Model() *ModelType { return m.typ }

// NewQuerySet returns an empty query set with no load hint.
func (m *Manager) NewQuerySet() *QuerySet {
	m.queries.Add(1)
	return newQuerySet(m, nil)
}

// Filter returns a query set whose load is hinted with lookups and whose first
// operation filters by the same lookups.
func (m *Manager) Filter(lookups Lookups) *QuerySet {
	m.queries.Add(1)
	return newQuerySet(m, lookups).Filter(lookups)
}

// All loads every record and passes them to fn. See QuerySet.All.
func (m *Manager) All(ctx context.Context, fn func([]*Model, error)) {
	m.NewQuerySet().All(ctx, fn)
}

// Each loads every record and calls fn for each. See QuerySet.Each.
func (m *Manager) Each(ctx context.Context, fn func(*Model), done func(error)) {
	m.NewQuerySet().Each(ctx, fn, done)
}

// Load forwards to the adaptor.
func (m *Manager) Load(ctx context.Context, filter Lookups, done func(LoadResult)) {
	if m.adaptor == nil {
		done(LoadResult{Err: ErrNoAdaptor})
		return
	}
	m.loads.Add(1)
	m.adaptor.Load(ctx, m.typ, filter, done)
}

// Save forwards to the adaptor.
func (m *Manager) Save(ctx context.Context, rec *Model, done func(SaveResult)) {
	if done == nil {
		done = func(SaveResult) {}
	}
	if m.adaptor == nil {
		done(SaveResult{Record: rec, Err: ErrNoAdaptor})
		return
	}
	if rec.Type() != m.typ {
		done(SaveResult{Record: rec, Err: fmt.Errorf("cannot save %s through the %s manager", rec.Type().Name(), m.typ.name)})
		return
	}

	m.saves.Add(1)
	m.adaptor.Save(ctx, rec, func(res SaveResult) {
		if res.Err != nil {
			m.logger.Error("save failed", "error", res.Err)
		} else {
			m.logger.Debug("record saved", "record", res.Record)
		}
		done(res)
	})
}

// Create builds an instance from values, saves it and relays the saved instance to
// done. Nothing is saved when a value is rejected or a required field is missing.
func (m *Manager) Create(ctx context.Context, values map[string]any, done func(*Model, error)) {
	rec, err := m.typ.New(values)
	if err == nil {
		err = rec.Validate()
	}
	if err != nil {
		done(nil, err)
		return
	}

	m.Save(ctx, rec, func(res SaveResult) {
		if res.Err != nil {
			done(nil, res.Err)
			return
		}
		done(res.Record, nil)
	})
}

// Watch streams external changes to this type's records when the adaptor supports it.
func (m *Manager) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	w, ok := m.adaptor.(Watchable)
	if !ok {
		return nil, ErrNotWatchable
	}
	return w.Watch(ctx, m.typ, pattern)
}

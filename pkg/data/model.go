package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/piewpiew/pkg/core"
)

// EventChange is dispatched by every Model with payload (*Model, core.Changes).
const EventChange = "piewpiew.data.Model.events.CHANGE"

// Fields declares the attributes of a model type.
type Fields map[string]*Field

// FieldAccessor is a dedicated getter/setter pair for one attribute of a model type.
// Either half may be nil. A custom Set is expected to end in Model.SetProperty.
type FieldAccessor struct {
	Get func(m *Model) any
	Set func(m *Model, value any) error
}

// ModelType describes one kind of model: its fields, the accessor table built from
// them, and the single Manager shared by all of its instances.
type ModelType struct {
	name      string
	fields    Fields
	names     []string
	accessors map[string]FieldAccessor
	manager   *Manager
}

type typeConfig struct {
	adaptor      Adaptor
	logger       *slog.Logger
	lookups      *FieldLookups
	accessors    map[string]FieldAccessor
	queryTimeout time.Duration
}

// TypeOption configures a ModelType and its Manager.
type TypeOption func(*typeConfig)

// WithAdaptor sets the storage adaptor the type's Manager uses.
func WithAdaptor(a Adaptor) TypeOption {
	return func(c *typeConfig) {
		c.adaptor = a
	}
}

// WithLogger sets the logger for the type's Manager.
func WithLogger(logger *slog.Logger) TypeOption {
	return func(c *typeConfig) {
		c.logger = logger
	}
}

// WithLookups replaces the lookup table used by filters.
func WithLookups(l *FieldLookups) TypeOption {
	return func(c *typeConfig) {
		c.lookups = l
	}
}

// WithAccessor supplies a dedicated accessor for name, taking precedence over the
// generated validating setter. name does not have to be a declared field.
func WithAccessor(name string, a FieldAccessor) TypeOption {
	return func(c *typeConfig) {
		c.accessors[name] = a
	}
}

// WithQueryTimeout bounds how long a query may wait for its load and operations.
// Zero (the default) means no bound besides the caller's context.
func WithQueryTimeout(d time.Duration) TypeOption {
	return func(c *typeConfig) {
		c.queryTimeout = d
	}
}

// NewModelType declares a model type. An integer "id" field is added unless fields
// declares one.
func NewModelType(name string, fields Fields, opts ...TypeOption) *ModelType {
	cfg := &typeConfig{
		lookups:   DefaultLookups,
		accessors: make(map[string]FieldAccessor),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	t := &ModelType{
		name:      name,
		fields:    make(Fields, len(fields)+1),
		accessors: make(map[string]FieldAccessor, len(fields)+1),
	}
	for n, f := range fields {
		t.fields[n] = f
	}
	if _, ok := t.fields[IDField]; !ok {
		t.fields[IDField] = Integer()
	}
	for n := range t.fields {
		t.names = append(t.names, n)
	}
	sort.Strings(t.names)

	for _, n := range t.names {
		t.accessors[n] = FieldAccessor{Set: t.validatingSetter(n, t.fields[n])}
	}
	for n, a := range cfg.accessors {
		if a.Set == nil {
			a.Set = t.accessors[n].Set
		}
		t.accessors[n] = a
	}

	t.manager = newManager(t, cfg)
	return t
}

// Name returns the model type name.
func (t *ModelType) Name() string { return t.name }

// Objects returns the Manager of this type.
func (t *ModelType) Objects() *Manager { return t.manager }

// FieldNames returns the declared field names, sorted.
func (t *ModelType) FieldNames() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Field returns the declaration of name.
func (t *ModelType) Field(name string) (*Field, bool) {
	f, ok := t.fields[name]
	return f, ok
}

// Accessor returns the entry of the accessor table for name.
func (t *ModelType) Accessor(name string) (FieldAccessor, bool) {
	a, ok := t.accessors[name]
	return a, ok
}

// ValidateField checks value against the declaration of name.
func (t *ModelType) ValidateField(name string, value any) error {
	f, ok := t.fields[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, t.name, name)
	}
	if errs := f.Validate(value); len(errs) > 0 {
		return &ValidationError{Model: t.name, Field: name, Messages: errs}
	}
	return nil
}

func (t *ModelType) validatingSetter(name string, f *Field) func(*Model, any) error {
	return func(m *Model, value any) error {
		if errs := f.Validate(value); len(errs) > 0 {
			return &ValidationError{Model: t.name, Field: name, Messages: errs}
		}
		m.SetProperty(name, f.Clean(value))
		return nil
	}
}

// New creates an instance and assigns values through the accessor table. Rejected
// values are left unset and reported in the returned error; the instance is returned
// regardless.
func (t *ModelType) New(values map[string]any) (*Model, error) {
	m := &Model{typ: t}
	m.PropertyStore = core.NewPropertyStore(core.WithChangeEvent(EventChange), core.WithSource(m))

	for name, a := range t.accessors {
		var acc core.Accessor
		if a.Get != nil {
			get := a.Get
			acc.Get = func() any { return get(m) }
		}
		if a.Set != nil {
			set := a.Set
			acc.Set = func(v any) error { return set(m, v) }
		}
		m.DefineAccessor(name, acc)
	}

	if len(values) == 0 {
		return m, nil
	}
	return m, m.SetMany(values)
}

// Model is an instance of a ModelType: a property store whose declared attributes
// are only written after validation.
type Model struct {
	*core.PropertyStore
	typ *ModelType
}

// Type returns the model type of m.
func (m *Model) Type() *ModelType { return m.typ }

// ID returns the identifier assigned by the storage adaptor.
func (m *Model) ID() (int, bool) {
	id, ok := m.Get(IDField).(int)
	return id, ok
}

// Accessor returns the getter/setter pair of name bound to this instance.
func (m *Model) Accessor(name string) (core.Accessor, bool) {
	if _, ok := m.typ.accessors[name]; !ok {
		return core.Accessor{}, false
	}
	return core.Accessor{
		Get: func() any { return m.Get(name) },
		Set: func(v any) error { return m.Set(name, v) },
	}, true
}

// Validate checks every declared field against the current values, including
// required fields that were never assigned.
func (m *Model) Validate() error {
	var errs []error
	for _, name := range m.typ.names {
		if err := m.typ.ValidateField(name, m.Get(name)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Save persists m through its type's Manager.
func (m *Model) Save(ctx context.Context, done func(SaveResult)) {
	m.typ.manager.Save(ctx, m, done)
}

func (m *Model) String() string {
	if id, ok := m.ID(); ok {
		return fmt.Sprintf("%s#%d", m.typ.name, id)
	}
	return m.typ.name + "#new"
}

package core

import (
	"errors"
	"reflect"
	"sync"
)

// EventChange is the default change event dispatched by a PropertyStore.
const EventChange = "piewpiew.core.PropertyStore.events.CHANGE"

// Changes maps every property name that changed during one update to its new value.
type Changes map[string]any

// Accessor is a dedicated getter/setter pair for one property. Either half may be nil.
//
// A Set accessor owns the write: it is expected to funnel the accepted value through
// PropertyStore.SetProperty so that batching and change notification still happen.
type Accessor struct {
	Get func() any
	Set func(value any) error
}

// PropertyStore is a named-value container with dedicated-accessor overrides and
// batched change notification. Handlers bound to its change event receive
// (source, Changes).
type PropertyStore struct {
	*Dispatcher

	changeEvent string
	source      any

	mu         sync.Mutex
	properties map[string]any
	accessors  map[string]Accessor
	pending    Changes
	batchDepth int
}

// StoreOption configures a PropertyStore.
type StoreOption func(*PropertyStore)

// WithChangeEvent overrides the name of the change event.
func WithChangeEvent(name string) StoreOption {
	return func(s *PropertyStore) {
		s.changeEvent = name
	}
}

// WithSource sets the value passed as the first argument of change notifications.
// Defaults to the store itself.
func WithSource(source any) StoreOption {
	return func(s *PropertyStore) {
		s.source = source
	}
}

// NewPropertyStore creates an empty store.
func NewPropertyStore(opts ...StoreOption) *PropertyStore {
	s := &PropertyStore{
		Dispatcher:  NewDispatcher(),
		changeEvent: EventChange,
		properties:  make(map[string]any),
		accessors:   make(map[string]Accessor),
		pending:     make(Changes),
	}
	s.source = s
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ChangeEvent returns the name of the event fired when properties change.
func (s *PropertyStore) ChangeEvent() string {
	return s.changeEvent
}

// DefineAccessor installs a dedicated accessor for name, replacing any previous one.
func (s *PropertyStore) DefineAccessor(name string, a Accessor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessors[name] = a
}

// Get returns the value of name. A dedicated getter, when defined, fully owns the
// result and def is ignored. Otherwise an unset or nil value yields def.
func (s *PropertyStore) Get(name string, def ...any) any {
	s.mu.Lock()
	getter := s.accessors[name].Get
	value := s.properties[name]
	s.mu.Unlock()

	if getter != nil {
		return getter()
	}
	if value == nil && len(def) > 0 {
		return def[0]
	}
	return value
}

// Properties returns a copy of the raw property map.
func (s *PropertyStore) Properties() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]any, len(s.properties))
	for k, v := range s.properties {
		out[k] = v
	}
	return out
}

// Set assigns a single property. It is a batch of one.
func (s *PropertyStore) Set(name string, value any) error {
	return s.SetMany(map[string]any{name: value})
}

// SetMany assigns every entry of values and fires at most one change event carrying
// all the names whose value actually changed. Entries with a dedicated setter are
// delegated to it; the rest are written directly. A failing setter does not stop the
// remaining entries; all failures are joined into the returned error.
func (s *PropertyStore) SetMany(values map[string]any) error {
	s.mu.Lock()
	s.batchDepth++
	s.mu.Unlock()

	var errs []error
	for name, value := range values {
		s.mu.Lock()
		setter := s.accessors[name].Set
		s.mu.Unlock()

		if setter != nil {
			if err := setter(value); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		s.SetProperty(name, value)
	}

	s.mu.Lock()
	s.batchDepth--
	changes := s.takePendingLocked()
	s.mu.Unlock()

	s.dispatch(changes)
	return errors.Join(errs...)
}

// SetProperty is the primitive single-property write. Values identical to the stored
// one are ignored. Outside a batch the change is dispatched immediately; inside a
// batch it is deferred and dispatched together with the rest of the batch.
func (s *PropertyStore) SetProperty(name string, value any) {
	s.mu.Lock()
	if identical(s.properties[name], value) {
		s.mu.Unlock()
		return
	}
	s.properties[name] = value
	s.pending[name] = value
	changes := s.takePendingLocked()
	s.mu.Unlock()

	s.dispatch(changes)
}

// takePendingLocked hands out the pending buffer when no batch is open.
func (s *PropertyStore) takePendingLocked() Changes {
	if s.batchDepth > 0 || len(s.pending) == 0 {
		return nil
	}
	changes := s.pending
	s.pending = make(Changes)
	return changes
}

func (s *PropertyStore) dispatch(changes Changes) {
	if len(changes) == 0 {
		return
	}
	s.Trigger(s.changeEvent, s.source, changes)
}

// identical compares by value for comparable types and by reference for maps,
// slices, functions, channels and pointers.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	// Value.Comparable also inspects interface contents, which may hold slices or maps.
	if va.Comparable() {
		return a == b
	}
	return false
}

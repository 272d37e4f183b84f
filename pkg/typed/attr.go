package typed

import "github.com/aretw0/piewpiew/pkg/data"

// Attr is a typed accessor for one attribute of a model.
type Attr[T any] struct {
	name string
}

// NewAttr declares a typed accessor for the attribute name.
func NewAttr[T any](name string) Attr[T] {
	return Attr[T]{name: name}
}

// Name returns the attribute name.
func (a Attr[T]) Name() string { return a.name }

// Get returns the attribute of m, and false when it is unset or of another type.
func (a Attr[T]) Get(m *data.Model) (T, bool) {
	v, ok := m.Get(a.name).(T)
	return v, ok
}

// Or returns the attribute of m, or def when it is unset or of another type.
func (a Attr[T]) Or(m *data.Model, def T) T {
	if v, ok := a.Get(m); ok {
		return v
	}
	return def
}

// Set assigns v through the model's accessor table.
func (a Attr[T]) Set(m *data.Model, v T) error {
	return m.Set(a.name, v)
}

package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeRecorder struct {
	sources []any
	changes []Changes
}

func (r *changeRecorder) handler(args ...any) {
	r.sources = append(r.sources, args[0])
	r.changes = append(r.changes, args[1].(Changes))
}

func TestPropertyStore_GetDefaults(t *testing.T) {
	s := NewPropertyStore()

	assert.Nil(t, s.Get("missing"))
	assert.Equal(t, "fallback", s.Get("missing", "fallback"))

	require.NoError(t, s.Set("name", "Amy"))
	assert.Equal(t, "Amy", s.Get("name", "fallback"))

	// A nil value is treated as "no value".
	require.NoError(t, s.Set("name", nil))
	assert.Equal(t, "fallback", s.Get("name", "fallback"))
}

func TestPropertyStore_BatchedNotify(t *testing.T) {
	s := NewPropertyStore()
	rec := &changeRecorder{}
	s.Bind(EventChange, rec.handler)

	require.NoError(t, s.SetMany(map[string]any{"a": 1, "b": 2, "c": 3}))
	require.Len(t, rec.changes, 1)
	assert.Equal(t, Changes{"a": 1, "b": 2, "c": 3}, rec.changes[0])
	assert.Same(t, s, rec.sources[0])

	// Only values that differ are reported.
	require.NoError(t, s.SetMany(map[string]any{"a": 1, "b": 20, "c": 3}))
	require.Len(t, rec.changes, 2)
	assert.Equal(t, Changes{"b": 20}, rec.changes[1])

	// No change, no event.
	require.NoError(t, s.SetMany(map[string]any{"a": 1, "b": 20}))
	assert.Len(t, rec.changes, 2)
}

func TestPropertyStore_TwoHandlersSamePayload(t *testing.T) {
	s := NewPropertyStore()
	var order []string
	var payloads []Changes

	s.Bind(EventChange, func(args ...any) {
		order = append(order, "first")
		payloads = append(payloads, args[1].(Changes))
	})
	s.Bind(EventChange, func(args ...any) {
		order = append(order, "second")
		payloads = append(payloads, args[1].(Changes))
	})

	require.NoError(t, s.SetMany(map[string]any{"a": 1, "b": 2}))

	assert.Equal(t, []string{"first", "second"}, order)
	require.Len(t, payloads, 2)
	assert.Equal(t, Changes{"a": 1, "b": 2}, payloads[0])
	assert.Equal(t, payloads[0], payloads[1])
}

func TestPropertyStore_ReferenceIdentity(t *testing.T) {
	s := NewPropertyStore()
	rec := &changeRecorder{}
	s.Bind(EventChange, rec.handler)

	tags := []string{"x"}
	require.NoError(t, s.Set("tags", tags))
	require.NoError(t, s.Set("tags", tags))
	assert.Len(t, rec.changes, 1, "same slice is not a change")

	require.NoError(t, s.Set("tags", []string{"x"}))
	assert.Len(t, rec.changes, 2, "equal content in a new slice is a change")
}

type tagged struct {
	Label string
	Value any
}

func TestPropertyStore_StructHoldingSlice(t *testing.T) {
	s := NewPropertyStore()
	rec := &changeRecorder{}
	s.Bind(EventChange, rec.handler)

	v := tagged{Label: "tags", Value: []int{1}}
	require.NotPanics(t, func() {
		require.NoError(t, s.Set("k", v))
		require.NoError(t, s.Set("k", v))
	})
	assert.Len(t, rec.changes, 2, "values without a usable == always count as a change")

	require.NoError(t, s.Set("k", tagged{Label: "tags", Value: 1}))
	require.NoError(t, s.Set("k", tagged{Label: "tags", Value: 1}))
	assert.Len(t, rec.changes, 3, "comparable contents are compared by value")
}

func TestPropertyStore_AccessorDelegation(t *testing.T) {
	s := NewPropertyStore()
	rec := &changeRecorder{}
	s.Bind(EventChange, rec.handler)

	setterCalls := 0
	s.DefineAccessor("name", Accessor{
		Set: func(v any) error {
			setterCalls++
			s.SetProperty("name", v.(string)+"!")
			return nil
		},
	})

	require.NoError(t, s.SetMany(map[string]any{"name": "Amy", "age": 30}))
	assert.Equal(t, 1, setterCalls)
	assert.Equal(t, "Amy!", s.Get("name"))

	// The accessor's write joins the batch: one event with both names.
	require.Len(t, rec.changes, 1)
	assert.Equal(t, Changes{"name": "Amy!", "age": 30}, rec.changes[0])
}

func TestPropertyStore_SetPropertyOutsideBatch(t *testing.T) {
	s := NewPropertyStore()
	rec := &changeRecorder{}
	s.Bind(EventChange, rec.handler)

	s.SetProperty("a", 1)
	s.SetProperty("b", 2)

	require.Len(t, rec.changes, 2)
	assert.Equal(t, Changes{"a": 1}, rec.changes[0])
	assert.Equal(t, Changes{"b": 2}, rec.changes[1])
}

func TestPropertyStore_NestedBatch(t *testing.T) {
	s := NewPropertyStore()
	rec := &changeRecorder{}
	s.Bind(EventChange, rec.handler)

	s.DefineAccessor("full", Accessor{
		Set: func(v any) error {
			parts := v.([]string)
			return s.SetMany(map[string]any{"first": parts[0], "last": parts[1]})
		},
	})

	require.NoError(t, s.SetMany(map[string]any{"full": []string{"Ada", "Lovelace"}, "age": 36}))
	require.Len(t, rec.changes, 1)
	assert.Equal(t, Changes{"first": "Ada", "last": "Lovelace", "age": 36}, rec.changes[0])
}

func TestPropertyStore_AccessorGetterOwnsResult(t *testing.T) {
	s := NewPropertyStore()
	s.DefineAccessor("computed", Accessor{Get: func() any { return nil }})

	assert.Nil(t, s.Get("computed", "ignored"), "default is ignored when a getter exists")
}

func TestPropertyStore_SetterErrorsAreJoined(t *testing.T) {
	s := NewPropertyStore()
	rec := &changeRecorder{}
	s.Bind(EventChange, rec.handler)

	errBad := errors.New("bad value")
	s.DefineAccessor("bad", Accessor{Set: func(v any) error { return errBad }})

	err := s.SetMany(map[string]any{"bad": 1, "good": 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, errBad)

	require.Len(t, rec.changes, 1)
	assert.Equal(t, Changes{"good": 2}, rec.changes[0])
	assert.Nil(t, s.Get("bad"))
}

func TestPropertyStore_Options(t *testing.T) {
	owner := struct{ name string }{"owner"}
	s := NewPropertyStore(WithChangeEvent("custom"), WithSource(owner))

	var src any
	s.Bind("custom", func(args ...any) { src = args[0] })
	require.NoError(t, s.Set("x", 1))

	assert.Equal(t, "custom", s.ChangeEvent())
	assert.Equal(t, owner, src)
}

func TestPropertyStore_PropertiesIsACopy(t *testing.T) {
	s := NewPropertyStore()
	require.NoError(t, s.Set("a", 1))

	snapshot := s.Properties()
	snapshot["a"] = 99
	assert.Equal(t, 1, s.Get("a"))
}

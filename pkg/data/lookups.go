package data

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/aretw0/piewpiew/pkg/data/validators"
)

// LookupSeparator splits a filter key into field name and lookup suffix (age__gt).
const LookupSeparator = "__"

// DefaultLookup is the suffix used when a filter key carries none.
const DefaultLookup = "exact"

// Lookups maps filter keys ("name", "age__gt") to the criteria they are compared with.
type Lookups map[string]any

// LookupFunc compares a record's field value with the filter criteria.
type LookupFunc func(value, criteria any) bool

// FieldLookups is a dispatch table from lookup suffix to comparison function.
type FieldLookups struct {
	mu    sync.RWMutex
	funcs map[string]LookupFunc
}

// NewFieldLookups creates a table holding the built-in lookups.
func NewFieldLookups() *FieldLookups {
	return &FieldLookups{
		funcs: map[string]LookupFunc{
			"exact":      Equal,
			"iexact":     iexact,
			"contains":   contains,
			"icontains":  icontains,
			"startswith": startsWith,
			"endswith":   endsWith,
			"gt":         func(v, c any) bool { r, ok := compare(v, c); return ok && r > 0 },
			"gte":        func(v, c any) bool { r, ok := compare(v, c); return ok && r >= 0 },
			"lt":         func(v, c any) bool { r, ok := compare(v, c); return ok && r < 0 },
			"lte":        func(v, c any) bool { r, ok := compare(v, c); return ok && r <= 0 },
			"in":         in,
			"isnull":     isNull,
		},
	}
}

// DefaultLookups is the table used by managers that were not given their own.
var DefaultLookups = NewFieldLookups()

// Register adds or replaces the comparison for suffix.
func (l *FieldLookups) Register(suffix string, fn LookupFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.funcs[suffix] = fn
}

// Lookup returns the comparison registered for suffix.
func (l *FieldLookups) Lookup(suffix string) (LookupFunc, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn, ok := l.funcs[suffix]
	return fn, ok
}

// SplitLookup splits a filter key into field name and suffix, defaulting the
// suffix to DefaultLookup.
func SplitLookup(key string) (field, suffix string) {
	field, suffix, found := strings.Cut(key, LookupSeparator)
	if !found || suffix == "" {
		return field, DefaultLookup
	}
	return field, suffix
}

// Equal is a loose equality: numbers compare by value across Go types, and numeric
// strings compare equal to the number they spell.
func Equal(value, criteria any) bool {
	if value == nil || criteria == nil {
		return value == nil && criteria == nil
	}

	a, aNum := validators.ToFloat(value)
	b, bNum := validators.ToFloat(criteria)
	switch {
	case aNum && bNum:
		return a == b
	case aNum:
		if f, ok := validators.ParseFloat(criteria); ok {
			return a == f
		}
		return false
	case bNum:
		if f, ok := validators.ParseFloat(value); ok {
			return f == b
		}
		return false
	}

	if reflect.TypeOf(value) == reflect.TypeOf(criteria) && reflect.ValueOf(value).Comparable() {
		return value == criteria
	}
	return reflect.DeepEqual(value, criteria)
}

func iexact(value, criteria any) bool {
	s, ok := value.(string)
	return ok && strings.EqualFold(s, fmt.Sprint(criteria))
}

func contains(value, criteria any) bool {
	if s, ok := value.(string); ok {
		return strings.Contains(s, fmt.Sprint(criteria))
	}
	return in(criteria, value)
}

func icontains(value, criteria any) bool {
	s, ok := value.(string)
	return ok && strings.Contains(strings.ToLower(s), strings.ToLower(fmt.Sprint(criteria)))
}

func startsWith(value, criteria any) bool {
	s, ok := value.(string)
	return ok && strings.HasPrefix(s, fmt.Sprint(criteria))
}

func endsWith(value, criteria any) bool {
	s, ok := value.(string)
	return ok && strings.HasSuffix(s, fmt.Sprint(criteria))
}

// in reports whether value loosely equals any element of the slice or array criteria.
func in(value, criteria any) bool {
	rv := reflect.ValueOf(criteria)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if Equal(value, rv.Index(i).Interface()) {
			return true
		}
	}
	return false
}

func isNull(value, criteria any) bool {
	want, ok := criteria.(bool)
	if !ok {
		want = true
	}
	return (value == nil) == want
}

// compare orders numbers (including numeric strings) and strings.
func compare(value, criteria any) (int, bool) {
	a, aOK := validators.ParseFloat(value)
	b, bOK := validators.ParseFloat(criteria)
	if aOK && bOK {
		switch {
		case a < b:
			return -1, true
		case a > b:
			return 1, true
		}
		return 0, true
	}

	sa, aStr := value.(string)
	sb, bStr := criteria.(string)
	if aStr && bStr {
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

package data

import (
	"context"

	"github.com/aretw0/piewpiew/pkg/core"
)

// LoadResult is delivered to the callback of Adaptor.Load. Err is set on failure.
type LoadResult struct {
	Records []*Model
	Err     error
}

// SaveResult is delivered to the callback of Adaptor.Save. Err is set on failure.
type SaveResult struct {
	Record *Model
	Err    error
}

// Adaptor is the storage port a Manager persists through. Adhering to this interface
// keeps models independent of the storage mechanism (memory, filesystem, ...).
//
// Both operations report back exclusively through done, exactly once, success or
// failure; no error crosses the asynchronous boundary any other way.
type Adaptor interface {
	// Save persists m, assigning its identifier when it has none.
	Save(ctx context.Context, m *Model, done func(SaveResult))

	// Load fetches the records of t. filter is a hint a backend may use to narrow the
	// result; callers re-apply it, so ignoring it is always correct. The returned slice
	// must be a copy the caller is free to modify.
	Load(ctx context.Context, t *ModelType, filter Lookups, done func(LoadResult))
}

// Watchable is implemented by adaptors able to report external changes to records.
type Watchable interface {
	// Watch streams changes to records of t whose identifier matches pattern
	// (doublestar syntax). The channel closes when ctx ends.
	Watch(ctx context.Context, t *ModelType, pattern string) (<-chan core.Event, error)
}

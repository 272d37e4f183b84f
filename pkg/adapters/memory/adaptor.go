// Package memory is the reference storage adaptor: records live in process memory,
// grouped by model type, with no durability.
package memory

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/piewpiew/pkg/data"
)

// DefaultLatency is the artificial delay before loaded records are delivered.
const DefaultLatency = time.Millisecond

// Adaptor implements data.Adaptor in memory.
//
// Save completes synchronously. Load always completes on another goroutine, after
// the configured latency, with a copy of the type's record list; the records
// themselves are shared.
type Adaptor struct {
	mu      sync.RWMutex
	records map[string][]*data.Model
	nextID  map[string]int
	latency time.Duration
	logger  *slog.Logger
}

// Option configures an Adaptor.
type Option func(*Adaptor)

// WithLatency sets the delay applied to every Load. Zero still delivers asynchronously.
func WithLatency(d time.Duration) Option {
	return func(a *Adaptor) {
		a.latency = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adaptor) {
		a.logger = logger
	}
}

// New creates an empty in-memory adaptor.
func New(opts ...Option) *Adaptor {
	a := &Adaptor{
		records: make(map[string][]*data.Model),
		nextID:  make(map[string]int),
		latency: DefaultLatency,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	return a
}

// Save stores m. A record without an identifier receives the next zero-based
// identifier of its model type; a record that is already stored is left in place.
func (a *Adaptor) Save(ctx context.Context, m *data.Model, done func(data.SaveResult)) {
	if err := ctx.Err(); err != nil {
		done(data.SaveResult{Record: m, Err: err})
		return
	}

	typ := m.Type().Name()

	a.mu.Lock()
	if slices.Contains(a.records[typ], m) {
		a.mu.Unlock()
		done(data.SaveResult{Record: m})
		return
	}
	id, hasID := m.ID()
	if !hasID {
		id = a.nextID[typ]
	}
	if id >= a.nextID[typ] {
		a.nextID[typ] = id + 1
	}
	a.mu.Unlock()

	if !hasID {
		if err := m.Set(data.IDField, id); err != nil {
			done(data.SaveResult{Record: m, Err: err})
			return
		}
	}

	a.mu.Lock()
	if !slices.Contains(a.records[typ], m) {
		a.records[typ] = append(a.records[typ], m)
	}
	a.mu.Unlock()

	a.logger.Debug("record stored", "model", typ, "id", id)
	done(data.SaveResult{Record: m})
}

// Load delivers a copy of t's record list asynchronously. The filter hint is ignored.
func (a *Adaptor) Load(ctx context.Context, t *data.ModelType, _ data.Lookups, done func(data.LoadResult)) {
	a.mu.RLock()
	records := slices.Clone(a.records[t.Name()])
	a.mu.RUnlock()

	if records == nil {
		records = []*data.Model{}
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		timer := time.NewTimer(a.latency)
		defer timer.Stop()

		select {
		case <-timer.C:
			done(data.LoadResult{Records: records})
		case <-ctx.Done():
			done(data.LoadResult{Err: ctx.Err()})
		}
		return nil
	})
}

// Count returns the number of records stored for the named model type.
func (a *Adaptor) Count(model string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records[model])
}

// Reset drops every record and identifier counter.
func (a *Adaptor) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = make(map[string][]*data.Model)
	a.nextID = make(map[string]int)
}

var _ data.Adaptor = (*Adaptor)(nil)

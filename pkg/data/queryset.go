package data

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// operation is one queued step of a query. It receives the records produced by the
// previous step (or the load) together with any error so far, and returns the input
// of the next step.
type operation func(ctx context.Context, records []*Model, err error) ([]*Model, error)

// QuerySet is an ordered, single-use queue of deferred operations. Filters are
// queued while building; a terminal call (All, Each, Fetch) queues the final step,
// issues exactly one load, and drains the queue in FIFO order against the loaded
// records. Operations never run concurrently with each other.
//
// Once a terminal call has been made the query set is consumed: later terminal calls
// report ErrQueryConsumed and later filters are ignored.
type QuerySet struct {
	id            string
	manager       *Manager
	defaultFilter Lookups

	mu       sync.Mutex
	pending  []operation
	executed bool
}

func newQuerySet(m *Manager, defaultFilter Lookups) *QuerySet {
	return &QuerySet{
		id:            uuid.NewString(),
		manager:       m,
		defaultFilter: defaultFilter,
	}
}

// ID identifies the query set in logs.
func (q *QuerySet) ID() string { return q.id }

// Pending returns the number of queued operations.
func (q *QuerySet) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Filter queues an operation keeping the records that match any of the lookups.
// An empty Lookups keeps every record.
func (q *QuerySet) Filter(lookups Lookups) *QuerySet {
	q.enqueue(func(ctx context.Context, records []*Model, err error) ([]*Model, error) {
		if err != nil {
			return records, err
		}
		return q.filter(records, lookups)
	})
	return q
}

// All executes the query and hands the resulting records to fn. It returns
// immediately; fn runs exactly once, after the load and every queued operation.
func (q *QuerySet) All(ctx context.Context, fn func([]*Model, error)) {
	q.execute(ctx, func(ctx context.Context, records []*Model, err error) ([]*Model, error) {
		if err != nil {
			fn(nil, err)
			return nil, err
		}
		fn(records, nil)
		return records, nil
	})
}

// Each executes the query and calls fn for every resulting record, in order, then
// done with the outcome. done may be nil.
func (q *QuerySet) Each(ctx context.Context, fn func(*Model), done func(error)) {
	if done == nil {
		done = func(error) {}
	}
	q.execute(ctx, func(ctx context.Context, records []*Model, err error) ([]*Model, error) {
		if err != nil {
			done(err)
			return nil, err
		}
		for _, rec := range records {
			fn(rec)
		}
		done(nil)
		return records, nil
	})
}

// Fetch executes the query and blocks until its records are available. Use a context
// with a deadline to bound the wait.
func (q *QuerySet) Fetch(ctx context.Context) ([]*Model, error) {
	type result struct {
		records []*Model
		err     error
	}
	ch := make(chan result, 1)
	q.All(ctx, func(records []*Model, err error) {
		ch <- result{records, err}
	})
	res := <-ch
	return res.records, res.err
}

func (q *QuerySet) enqueue(op operation) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.executed {
		return
	}
	q.pending = append(q.pending, op)
}

// execute queues the terminal step, loads once and drains the queue. A load that
// never reports back is cut off when ctx (or the manager's query timeout) ends.
func (q *QuerySet) execute(ctx context.Context, terminal operation) {
	q.mu.Lock()
	if q.executed {
		q.mu.Unlock()
		_, _ = terminal(ctx, nil, ErrQueryConsumed)
		return
	}
	q.executed = true
	q.pending = append(q.pending, terminal)
	q.mu.Unlock()

	cancel := context.CancelFunc(func() {})
	if q.manager.queryTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, q.manager.queryTimeout)
	}

	var once sync.Once
	finished := make(chan struct{})
	deliver := func(res LoadResult) {
		// An adaptor answering its own cancellation reports the bare context error.
		if cerr := ctx.Err(); cerr != nil && res.Err != nil && !errors.Is(res.Err, ErrStalled) && errors.Is(res.Err, cerr) {
			res.Err = fmt.Errorf("%w: %w", ErrStalled, res.Err)
		}
		once.Do(func() {
			defer cancel()
			defer close(finished)
			q.drain(ctx, res.Records, res.Err)
		})
	}

	if ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				deliver(LoadResult{Err: fmt.Errorf("%w: %w", ErrStalled, ctx.Err())})
			case <-finished:
			}
		}()
	}

	q.manager.logger.Debug("query executing", "query", q.id, "operations", q.Pending())
	q.manager.Load(ctx, q.defaultFilter, deliver)
}

// drain runs the queued operations one after another.
func (q *QuerySet) drain(ctx context.Context, records []*Model, err error) {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			break
		}
		op := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		if err == nil && ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", ErrStalled, ctx.Err())
		}
		records, err = op(ctx, records, err)
	}

	if err != nil {
		q.manager.logger.Debug("query failed", "query", q.id, "error", err)
		return
	}
	q.manager.logger.Debug("query done", "query", q.id, "records", len(records))
}

func (q *QuerySet) filter(records []*Model, lookups Lookups) ([]*Model, error) {
	if len(lookups) == 0 {
		return records, nil
	}

	type criterion struct {
		field    string
		compare  LookupFunc
		criteria any
	}
	criteria := make([]criterion, 0, len(lookups))
	for key, value := range lookups {
		field, suffix := SplitLookup(key)
		fn, ok := q.manager.lookups.Lookup(suffix)
		if !ok {
			return nil, fmt.Errorf("%w: %q in %q", ErrUnknownLookup, suffix, key)
		}
		criteria = append(criteria, criterion{field: field, compare: fn, criteria: value})
	}

	out := make([]*Model, 0, len(records))
	for _, rec := range records {
		for _, c := range criteria {
			if c.compare(rec.Get(c.field), c.criteria) {
				out = append(out, rec)
				break
			}
		}
	}
	return out, nil
}

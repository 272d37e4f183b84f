package data_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/piewpiew/pkg/adapters/memory"
	"github.com/aretw0/piewpiew/pkg/data"
)

// countingAdaptor wraps another adaptor and counts loads.
type countingAdaptor struct {
	data.Adaptor
	loads atomic.Int32
}

func (a *countingAdaptor) Load(ctx context.Context, t *data.ModelType, filter data.Lookups, done func(data.LoadResult)) {
	a.loads.Add(1)
	a.Adaptor.Load(ctx, t, filter, done)
}

// stalledAdaptor never reports back from Load.
type stalledAdaptor struct{}

func (stalledAdaptor) Save(_ context.Context, m *data.Model, done func(data.SaveResult)) {
	done(data.SaveResult{Record: m})
}

func (stalledAdaptor) Load(context.Context, *data.ModelType, data.Lookups, func(data.LoadResult)) {}

type result struct {
	records []*data.Model
	err     error
}

func await(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for query")
		return result{}
	}
}

func collect(ch chan<- result) func([]*data.Model, error) {
	return func(records []*data.Model, err error) {
		ch <- result{records, err}
	}
}

func names(records []*data.Model) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Get("name").(string))
	}
	return out
}

func create(t *testing.T, typ *data.ModelType, values map[string]any) *data.Model {
	t.Helper()
	ch := make(chan *data.Model, 1)
	typ.Objects().Create(context.Background(), values, func(m *data.Model, err error) {
		require.NoError(t, err)
		ch <- m
	})
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for create")
		return nil
	}
}

func seed(t *testing.T, opts ...data.TypeOption) *data.ModelType {
	t.Helper()
	person := data.NewModelType("person", personFields(), opts...)
	for _, v := range []map[string]any{
		{"name": "Amy", "age": 31},
		{"name": "Bob", "age": 64},
		{"name": "Cid", "age": 12},
	} {
		create(t, person, v)
	}
	return person
}

func TestManager_Create(t *testing.T) {
	store := memory.New()
	person := data.NewModelType("person", personFields(), data.WithAdaptor(store))

	amy := create(t, person, map[string]any{"name": "Amy"})
	id, ok := amy.ID()
	require.True(t, ok)
	assert.Equal(t, 0, id)
	assert.Equal(t, "Amy", amy.Get("name"))

	bob := create(t, person, map[string]any{"name": "Bob"})
	id, _ = bob.ID()
	assert.Equal(t, 1, id)
	assert.Equal(t, 2, store.Count("person"))
}

func TestManager_CreateRejectsInvalidInstance(t *testing.T) {
	store := memory.New()
	person := data.NewModelType("person", personFields(), data.WithAdaptor(store))

	var gotErr error
	person.Objects().Create(context.Background(), map[string]any{"age": 3}, func(m *data.Model, err error) {
		assert.Nil(t, m)
		gotErr = err
	})
	assert.ErrorIs(t, gotErr, data.ErrValidation)

	person.Objects().Create(context.Background(), map[string]any{"name": "Toolong"}, func(m *data.Model, err error) {
		gotErr = err
	})
	assert.ErrorIs(t, gotErr, data.ErrValidation)
	assert.Equal(t, 0, store.Count("person"))
}

func TestManager_SaveRejectsForeignType(t *testing.T) {
	store := memory.New()
	person := data.NewModelType("person", personFields(), data.WithAdaptor(store))
	pet := data.NewModelType("pet", data.Fields{"name": data.String()}, data.WithAdaptor(store))

	rex, err := pet.New(map[string]any{"name": "Rex"})
	require.NoError(t, err)

	var got data.SaveResult
	person.Objects().Save(context.Background(), rex, func(res data.SaveResult) { got = res })
	assert.Error(t, got.Err)
	assert.Equal(t, 0, store.Count("pet"))
}

func TestQuerySet_FilterByName(t *testing.T) {
	person := seed(t, data.WithAdaptor(memory.New()))

	ch := make(chan result, 1)
	person.Objects().Filter(data.Lookups{"name": "Amy"}).All(context.Background(), collect(ch))

	res := await(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, []string{"Amy"}, names(res.records))
}

func TestQuerySet_ChainedFiltersNarrow(t *testing.T) {
	person := seed(t, data.WithAdaptor(memory.New()))

	ch := make(chan result, 1)
	person.Objects().
		Filter(data.Lookups{"age__gt": 20}).
		Filter(data.Lookups{"name__startswith": "B"}).
		All(context.Background(), collect(ch))

	res := await(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, []string{"Bob"}, names(res.records))
}

func TestQuerySet_KeysWithinOneFilterMatchAny(t *testing.T) {
	person := seed(t, data.WithAdaptor(memory.New()))

	ch := make(chan result, 1)
	person.Objects().
		Filter(data.Lookups{"name": "Amy", "age__lt": 18}).
		All(context.Background(), collect(ch))

	res := await(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, []string{"Amy", "Cid"}, names(res.records))
}

func TestQuerySet_EmptyFilterKeepsAll(t *testing.T) {
	person := seed(t, data.WithAdaptor(memory.New()))

	records, err := person.Objects().NewQuerySet().Filter(data.Lookups{}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Amy", "Bob", "Cid"}, names(records))
}

func TestQuerySet_UnknownLookup(t *testing.T) {
	person := seed(t, data.WithAdaptor(memory.New()))

	_, err := person.Objects().Filter(data.Lookups{"name__sounds_like": "Amy"}).Fetch(context.Background())
	assert.ErrorIs(t, err, data.ErrUnknownLookup)
}

func TestQuerySet_SingleLoadPerExecution(t *testing.T) {
	counter := &countingAdaptor{Adaptor: memory.New()}
	person := seed(t, data.WithAdaptor(counter))

	_, err := person.Objects().
		Filter(data.Lookups{"age__gte": 0}).
		Filter(data.Lookups{"name__contains": "m"}).
		Filter(data.Lookups{"name__icontains": "A"}).
		Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), counter.loads.Load())
	state := person.Objects().State().(data.ManagerState)
	assert.Equal(t, int64(1), state.Loads)
}

func TestQuerySet_OperationsRunInOrder(t *testing.T) {
	var (
		mu    sync.Mutex
		trace []string
	)
	lookups := data.NewFieldLookups()
	lookups.Register("trace", func(_, criteria any) bool {
		mu.Lock()
		defer mu.Unlock()
		trace = append(trace, criteria.(string))
		return true
	})

	store := memory.New(memory.WithLatency(30 * time.Millisecond))
	person := data.NewModelType("person", personFields(), data.WithAdaptor(store), data.WithLookups(lookups))
	create(t, person, map[string]any{"name": "Amy"})

	qs := person.Objects().NewQuerySet().
		Filter(data.Lookups{"name__trace": "first"}).
		Filter(data.Lookups{"name__trace": "second"})

	ch := make(chan result, 1)
	qs.All(context.Background(), func(records []*data.Model, err error) {
		mu.Lock()
		trace = append(trace, "terminal")
		mu.Unlock()
		ch <- result{records, err}
	})

	mu.Lock()
	assert.Empty(t, trace, "nothing runs before the load completes")
	mu.Unlock()

	res := await(t, ch)
	require.NoError(t, res.err)
	assert.Equal(t, []string{"first", "second", "terminal"}, trace)
	assert.Zero(t, qs.Pending())
}

func TestQuerySet_Each(t *testing.T) {
	person := seed(t, data.WithAdaptor(memory.New()))

	var seen []string
	done := make(chan error, 1)
	person.Objects().Filter(data.Lookups{"age__gt": 20}).Each(context.Background(), func(m *data.Model) {
		seen = append(seen, m.Get("name").(string))
	}, func(err error) { done <- err })

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for each")
	}
	assert.Equal(t, []string{"Amy", "Bob"}, seen)
}

func TestQuerySet_SecondExecutionIsConsumed(t *testing.T) {
	person := seed(t, data.WithAdaptor(memory.New()))
	qs := person.Objects().Filter(data.Lookups{"name": "Amy"})

	_, err := qs.Fetch(context.Background())
	require.NoError(t, err)

	_, err = qs.Fetch(context.Background())
	assert.ErrorIs(t, err, data.ErrQueryConsumed)

	var eachErr error
	qs.Each(context.Background(), func(*data.Model) { t.Fatal("must not iterate") }, func(err error) { eachErr = err })
	assert.ErrorIs(t, eachErr, data.ErrQueryConsumed)
}

func TestQuerySet_StalledLoadTimesOut(t *testing.T) {
	person := data.NewModelType("person", personFields(),
		data.WithAdaptor(stalledAdaptor{}),
		data.WithQueryTimeout(20*time.Millisecond),
	)

	var calls atomic.Int32
	ch := make(chan result, 2)
	person.Objects().All(context.Background(), func(records []*data.Model, err error) {
		calls.Add(1)
		ch <- result{records, err}
	})

	res := await(t, ch)
	assert.ErrorIs(t, res.err, data.ErrStalled)
	assert.ErrorIs(t, res.err, context.DeadlineExceeded)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestQuerySet_StalledLoadHonoursContext(t *testing.T) {
	person := data.NewModelType("person", personFields(), data.WithAdaptor(stalledAdaptor{}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := person.Objects().NewQuerySet().Fetch(ctx)
	assert.ErrorIs(t, err, data.ErrStalled)
}

func TestQuerySet_SlowMemoryLoadReportsStalled(t *testing.T) {
	slow := memory.New(memory.WithLatency(time.Hour))

	t.Run("context deadline", func(t *testing.T) {
		person := data.NewModelType("person", personFields(), data.WithAdaptor(slow))
		for i := 0; i < 50; i++ {
			ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
			_, err := person.Objects().NewQuerySet().Fetch(ctx)
			cancel()
			require.ErrorIs(t, err, data.ErrStalled)
			require.ErrorIs(t, err, context.DeadlineExceeded)
		}
	})

	t.Run("query timeout", func(t *testing.T) {
		person := data.NewModelType("person", personFields(),
			data.WithAdaptor(slow),
			data.WithQueryTimeout(time.Millisecond),
		)
		_, err := person.Objects().NewQuerySet().Fetch(context.Background())
		assert.ErrorIs(t, err, data.ErrStalled)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("cancellation", func(t *testing.T) {
		person := data.NewModelType("person", personFields(), data.WithAdaptor(slow))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := person.Objects().NewQuerySet().Fetch(ctx)
		assert.ErrorIs(t, err, data.ErrStalled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestQuerySet_NoAdaptor(t *testing.T) {
	person := data.NewModelType("person", personFields())

	_, err := person.Objects().NewQuerySet().Fetch(context.Background())
	assert.ErrorIs(t, err, data.ErrNoAdaptor)
}

func TestQuerySet_ID(t *testing.T) {
	person := data.NewModelType("person", personFields())
	a, b := person.Objects().NewQuerySet(), person.Objects().NewQuerySet()
	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestManager_WatchUnsupported(t *testing.T) {
	person := data.NewModelType("person", personFields(), data.WithAdaptor(memory.New()))
	_, err := person.Objects().Watch(context.Background(), "*")
	assert.ErrorIs(t, err, data.ErrNotWatchable)
}

func TestManager_State(t *testing.T) {
	person := seed(t, data.WithAdaptor(memory.New()), data.WithQueryTimeout(time.Second))
	_, err := person.Objects().NewQuerySet().Fetch(context.Background())
	require.NoError(t, err)

	state, ok := person.Objects().State().(data.ManagerState)
	require.True(t, ok)
	assert.Equal(t, "person", state.Model)
	assert.Equal(t, "memory-adaptor", state.AdaptorType)
	assert.Equal(t, "1s", state.QueryTimeout)
	assert.Equal(t, int64(3), state.Saves)
	assert.Equal(t, int64(1), state.Queries)
	assert.Equal(t, "manager", person.Objects().ComponentType())
}

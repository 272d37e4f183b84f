// Package lifecycle bridges record change streams into lifecycle sources.
package lifecycle

import (
	"context"
	"sync/atomic"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/piewpiew/pkg/core"
)

// Source re-emits the record change events of a watch stream as lifecycle events.
type Source struct {
	events <-chan core.Event
	out    chan lifecycle.Event
	only   map[core.EventType]bool

	forwarded atomic.Int64
	dropped   atomic.Int64
	running   atomic.Bool
}

// Option configures a Source.
type Option func(*Source)

// OnlyTypes keeps the events of the given types and drops the rest.
func OnlyTypes(types ...core.EventType) Option {
	return func(s *Source) {
		if len(types) == 0 {
			return
		}
		s.only = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.only[t] = true
		}
	}
}

// NewSource creates a Source reading from events. Its channel closes when events
// closes or the context given to Start ends.
func NewSource(events <-chan core.Event, opts ...Option) *Source {
	s := &Source{
		events: events,
		out:    make(chan lifecycle.Event),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events implements lifecycle.Source.
func (s *Source) Events() <-chan lifecycle.Event {
	return s.out
}

// Start implements lifecycle.Source. The forwarding loop runs under lifecycle.Go.
func (s *Source) Start(ctx context.Context) error {
	s.running.Store(true)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer s.running.Store(false)
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if s.only != nil && !s.only[e.Type] {
					s.dropped.Add(1)
					continue
				}
				select {
				case s.out <- e:
					s.forwarded.Add(1)
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}

// SourceState exposes internal state for observability.
type SourceState struct {
	Running   bool     `json:"running"`
	Only      []string `json:"only,omitempty"`
	Forwarded int64    `json:"forwarded"`
	Dropped   int64    `json:"dropped"`
}

// State implements introspection.Introspectable.
func (s *Source) State() any {
	state := SourceState{
		Running:   s.running.Load(),
		Forwarded: s.forwarded.Load(),
		Dropped:   s.dropped.Load(),
	}
	for _, t := range []core.EventType{core.EventCreate, core.EventModify, core.EventDelete} {
		if s.only[t] {
			state.Only = append(state.Only, string(t))
		}
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Source) ComponentType() string {
	return "watch-source"
}

var (
	_ lifecycle.Source             = (*Source)(nil)
	_ introspection.Introspectable = (*Source)(nil)
	_ introspection.Component      = (*Source)(nil)
)

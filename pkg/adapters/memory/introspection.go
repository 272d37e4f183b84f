package memory

import (
	"github.com/aretw0/introspection"
)

// AdaptorState exposes internal state for observability.
type AdaptorState struct {
	Latency string         `json:"latency"`
	Records map[string]int `json:"records"`
	NextIDs map[string]int `json:"next_ids"`
}

// State implements introspection.Introspectable.
func (a *Adaptor) State() any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	records := make(map[string]int, len(a.records))
	for typ, list := range a.records {
		records[typ] = len(list)
	}
	next := make(map[string]int, len(a.nextID))
	for typ, id := range a.nextID {
		next[typ] = id
	}

	return AdaptorState{
		Latency: a.latency.String(),
		Records: records,
		NextIDs: next,
	}
}

// ComponentType implements introspection.Component.
func (a *Adaptor) ComponentType() string {
	return "memory-adaptor"
}

var _ introspection.Introspectable = (*Adaptor)(nil)
var _ introspection.Component = (*Adaptor)(nil)

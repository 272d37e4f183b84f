package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// AdaptorState exposes internal state for observability.
type AdaptorState struct {
	Path        string         `json:"path"`
	SystemDir   string         `json:"system_dir"`
	Format      string         `json:"format"`
	ReadOnly    bool           `json:"read_only"`
	Strict      bool           `json:"strict"`
	Concurrency int            `json:"concurrency"`
	Serializers []string       `json:"serializers"`
	Counters    map[string]int `json:"counters"`
	Watchers    int            `json:"watchers"`
	LastLoad    *time.Time     `json:"last_load,omitempty"`
}

// State implements introspection.Introspectable.
func (a *Adaptor) State() any {
	a.mu.Lock()
	defer a.mu.Unlock()

	serializers := make([]string, 0, len(a.serializers))
	for ext := range a.serializers {
		serializers = append(serializers, ext)
	}

	return AdaptorState{
		Path:        a.Path,
		SystemDir:   a.config.SystemDir,
		Format:      a.ext[1:],
		ReadOnly:    a.config.ReadOnly,
		Strict:      a.config.Strict,
		Concurrency: a.config.Concurrency,
		Serializers: serializers,
		Counters:    a.index.Snapshot(),
		Watchers:    a.watchers,
		LastLoad:    a.lastLoad,
	}
}

// ComponentType implements introspection.Component.
func (a *Adaptor) ComponentType() string {
	return "fs-adaptor"
}

var _ introspection.Introspectable = (*Adaptor)(nil)
var _ introspection.Component = (*Adaptor)(nil)

func (a *Adaptor) setWatching(delta int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.watchers += delta
}

package data

import (
	"github.com/aretw0/introspection"
)

// ManagerState exposes internal state for observability.
type ManagerState struct {
	Model        string   `json:"model"`
	Fields       []string `json:"fields"`
	AdaptorType  string   `json:"adaptor_type"`
	QueryTimeout string   `json:"query_timeout,omitempty"`
	Queries      int64    `json:"queries"`
	Loads        int64    `json:"loads"`
	Saves        int64    `json:"saves"`
}

// State implements introspection.Introspectable.
func (m *Manager) State() any {
	adaptorType := "none"
	if m.adaptor != nil {
		adaptorType = "adaptor"
		if comp, ok := m.adaptor.(introspection.Component); ok {
			adaptorType = comp.ComponentType()
		}
	}

	state := ManagerState{
		Model:       m.typ.name,
		Fields:      m.typ.FieldNames(),
		AdaptorType: adaptorType,
		Queries:     m.queries.Load(),
		Loads:       m.loads.Load(),
		Saves:       m.saves.Load(),
	}
	if m.queryTimeout > 0 {
		state.QueryTimeout = m.queryTimeout.String()
	}
	return state
}

// ComponentType implements introspection.Component.
func (m *Manager) ComponentType() string {
	return "manager"
}

var _ introspection.Introspectable = (*Manager)(nil)
var _ introspection.Component = (*Manager)(nil)

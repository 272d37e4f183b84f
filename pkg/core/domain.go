// Package core holds the reactive building blocks shared by every layer:
// the event dispatcher, the batched property store and the record change
// events emitted by watchable storage backends.
package core

import "fmt"

// EventType represents the type of change observed on a stored record.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a stored record, as reported by a watchable backend.
type Event struct {
	Type      EventType
	Model     string // model type name
	ID        string // record identifier within the model type
	Timestamp int64  // Unix timestamp
}

// String implements lifecycle.Event.
func (e Event) String() string {
	return fmt.Sprintf("%s %s/%s", e.Type, e.Model, e.ID)
}

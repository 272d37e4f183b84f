package core

import "sync"

// Handler receives the arguments passed to Trigger.
type Handler func(args ...any)

// Binding identifies one registration of a handler made by Bind.
// The same function bound twice yields two distinct bindings.
type Binding struct {
	event string
	id    uint64
}

// Event returns the event name the binding was made for.
func (b Binding) Event() string {
	return b.event
}

type registration struct {
	id      uint64
	handler Handler
}

// Dispatcher is a per-instance registry of named events and their ordered handlers.
// The zero value is ready to use.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]registration
	nextID   uint64
}

// NewDispatcher creates an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Bind appends handler to the list for event. No duplicate detection is performed:
// a handler bound n times fires n times per Trigger.
func (d *Dispatcher) Bind(event string, handler Handler) Binding {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handlers == nil {
		d.handlers = make(map[string][]registration)
	}
	d.nextID++
	d.handlers[event] = append(d.handlers[event], registration{id: d.nextID, handler: handler})
	return Binding{event: event, id: d.nextID}
}

// Unbind removes the single registration identified by b.
// It reports whether a registration was removed.
func (d *Dispatcher) Unbind(b Binding) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := d.handlers[b.event]
	for i := len(list) - 1; i > -1; i-- {
		if list[i].id == b.id {
			d.handlers[b.event] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// UnbindEvent clears every handler bound to event.
func (d *Dispatcher) UnbindEvent(event string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.handlers, event)
}

// UnbindAll clears every handler of every event.
func (d *Dispatcher) UnbindAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = nil
}

// Handlers returns the number of handlers currently bound to event.
func (d *Dispatcher) Handlers(event string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[event])
}

// Trigger synchronously invokes every handler bound to event, in binding order.
// The handler list is captured when Trigger starts, so bindings made by a handler
// take effect on the next dispatch. A panicking handler aborts the dispatch and the
// panic propagates to the caller.
func (d *Dispatcher) Trigger(event string, args ...any) {
	d.mu.RLock()
	list := d.handlers[event]
	snapshot := make([]Handler, len(list))
	for i, r := range list {
		snapshot[i] = r.handler
	}
	d.mu.RUnlock()

	for _, h := range snapshot {
		h(args...)
	}
}

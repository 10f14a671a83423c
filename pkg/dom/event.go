package dom

import "sort"

// ListenerID identifies one listener registration on one element.
type ListenerID uint64

// Handler handles a dispatched event.
type Handler func(ev *Event)

// Event is delivered to listeners of the target and its ancestors.
type Event struct {
	// Type is the event name, e.g. "click" or "submit".
	Type string

	// Target is the element the event was dispatched on.
	Target *Element

	// CurrentTarget is the element whose listener is running.
	CurrentTarget *Element

	// Detail carries event-specific data, e.g. the key for "keyup".
	Detail map[string]string

	stopped   bool
	prevented bool
}

// NewEvent creates an event of the given type.
func NewEvent(typ string) *Event {
	return &Event{Type: typ}
}

// StopPropagation prevents delivery to further ancestors. Remaining
// listeners on the current element still run.
func (ev *Event) StopPropagation() { ev.stopped = true }

// PreventDefault marks the event as handled.
func (ev *Event) PreventDefault() { ev.prevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (ev *Event) DefaultPrevented() bool { return ev.prevented }

// AddEventListener registers h for event on e and returns the
// registration's identity.
func (e *Element) AddEventListener(event string, h Handler) ListenerID {
	e.doc.nextID++
	id := e.doc.nextID
	if e.listeners == nil {
		e.listeners = make(map[string][]listener)
	}
	e.listeners[event] = append(e.listeners[event], listener{id: id, fn: h})
	e.doc.listeners++
	return id
}

// RemoveEventListener removes the registration with the given id.
// It reports whether anything was removed.
func (e *Element) RemoveEventListener(event string, id ListenerID) bool {
	list := e.listeners[event]
	for i, l := range list {
		if l.id == id {
			e.listeners[event] = append(list[:i:i], list[i+1:]...)
			if len(e.listeners[event]) == 0 {
				delete(e.listeners, event)
			}
			e.doc.listeners--
			return true
		}
	}
	return false
}

// ListenerCount returns the number of listeners for event on e. An empty
// event counts every listener on e.
func (e *Element) ListenerCount(event string) int {
	if event != "" {
		return len(e.listeners[event])
	}
	n := 0
	for _, l := range e.listeners {
		n += len(l)
	}
	return n
}

// Events returns the event names with listeners on e, sorted.
func (e *Element) Events() []string {
	names := make([]string, 0, len(e.listeners))
	for name := range e.listeners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch delivers ev to e and then to each ancestor. Listeners added
// during delivery do not see the event; listeners removed during delivery
// are skipped.
func (e *Element) Dispatch(ev *Event) {
	if ev.Target == nil {
		ev.Target = e
	}
	for n := e; n != nil; n = n.parent {
		n.deliver(ev)
		if ev.stopped {
			return
		}
	}
}

func (e *Element) deliver(ev *Event) {
	snapshot := append([]listener(nil), e.listeners[ev.Type]...)
	for _, l := range snapshot {
		if !e.hasListener(ev.Type, l.id) {
			continue
		}
		ev.CurrentTarget = e
		l.fn(ev)
	}
}

func (e *Element) hasListener(event string, id ListenerID) bool {
	for _, l := range e.listeners[event] {
		if l.id == id {
			return true
		}
	}
	return false
}

// Click dispatches a "click" event on e.
func (e *Element) Click() *Event {
	ev := NewEvent("click")
	e.Dispatch(ev)
	return ev
}

// Submit dispatches a "submit" event on e.
func (e *Element) Submit() *Event {
	ev := NewEvent("submit")
	e.Dispatch(ev)
	return ev
}

// Input sets the value of e and dispatches an "input" event.
func (e *Element) Input(value string) *Event {
	e.SetValue(value)
	ev := NewEvent("input")
	e.Dispatch(ev)
	return ev
}

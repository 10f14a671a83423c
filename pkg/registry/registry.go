// Package registry tracks event listener registrations so that an owner
// can remove each one exactly once.
//
// Controllers and components embed a Registry. Every listener they add
// goes through Add, which keeps the exact handler identity returned by
// the element. Release removes everything that is still registered; a
// registration removed individually with Remove is not removed again.
package registry

import (
	"errors"

	"github.com/eventum-app/eventum/pkg/dom"
)

// Errors returned by Add.
var (
	ErrNilTarget  = errors.New("registry: nil target")
	ErrNilHandler = errors.New("registry: nil handler")
	ErrEmptyEvent = errors.New("registry: empty event name")
)

// Registration is one listener added through a Registry.
type Registration struct {
	Target *dom.Element
	Event  string
	ID     dom.ListenerID
}

// Valid reports whether r refers to an actual registration.
func (r Registration) Valid() bool {
	return r.Target != nil && r.ID != 0
}

// Registry is an ordered set of registrations. It is not safe for
// concurrent use; owners touch it from the loop goroutine only.
type Registry struct {
	entries []Registration
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Add attaches h to target for event and records the registration.
func (r *Registry) Add(target *dom.Element, event string, h dom.Handler) (Registration, error) {
	switch {
	case target == nil:
		return Registration{}, ErrNilTarget
	case h == nil:
		return Registration{}, ErrNilHandler
	case event == "":
		return Registration{}, ErrEmptyEvent
	}
	reg := Registration{
		Target: target,
		Event:  event,
		ID:     target.AddEventListener(event, h),
	}
	r.entries = append(r.entries, reg)
	return reg, nil
}

// Remove detaches a single registration. It reports false when reg was
// not tracked by r or was already removed.
func (r *Registry) Remove(reg Registration) bool {
	for i, e := range r.entries {
		if e == reg {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			e.Target.RemoveEventListener(e.Event, e.ID)
			return true
		}
	}
	return false
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Registrations returns a copy of the live registrations in the order
// they were added.
func (r *Registry) Registrations() []Registration {
	out := make([]Registration, len(r.entries))
	copy(out, r.entries)
	return out
}

// Release removes every live registration, most recent first, and
// returns how many were removed. The registry stays usable.
func (r *Registry) Release() int {
	n := len(r.entries)
	for i := n - 1; i >= 0; i-- {
		e := r.entries[i]
		e.Target.RemoveEventListener(e.Event, e.ID)
	}
	r.entries = nil
	return n
}

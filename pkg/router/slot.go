package router

import "github.com/eventum-app/eventum/pkg/controller"

// ActiveSlot holds at most one live controller.
type ActiveSlot struct {
	current   controller.Controller
	destroyed int
}

// Current returns the live controller, or nil.
func (s *ActiveSlot) Current() controller.Controller {
	return s.current
}

// Destroyed returns how many controllers the slot has torn down.
func (s *ActiveSlot) Destroyed() int {
	return s.destroyed
}

// Clear destroys the occupant, if any.
func (s *ActiveSlot) Clear() {
	if s.current == nil {
		return
	}
	prev := s.current
	s.current = nil
	prev.Destructor()
	s.destroyed++
}

// Replace destroys the occupant and only then calls build, installing
// what it returns. build must not return nil.
func (s *ActiveSlot) Replace(build func() controller.Controller) controller.Controller {
	s.Clear()
	s.current = build()
	return s.current
}

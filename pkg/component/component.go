package component

import (
	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/registry"
	"github.com/eventum-app/eventum/pkg/vdom"
)

// Component is the capability set the runtime drives.
type Component interface {
	// BeforeRender shapes input data. It must not touch the document.
	BeforeRender() error

	// Render applies the template and inserts the result into parent.
	Render(parent *dom.Element, pos dom.Position) error

	// DidRender runs once the subtree is in place. Element lookups,
	// nested children, and async enrichment belong here.
	DidRender() error

	// Destructor detaches the subtree and releases everything the
	// component registered. It is safe to call more than once.
	Destructor()
}

// Phase is a component's lifecycle position.
type Phase uint8

const (
	Idle Phase = iota
	Rendered
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Rendered:
		return "rendered"
	default:
		return "unknown"
	}
}

// Mount runs BeforeRender, Render, and DidRender in order. If BeforeRender
// or Render fails nothing stays mounted. If DidRender fails the component
// is destroyed before the error is returned.
func Mount(c Component, parent *dom.Element, pos dom.Position) error {
	if err := c.BeforeRender(); err != nil {
		return err
	}
	if err := c.Render(parent, pos); err != nil {
		return err
	}
	if err := c.DidRender(); err != nil {
		c.Destructor()
		return err
	}
	return nil
}

// Base implements Component for a template over data of type T.
// The zero value needs Init before use.
type Base[T any] struct {
	template vdom.Template[T]
	data     T

	phase    Phase
	roots    []*dom.Element
	cache    map[string]*dom.Element
	events   registry.Registry
	children []Component

	// generation changes on every Render and Destructor so that async
	// work started for one rendering can tell it is stale.
	generation uint64
	resolves   int
}

// New returns a standalone component for tmpl and data.
func New[T any](tmpl vdom.Template[T], data T) *Base[T] {
	b := &Base[T]{}
	b.Init(tmpl, data)
	return b
}

// Init sets the template and data of an embedded Base.
func (b *Base[T]) Init(tmpl vdom.Template[T], data T) {
	b.template = tmpl
	b.data = data
}

// Data returns the current data.
func (b *Base[T]) Data() T { return b.data }

// SetData replaces the data used by the next Render.
func (b *Base[T]) SetData(data T) { b.data = data }

// Phase returns the lifecycle phase.
func (b *Base[T]) Phase() Phase { return b.phase }

// Rendered reports whether the component is in the document.
func (b *Base[T]) Rendered() bool { return b.phase == Rendered }

// Roots returns the top-level nodes produced by the last Render.
func (b *Base[T]) Roots() []*dom.Element {
	out := make([]*dom.Element, len(b.roots))
	copy(out, b.roots)
	return out
}

// Root returns the first element root, or nil.
func (b *Base[T]) Root() *dom.Element {
	for _, r := range b.roots {
		if r.Kind() == dom.ElementNode {
			return r
		}
	}
	return nil
}

// BeforeRender does nothing by default.
func (b *Base[T]) BeforeRender() error { return nil }

// DidRender does nothing by default.
func (b *Base[T]) DidRender() error { return nil }

// Render applies the template to the current data and inserts the result
// at pos. Rendering twice without Destructor returns ErrAlreadyRendered.
func (b *Base[T]) Render(parent *dom.Element, pos dom.Position) error {
	switch {
	case b.phase == Rendered:
		return ErrAlreadyRendered
	case parent == nil:
		return ErrNilParent
	case b.template == nil:
		return ErrNoTemplate
	}

	roots, err := parent.Mount(b.template(b.data), pos)
	if err != nil {
		return err
	}
	b.roots = roots
	b.cache = make(map[string]*dom.Element)
	b.phase = Rendered
	b.generation++
	return nil
}

// Destructor destroys children, releases listeners, detaches the
// subtree, and clears the cache. The component returns to Idle.
func (b *Base[T]) Destructor() {
	for i := len(b.children) - 1; i >= 0; i-- {
		b.children[i].Destructor()
	}
	b.children = nil
	b.events.Release()
	for _, r := range b.roots {
		r.Remove()
	}
	b.roots = nil
	b.cache = nil
	if b.phase == Rendered {
		b.generation++
	}
	b.phase = Idle
}

// Element returns the element bound to name inside the component. The
// first call searches the subtree; later calls return the cached
// reference as long as it is still inside the component.
func (b *Base[T]) Element(name string) (*dom.Element, error) {
	if b.phase != Rendered {
		return nil, &ElementError{Name: name, Err: ErrNotRendered}
	}
	if el, ok := b.cache[name]; ok && b.owns(el) {
		return el, nil
	}
	b.resolves++
	for _, r := range b.roots {
		if el := r.QueryBind(name); el != nil {
			b.cache[name] = el
			return el, nil
		}
	}
	delete(b.cache, name)
	return nil, &ElementError{Name: name, Err: ErrElementNotFound}
}

// Elements returns every element bound to name. The result is not cached.
func (b *Base[T]) Elements(name string) ([]*dom.Element, error) {
	if b.phase != Rendered {
		return nil, &ElementError{Name: name, Err: ErrNotRendered}
	}
	var out []*dom.Element
	for _, r := range b.roots {
		out = append(out, r.QueryAllAttr(vdom.BindAttr, name)...)
	}
	return out, nil
}

func (b *Base[T]) owns(el *dom.Element) bool {
	for _, r := range b.roots {
		if r.Contains(el) {
			return true
		}
	}
	return false
}

// AddEventHandler attaches h to target. The listener is removed by
// Destructor.
func (b *Base[T]) AddEventHandler(target *dom.Element, event string, h dom.Handler) (registry.Registration, error) {
	return b.events.Add(target, event, h)
}

// RemoveEventHandler removes one listener added with AddEventHandler.
func (b *Base[T]) RemoveEventHandler(reg registry.Registration) bool {
	return b.events.Remove(reg)
}

// HandlerCount returns the number of listeners the component holds.
func (b *Base[T]) HandlerCount() int {
	return b.events.Len()
}

// Attach mounts child inside the element bound to name. The child is
// destroyed together with b.
func (b *Base[T]) Attach(child Component, name string, pos dom.Position) error {
	el, err := b.Element(name)
	if err != nil {
		return err
	}
	if err := Mount(child, el, pos); err != nil {
		return err
	}
	b.children = append(b.children, child)
	return nil
}

// Children returns the attached children.
func (b *Base[T]) Children() []Component {
	out := make([]Component, len(b.children))
	copy(out, b.children)
	return out
}

// Guard returns a function that reports whether the rendering current at
// the time of the call is still in the document. Async continuations
// check it before touching cached elements.
func (b *Base[T]) Guard() func() bool {
	gen := b.generation
	rendered := b.phase == Rendered
	return func() bool {
		return rendered && b.phase == Rendered && b.generation == gen
	}
}

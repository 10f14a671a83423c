package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/eventum-app/eventum/pkg/component"
	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/loop"
	"github.com/eventum-app/eventum/pkg/registry"
	"github.com/eventum-app/eventum/pkg/vdom"
)

// Controller is what the router constructs and destroys.
type Controller interface {
	// Action activates the controller: fetch data, render, install
	// handlers. Implementations call Base.Activate first.
	Action(ctx context.Context) error

	// Destructor releases everything the controller acquired. It is
	// idempotent and safe to call before Action has finished.
	Destructor()
}

// Navigator is the part of the router a controller may drive.
type Navigator interface {
	RedirectForward(ctx context.Context, path string) error
	Back(ctx context.Context) error
}

// Observer receives lifecycle counts. The metrics package implements it.
type Observer interface {
	HandlersReleased(n int)
	StaleDropped()
}

// Env is what a controller needs from the application.
type Env struct {
	// Container is the element the screen renders into.
	Container *dom.Element

	// Loop runs continuations. Required for Await and Go.
	Loop *loop.Loop

	// Nav performs redirects. May be nil in tests.
	Nav Navigator

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Observer may be nil.
	Observer Observer
}

// State is a controller's lifecycle position.
type State uint8

const (
	Constructed State = iota
	Active
	Destroyed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Active:
		return "active"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Scope reports whether the controller that handed it out is still
// alive. It is safe to call from any goroutine.
type Scope struct {
	alive atomic.Bool
}

// Alive reports whether the owner has not been destroyed.
func (s *Scope) Alive() bool {
	return s != nil && s.alive.Load()
}

// Base implements the controller state machine and resource ownership.
// Embed it and call Init from the constructor.
type Base struct {
	env    Env
	state  State
	scope  *Scope
	ctx    context.Context
	cancel context.CancelFunc

	events     registry.Registry
	components []component.Component
	cleanups   []func()
}

// Init prepares b. It must be called before any other method.
func (b *Base) Init(env Env) {
	if env.Logger == nil {
		env.Logger = slog.Default()
	}
	b.env = env
	b.state = Constructed
	b.scope = &Scope{}
	b.scope.alive.Store(true)
	b.ctx, b.cancel = context.WithCancel(context.Background())
}

// Activate moves b from Constructed to Active.
func (b *Base) Activate() error {
	switch b.state {
	case Active:
		return ErrAlreadyActive
	case Destroyed:
		return ErrDestroyed
	}
	b.state = Active
	return nil
}

// State returns the lifecycle state.
func (b *Base) State() State { return b.state }

// Env returns the environment passed to Init.
func (b *Base) Env() Env { return b.env }

// Container returns the element the screen renders into.
func (b *Base) Container() *dom.Element { return b.env.Container }

// Logger returns the controller's logger.
func (b *Base) Logger() *slog.Logger { return b.env.Logger }

// Context is cancelled when the controller is destroyed.
func (b *Base) Context() context.Context { return b.ctx }

// Scope returns the liveness flag async work checks.
func (b *Base) Scope() *Scope { return b.scope }

// Alive reports whether b has not been destroyed.
func (b *Base) Alive() bool { return b.scope.Alive() }

// AddEventHandler attaches h to target and records the registration.
func (b *Base) AddEventHandler(target *dom.Element, event string, h dom.Handler) (registry.Registration, error) {
	if b.state == Destroyed {
		return registry.Registration{}, ErrDestroyed
	}
	return b.events.Add(target, event, h)
}

// RemoveEventHandler removes one registration.
func (b *Base) RemoveEventHandler(reg registry.Registration) bool {
	return b.events.Remove(reg)
}

// HandlerCount returns the number of live registrations.
func (b *Base) HandlerCount() int {
	return b.events.Len()
}

// Binding maps elements selected by an attribute to event handlers.
type Binding struct {
	// Attr is the attribute to select on, vdom.BindAttr by default.
	Attr string

	// Value restricts the match to one attribute value. Empty matches
	// any element carrying Attr.
	Value string

	// All attaches to every match instead of the first.
	All bool

	// Events maps event names to handlers.
	Events map[string]dom.Handler

	// Required turns zero matches into ErrRequiredBinding.
	Required bool
}

// On is a Binding for the element bound to name.
func On(name string, events map[string]dom.Handler) Binding {
	return Binding{Attr: vdom.BindAttr, Value: name, Events: events}
}

// InitHandlers resolves every binding against the container and attaches
// its handlers. A binding that matches nothing is skipped unless it is
// Required. It returns the number of registrations made; on error the
// registrations made so far stay and are released by Destructor.
func (b *Base) InitHandlers(bindings ...Binding) (int, error) {
	if b.state == Destroyed {
		return 0, ErrDestroyed
	}
	root := b.env.Container
	if root == nil {
		return 0, fmt.Errorf("controller: init handlers: %w", component.ErrNilParent)
	}

	n := 0
	for _, bind := range bindings {
		attr := bind.Attr
		if attr == "" {
			attr = vdom.BindAttr
		}

		var targets []*dom.Element
		if bind.All {
			targets = root.QueryAllAttr(attr, bind.Value)
		} else if el := root.QueryAttr(attr, bind.Value); el != nil {
			targets = []*dom.Element{el}
		}

		if len(targets) == 0 {
			if bind.Required {
				return n, fmt.Errorf("%w: [%s=%q]", ErrRequiredBinding, attr, bind.Value)
			}
			b.env.Logger.Debug("binding matched no element", "attr", attr, "value", bind.Value)
			continue
		}

		events := make([]string, 0, len(bind.Events))
		for ev := range bind.Events {
			events = append(events, ev)
		}
		sort.Strings(events)

		for _, target := range targets {
			for _, ev := range events {
				if _, err := b.events.Add(target, ev, bind.Events[ev]); err != nil {
					return n, fmt.Errorf("controller: bind %s on %v: %w", ev, target, err)
				}
				n++
			}
		}
	}
	return n, nil
}

// Mount mounts c into parent and destroys it with the controller.
func (b *Base) Mount(c component.Component, parent *dom.Element, pos dom.Position) error {
	if b.state == Destroyed {
		return ErrDestroyed
	}
	if err := component.Mount(c, parent, pos); err != nil {
		return err
	}
	b.components = append(b.components, c)
	return nil
}

// Unmount destroys c and stops owning it. It reports whether c was
// mounted through b.
func (b *Base) Unmount(c component.Component) bool {
	for i, owned := range b.components {
		if owned == c {
			b.components = append(b.components[:i], b.components[i+1:]...)
			c.Destructor()
			return true
		}
	}
	return false
}

// ComponentCount returns the number of components b owns.
func (b *Base) ComponentCount() int {
	return len(b.components)
}

// Show replaces the container's content with node.
func (b *Base) Show(node *vdom.VNode) ([]*dom.Element, error) {
	if b.state == Destroyed {
		return nil, ErrDestroyed
	}
	return component.NewView(b.env.Container).Show(node)
}

// OnCleanup registers fn to run on destruction, most recent first.
func (b *Base) OnCleanup(fn func()) {
	if b.state == Destroyed {
		fn()
		return
	}
	b.cleanups = append(b.cleanups, fn)
}

// Own closes c on destruction, or at once if b is already destroyed.
// Realtime sessions are handed over this way.
func (b *Base) Own(c io.Closer) {
	b.OnCleanup(func() {
		if err := c.Close(); err != nil {
			b.env.Logger.Debug("close owned resource", "error", err)
		}
	})
}

// Destructor marks the scope dead, cancels the context, releases every
// listener, runs cleanups, destroys owned components, and clears the
// container. Calls after the first do nothing.
func (b *Base) Destructor() {
	if b.state == Destroyed {
		return
	}
	b.state = Destroyed
	if b.scope != nil {
		b.scope.alive.Store(false)
	}
	if b.cancel != nil {
		b.cancel()
	}

	released := b.events.Release()
	if b.env.Observer != nil {
		b.env.Observer.HandlersReleased(released)
	}

	for i := len(b.cleanups) - 1; i >= 0; i-- {
		b.cleanups[i]()
	}
	b.cleanups = nil

	for i := len(b.components) - 1; i >= 0; i-- {
		b.components[i].Destructor()
	}
	b.components = nil

	if b.env.Container != nil {
		b.env.Container.Clear()
	}
}

// Await runs work off the loop and delivers its result to then on the
// loop, but only while b is alive. Stale results are dropped.
func Await[T any](b *Base, work func(ctx context.Context) (T, error), then func(T, error)) {
	scope, ctx := b.scope, b.ctx
	loop.Await(b.env.Loop, func() (T, error) {
		return work(ctx)
	}, func(v T, err error) {
		if !scope.Alive() {
			b.dropStale()
			return
		}
		then(v, err)
	})
}

// Go runs fn off the loop. Use Dispatch from inside fn to get back.
func (b *Base) Go(fn func(ctx context.Context)) {
	ctx := b.ctx
	b.env.Loop.Go(func() { fn(ctx) })
}

// Dispatch queues fn on the loop, dropping it if b is destroyed by the
// time it runs.
func (b *Base) Dispatch(fn func()) {
	scope := b.scope
	b.env.Loop.Dispatch(func() {
		if !scope.Alive() {
			b.dropStale()
			return
		}
		fn()
	})
}

func (b *Base) dropStale() {
	b.env.Logger.Debug("dropping stale continuation")
	if b.env.Observer != nil {
		b.env.Observer.StaleDropped()
	}
}

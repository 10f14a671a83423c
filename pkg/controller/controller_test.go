package controller

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/eventum-app/eventum/pkg/component"
	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/loop"
	"github.com/eventum-app/eventum/pkg/vdom"
)

type counter struct {
	released int
	stale    int
}

func (c *counter) HandlersReleased(n int) { c.released += n }
func (c *counter) StaleDropped()          { c.stale++ }

func newEnv(t *testing.T) (Env, *dom.Document, *counter) {
	t.Helper()
	doc := dom.NewDocument()
	obs := &counter{}
	return Env{
		Container: doc.Body(),
		Loop:      loop.New(loop.WithLogger(quietLogger())),
		Logger:    quietLogger(),
		Observer:  obs,
	}, doc, obs
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type screen struct {
	Base
	clicks int
}

func (s *screen) Action(ctx context.Context) error {
	if err := s.Activate(); err != nil {
		return err
	}
	if _, err := s.Show(vdom.Div(
		vdom.Button(vdom.Bind("save"), "save"),
		vdom.Span(vdom.Data("tag", "go"), "go"),
		vdom.Span(vdom.Data("tag", "rust"), "rust"),
	)); err != nil {
		return err
	}
	_, err := s.InitHandlers(
		On("save", map[string]dom.Handler{"click": func(*dom.Event) { s.clicks++ }}),
		Binding{Attr: "data-tag", All: true, Events: map[string]dom.Handler{
			"click":     func(*dom.Event) { s.clicks++ },
			"mouseover": func(*dom.Event) {},
		}},
		On("optional", map[string]dom.Handler{"click": func(*dom.Event) {}}),
	)
	return err
}

func TestStateMachine(t *testing.T) {
	env, _, _ := newEnv(t)
	s := &screen{}
	s.Init(env)

	if s.State() != Constructed {
		t.Fatalf("state = %v, want constructed", s.State())
	}
	if err := s.Action(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.State() != Active {
		t.Errorf("state = %v, want active", s.State())
	}
	if err := s.Action(context.Background()); !errors.Is(err, ErrAlreadyActive) {
		t.Errorf("second Action err = %v, want ErrAlreadyActive", err)
	}
	s.Destructor()
	if err := s.Activate(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Activate after destroy err = %v, want ErrDestroyed", err)
	}
}

func TestInitHandlersCountsAndReleases(t *testing.T) {
	env, doc, obs := newEnv(t)
	s := &screen{}
	s.Init(env)
	if err := s.Action(context.Background()); err != nil {
		t.Fatal(err)
	}

	// save:click plus two tags times two events.
	if s.HandlerCount() != 5 {
		t.Fatalf("HandlerCount = %d, want 5", s.HandlerCount())
	}
	save := doc.Body().QueryBind("save")
	save.Click()
	doc.Body().QueryAttr("data-tag", "rust").Click()
	if s.clicks != 2 {
		t.Errorf("clicks = %d, want 2", s.clicks)
	}

	s.Destructor()
	if doc.ListenerCount() != 0 {
		t.Errorf("listeners after destroy = %d, want 0", doc.ListenerCount())
	}
	if obs.released != 5 {
		t.Errorf("released = %d, want 5", obs.released)
	}
	save.Click()
	if s.clicks != 2 {
		t.Error("handler ran after destruction")
	}
	if len(doc.Body().Children()) != 0 {
		t.Error("container not cleared")
	}
}

func TestInitHandlersRequired(t *testing.T) {
	env, _, _ := newEnv(t)
	var b Base
	b.Init(env)

	n, err := b.InitHandlers(Binding{Value: "form", Required: true, Events: map[string]dom.Handler{"submit": func(*dom.Event) {}}})
	if !errors.Is(err, ErrRequiredBinding) {
		t.Errorf("err = %v, want ErrRequiredBinding", err)
	}
	if n != 0 {
		t.Errorf("n = %d, want 0", n)
	}
}

func TestDestructorIdempotentAndBeforeAction(t *testing.T) {
	env, _, obs := newEnv(t)
	var b Base
	b.Init(env)

	var cleanups int
	b.OnCleanup(func() { cleanups++ })
	b.Destructor()
	b.Destructor()

	if cleanups != 1 {
		t.Errorf("cleanups = %d, want 1", cleanups)
	}
	if b.Alive() {
		t.Error("scope alive after destroy")
	}
	if b.Context().Err() == nil {
		t.Error("context not cancelled")
	}
	if obs.released != 0 {
		t.Errorf("released = %d, want 0", obs.released)
	}

	b.OnCleanup(func() { cleanups++ })
	if cleanups != 2 {
		t.Error("OnCleanup after destroy should run immediately")
	}

	var zero Base
	zero.Destructor()
	if zero.State() != Destroyed {
		t.Error("uninitialized Base should still reach Destroyed")
	}
}

func TestAddEventHandlerAfterDestroy(t *testing.T) {
	env, doc, _ := newEnv(t)
	var b Base
	b.Init(env)
	b.Destructor()

	if _, err := b.AddEventHandler(doc.Body(), "click", func(*dom.Event) {}); !errors.Is(err, ErrDestroyed) {
		t.Errorf("err = %v, want ErrDestroyed", err)
	}
	if _, err := b.InitHandlers(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("InitHandlers err = %v, want ErrDestroyed", err)
	}
}

func TestRemoveEventHandler(t *testing.T) {
	env, doc, _ := newEnv(t)
	var b Base
	b.Init(env)

	var n int
	reg, _ := b.AddEventHandler(doc.Body(), "click", func(*dom.Event) { n++ })
	if !b.RemoveEventHandler(reg) {
		t.Fatal("RemoveEventHandler returned false")
	}
	doc.Body().Click()
	if n != 0 || b.HandlerCount() != 0 {
		t.Errorf("n = %d, HandlerCount = %d", n, b.HandlerCount())
	}
}

func TestAwaitDropsStaleContinuation(t *testing.T) {
	env, doc, obs := newEnv(t)
	var b Base
	b.Init(env)

	release := make(chan struct{})
	var delivered bool
	var workCtx context.Context
	Await(&b, func(ctx context.Context) (string, error) {
		workCtx = ctx
		<-release
		return "late", nil
	}, func(string, error) {
		delivered = true
		doc.Body().Mount(vdom.P("stale"), dom.Append)
	})

	b.Destructor()
	close(release)
	if err := env.Loop.Settle(time.Second); err != nil {
		t.Fatal(err)
	}

	if delivered {
		t.Error("stale continuation ran")
	}
	if obs.stale != 1 {
		t.Errorf("stale = %d, want 1", obs.stale)
	}
	if workCtx.Err() == nil {
		t.Error("work context should be cancelled on destroy")
	}
	if len(doc.Body().Children()) != 0 {
		t.Error("stale continuation mutated the document")
	}
}

func TestAwaitDeliversWhileAlive(t *testing.T) {
	env, _, _ := newEnv(t)
	var b Base
	b.Init(env)

	var got int
	Await(&b, func(context.Context) (int, error) { return 42, nil }, func(v int, err error) { got = v })
	if err := env.Loop.Settle(time.Second); err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Errorf("got = %d, want 42", got)
	}
}

func TestDispatchAndGo(t *testing.T) {
	env, _, obs := newEnv(t)
	var b Base
	b.Init(env)

	var ran int
	b.Go(func(ctx context.Context) {
		b.Dispatch(func() { ran++ })
	})
	if err := env.Loop.Settle(time.Second); err != nil {
		t.Fatal(err)
	}
	b.Dispatch(func() { ran++ })
	b.Destructor()
	env.Loop.Drain()

	if ran != 1 {
		t.Errorf("ran = %d, want 1", ran)
	}
	if obs.stale != 1 {
		t.Errorf("stale = %d, want 1", obs.stale)
	}
}

func TestMountedComponentsDestroyed(t *testing.T) {
	env, doc, _ := newEnv(t)
	var b Base
	b.Init(env)

	c := component.New(func(s string) *vdom.VNode { return vdom.P(vdom.Bind("p"), s) }, "hello")
	if err := b.Mount(c, doc.Body(), dom.Append); err != nil {
		t.Fatal(err)
	}
	b.Destructor()
	if c.Rendered() {
		t.Error("component still rendered after controller destroy")
	}
	if err := b.Mount(c, doc.Body(), dom.Append); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Mount after destroy err = %v", err)
	}
}

func TestUnmount(t *testing.T) {
	env, doc, _ := newEnv(t)
	var b Base
	b.Init(env)

	first := component.New(func(s string) *vdom.VNode { return vdom.P(vdom.Bind("p"), s) }, "first")
	second := component.New(func(s string) *vdom.VNode { return vdom.P(vdom.Bind("p"), s) }, "second")
	for _, c := range []*component.Base[string]{first, second} {
		if err := b.Mount(c, doc.Body(), dom.Append); err != nil {
			t.Fatal(err)
		}
	}

	if !b.Unmount(first) {
		t.Fatal("Unmount returned false for an owned component")
	}
	if first.Rendered() {
		t.Error("unmounted component still rendered")
	}
	if b.ComponentCount() != 1 {
		t.Errorf("ComponentCount = %d, want 1", b.ComponentCount())
	}
	if got := doc.Body().TextContent(); got != "second" {
		t.Errorf("body text = %q, want second", got)
	}
	if b.Unmount(first) {
		t.Error("second Unmount should report false")
	}
}

type closer struct{ closed int }

func (c *closer) Close() error {
	c.closed++
	return nil
}

func TestOwnClosesOnDestroy(t *testing.T) {
	env, _, _ := newEnv(t)
	var b Base
	b.Init(env)

	owned := &closer{}
	b.Own(owned)
	if owned.closed != 0 {
		t.Fatal("closed before destruction")
	}
	b.Destructor()
	if owned.closed != 1 {
		t.Errorf("closed = %d, want 1", owned.closed)
	}

	late := &closer{}
	b.Own(late)
	if late.closed != 1 {
		t.Error("Own after destroy should close immediately")
	}
}

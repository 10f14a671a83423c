// Package router maps paths to controllers and keeps exactly one of them
// active.
//
// Navigate tears the active controller down before the next one is
// constructed, so a screen never shares listeners, components, or a
// realtime session with its successor. RedirectForward and Back keep the
// History in step: one entry per logical navigation, with consecutive
// pushes of the same path coalesced.
//
//	r := router.New(env, router.WithHistory(router.NewMemoryHistory("/")))
//	r.Handle("/chats/:id", chats.Factory(deps))
//	r.NotFound(notfound.Factory())
//	r.Navigate(ctx, "/chats/7")
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eventum-app/eventum/pkg/controller"
	"github.com/eventum-app/eventum/pkg/tracing"
	"github.com/eventum-app/eventum/pkg/vdom"
)

// Factory constructs a controller for a matched route.
type Factory func(env controller.Env, params Params) (controller.Controller, error)

// Route is a pattern and the factory for its controller.
type Route struct {
	Pattern string
	Factory Factory
}

// Match is the result of resolving a path.
type Match struct {
	Route  *Route
	Params Params
	Path   string
	Query  string
}

// Observer receives navigation outcomes. The metrics package implements it.
type Observer interface {
	Navigated(route string, d time.Duration, err error)
	ConstructFailed(route string)
}

// ErrConstructPanic wraps a panic raised by a route factory.
var ErrConstructPanic = errors.New("router: controller construction panicked")

// NavigationError reports a failed step of a navigation.
type NavigationError struct {
	Path string
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *NavigationError) Error() string {
	return fmt.Sprintf("router: %s %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *NavigationError) Unwrap() error {
	return e.Err
}

// Router owns the route tree, the active slot, and the history.
type Router struct {
	root     *node
	routes   []*Route
	notFound Factory

	env      controller.Env
	slot     ActiveSlot
	history  History
	logger   *slog.Logger
	observer Observer

	current Match
}

// Option configures a Router.
type Option func(*Router)

// WithHistory sets the history. Defaults to a MemoryHistory at "/".
func WithHistory(h History) Option {
	return func(r *Router) {
		r.history = h
	}
}

// WithLogger sets the logger. Defaults to env.Logger or slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithObserver sets the navigation observer.
func WithObserver(o Observer) Option {
	return func(r *Router) {
		r.observer = o
	}
}

// New creates a router. env is handed to every factory with Nav set to
// the router.
func New(env controller.Env, opts ...Option) *Router {
	r := &Router{root: &node{}}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = env.Logger
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.history == nil {
		r.history = NewMemoryHistory("/")
	}
	env.Nav = r
	env.Logger = r.logger
	r.env = env
	return r
}

// Handle registers a route. Patterns are "/static", "/:param", and a
// final "/*catchall".
func (r *Router) Handle(pattern string, factory Factory) error {
	if factory == nil {
		return fmt.Errorf("%w: nil factory for %q", ErrInvalidPattern, pattern)
	}
	route := &Route{Pattern: pattern, Factory: factory}
	if err := r.root.insert(route); err != nil {
		return fmt.Errorf("%w: %q", err, pattern)
	}
	r.routes = append(r.routes, route)
	return nil
}

// HandleRoutes registers routes in order and stops at the first error.
func (r *Router) HandleRoutes(routes []Route) error {
	for _, route := range routes {
		if err := r.Handle(route.Pattern, route.Factory); err != nil {
			return err
		}
	}
	return nil
}

// NotFound sets the factory used for unmatched paths and failed
// constructions.
func (r *Router) NotFound(factory Factory) {
	r.notFound = factory
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.routes))
	for i, route := range r.routes {
		out[i] = *route
	}
	return out
}

// Match resolves path without navigating. Route is nil when nothing
// matches.
func (r *Router) Match(path string) (Match, error) {
	canonical, err := CanonicalizePath(path)
	if err != nil {
		return Match{Path: path}, err
	}
	p, query := splitQuery(canonical)
	params := make(Params)
	route, err := r.root.match(splitPath(p), params)
	if err != nil {
		return Match{Path: p, Query: query}, err
	}
	if route == nil {
		params = nil
	}
	return Match{Route: route, Params: params, Path: p, Query: query}, nil
}

// Active returns the live controller, or nil before the first navigation.
func (r *Router) Active() controller.Controller {
	return r.slot.Current()
}

// Current returns the last resolved match.
func (r *Router) Current() Match {
	return r.current
}

// History returns the router's history.
func (r *Router) History() History {
	return r.history
}

// Slot returns the active slot.
func (r *Router) Slot() *ActiveSlot {
	return &r.slot
}

// Start navigates to the current history entry.
func (r *Router) Start(ctx context.Context) error {
	return r.Navigate(ctx, r.history.Current())
}

// Navigate activates the controller for path without touching history.
// The previous controller is destroyed before the new one is built.
// Unmatched paths and failed constructions install the not-found
// controller, so the slot is never left empty.
func (r *Router) Navigate(ctx context.Context, path string) (err error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "router.navigate", tracing.KeyPath.String(path))

	m, matchErr := r.Match(path)
	if matchErr != nil {
		r.logger.Warn("unroutable path", "path", path, "error", matchErr)
	}
	pattern := ""
	if m.Route != nil {
		pattern = m.Route.Pattern
		span.SetAttributes(tracing.KeyRoute.String(pattern))
	}
	logger := r.logger.With("path", m.Path, "route", pattern)

	defer func() {
		if r.observer != nil {
			r.observer.Navigated(pattern, time.Since(start), err)
		}
		tracing.End(span, err)
	}()

	var constructErr error
	next := r.slot.Replace(func() controller.Controller {
		if m.Route != nil {
			c, err := r.construct(m.Route.Factory, m.Params)
			if err == nil {
				return c
			}
			constructErr = err
			logger.Error("controller construction failed", "error", err)
			if r.observer != nil {
				r.observer.ConstructFailed(pattern)
			}
		}
		if r.notFound != nil {
			c, err := r.construct(r.notFound, m.Params)
			if err == nil {
				return c
			}
			logger.Error("not-found controller construction failed", "error", err)
		}
		return newFallback(r.env)
	})
	r.current = m

	if actionErr := next.Action(ctx); actionErr != nil {
		logger.Warn("controller action failed", "error", actionErr)
		return &NavigationError{Path: m.Path, Op: "action", Err: actionErr}
	}
	if constructErr != nil {
		return &NavigationError{Path: m.Path, Op: "construct", Err: constructErr}
	}
	return nil
}

// construct calls factory, turning a panic or a nil controller into an
// error.
func (r *Router) construct(factory Factory, params Params) (c controller.Controller, err error) {
	defer func() {
		if p := recover(); p != nil {
			c, err = nil, fmt.Errorf("%w: %v", ErrConstructPanic, p)
		}
	}()
	c, err = factory(r.env, params)
	if err == nil && c == nil {
		err = errors.New("router: factory returned nil controller")
	}
	return c, err
}

// RedirectForward pushes path onto the history and navigates to it. A
// push of the path that is already current is coalesced.
func (r *Router) RedirectForward(ctx context.Context, path string) error {
	canonical, err := CanonicalizePath(path)
	if err != nil {
		return &NavigationError{Path: path, Op: "redirect", Err: err}
	}
	if !r.history.Push(canonical) {
		r.logger.Debug("coalesced duplicate history push", "path", canonical)
	}
	return r.Navigate(ctx, canonical)
}

// Replace overwrites the current history entry and navigates to path.
func (r *Router) Replace(ctx context.Context, path string) error {
	canonical, err := CanonicalizePath(path)
	if err != nil {
		return &NavigationError{Path: path, Op: "replace", Err: err}
	}
	r.history.Replace(canonical)
	return r.Navigate(ctx, canonical)
}

// Back pops one history entry and navigates to the previous path with a
// new controller instance.
func (r *Router) Back(ctx context.Context) error {
	path, ok := r.history.Back()
	if !ok {
		return ErrNoHistory
	}
	return r.Navigate(ctx, path)
}

// Forward moves one entry forward and navigates to it.
func (r *Router) Forward(ctx context.Context) error {
	path, ok := r.history.Forward()
	if !ok {
		return ErrNoHistory
	}
	return r.Navigate(ctx, path)
}

// Close destroys the active controller.
func (r *Router) Close() {
	r.slot.Clear()
}

// fallback is installed when neither the matched route nor the
// not-found factory produced a controller.
type fallback struct {
	controller.Base
}

func newFallback(env controller.Env) *fallback {
	f := &fallback{}
	f.Init(env)
	return f
}

func (f *fallback) Action(ctx context.Context) error {
	if err := f.Activate(); err != nil {
		return err
	}
	if f.Container() == nil {
		return nil
	}
	_, err := f.Show(vdom.Div(vdom.Class("not-found"), vdom.Text("Page not found")))
	return err
}

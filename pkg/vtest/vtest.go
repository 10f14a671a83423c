package vtest

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eventum-app/eventum/pkg/assets"
	"github.com/eventum-app/eventum/pkg/controller"
	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/loop"
	"github.com/eventum-app/eventum/pkg/model"
	"github.com/eventum-app/eventum/pkg/realtime"
	"github.com/eventum-app/eventum/pkg/router"
)

// Timeout bounds Settle and Until.
var Timeout = 2 * time.Second

// AssetBase is the base URL of the harness's static resolver.
const AssetBase = "https://cdn.eventum.test"

// Harness is a headless runtime for one test.
type Harness struct {
	Doc      *dom.Document
	Loop     *loop.Loop
	History  *router.MemoryHistory
	Router   *router.Router
	Models   *FakeModels
	Dialer   *FakeDialer
	Channel  *realtime.Channel
	Tags     *model.TagCache
	Assets   assets.Resolver
	Counters *Counters
	Logger   *slog.Logger

	t testing.TB
}

type config struct {
	start  string
	logger *slog.Logger
}

// Option configures a Harness.
type Option func(*config)

// WithStartPath sets the initial history entry. Defaults to "/".
func WithStartPath(path string) Option {
	return func(c *config) {
		c.start = path
	}
}

// WithLogger sets the logger. Defaults to one that discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// New builds a harness. The active controller is destroyed when the test
// ends.
func New(t testing.TB, opts ...Option) *Harness {
	t.Helper()
	cfg := config{start: "/"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	h := &Harness{
		Doc:      dom.NewDocument(),
		Loop:     loop.New(loop.WithLogger(cfg.logger)),
		History:  router.NewMemoryHistory(cfg.start),
		Models:   &FakeModels{},
		Dialer:   &FakeDialer{},
		Assets:   assets.NewStaticResolver(AssetBase),
		Counters: &Counters{},
		Logger:   cfg.logger,
		t:        t,
	}
	h.Channel = realtime.New(realtime.Endpoint("ws://eventum.test"), h.Loop,
		realtime.WithDialer(h.Dialer),
		realtime.WithLogger(cfg.logger),
		realtime.WithObserver(h.Counters),
		realtime.WithBackoff(time.Millisecond, 5*time.Millisecond, 2),
	)
	h.Tags = model.NewTagCache(h.Models, h.Loop, cfg.logger)
	h.Router = router.New(controller.Env{
		Container: h.Doc.Body(),
		Loop:      h.Loop,
		Logger:    cfg.logger,
		Observer:  h.Counters,
	}, router.WithHistory(h.History), router.WithLogger(cfg.logger), router.WithObserver(h.Counters))

	t.Cleanup(func() {
		h.Router.Close()
		h.Loop.Stop()
	})
	return h
}

// Handle registers routes and fails the test on a bad pattern.
func (h *Harness) Handle(routes ...router.Route) {
	h.t.Helper()
	if err := h.Router.HandleRoutes(routes); err != nil {
		h.t.Fatalf("register routes: %v", err)
	}
}

// Navigate pushes path and navigates to it, like a link click.
func (h *Harness) Navigate(path string) error {
	return h.Router.RedirectForward(context.Background(), path)
}

// Back pops one history entry.
func (h *Harness) Back() error {
	return h.Router.Back(context.Background())
}

// Settle runs continuations until no async work is outstanding.
func (h *Harness) Settle() {
	h.t.Helper()
	if err := h.Loop.Settle(Timeout); err != nil {
		h.t.Fatalf("settle: %v", err)
	}
}

// Until runs continuations until cond holds.
func (h *Harness) Until(cond func() bool) {
	h.t.Helper()
	if err := h.Loop.Until(cond, Timeout); err != nil {
		h.t.Fatalf("until: %v", err)
	}
}

// Body returns the document body.
func (h *Harness) Body() *dom.Element {
	return h.Doc.Body()
}

// Bound returns the element bound to name, failing the test if absent.
func (h *Harness) Bound(name string) *dom.Element {
	h.t.Helper()
	el := h.Doc.Body().QueryBind(name)
	if el == nil {
		h.t.Fatalf("no element bound to %q in:\n%s", name, truncate(h.Doc.Body().HTML(), 500))
	}
	return el
}

// Click clicks the element bound to name.
func (h *Harness) Click(name string) {
	h.t.Helper()
	h.Bound(name).Click()
}

// ExpectBound asserts an element is bound to name.
func (h *Harness) ExpectBound(name string) {
	h.t.Helper()
	if h.Doc.Body().QueryBind(name) == nil {
		h.t.Errorf("expected an element bound to %q, got:\n%s", name, truncate(h.Doc.Body().HTML(), 500))
	}
}

// ExpectNotBound asserts no element is bound to name.
func (h *Harness) ExpectNotBound(name string) {
	h.t.Helper()
	if h.Doc.Body().QueryBind(name) != nil {
		h.t.Errorf("expected no element bound to %q", name)
	}
}

// ExpectText asserts the text of the element bound to name.
func (h *Harness) ExpectText(name, want string) {
	h.t.Helper()
	if got := strings.TrimSpace(h.Bound(name).TextContent()); got != want {
		h.t.Errorf("text of %q = %q, want %q", name, got, want)
	}
}

// ExpectContains asserts that el's HTML contains expected.
func ExpectContains(t testing.TB, el *dom.Element, expected string) {
	t.Helper()
	html := el.HTML()
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that el's HTML does not contain unexpected.
func ExpectNotContains(t testing.TB, el *dom.Element, unexpected string) {
	t.Helper()
	html := el.HTML()
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// Counts is a snapshot of Counters.
type Counts struct {
	Navigations      []string
	NavigationErrors int
	ConstructFails   int
	Released         int
	Stale            int
	Delivered        int
	Reconnects       int
	ChannelErrors    []string
	ModelCalls       int
}

// Counters records observer callbacks from every runtime package.
type Counters struct {
	mu sync.Mutex
	c  Counts
}

func (c *Counters) Navigated(route string, _ time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.c.Navigations = append(c.c.Navigations, route)
	if err != nil {
		c.c.NavigationErrors++
	}
}

func (c *Counters) ConstructFailed(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.c.ConstructFails++
}

func (c *Counters) HandlersReleased(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.c.Released += n
}

func (c *Counters) StaleDropped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.c.Stale++
}

func (c *Counters) MessageDelivered() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.c.Delivered++
}

func (c *Counters) Reconnecting(int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.c.Reconnects++
}

func (c *Counters) ChannelError(kind string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.c.ChannelErrors = append(c.c.ChannelErrors, kind)
}

func (c *Counters) ModelRequest(string, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.c.ModelCalls++
}

// Snapshot returns a copy safe to read while goroutines are running.
func (c *Counters) Snapshot() Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.c
	out.Navigations = append([]string(nil), c.c.Navigations...)
	out.ChannelErrors = append([]string(nil), c.c.ChannelErrors...)
	return out
}

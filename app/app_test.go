package app_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eventum-app/eventum/app"
	"github.com/eventum-app/eventum/app/chats"
	"github.com/eventum-app/eventum/app/login"
	"github.com/eventum-app/eventum/app/profile"
	"github.com/eventum-app/eventum/app/search"
	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/model"
	"github.com/eventum-app/eventum/pkg/vtest"
)

func newHarness(t *testing.T, opts ...vtest.Option) *vtest.Harness {
	t.Helper()
	h := vtest.New(t, opts...)
	h.Models.Profile = model.Profile{ID: 7, Name: "Ann", About: vtest.Ptr("climber")}
	h.Models.User = model.User{ID: 7, Name: "Ann"}
	deps := app.Deps{Models: h.Models, Tags: h.Tags, Channel: h.Channel, Assets: h.Assets, Logger: h.Logger}
	if err := app.Install(h.Router, deps); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestRoutes(t *testing.T) {
	var got []string
	for _, r := range app.Routes(app.Deps{Models: &vtest.FakeModels{}}) {
		got = append(got, r.Pattern)
	}
	want := []string{"/", "/my/profile", "/search", "/chats", "/chats/:id", "/login"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("routes mismatch (-want +got):\n%s", diff)
	}
}

func TestNavigationsKeepOneActiveController(t *testing.T) {
	h := newHarness(t)

	if err := h.Navigate("/login"); err != nil {
		t.Fatal(err)
	}
	staleForm := h.Bound("login-form")
	h.Bound("login").Input("ann@example.com")
	h.Bound("password").Input("secret")

	paths := []string{"/search", "/my/profile", "/chats", "/chats/3", "/login", "/nowhere"}
	for _, p := range paths {
		if err := h.Navigate(p); err != nil {
			t.Fatalf("navigate %s: %v", p, err)
		}
		h.Settle()
	}

	if got, want := h.Router.Slot().Destroyed(), len(paths); got != want {
		t.Errorf("destroyed = %d, want %d", got, want)
	}
	h.ExpectBound("not-found")
	if n := h.Doc.ListenerCount(); n != 0 {
		t.Errorf("listeners left on the not-found page = %d, want 0", n)
	}
	if h.Counters.Snapshot().Released == 0 {
		t.Error("no handlers were released")
	}

	staleForm.Submit()
	h.Settle()
	if n := h.Models.CallCount("login"); n != 0 {
		t.Errorf("destroyed login handler ran, login calls = %d", n)
	}
}

func TestStaleProfileResponseDropped(t *testing.T) {
	h := newHarness(t)

	release := h.Models.Hold("get_profile")
	if err := h.Navigate(profile.Path); err != nil {
		t.Fatal(err)
	}
	h.ExpectBound("loading")
	if err := h.Navigate(login.Path); err != nil {
		t.Fatal(err)
	}
	release()
	h.Settle()

	if got := h.Counters.Snapshot().Stale; got != 1 {
		t.Errorf("stale = %d, want 1", got)
	}
	h.ExpectBound("login-form")
	h.ExpectNotBound("profile")
	if _, ok := h.Router.Active().(*login.Controller); !ok {
		t.Errorf("active = %T, want login", h.Router.Active())
	}
}

func TestPendingSubscriptionsAfterLeavingProfile(t *testing.T) {
	h := newHarness(t)
	release := h.Models.Hold("subscriptions")
	defer release()

	if err := h.Navigate(profile.Path); err != nil {
		t.Fatal(err)
	}
	h.Until(func() bool {
		return h.Models.CallCount("subscriptions") == 1 && h.Body().QueryBind("empty") != nil
	})
	p, ok := h.Router.Active().(*profile.Controller)
	if !ok {
		t.Fatalf("active = %T, want profile", h.Router.Active())
	}
	installed := p.HandlerCount()
	if installed == 0 {
		t.Fatal("profile installed no handlers")
	}
	before := h.Counters.Snapshot().Released

	if err := h.Navigate(search.Path); err != nil {
		t.Fatal(err)
	}
	h.Until(func() bool { return h.Body().QueryBind("search-form") != nil })
	if got := h.Counters.Snapshot().Released - before; got != installed {
		t.Errorf("released at destruction = %d, want %d", got, installed)
	}
	if n := p.HandlerCount(); n != 0 {
		t.Errorf("handlers left on destroyed profile = %d, want 0", n)
	}

	want := h.Body().HTML()
	release()
	h.Settle()
	if diff := cmp.Diff(want, h.Body().HTML()); diff != "" {
		t.Errorf("search page changed after a stale response (-want +got):\n%s", diff)
	}
	if got := h.Counters.Snapshot().Stale; got != 1 {
		t.Errorf("stale = %d, want 1", got)
	}
	h.ExpectNotBound(profile.Subscriptions)
}

func TestRealtimeClosedOnNavigation(t *testing.T) {
	h := newHarness(t)
	h.Models.Chats = []model.Chat{{ID: 3, Title: "Climbing"}, {ID: 4, Title: "Chess"}}
	conn := vtest.NewFakeConn()
	h.Dialer.Queue(conn)

	if err := h.Navigate(chats.Path); err != nil {
		t.Fatal(err)
	}
	h.Settle()
	c, ok := h.Router.Active().(*chats.Controller)
	if !ok || c.Session() == nil {
		t.Fatalf("no realtime session on %T", h.Router.Active())
	}
	if diff := cmp.Diff([]string{`{"uid":7}`}, conn.Written()); diff != "" {
		t.Errorf("identify frame mismatch (-want +got):\n%s", diff)
	}

	conn.Push(map[string]any{"uid": 9, "chat_id": 3, "body": "see you at the wall"})
	h.Until(func() bool { return h.Counters.Snapshot().Delivered == 1 })
	row := h.Body().QueryAttr("data-chat", "3")
	if alert := row.QueryBind("alert"); !alert.HasClass("chat-list-item__alert_unread") {
		t.Error("incoming message did not mark the chat unread")
	}
	vtest.ExpectContains(t, row, "see you at the wall")

	session := c.Session()
	if err := h.Navigate(login.Path); err != nil {
		t.Fatal(err)
	}
	if session.Alive() {
		t.Error("session still alive after navigating away")
	}
	if !conn.Closed() {
		t.Error("connection not closed after navigating away")
	}
}

func TestLoginPushesOnce(t *testing.T) {
	h := newHarness(t)

	if err := h.Navigate(login.Path); err != nil {
		t.Fatal(err)
	}
	h.Bound("login").Input("ann@example.com")
	h.Bound("password").Input("secret")
	h.Bound("login-form").Dispatch(dom.NewEvent("submit"))
	h.Settle()

	if diff := cmp.Diff([]string{"/", "/login", "/my/profile"}, h.History.Entries()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
	if _, ok := h.Router.Active().(*profile.Controller); !ok {
		t.Fatalf("active = %T, want profile", h.Router.Active())
	}
	h.ExpectText("name", "Ann")

	if err := h.Back(); err != nil {
		t.Fatal(err)
	}
	if got := h.History.Current(); got != login.Path {
		t.Errorf("current after back = %q, want /login", got)
	}
	if _, ok := h.Router.Active().(*login.Controller); !ok {
		t.Errorf("active after back = %T, want login", h.Router.Active())
	}
	h.ExpectBound("login-form")
}

func TestLinksNavigate(t *testing.T) {
	h := newHarness(t)
	stop := h.Router.Listen(context.Background(), h.Body())
	defer stop()

	if err := h.Navigate("/missing"); err != nil {
		t.Fatal(err)
	}
	h.Click("home-link")
	h.Settle()
	if got := h.History.Current(); got != "/" {
		t.Errorf("current = %q, want /", got)
	}
	h.ExpectBound("search-form")
}

package chats_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eventum-app/eventum/app/chats"
	"github.com/eventum-app/eventum/app/notfound"
	"github.com/eventum-app/eventum/pkg/model"
	"github.com/eventum-app/eventum/pkg/router"
	"github.com/eventum-app/eventum/pkg/vtest"
)

func setup(t *testing.T) *vtest.Harness {
	t.Helper()
	h := vtest.New(t)
	h.Models.Profile = model.Profile{ID: 7, Name: "Ann", About: vtest.Ptr("")}
	h.Models.Chats = []model.Chat{
		{ID: 3, Title: "Climbing", LastMessage: "tomorrow?", Unread: true},
		{ID: 4, Title: "Chess"},
	}
	h.Models.Messages = map[int64][]model.Message{
		3: {{UID: 9, Body: "tomorrow?"}, {UID: 7, Body: "sure"}},
	}
	factory := chats.Factory(chats.Deps{Models: h.Models, Channel: h.Channel, Assets: h.Assets})
	h.Handle(
		router.Route{Pattern: chats.Path, Factory: factory},
		router.Route{Pattern: chats.ChatPath, Factory: factory},
	)
	h.Router.NotFound(notfound.Factory())
	return h
}

func status(h *vtest.Harness) string {
	v, _ := h.Bound("chat-status").Attr("data-status")
	return v
}

func TestOpenChatLoadsMessages(t *testing.T) {
	h := setup(t)
	h.Dialer.Queue(vtest.NewFakeConn())
	if err := h.Navigate("/chats/3"); err != nil {
		t.Fatal(err)
	}
	h.Settle()

	var bodies []string
	for _, el := range h.Body().QueryAllAttr("data-bind", "chat-message") {
		bodies = append(bodies, el.TextContent())
	}
	if diff := cmp.Diff([]string{"tomorrow?", "sure"}, bodies); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	own := h.Body().QueryAllAttr("data-bind", "chat-message")[1]
	if !own.HasClass("chat__message_own") {
		t.Error("own message not marked")
	}

	row := h.Body().QueryAttr("data-chat", "3")
	if !row.HasClass("chat-list-item_active") {
		t.Error("open chat not highlighted")
	}
	if row.QueryBind("alert").HasClass("chat-list-item__alert_unread") {
		t.Error("open chat still marked unread")
	}
	if status(h) != "online" {
		t.Errorf("status = %q, want online", status(h))
	}
}

func TestRowClickOpensChat(t *testing.T) {
	h := setup(t)
	if err := h.Navigate(chats.Path); err != nil {
		t.Fatal(err)
	}
	h.Settle()

	h.Body().QueryAttr("data-chat", "4").Click()
	h.Settle()
	if got := h.History.Current(); got != "/chats/4" {
		t.Errorf("current = %q, want /chats/4", got)
	}
	c := h.Router.Active().(*chats.Controller)
	if c.OpenChat() != 4 {
		t.Errorf("open chat = %d, want 4", c.OpenChat())
	}
	if h.Router.Slot().Destroyed() != 1 {
		t.Errorf("destroyed = %d, want 1", h.Router.Slot().Destroyed())
	}
}

func TestPushToOpenChatAppends(t *testing.T) {
	h := setup(t)
	conn := vtest.NewFakeConn()
	h.Dialer.Queue(conn)
	if err := h.Navigate("/chats/3"); err != nil {
		t.Fatal(err)
	}
	h.Settle()

	conn.Push(map[string]any{"uid": 9, "chat_id": "3", "body": "at six"})
	conn.Push(map[string]any{"uid": 9, "chat_id": 4, "body": "your move"})
	h.Until(func() bool { return h.Counters.Snapshot().Delivered == 2 })

	vtest.ExpectContains(t, h.Bound("messages"), "at six")
	vtest.ExpectNotContains(t, h.Bound("messages"), "your move")
	chess := h.Body().QueryAttr("data-chat", "4")
	if !chess.QueryBind("message").HasClass("chat-list-item__message_unread") {
		t.Error("other chat not marked unread")
	}
	climbing := h.Body().QueryAttr("data-chat", "3")
	if climbing.QueryBind("alert").HasClass("chat-list-item__alert_unread") {
		t.Error("open chat marked unread")
	}
}

func TestOfflineStates(t *testing.T) {
	t.Run("dial fails", func(t *testing.T) {
		h := setup(t)
		h.Dialer.Err = errors.New("refused")
		if err := h.Navigate(chats.Path); err != nil {
			t.Fatal(err)
		}
		h.Settle()
		if status(h) != "offline" {
			t.Errorf("status = %q, want offline", status(h))
		}
		h.ExpectText("title", "Climbing")
	})

	t.Run("reconnects exhausted", func(t *testing.T) {
		h := setup(t)
		conn := vtest.NewFakeConn()
		h.Dialer.Queue(conn)
		if err := h.Navigate(chats.Path); err != nil {
			t.Fatal(err)
		}
		h.Settle()
		conn.Drop(errors.New("connection reset"))
		h.Until(func() bool { return status(h) == "offline" })

		snap := h.Counters.Snapshot()
		if snap.Reconnects != 2 {
			t.Errorf("reconnects = %d, want 2", snap.Reconnects)
		}
		if last := snap.ChannelErrors[len(snap.ChannelErrors)-1]; last != "exhausted" {
			t.Errorf("last channel error = %q, want exhausted", last)
		}
	})
}

func TestBadChatID(t *testing.T) {
	h := setup(t)
	err := h.Navigate("/chats/abc")
	if !errors.Is(err, chats.ErrBadChatID) {
		t.Errorf("err = %v, want ErrBadChatID", err)
	}
	h.ExpectBound("not-found")
	if n := h.Counters.Snapshot().ConstructFails; n != 1 {
		t.Errorf("construct failures = %d, want 1", n)
	}
}

func TestUnauthorized(t *testing.T) {
	tests := []struct {
		name    string
		profile model.Profile
		err     error
	}{
		{"forbidden", model.Profile{}, &model.Error{Op: "get_profile", Status: 403, Err: model.ErrUnauthorized}},
		{"no about", model.Profile{ID: 7, Name: "Ann"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setup(t)
			h.Models.Profile = tt.profile
			h.Models.ProfileErr = tt.err
			if err := h.Navigate(chats.Path); err != nil {
				t.Fatal(err)
			}
			h.Settle()
			h.ExpectBound("unauthorized")
			h.ExpectNotBound("chat-list")
			if len(h.Dialer.URLs()) != 0 {
				t.Error("channel dialed for an unauthorized visitor")
			}
			if n := h.Doc.ListenerCount(); n != 0 {
				t.Errorf("listeners = %d, want 0", n)
			}
		})
	}
}

// Package chats is the chat screen: the chat list, the open conversation,
// and a realtime channel that marks chats unread as messages arrive.
package chats

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/eventum-app/eventum/app/components"
	"github.com/eventum-app/eventum/app/views"
	"github.com/eventum-app/eventum/pkg/assets"
	"github.com/eventum-app/eventum/pkg/controller"
	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/model"
	"github.com/eventum-app/eventum/pkg/realtime"
	"github.com/eventum-app/eventum/pkg/router"
	"github.com/eventum-app/eventum/pkg/vdom"
)

// Paths the screen is mounted at.
const (
	Path     = "/chats"
	ChatPath = "/chats/:id"
)

// MessageLimit is how many messages an opened chat loads.
const MessageLimit = 50

var (
	// ErrNoModels is returned by the factory when Deps.Models is nil.
	ErrNoModels = errors.New("chats: no models configured")

	// ErrBadChatID is returned by the factory for a non-numeric :id.
	ErrBadChatID = errors.New("chats: invalid chat id")
)

// Deps are the services the screen uses. Without a Channel the screen
// works without push.
type Deps struct {
	Models  model.Models
	Channel *realtime.Channel
	Assets  assets.Resolver
}

// Factory returns the router factory for both chat routes.
func Factory(deps Deps) router.Factory {
	return func(env controller.Env, params router.Params) (controller.Controller, error) {
		if deps.Models == nil {
			return nil, ErrNoModels
		}
		c := &Controller{deps: deps, items: make(map[int64]*components.ChatListItem)}
		if raw := params.Get("id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("%w: %q", ErrBadChatID, raw)
			}
			c.open = id
		}
		c.Init(env)
		return c, nil
	}
}

// Controller drives the chat screen.
type Controller struct {
	controller.Base

	deps    Deps
	open    int64
	profile model.Profile
	items   map[int64]*components.ChatListItem
	session *realtime.Session
}

// Action loads the profile, then the chats, then opens the channel.
func (c *Controller) Action(ctx context.Context) error {
	if err := c.Activate(); err != nil {
		return err
	}
	if _, err := c.Show(views.Loading()); err != nil {
		return err
	}
	controller.Await(&c.Base, c.deps.Models.GetProfile, c.showScreen)
	return nil
}

// Session returns the realtime session, or nil before it is established.
func (c *Controller) Session() *realtime.Session {
	return c.session
}

// OpenChat returns the id of the chat shown in the conversation pane.
func (c *Controller) OpenChat() int64 {
	return c.open
}

func (c *Controller) showScreen(p model.Profile, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthorized), err == nil && !p.Authorized():
		c.showView(views.Unauthorized())
		return
	case err != nil:
		c.Logger().Warn("load profile", "error", err)
		c.showView(views.Error(model.ErrorText(err)))
		return
	}
	c.profile = p
	if _, err := c.Show(page()); err != nil {
		c.Logger().Error("render chats", "error", err)
		return
	}

	controller.Await(&c.Base, c.deps.Models.GetChats, c.showChats)
	if c.open != 0 {
		c.loadMessages()
	}
	c.connect()
}

// showView replaces the screen with a static view.
func (c *Controller) showView(v *vdom.VNode) {
	if _, err := c.Show(v); err != nil {
		c.Logger().Error("render chats", "error", err)
	}
}

func (c *Controller) showChats(chats []model.Chat, err error) {
	list := c.Container().QueryBind("chat-list")
	if list == nil {
		return
	}
	if err != nil {
		c.Logger().Warn("load chats", "error", err)
		views.ShowServerError(list, model.ErrorText(err))
		return
	}
	if len(chats) == 0 {
		views.ShowEmpty(list, "No chats yet", "Find an event", "/search")
		return
	}
	list.Clear()
	for _, ch := range chats {
		item := components.NewChatListItem(ch, c.deps.Assets)
		if err := c.Mount(item, list, dom.Append); err != nil {
			c.Logger().Warn("skip chat", "chat", ch.ID, "error", err)
			continue
		}
		c.items[ch.ID] = item
		if ch.ID == c.open {
			item.SetActive(true)
			item.Read()
		}
	}
	if _, err := c.InitHandlers(controller.Binding{Attr: "data-chat", All: true, Events: map[string]dom.Handler{"click": c.follow}}); err != nil {
		c.Logger().Warn("chat list handlers", "error", err)
	}
}

// follow navigates from a chat row to its conversation.
func (c *Controller) follow(ev *dom.Event) {
	ev.PreventDefault()
	raw, _ := ev.CurrentTarget.Attr("data-chat")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id == c.open {
		return
	}
	nav := c.Env().Nav
	if nav == nil {
		return
	}
	if err := nav.RedirectForward(context.Background(), Path+"/"+raw); err != nil {
		c.Logger().Warn("open chat", "chat", id, "error", err)
	}
}

func (c *Controller) loadMessages() {
	uid, chatID := c.profile.ID, c.open
	controller.Await(&c.Base, func(ctx context.Context) ([]model.Message, error) {
		return c.deps.Models.GetLastMessages(ctx, uid, chatID, MessageLimit)
	}, func(msgs []model.Message, err error) {
		pane := c.Container().QueryBind("conversation")
		if pane == nil {
			return
		}
		if err != nil {
			views.ShowServerError(pane, model.ErrorText(err))
			return
		}
		pane.Mount(conversation(uid, msgs), dom.Replace)
	})
}

// connect opens the realtime channel. The session is handed to the
// controller on the loop so a destroyed screen closes it at once.
func (c *Controller) connect() {
	ch := c.deps.Channel
	if ch == nil {
		return
	}
	uid := c.profile.ID
	l := c.Env().Loop
	c.Go(func(ctx context.Context) {
		s, err := ch.Establish(ctx, uid, c.receive,
			realtime.WithGuard(c.Alive),
			realtime.WithErrorHandler(c.channelFailed),
		)
		l.Dispatch(func() {
			if err != nil {
				c.Logger().Warn("realtime unavailable", "error", err)
				if c.Alive() {
					c.setStatus("offline")
				}
				return
			}
			c.Own(s)
			if c.Alive() {
				c.session = s
				c.setStatus("online")
			}
		})
	})
}

func (c *Controller) channelFailed(err error) {
	c.Logger().Warn("realtime channel ended", "error", err)
	c.setStatus("offline")
}

func (c *Controller) setStatus(status string) {
	if el := c.Container().QueryBind("chat-status"); el != nil {
		el.SetText(status)
		el.SetAttr("data-status", status)
	}
}

// receive runs on the loop for every pushed frame.
func (c *Controller) receive(n realtime.Notification) {
	if n.ChatID == 0 {
		c.Logger().Debug("notification without chat", "type", n.Type)
		return
	}
	item, ok := c.items[n.ChatID]
	if ok {
		item.Receive(n.Body)
	}
	if n.ChatID != c.open {
		return
	}
	if ok {
		item.Read()
	}
	if pane := c.Container().QueryBind("messages"); pane != nil {
		pane.Mount(message(c.profile.ID, model.Message{UID: n.UID, Body: n.Body}), dom.Append)
	}
}

func page() *vdom.VNode {
	return vdom.Div(vdom.Class("chats"), vdom.Bind("chats"),
		vdom.Aside(vdom.Class("chats__list"),
			vdom.Div(vdom.Class("chats__header"),
				vdom.H2("Chats"),
				vdom.Span(vdom.Class("chats__status"), vdom.Bind("chat-status"), vdom.Data("status", "connecting"), "connecting"),
			),
			vdom.Div(vdom.Class("chats__items"), vdom.Bind("chat-list"), views.Loading()),
		),
		vdom.Section(vdom.Class("chats__conversation"), vdom.Bind("conversation"),
			vdom.P(vdom.Class("font", "font__color_lg"), "Pick a chat"),
		),
	)
}

func conversation(self int64, msgs []model.Message) *vdom.VNode {
	return vdom.Div(vdom.Class("chat"), vdom.Bind("messages"),
		vdom.Range(msgs, func(m model.Message, _ int) *vdom.VNode {
			return message(self, m)
		}),
	)
}

func message(self int64, m model.Message) *vdom.VNode {
	return vdom.Div(vdom.Class("chat__message"), vdom.ClassIf(m.UID == self, "chat__message_own"), vdom.Bind("chat-message"), m.Body)
}

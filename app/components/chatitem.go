package components

import (
	"context"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/eventum-app/eventum/pkg/assets"
	"github.com/eventum-app/eventum/pkg/component"
	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/model"
	"github.com/eventum-app/eventum/pkg/vdom"
)

// Chat list class names.
const (
	ChatActiveClass    = "chat-list-item_active"
	TitleActiveClass   = "gradient-text"
	TimeActiveClass    = "chat-list-item__time_active"
	AvatarActiveClass  = "chat-list-item__avatar_active"
	TimeUnreadClass    = "chat-list-item__time_unread"
	MessageUnreadClass = "chat-list-item__message_unread"
	AlertUnreadClass   = "chat-list-item__alert_unread"
)

// ChatData is the render-ready shape of a chat.
type ChatData struct {
	ID      int64
	Title   string
	Avatar  string
	Last    string
	Updated string
	Unread  bool
}

// ChatListItem is one row of the chat list.
type ChatListItem struct {
	component.Base[ChatData]

	chat   model.Chat
	assets assets.Resolver
	now    func() time.Time
}

// NewChatListItem creates a row for chat. resolver may be nil, in which
// case the avatar is left empty.
func NewChatListItem(chat model.Chat, resolver assets.Resolver) *ChatListItem {
	c := &ChatListItem{chat: chat, assets: resolver, now: time.Now}
	c.Init(chatTemplate, ChatData{})
	return c
}

// ChatID returns the chat the row shows.
func (c *ChatListItem) ChatID() int64 {
	return c.chat.ID
}

// BeforeRender shapes the chat.
func (c *ChatListItem) BeforeRender() error {
	ch := c.chat
	if err := component.Require("id", ch.ID != 0); err != nil {
		return err
	}
	avatar := ""
	if c.assets != nil {
		u, err := c.assets.URL(context.Background(), assets.Users, ch.Avatar)
		if err != nil {
			return err
		}
		avatar = u
	}
	updated := ""
	if !ch.Updated.IsZero() {
		updated = humanize.RelTime(ch.Updated, c.now(), "ago", "from now")
	}
	c.SetData(ChatData{
		ID:      ch.ID,
		Title:   ch.Title,
		Avatar:  avatar,
		Last:    ch.LastMessage,
		Updated: updated,
		Unread:  ch.Unread,
	})
	return nil
}

// SetActive toggles the highlighted state of the row.
func (c *ChatListItem) SetActive(on bool) {
	if root := c.Root(); root != nil {
		ToggleActive(root, on)
	}
}

// Receive shows body as the latest message and marks the row unread.
func (c *ChatListItem) Receive(body string) {
	if el, err := c.Element("message"); err == nil {
		el.SetText(body)
	}
	if el, err := c.Element("time"); err == nil {
		el.SetText(humanize.Time(c.now()))
	}
	if root := c.Root(); root != nil {
		MarkUnread(root)
	}
}

// Read clears the unread markers.
func (c *ChatListItem) Read() {
	if root := c.Root(); root != nil {
		MarkRead(root)
	}
}

// ToggleActive switches the active classes on a rendered chat row.
func ToggleActive(row *dom.Element, on bool) {
	row.ToggleClass(ChatActiveClass, on)
	toggleBound(row, "title", TitleActiveClass, on)
	toggleBound(row, "time", TimeActiveClass, on)
	toggleBound(row, "avatar", AvatarActiveClass, on)
}

// MarkRead removes the unread classes from a rendered chat row.
func MarkRead(row *dom.Element) {
	toggleBound(row, "time", TimeUnreadClass, false)
	toggleBound(row, "message", MessageUnreadClass, false)
	toggleBound(row, "alert", AlertUnreadClass, false)
}

// MarkUnread adds the unread classes to a rendered chat row.
func MarkUnread(row *dom.Element) {
	toggleBound(row, "time", TimeUnreadClass, true)
	toggleBound(row, "message", MessageUnreadClass, true)
	toggleBound(row, "alert", AlertUnreadClass, true)
}

func toggleBound(row *dom.Element, name, class string, on bool) {
	if el := row.QueryBind(name); el != nil {
		el.ToggleClass(class, on)
	}
}

func chatTemplate(d ChatData) *vdom.VNode {
	return vdom.Div(
		vdom.Class("chat-list-item"),
		vdom.Bind("chat"),
		vdom.Data("chat", strconv.FormatInt(d.ID, 10)),
		vdom.Img(vdom.Class("chat-list-item__avatar"), vdom.Bind("avatar"), vdom.Src(d.Avatar), vdom.Alt(d.Title)),
		vdom.Div(vdom.Class("chat-list-item__body"),
			vdom.Span(vdom.Class("chat-list-item__title"), vdom.Bind("title"), d.Title),
			vdom.Span(vdom.Class("chat-list-item__time"), vdom.ClassIf(d.Unread, TimeUnreadClass), vdom.Bind("time"), d.Updated),
			vdom.P(vdom.Class("chat-list-item__message"), vdom.ClassIf(d.Unread, MessageUnreadClass), vdom.Bind("message"), d.Last),
		),
		vdom.Span(vdom.Class("chat-list-item__alert"), vdom.ClassIf(d.Unread, AlertUnreadClass), vdom.Bind("alert")),
	)
}

// Package components holds the reusable pieces screens mount: event
// cards and chat list items.
package components

import (
	"context"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/eventum-app/eventum/app/views"
	"github.com/eventum-app/eventum/pkg/assets"
	"github.com/eventum-app/eventum/pkg/component"
	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/loop"
	"github.com/eventum-app/eventum/pkg/model"
	"github.com/eventum-app/eventum/pkg/vdom"
)

// CardDeps is what an EventCard needs besides its event.
type CardDeps struct {
	Loop   *loop.Loop
	Tags   *model.TagCache
	Assets assets.Resolver

	// Now defaults to time.Now.
	Now func() time.Time
}

// CardData is the render-ready shape of an event.
type CardData struct {
	ID       int64
	Kind     model.EventKind
	Title    string
	About    string
	When     string
	Tags     []model.Tag
	Photos   []string
	Editable bool
}

// EventCard renders one event. Photos load after render; a spinner holds
// their place until every URL has resolved.
type EventCard struct {
	component.Base[CardData]

	event    model.Event
	editable bool
	deps     CardDeps
}

// NewEventCard creates a card for e.
func NewEventCard(e model.Event, editable bool, deps CardDeps) *EventCard {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	c := &EventCard{event: e, editable: editable, deps: deps}
	c.Init(eventTemplate, CardData{})
	return c
}

// Event returns the event the card shows.
func (c *EventCard) Event() model.Event {
	return c.event
}

// BeforeRender shapes the event: kind class, relative date, tag names.
func (c *EventCard) BeforeRender() error {
	e := c.event
	if err := component.Require("title", e.Title != ""); err != nil {
		return err
	}
	kind := e.Kind
	if !kind.Valid() {
		kind = model.KindSmall
	}

	when := "Date to be announced"
	if !e.Date.IsZero() {
		when = humanize.RelTime(e.Date, c.deps.Now(), "ago", "from now")
	}

	var tags []model.Tag
	if c.deps.Tags != nil {
		tags = c.deps.Tags.ResolveAll(e.Tags)
	}

	c.SetData(CardData{
		ID:       e.ID,
		Kind:     kind,
		Title:    e.Title,
		About:    e.Description,
		When:     when,
		Tags:     tags,
		Photos:   e.Photos,
		Editable: c.editable,
	})
	return nil
}

// DidRender starts loading photos.
func (c *EventCard) DidRender() error {
	photos := c.Data().Photos
	if len(photos) == 0 || c.deps.Assets == nil || c.deps.Loop == nil {
		return nil
	}
	region, err := c.Element("photos")
	if err != nil {
		return err
	}
	if err := views.ShowLoading(region); err != nil {
		return err
	}

	alive := c.Guard()
	resolver := c.deps.Assets
	loop.Await(c.deps.Loop, func() ([]string, error) {
		urls := make([]string, 0, len(photos))
		for _, name := range photos {
			u, err := resolver.URL(context.Background(), assets.Events, name)
			if err != nil {
				return nil, err
			}
			urls = append(urls, u)
		}
		return urls, nil
	}, func(urls []string, err error) {
		if !alive() {
			return
		}
		c.showPhotos(urls, err)
	})
	return nil
}

func (c *EventCard) showPhotos(urls []string, err error) {
	region, lookupErr := c.Element("photos")
	if lookupErr != nil {
		return
	}
	if err != nil {
		region.Mount(vdom.Span(vdom.Class("event__photos-error"), vdom.Bind("photos-error"), "Photos unavailable"), dom.Replace)
		return
	}
	region.Mount(vdom.Fragment(vdom.Range(urls, func(u string, i int) *vdom.VNode {
		return vdom.Img(vdom.Class("event__photo"), vdom.Bind("photo"), vdom.Src(u), vdom.Alt("photo "+strconv.Itoa(i+1)))
	})), dom.Replace)
}

func eventTemplate(d CardData) *vdom.VNode {
	return vdom.Article(
		vdom.Class("event", "event_"+string(d.Kind)),
		vdom.Bind("event"),
		vdom.Data("id", strconv.FormatInt(d.ID, 10)),
		vdom.Div(vdom.Class("event__header"),
			vdom.H3(vdom.Class("event__title"), vdom.Bind("title"), d.Title),
			vdom.Time_(vdom.Class("event__date"), vdom.Bind("date"), d.When),
			vdom.If(d.Editable, vdom.Button(vdom.Class("event__edit"), vdom.Bind("edit"), vdom.Type("button"), "Edit")),
		),
		vdom.If(d.About != "", vdom.P(vdom.Class("event__about"), vdom.Bind("about"), d.About)),
		vdom.Ul(vdom.Class("event__tags"), vdom.Bind("tags"),
			vdom.ListOr(d.Tags, func(t model.Tag, _ int) *vdom.VNode {
				return vdom.Li(vdom.Class("tag", "tag__container_active"), vdom.Data("tag", strconv.FormatInt(t.ID, 10)), t.Name)
			}, vdom.Li(vdom.Class("tag", "tag_empty"), vdom.Bind("no-tags"), "No tags")),
		),
		vdom.Div(vdom.Class("event__photos"), vdom.Bind("photos")),
	)
}

// Package search is the event search screen: a text query, tag toggles,
// and a results grid.
package search

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/eventum-app/eventum/app/components"
	"github.com/eventum-app/eventum/app/views"
	"github.com/eventum-app/eventum/pkg/assets"
	"github.com/eventum-app/eventum/pkg/controller"
	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/model"
	"github.com/eventum-app/eventum/pkg/router"
	"github.com/eventum-app/eventum/pkg/vdom"
)

// Path is where the screen is mounted.
const Path = "/search"

// Search tag classes.
const (
	TagClass       = "search_tag"
	TagActiveClass = "search_tag_active"
)

// PageSize is the number of results requested per search.
const PageSize = 20

// ErrNoModels is returned by the factory when Deps.Models is nil.
var ErrNoModels = errors.New("search: no models configured")

// Deps are the services the screen uses. Tags and Assets are optional.
type Deps struct {
	Models model.Models
	Tags   *model.TagCache
	Assets assets.Resolver
}

// Factory returns the router factory for the screen.
func Factory(deps Deps) router.Factory {
	return func(env controller.Env, _ router.Params) (controller.Controller, error) {
		if deps.Models == nil {
			return nil, ErrNoModels
		}
		c := &Controller{deps: deps}
		c.Init(env)
		return c, nil
	}
}

// Controller drives the search screen.
type Controller struct {
	controller.Base

	deps      Deps
	searching bool
	cards     []*components.EventCard
}

// Action loads the tag list and renders the form.
func (c *Controller) Action(ctx context.Context) error {
	if err := c.Activate(); err != nil {
		return err
	}
	if c.deps.Tags == nil {
		return c.render(nil)
	}
	if _, err := c.Show(views.Loading()); err != nil {
		return err
	}
	c.deps.Tags.Load(c.Context(), func(tags []model.Tag, err error) {
		if !c.Alive() {
			return
		}
		if err != nil {
			c.Logger().Warn("tags unavailable, searching by text only", "error", err)
		}
		if err := c.render(tags); err != nil {
			c.Logger().Error("render search", "error", err)
		}
	})
	return nil
}

// Searching reports whether a search is in flight.
func (c *Controller) Searching() bool {
	return c.searching
}

func (c *Controller) render(tags []model.Tag) error {
	if _, err := c.Show(page(tags)); err != nil {
		return err
	}
	_, err := c.InitHandlers(
		controller.Binding{Value: "search-form", Required: true, Events: map[string]dom.Handler{"submit": c.submit}},
		controller.Binding{Attr: "data-tag", All: true, Events: map[string]dom.Handler{"click": c.toggleTag}},
	)
	return err
}

func (c *Controller) toggleTag(ev *dom.Event) {
	ev.PreventDefault()
	tag := ev.CurrentTarget
	tag.ToggleClass(TagActiveClass, !tag.HasClass(TagActiveClass))
}

// selected returns the ids of the highlighted tags.
func (c *Controller) selected() []int64 {
	var ids []int64
	for _, el := range c.Container().QueryAllAttr("data-tag", "") {
		if !el.HasClass(TagActiveClass) {
			continue
		}
		raw, _ := el.Attr("data-tag")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (c *Controller) submit(ev *dom.Event) {
	ev.PreventDefault()
	if c.searching {
		c.Logger().Debug("search already in flight")
		return
	}
	results := c.Container().QueryBind("results")
	query := c.Container().QueryBind("query")
	if results == nil || query == nil {
		return
	}

	req := model.SearchRequest{
		Query: strings.TrimSpace(query.Value()),
		Tags:  c.selected(),
		Page:  1,
		Limit: PageSize,
	}
	c.searching = true
	c.dropCards()
	views.ShowLoading(results)
	controller.Await(&c.Base, func(ctx context.Context) ([]model.Event, error) {
		return c.deps.Models.SearchEvents(ctx, req)
	}, func(events []model.Event, err error) {
		c.searching = false
		c.showResults(results, events, err)
	})
}

func (c *Controller) showResults(results *dom.Element, events []model.Event, err error) {
	if err != nil {
		c.Logger().Warn("search", "error", err)
		views.ShowServerError(results, model.ErrorText(err))
		return
	}
	if len(events) == 0 {
		views.ShowEmpty(results, "Nothing found", "", "")
		return
	}
	results.Clear()
	for _, e := range events {
		card := components.NewEventCard(e, false, components.CardDeps{
			Loop:   c.Env().Loop,
			Tags:   c.deps.Tags,
			Assets: c.deps.Assets,
		})
		if err := c.Mount(card, results, dom.Append); err != nil {
			c.Logger().Warn("skip event card", "event", e.ID, "error", err)
			continue
		}
		c.cards = append(c.cards, card)
	}
}

// dropCards destroys the cards of the previous search.
func (c *Controller) dropCards() {
	for _, card := range c.cards {
		c.Unmount(card)
	}
	c.cards = nil
}

func page(tags []model.Tag) *vdom.VNode {
	return vdom.Div(vdom.Class("big-search"), vdom.Bind("search"),
		vdom.Form(vdom.Class("big-search__form"), vdom.Bind("search-form"),
			vdom.Input(vdom.Class("input", "input__search"), vdom.Bind("query"), vdom.Name("search_text"), vdom.Placeholder("Search events")),
			vdom.Div(vdom.Class("big-search__tags"), vdom.Bind("tags"),
				vdom.Range(tags, func(t model.Tag, _ int) *vdom.VNode {
					return vdom.Span(vdom.Class(TagClass), vdom.Data("tag", strconv.FormatInt(t.ID, 10)),
						vdom.Span(vdom.Class("tag", "tag_size_middle"), t.Name),
					)
				}),
			),
			vdom.Button(vdom.Class("re_btn", "re_btn__filled"), vdom.Bind("search-submit"), vdom.Type("submit"), "Search"),
		),
		vdom.Div(vdom.Class("big-search__results"), vdom.Bind("results")),
	)
}

// Package profile is the signed-in user's page: profile details, an about
// editor, a quick event form, and the user's own events and subscriptions.
package profile

import (
	"context"
	"errors"
	"strconv"

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
const Path = "/my/profile"

// Region names.
const (
	PersonalEvents = "personal-events"
	Subscriptions  = "subscriptions"
)

// ErrNoModels is returned by the factory when Deps.Models is nil.
var ErrNoModels = errors.New("profile: no models configured")

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

// Controller drives the profile screen.
type Controller struct {
	controller.Base

	deps     Deps
	profile  model.Profile
	regions  map[string]*dom.Element
	saving   bool
	creating bool
}

// Action shows a spinner and loads the profile.
func (c *Controller) Action(ctx context.Context) error {
	if err := c.Activate(); err != nil {
		return err
	}
	if _, err := c.Show(views.Loading()); err != nil {
		return err
	}
	controller.Await(&c.Base, c.deps.Models.GetProfile, c.showProfile)
	return nil
}

// Profile returns the loaded profile.
func (c *Controller) Profile() model.Profile {
	return c.profile
}

func (c *Controller) showProfile(p model.Profile, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		c.showView(views.Unauthorized())
		return
	case err != nil:
		c.Logger().Warn("load profile", "error", err)
		c.showView(views.Error(model.ErrorText(err)))
		return
	case !p.Authorized():
		c.showView(views.Unauthorized())
		return
	}

	c.profile = p
	if _, err := c.Show(page(p, c.avatar(p))); err != nil {
		c.Logger().Error("render profile", "error", err)
		return
	}
	c.regions = make(map[string]*dom.Element)

	if _, err := c.InitHandlers(
		controller.On("save-about", map[string]dom.Handler{"click": c.saveAbout}),
		controller.Binding{Value: "new-event", Required: true, Events: map[string]dom.Handler{"submit": c.createEvent}},
		controller.On("new-title", map[string]dom.Handler{"focus": func(ev *dom.Event) { views.RemoveErrorMessage(ev.Target) }}),
	); err != nil {
		c.Logger().Error("profile handlers", "error", err)
		return
	}

	if c.deps.Tags == nil {
		c.loadEvents()
		return
	}
	c.deps.Tags.Load(c.Context(), func(_ []model.Tag, err error) {
		if !c.Alive() {
			return
		}
		if err != nil {
			c.Logger().Warn("tags unavailable, cards show without them", "error", err)
		}
		c.loadEvents()
	})
}

// showView replaces the screen with a static view.
func (c *Controller) showView(v *vdom.VNode) {
	if _, err := c.Show(v); err != nil {
		c.Logger().Error("render profile", "error", err)
	}
}

func (c *Controller) avatar(p model.Profile) string {
	if c.deps.Assets == nil {
		return ""
	}
	u, err := c.deps.Assets.URL(c.Context(), assets.Users, p.Avatar.Path)
	if err != nil {
		c.Logger().Warn("resolve avatar", "error", err)
		return ""
	}
	return u
}

// loadEvents fills both event regions. The two requests run concurrently
// and each region settles on its own.
func (c *Controller) loadEvents() {
	uid := c.profile.ID
	controller.Await(&c.Base, func(ctx context.Context) (model.EventGroups, error) {
		return c.deps.Models.GetUserOwnEvents(ctx, uid)
	}, func(g model.EventGroups, err error) {
		c.fill(PersonalEvents, g, err, true, "You have no events yet", "", "")
	})
	controller.Await(&c.Base, func(ctx context.Context) (model.EventGroups, error) {
		return c.deps.Models.GetUserSubscriptions(ctx, uid)
	}, func(g model.EventGroups, err error) {
		c.fill(Subscriptions, g, err, false, "You are not going anywhere yet", "Find an event", "/search")
	})
}

// region returns the element bound to name, re-resolving a cached entry
// that has left the screen.
func (c *Controller) region(name string) *dom.Element {
	root := c.Container()
	if root == nil {
		return nil
	}
	if el, ok := c.regions[name]; ok && root.Contains(el) {
		return el
	}
	el := root.QueryBind(name)
	if el != nil {
		c.regions[name] = el
	}
	return el
}

func (c *Controller) fill(name string, g model.EventGroups, err error, editable bool, empty, linkText, href string) {
	region := c.region(name)
	if region == nil {
		return
	}
	if err != nil {
		c.Logger().Warn("load events", "region", name, "error", err)
		views.ShowServerError(region, model.ErrorText(err))
		return
	}
	if g.Empty() {
		views.ShowEmpty(region, empty, linkText, href)
		return
	}
	region.Clear()
	for _, e := range g.All() {
		c.mountCard(region, e, editable, dom.Append)
	}
}

func (c *Controller) mountCard(region *dom.Element, e model.Event, editable bool, pos dom.Position) {
	card := components.NewEventCard(e, editable, components.CardDeps{
		Loop:   c.Env().Loop,
		Tags:   c.deps.Tags,
		Assets: c.deps.Assets,
	})
	if err := c.Mount(card, region, pos); err != nil {
		c.Logger().Warn("skip event card", "event", e.ID, "error", err)
	}
}

func (c *Controller) saveAbout(*dom.Event) {
	if c.saving {
		return
	}
	about := c.region("about")
	status := c.region("save-status")
	if about == nil || status == nil {
		return
	}
	p := c.profile
	text := about.Value()
	p.About = &text

	c.saving = true
	status.SetText("Saving")
	controller.Await(&c.Base, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.deps.Models.PutProfile(ctx, p)
	}, func(_ struct{}, err error) {
		c.saving = false
		if err != nil {
			status.SetText(model.ErrorText(err))
			return
		}
		c.profile = p
		status.SetText("Saved")
	})
}

func (c *Controller) createEvent(ev *dom.Event) {
	ev.PreventDefault()
	if c.creating {
		return
	}
	title := c.region("new-title")
	kind := c.region("new-kind")
	if title == nil || kind == nil {
		return
	}
	k := model.EventKind(kind.Value())
	if k == "" {
		k = model.KindSmall
	}
	req := model.NewEvent{Kind: k, UID: c.profile.ID, Title: title.Value()}
	if req.Title == "" {
		views.AddErrorMessage(title, []string{"Give the event a title"})
		return
	}
	if err := req.Validate(); err != nil {
		views.AddErrorMessage(title, []string{model.ErrorText(err)})
		return
	}

	region := c.region(PersonalEvents)
	if region == nil {
		return
	}
	c.creating = true
	controller.Await(&c.Base, func(ctx context.Context) (model.Event, error) {
		return c.deps.Models.CreateEvent(ctx, req)
	}, func(e model.Event, err error) {
		c.creating = false
		if err != nil {
			views.AddErrorMessage(title, []string{model.ErrorText(err)})
			return
		}
		if e.Kind == "" {
			e.Kind = req.Kind
		}
		title.SetValue("")
		if region.QueryBind("empty") != nil {
			region.Clear()
		}
		c.mountCard(region, e, true, dom.Prepend)
	})
}

func page(p model.Profile, avatar string) *vdom.VNode {
	about := ""
	if p.About != nil {
		about = *p.About
	}
	return vdom.Div(vdom.Class("my"), vdom.Bind("profile"),
		vdom.Aside(vdom.Class("my__left-column-body"),
			vdom.Img(vdom.Class("profile__photo_img"), vdom.Bind("avatar"), vdom.Src(avatar), vdom.Alt(p.Name)),
			vdom.H2(vdom.Class("profile__name"), vdom.Bind("name"), p.Name),
			vdom.Ul(vdom.Class("profile__tags"), vdom.Bind("profile-tags"),
				vdom.Range(p.Tags, func(t model.Tag, _ int) *vdom.VNode {
					return vdom.Li(vdom.Class("tag", "tag__container_active"), vdom.Data("tag", strconv.FormatInt(t.ID, 10)), t.Name)
				}),
			),
			vdom.Textarea(vdom.Class("input", "input__text_small"), vdom.Bind("about"), vdom.Value(about)),
			vdom.Button(vdom.Class("re_btn", "re_btn__filled"), vdom.Bind("save-about"), vdom.Type("button"), "Save"),
			vdom.Span(vdom.Class("profile__status"), vdom.Bind("save-status")),
		),
		vdom.Main(vdom.Class("my__main-column-body"),
			vdom.H1("Profile"),
			vdom.Form(vdom.Class("event-edit"), vdom.Bind("new-event"),
				vdom.Input(vdom.Class("input"), vdom.Bind("new-title"), vdom.Name("title"), vdom.Placeholder("Event title")),
				vdom.Select(vdom.Class("input"), vdom.Bind("new-kind"), vdom.Name("type"),
					vdom.Option(vdom.Value(string(model.KindSmall)), "Small"),
					vdom.Option(vdom.Value(string(model.KindMid)), "Medium"),
				),
				vdom.Button(vdom.Class("re_btn", "re_btn__filled"), vdom.Bind("add-event"), vdom.Type("submit"), "Add"),
			),
			vdom.Section(vdom.Class("profile-main__personal-events"), vdom.Bind(PersonalEvents), views.Loading()),
			vdom.Section(vdom.Class("profile-main__subscriptions"), vdom.Bind(Subscriptions), views.Loading()),
		),
	)
}

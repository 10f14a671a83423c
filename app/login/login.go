// Package login is the sign-in screen.
package login

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/eventum-app/eventum/app/views"
	"github.com/eventum-app/eventum/pkg/controller"
	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/model"
	"github.com/eventum-app/eventum/pkg/router"
	"github.com/eventum-app/eventum/pkg/vdom"
)

// Path is where the screen is mounted.
const Path = "/login"

// AfterLogin is where a successful sign-in lands.
const AfterLogin = "/my/profile"

// Validation messages.
const (
	MsgBadEmail     = "Enter a valid email"
	MsgBadPhone     = "Enter a phone number of 10 to 15 digits"
	MsgNoPassword   = "Enter your password"
	MsgLoginMissing = "Enter an email or a phone number"
)

// ErrNoModels is returned by the factory when Deps.Models is nil.
var ErrNoModels = errors.New("login: no models configured")

// Deps are the services the screen uses.
type Deps struct {
	Models model.Models
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

// Controller drives the login form.
type Controller struct {
	controller.Base

	deps       Deps
	submitting bool
}

// Action renders the form and installs its handlers.
func (c *Controller) Action(ctx context.Context) error {
	if err := c.Activate(); err != nil {
		return err
	}
	if _, err := c.Show(page()); err != nil {
		return err
	}
	_, err := c.InitHandlers(
		controller.Binding{Value: "login-form", Required: true, Events: map[string]dom.Handler{"submit": c.submit}},
		controller.Binding{Attr: "data-auth", All: true, Events: map[string]dom.Handler{
			"focus": c.clearError,
			"blur":  c.check,
		}},
	)
	return err
}

func (c *Controller) clearError(ev *dom.Event) {
	views.RemoveErrorMessage(ev.CurrentTarget)
}

// check validates the login field when it loses focus.
func (c *Controller) check(ev *dom.Event) {
	input := ev.CurrentTarget
	if input.Bind() != "login" {
		return
	}
	views.RemoveErrorMessage(input)
	if _, msg, _ := credentials(input.Value(), ""); msg != "" {
		views.AddErrorMessage(input, []string{msg})
	}
}

func (c *Controller) submit(ev *dom.Event) {
	ev.PreventDefault()
	if c.submitting {
		return
	}
	root := c.Container()
	login, password := root.QueryBind("login"), root.QueryBind("password")
	if login == nil || password == nil {
		return
	}
	views.RemoveErrorMessage(login)
	views.RemoveErrorMessage(password)

	creds, loginMsg, passwordMsg := credentials(login.Value(), password.Value())
	if loginMsg != "" || passwordMsg != "" {
		if loginMsg != "" {
			views.AddErrorMessage(login, []string{loginMsg})
		}
		if passwordMsg != "" {
			views.AddErrorMessage(password, []string{passwordMsg})
		}
		return
	}

	c.submitting = true
	controller.Await(&c.Base, func(ctx context.Context) (model.User, error) {
		return c.deps.Models.PostLogin(ctx, creds)
	}, func(u model.User, err error) {
		c.submitting = false
		switch {
		case errors.Is(err, model.ErrLoginRejected):
			views.AddErrorMessage(login, []string{model.ErrorText(err)})
		case err != nil:
			c.Logger().Warn("login", "error", err)
			if region := root.QueryBind("login-status"); region != nil {
				views.ShowServerError(region, model.ErrorText(err))
			}
		default:
			c.Logger().Info("signed in", "user", u.ID)
			if nav := c.Env().Nav; nav != nil {
				if err := nav.RedirectForward(context.Background(), AfterLogin); err != nil {
					c.Logger().Warn("redirect after login", "error", err)
				}
			}
		}
	})
}

// credentials splits login into an email or a phone and validates both
// fields, returning a message per invalid field. A login containing "@"
// is an email.
func credentials(login, password string) (creds model.Credentials, loginMsg, passwordMsg string) {
	login = strings.TrimSpace(login)
	creds.Password = password
	switch {
	case login == "":
		loginMsg = MsgLoginMissing
	case strings.Contains(login, "@"):
		creds.Email = login
		if !validEmail(login) {
			loginMsg = MsgBadEmail
		}
	default:
		creds.Phone = login
		if !validPhone(login) {
			loginMsg = MsgBadPhone
		}
	}
	if password == "" {
		passwordMsg = MsgNoPassword
	}
	return creds, loginMsg, passwordMsg
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return strings.Contains(s[at+1:], ".")
}

func validPhone(s string) bool {
	s = strings.TrimPrefix(s, "+")
	if len(s) < 10 || len(s) > 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func page() *vdom.VNode {
	return vdom.Div(vdom.Class("auth"), vdom.Bind("auth"),
		vdom.H1(vdom.Class("auth__title"), "Sign in"),
		vdom.Form(vdom.Class("auth__form"), vdom.Bind("login-form"),
			vdom.Div(vdom.Class("auth__field"),
				vdom.Input(vdom.Class("input", "input__auth"), vdom.Bind("login"), vdom.Data("auth", "login"), vdom.Name("login"), vdom.Placeholder("Email or phone")),
			),
			vdom.Div(vdom.Class("auth__field"),
				vdom.Input(vdom.Class("input", "input__auth"), vdom.Bind("password"), vdom.Data("auth", "password"), vdom.Type("password"), vdom.Name("password"), vdom.Placeholder("Password")),
			),
			vdom.Button(vdom.Class("re_btn", "re_btn__filled"), vdom.Bind("login-submit"), vdom.Type("submit"), "Sign in"),
		),
		vdom.Div(vdom.Class("auth__status"), vdom.Bind("login-status")),
		views.Link("/search", vdom.Class("auth__link"), vdom.Bind("skip-login"), "Browse events first"),
	)
}

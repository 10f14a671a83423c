// Package views holds the full-page fragments screens fall back to and
// the helpers that render a state into one region of a screen.
package views

import (
	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/router"
	"github.com/eventum-app/eventum/pkg/vdom"
)

// Class names shared with the stylesheet.
const (
	InvalidInputClass = "input__auth_incorrect"
	ValidationClass   = "validation-error"
)

// Link is an anchor the router follows without a page load.
func Link(href string, args ...any) *vdom.VNode {
	return vdom.A(append([]any{vdom.Href(href), vdom.Attr{Key: router.LinkAttr, Value: true}}, args...)...)
}

// Error is a full-page error with a message.
func Error(message string) *vdom.VNode {
	return vdom.Div(vdom.Class("error"), vdom.Bind("error"),
		vdom.Span(vdom.Class("error__icon"), "!"),
		vdom.P(vdom.Class("error__message"), vdom.Bind("error-message"), message),
	)
}

// Loading is a spinner.
func Loading() *vdom.VNode {
	return vdom.Div(vdom.Class("loading"), vdom.Bind("loading"),
		vdom.Div(vdom.Class("spinner")),
	)
}

// Unauthorized tells the visitor to sign in.
func Unauthorized() *vdom.VNode {
	return vdom.Div(vdom.Class("unauthorized"), vdom.Bind("unauthorized"),
		vdom.H2("You have no rights to see this"),
		Link("/login", vdom.Bind("login-link"), "Sign in"),
	)
}

// NotFound is the page for unknown paths.
func NotFound() *vdom.VNode {
	return vdom.Div(vdom.Class("not-found"), vdom.Bind("not-found"),
		vdom.H1("Page not found"),
		Link("/", vdom.Bind("home-link"), "Back to the start"),
	)
}

// Empty is a placeholder for an empty region, with an optional link.
func Empty(message, linkText, href string) *vdom.VNode {
	return vdom.Div(vdom.Class("empty"), vdom.Bind("empty"),
		vdom.Span(vdom.Class("font", "font_bold", "font__color_lg"), message),
		vdom.When(linkText != "", func() *vdom.VNode {
			return Link(href, vdom.Class("re_btn", "re_btn__outline"), linkText)
		}),
	)
}

// ShowServerError replaces el's content with an inline error.
func ShowServerError(el *dom.Element, message string) error {
	_, err := el.Mount(Error(message), dom.Replace)
	return err
}

// ShowLoading replaces el's content with a spinner.
func ShowLoading(el *dom.Element) error {
	_, err := el.Mount(Loading(), dom.Replace)
	return err
}

// ShowEmpty replaces el's content with a placeholder.
func ShowEmpty(el *dom.Element, message, linkText, href string) error {
	_, err := el.Mount(Empty(message, linkText, href), dom.Replace)
	return err
}

// AddErrorMessage marks input invalid and puts the first message right
// before it. It does nothing without messages or when a message is
// already shown.
func AddErrorMessage(input *dom.Element, messages []string) error {
	if len(messages) == 0 || input.Parent() == nil {
		return nil
	}
	input.AddClass(InvalidInputClass)
	if prev := input.PreviousSibling(); prev != nil && prev.HasClass(ValidationClass) {
		prev.SetText(messages[0])
		return nil
	}
	msg := input.Document().Build(vdom.Div(vdom.Class(ValidationClass), messages[0]))
	return input.Parent().InsertBefore(input, msg...)
}

// RemoveErrorMessage undoes AddErrorMessage.
func RemoveErrorMessage(input *dom.Element) {
	input.RemoveClass(InvalidInputClass)
	if prev := input.PreviousSibling(); prev != nil && prev.HasClass(ValidationClass) {
		prev.Remove()
	}
}

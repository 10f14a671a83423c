package router

import (
	"context"

	"github.com/eventum-app/eventum/pkg/dom"
)

// LinkAttr marks anchors the router handles without a page load.
const LinkAttr = "data-link"

// Listen intercepts clicks on <a data-link href="..."> inside root and
// turns them into RedirectForward calls. The returned function removes
// the listener.
func (r *Router) Listen(ctx context.Context, root *dom.Element) (stop func()) {
	id := root.AddEventListener("click", func(ev *dom.Event) {
		link := closestLink(ev.Target, root)
		if link == nil {
			return
		}
		href, _ := link.Attr("href")
		if href == "" {
			return
		}
		ev.PreventDefault()
		ev.StopPropagation()
		if err := r.RedirectForward(ctx, href); err != nil {
			r.logger.Warn("link navigation failed", "href", href, "error", err)
		}
	})
	return func() {
		root.RemoveEventListener("click", id)
	}
}

// Popped follows a move the user made through history outside the
// router: the history is synced to path and the router navigates there.
// It must run on the loop.
func (r *Router) Popped(ctx context.Context, path string) error {
	canonical, err := CanonicalizePath(path)
	if err != nil {
		return &NavigationError{Path: path, Op: "pop", Err: err}
	}
	if s, ok := r.history.(Syncer); ok {
		s.Sync(canonical)
	}
	return r.Navigate(ctx, canonical)
}

// PopStateHandler returns a callback for history events raised off the
// loop, such as BrowserHistory.OnPopState. The navigation is dispatched
// onto the loop.
func (r *Router) PopStateHandler(ctx context.Context) func(path string) {
	follow := func(path string) {
		if err := r.Popped(ctx, path); err != nil {
			r.logger.Warn("history navigation failed", "path", path, "error", err)
		}
	}
	return func(path string) {
		if r.env.Loop == nil {
			follow(path)
			return
		}
		r.env.Loop.Dispatch(func() { follow(path) })
	}
}

func closestLink(el, root *dom.Element) *dom.Element {
	for n := el; n != nil; n = n.Parent() {
		if n.Tag() == "a" && n.HasAttr(LinkAttr) {
			return n
		}
		if n == root {
			return nil
		}
	}
	return nil
}

//go:build js && wasm

package router

import (
	"sync/atomic"
	"syscall/js"
)

// BrowserHistory keeps window.history in step with an in-memory mirror.
// The mirror answers Current, Back, and Forward synchronously; the
// browser is told about every change. The mirror is only touched on the
// loop:
//
//	h := router.NewBrowserHistory()
//	r := router.New(env, router.WithHistory(h))
//	h.OnPopState(r.PopStateHandler(ctx))
//	defer h.Release()
type BrowserHistory struct {
	mirror   *MemoryHistory
	history  js.Value
	popFn    js.Func
	suppress atomic.Int32
}

// NewBrowserHistory starts from the current window location.
func NewBrowserHistory() *BrowserHistory {
	return &BrowserHistory{
		mirror:  NewMemoryHistory(locationPath()),
		history: js.Global().Get("history"),
	}
}

func locationPath() string {
	loc := js.Global().Get("location")
	return loc.Get("pathname").String() + loc.Get("search").String()
}

// Current implements History.
func (b *BrowserHistory) Current() string { return b.mirror.Current() }

// Len implements History.
func (b *BrowserHistory) Len() int { return b.mirror.Len() }

// Push implements History.
func (b *BrowserHistory) Push(path string) bool {
	if !b.mirror.Push(path) {
		return false
	}
	b.history.Call("pushState", nil, "", path)
	return true
}

// Replace implements History.
func (b *BrowserHistory) Replace(path string) {
	b.mirror.Replace(path)
	b.history.Call("replaceState", nil, "", path)
}

// Back implements History. The popstate event it causes is swallowed
// because the router navigates itself.
func (b *BrowserHistory) Back() (string, bool) {
	path, ok := b.mirror.Back()
	if ok {
		b.suppress.Add(1)
		b.history.Call("back")
	}
	return path, ok
}

// Forward implements History.
func (b *BrowserHistory) Forward() (string, bool) {
	path, ok := b.mirror.Forward()
	if ok {
		b.suppress.Add(1)
		b.history.Call("forward")
	}
	return path, ok
}

// Sync implements Syncer.
func (b *BrowserHistory) Sync(path string) { b.mirror.Sync(path) }

// OnPopState calls fn with the new path whenever the user moves through
// history with the browser controls. fn runs on the JS event goroutine;
// Router.PopStateHandler hands the path to the loop.
func (b *BrowserHistory) OnPopState(fn func(path string)) {
	b.popFn = js.FuncOf(func(this js.Value, args []js.Value) any {
		for {
			n := b.suppress.Load()
			if n <= 0 {
				break
			}
			if b.suppress.CompareAndSwap(n, n-1) {
				return nil
			}
		}
		fn(locationPath())
		return nil
	})
	js.Global().Call("addEventListener", "popstate", b.popFn)
}

// Release removes the popstate listener.
func (b *BrowserHistory) Release() {
	if b.popFn.Truthy() {
		js.Global().Call("removeEventListener", "popstate", b.popFn)
		b.popFn.Release()
	}
}

// Package vdom provides the node tree that templates produce.
//
// A template is a pure Go function from a data value to a *VNode tree. The
// tree is never diffed: it is mounted once into the live document by package
// dom, and components address the mounted elements through logical names.
//
// # Core Types
//
// VNode is the building block representing elements, text and fragments.
// Props holds attributes. Attr is used to build Props.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("event"), Bind("photos"),
//	    H3(Text(event.Title)),
//	    ListOr(event.Photos, photo, Span(Class("event__empty"))),
//	)
//
// # Logical Names
//
// Bind marks an element with a data-bind attribute. Components resolve and
// cache elements by that name instead of querying the whole document.
package vdom

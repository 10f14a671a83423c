// Package component implements reusable UI pieces with a lazily filled
// cache of named element references.
//
// A component moves through three steps, driven by Mount:
//
//	BeforeRender  shape the data; no document access
//	Render        apply the template and insert the result
//	DidRender     resolve elements, attach children, start async work
//
// Templates mark elements with vdom.Bind(name). Element(name) resolves the
// first match inside the component's own subtree on first access and
// returns the cached reference afterwards. The cache is discarded on
// Destructor, after which the component can render again and hands out
// fresh references.
//
// Embed Base in a concrete component and override the steps you need:
//
//	type EventCard struct {
//	    component.Base[EventData]
//	}
//
//	func (c *EventCard) DidRender() error {
//	    photos, err := c.Element("photos")
//	    ...
//	}
package component

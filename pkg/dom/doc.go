// Package dom is the live element tree the runtime mounts templates into.
//
// A Document owns a root element. Elements are created from vdom.VNode
// trees, inserted at a Position, looked up by attribute (most often the
// data-bind logical name), and carry event listeners identified by a
// ListenerID so that the exact registration can be removed later.
// Dispatch delivers an Event to the target and then bubbles it to each
// ancestor until a listener stops propagation.
//
// The tree is not safe for concurrent use. All mutation happens on the
// goroutine running the loop.Loop that owns the document.
package dom

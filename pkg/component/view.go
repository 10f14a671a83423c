package component

import (
	"github.com/eventum-app/eventum/pkg/dom"
	"github.com/eventum-app/eventum/pkg/vdom"
)

// View renders stateless full-page fragments such as error, loading, or
// not-found screens. Every Show replaces what the container held.
type View struct {
	container *dom.Element
}

// NewView returns a view over container.
func NewView(container *dom.Element) *View {
	return &View{container: container}
}

// Container returns the element the view renders into.
func (v *View) Container() *dom.Element {
	return v.container
}

// Show replaces the container's children with node.
func (v *View) Show(node *vdom.VNode) ([]*dom.Element, error) {
	if v.container == nil {
		return nil, ErrNilParent
	}
	return v.container.Mount(node, dom.Replace)
}

// Clear empties the container.
func (v *View) Clear() {
	if v.container != nil {
		v.container.Clear()
	}
}

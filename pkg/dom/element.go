package dom

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eventum-app/eventum/pkg/render"
	"github.com/eventum-app/eventum/pkg/vdom"
)

// Errors returned by tree operations.
var (
	ErrNilElement   = errors.New("dom: nil element")
	ErrNotChild     = errors.New("dom: element is not a child of the parent")
	ErrTextChildren = errors.New("dom: text nodes cannot have children")
	ErrCycle        = errors.New("dom: cannot insert an element into its own subtree")
)

// NodeKind distinguishes element nodes from text nodes.
type NodeKind uint8

const (
	ElementNode NodeKind = iota
	TextNode
)

// Position says where mounted nodes go relative to a parent's children.
type Position uint8

const (
	// Append inserts after the existing children.
	Append Position = iota
	// Prepend inserts before the existing children.
	Prepend
	// Replace removes the existing children first.
	Replace
)

// String returns the position name.
func (p Position) String() string {
	switch p {
	case Append:
		return "append"
	case Prepend:
		return "prepend"
	case Replace:
		return "replace"
	default:
		return fmt.Sprintf("Position(%d)", p)
	}
}

// Element is a node in the live tree.
type Element struct {
	doc      *Document
	kind     NodeKind
	tag      string
	text     string
	attrs    map[string]string
	attrKeys []string
	parent   *Element
	children []*Element

	listeners map[string][]listener
}

type listener struct {
	id ListenerID
	fn Handler
}

// Kind reports whether e is an element or a text node.
func (e *Element) Kind() NodeKind { return e.kind }

// Tag returns the element tag name, or "" for text nodes.
func (e *Element) Tag() string { return e.tag }

// Document returns the owning document.
func (e *Element) Document() *Document { return e.doc }

// Parent returns the parent element, or nil when detached.
func (e *Element) Parent() *Element { return e.parent }

// Children returns a copy of the child list.
func (e *Element) Children() []*Element {
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// IsConnected reports whether e is reachable from its document root.
func (e *Element) IsConnected() bool {
	if e == nil || e.doc == nil {
		return false
	}
	n := e
	for n.parent != nil {
		n = n.parent
	}
	return n == e.doc.root
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	for n := other; n != nil; n = n.parent {
		if n == e {
			return true
		}
	}
	return false
}

// Attributes

// Attr returns the attribute value and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// HasAttr reports whether the attribute is present.
func (e *Element) HasAttr(name string) bool {
	_, ok := e.attrs[name]
	return ok
}

// SetAttr sets an attribute, preserving first-set order.
func (e *Element) SetAttr(name, value string) {
	if e.kind != ElementNode {
		return
	}
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	if _, ok := e.attrs[name]; !ok {
		e.attrKeys = append(e.attrKeys, name)
	}
	e.attrs[name] = value
}

// RemoveAttr deletes an attribute.
func (e *Element) RemoveAttr(name string) {
	if _, ok := e.attrs[name]; !ok {
		return
	}
	delete(e.attrs, name)
	for i, k := range e.attrKeys {
		if k == name {
			e.attrKeys = append(e.attrKeys[:i], e.attrKeys[i+1:]...)
			break
		}
	}
}

// Bind returns the element's logical name.
func (e *Element) Bind() string {
	return e.attrs[vdom.BindAttr]
}

// ID returns the id attribute.
func (e *Element) ID() string {
	return e.attrs["id"]
}

// Value returns the value attribute. Inputs store their current value there.
func (e *Element) Value() string {
	return e.attrs["value"]
}

// SetValue sets the value attribute.
func (e *Element) SetValue(v string) {
	e.SetAttr("value", v)
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	return strings.Fields(e.attrs["class"])
}

// HasClass reports whether the class list contains class.
func (e *Element) HasClass(class string) bool {
	for _, c := range e.Classes() {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass adds class if it is not already present.
func (e *Element) AddClass(class string) {
	if class == "" || e.HasClass(class) {
		return
	}
	e.SetAttr("class", strings.TrimSpace(e.attrs["class"]+" "+class))
}

// RemoveClass removes every occurrence of class.
func (e *Element) RemoveClass(class string) {
	classes := e.Classes()
	kept := classes[:0]
	for _, c := range classes {
		if c != class {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		e.RemoveAttr("class")
		return
	}
	e.SetAttr("class", strings.Join(kept, " "))
}

// ToggleClass adds class when on is true and removes it otherwise.
func (e *Element) ToggleClass(class string, on bool) {
	if on {
		e.AddClass(class)
	} else {
		e.RemoveClass(class)
	}
}

// Text content

// TextContent returns the concatenated text of e and its descendants.
func (e *Element) TextContent() string {
	if e.kind == TextNode {
		return e.text
	}
	var b strings.Builder
	e.walk(func(n *Element) bool {
		if n.kind == TextNode {
			b.WriteString(n.text)
		}
		return true
	})
	return b.String()
}

// SetText replaces the children of e with a single text node. On a text
// node it replaces the node's own text.
func (e *Element) SetText(s string) {
	if e.kind == TextNode {
		e.text = s
		return
	}
	e.Clear()
	if s != "" {
		e.appendChild(e.doc.CreateText(s))
	}
}

// Tree mutation

// Insert places nodes relative to e's children according to pos.
func (e *Element) Insert(pos Position, nodes ...*Element) error {
	if e == nil {
		return ErrNilElement
	}
	if e.kind == TextNode {
		return ErrTextChildren
	}
	for _, n := range nodes {
		if n == nil {
			return ErrNilElement
		}
		if n.Contains(e) {
			return ErrCycle
		}
	}

	switch pos {
	case Replace:
		e.Clear()
		fallthrough
	case Append:
		for _, n := range nodes {
			e.appendChild(n)
		}
	case Prepend:
		for i := len(nodes) - 1; i >= 0; i-- {
			nodes[i].detach()
			nodes[i].parent = e
			e.children = append([]*Element{nodes[i]}, e.children...)
		}
	default:
		return fmt.Errorf("dom: unknown position %d", pos)
	}
	return nil
}

// InsertBefore places nodes immediately before ref, which must be a child
// of e.
func (e *Element) InsertBefore(ref *Element, nodes ...*Element) error {
	if ref == nil {
		return ErrNilElement
	}
	if ref.parent != e {
		return ErrNotChild
	}
	for _, n := range nodes {
		if n == nil {
			return ErrNilElement
		}
		if n == ref || n.Contains(e) {
			return ErrCycle
		}
	}
	for _, n := range nodes {
		n.detach()
		n.parent = e
		i := e.indexOf(ref)
		e.children = append(e.children[:i], append([]*Element{n}, e.children[i:]...)...)
	}
	return nil
}

// PreviousSibling returns the child of e's parent just before e.
func (e *Element) PreviousSibling() *Element {
	if e.parent == nil {
		return nil
	}
	if i := e.parent.indexOf(e); i > 0 {
		return e.parent.children[i-1]
	}
	return nil
}

func (e *Element) indexOf(child *Element) int {
	for i, c := range e.children {
		if c == child {
			return i
		}
	}
	return -1
}

// AppendChild appends child to e.
func (e *Element) AppendChild(child *Element) error {
	return e.Insert(Append, child)
}

// RemoveChild detaches child from e.
func (e *Element) RemoveChild(child *Element) error {
	if child == nil {
		return ErrNilElement
	}
	if child.parent != e {
		return ErrNotChild
	}
	child.detach()
	return nil
}

// ReplaceChild puts next where old was.
func (e *Element) ReplaceChild(old, next *Element) error {
	if old == nil || next == nil {
		return ErrNilElement
	}
	if old.parent != e {
		return ErrNotChild
	}
	if next.Contains(e) {
		return ErrCycle
	}
	next.detach()
	for i, c := range e.children {
		if c == old {
			e.children[i] = next
			break
		}
	}
	next.parent = e
	old.parent = nil
	return nil
}

// Remove detaches e from its parent. Listeners stay attached to e.
func (e *Element) Remove() {
	e.detach()
}

// Clear detaches every child of e.
func (e *Element) Clear() {
	for _, c := range e.children {
		c.parent = nil
	}
	e.children = nil
}

// Mount builds node and inserts the result at pos. Fragments contribute
// their children, so Mount can return several roots.
func (e *Element) Mount(node *vdom.VNode, pos Position) ([]*Element, error) {
	if e == nil {
		return nil, ErrNilElement
	}
	roots := e.doc.Build(node)
	if err := e.Insert(pos, roots...); err != nil {
		return nil, err
	}
	return roots, nil
}

func (e *Element) appendChild(child *Element) {
	child.detach()
	child.parent = e
	e.children = append(e.children, child)
}

func (e *Element) detach() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
}

// Queries

// Query returns the first node in e's subtree (e included) that
// satisfies match, in document order.
func (e *Element) Query(match func(*Element) bool) *Element {
	var found *Element
	e.walk(func(n *Element) bool {
		if found != nil {
			return false
		}
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// QueryAll returns every node in e's subtree (e included) that satisfies
// match, in document order.
func (e *Element) QueryAll(match func(*Element) bool) []*Element {
	var out []*Element
	e.walk(func(n *Element) bool {
		if match(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// QueryAttr returns the first element carrying attr. An empty value
// matches any value.
func (e *Element) QueryAttr(attr, value string) *Element {
	return e.Query(attrMatcher(attr, value))
}

// QueryAllAttr returns every element carrying attr. An empty value
// matches any value.
func (e *Element) QueryAllAttr(attr, value string) []*Element {
	return e.QueryAll(attrMatcher(attr, value))
}

// QueryBind returns the first element whose logical name is name.
func (e *Element) QueryBind(name string) *Element {
	return e.QueryAttr(vdom.BindAttr, name)
}

// QueryID returns the element with the given id attribute.
func (e *Element) QueryID(id string) *Element {
	return e.QueryAttr("id", id)
}

func attrMatcher(attr, value string) func(*Element) bool {
	return func(n *Element) bool {
		v, ok := n.attrs[attr]
		return ok && (value == "" || v == value)
	}
}

func (e *Element) walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children() {
		c.walk(fn)
	}
}

// Serialization

// VNode converts the live subtree back into a template node.
func (e *Element) VNode() *vdom.VNode {
	if e.kind == TextNode {
		return vdom.Text(e.text)
	}
	node := &vdom.VNode{
		Kind:  vdom.KindElement,
		Tag:   e.tag,
		Props: make(vdom.Props, len(e.attrs)),
	}
	for _, k := range e.attrKeys {
		v := e.attrs[k]
		if v == "" && k != "value" && k != "alt" {
			// Present without a value, as mounted from a true prop.
			node.Props[k] = true
			continue
		}
		node.Props[k] = v
	}
	for _, c := range e.children {
		node.Children = append(node.Children, c.VNode())
	}
	return node
}

// HTML serializes the subtree.
func (e *Element) HTML() string {
	return render.HTML(e.VNode())
}

// InnerHTML serializes the children of e.
func (e *Element) InnerHTML() string {
	var b strings.Builder
	for _, c := range e.children {
		b.WriteString(c.HTML())
	}
	return b.String()
}

// String implements fmt.Stringer for debugging.
func (e *Element) String() string {
	if e.kind == TextNode {
		return fmt.Sprintf("#text(%q)", e.text)
	}
	if name := e.Bind(); name != "" {
		return fmt.Sprintf("<%s data-bind=%q>", e.tag, name)
	}
	return "<" + e.tag + ">"
}

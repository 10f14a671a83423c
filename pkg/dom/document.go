package dom

import (
	"fmt"
	"sort"

	"github.com/eventum-app/eventum/pkg/vdom"
)

// Document owns a tree of elements rooted at Body.
type Document struct {
	root      *Element
	nextID    ListenerID
	listeners int
}

// NewDocument creates an empty document with a <body> root.
func NewDocument() *Document {
	d := &Document{}
	d.root = d.CreateElement("body")
	return d
}

// Body returns the root element.
func (d *Document) Body() *Element {
	return d.root
}

// CreateElement returns a detached element.
func (d *Document) CreateElement(tag string) *Element {
	return &Element{doc: d, kind: ElementNode, tag: tag}
}

// CreateText returns a detached text node.
func (d *Document) CreateText(text string) *Element {
	return &Element{doc: d, kind: TextNode, text: text}
}

// ListenerCount returns the number of listeners currently registered on
// any element of the document, connected or not.
func (d *Document) ListenerCount() int {
	return d.listeners
}

// Build turns a template node into detached elements. Fragments are
// flattened, so the result may hold zero or more roots.
func (d *Document) Build(node *vdom.VNode) []*Element {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case vdom.KindText:
		return []*Element{d.CreateText(node.Text)}
	case vdom.KindFragment:
		var out []*Element
		for _, c := range node.Children {
			out = append(out, d.Build(c)...)
		}
		return out
	case vdom.KindElement:
		el := d.CreateElement(node.Tag)
		for _, k := range sortedKeys(node.Props) {
			v, ok := attrString(node.Props[k])
			if ok && v == "" && k != "value" && k != "alt" {
				// Empty strings are dropped; only a true prop is a bare flag.
				_, ok = node.Props[k].(bool)
			}
			if ok {
				el.SetAttr(k, v)
			}
		}
		for _, c := range node.Children {
			for _, child := range d.Build(c) {
				el.appendChild(child)
			}
		}
		return []*Element{el}
	default:
		return nil
	}
}

// attrString converts a template prop to its attribute form. A false
// bool or nil means the attribute is absent.
func attrString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case bool:
		return "", x
	default:
		return fmt.Sprint(x), true
	}
}

func sortedKeys(props vdom.Props) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

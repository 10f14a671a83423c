package vdom

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <button>, etc.
	KindText                  // Plain text node
	KindFragment              // Grouping without wrapper
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	default:
		return "Unknown"
	}
}

// VNode is a template output node.
type VNode struct {
	Kind     VKind    // Node type
	Tag      string   // Element tag name (e.g., "div")
	Props    Props    // Attributes
	Children []*VNode // Child nodes
	Key      string   // Identity key for list items
	Text     string   // For KindText
}

// Props holds attributes.
type Props map[string]any

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// BindAttr is the attribute carrying an element's logical name.
const BindAttr = "data-bind"

// BindName returns the logical name of an element node, or "".
func (v *VNode) BindName() string {
	if v == nil || v.Kind != KindElement {
		return ""
	}
	name, _ := v.Props[BindAttr].(string)
	return name
}

// Template maps a data value to markup. Templates must be pure.
type Template[T any] func(data T) *VNode

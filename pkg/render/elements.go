package render

import "github.com/eventum-app/eventum/pkg/vdom"

func isVoidElement(tag string) bool {
	return vdom.IsVoidElement(tag)
}

// Inline elements stay on one line in pretty output.
var inlineElements = map[string]bool{
	"a": true, "b": true, "br": true, "code": true, "em": true, "i": true,
	"label": true, "small": true, "span": true, "strong": true, "time": true,
}

func isInlineElement(tag string) bool {
	return inlineElements[tag]
}

// Boolean attributes render as a bare name when true and are omitted
// when false.
var booleanAttrs = map[string]bool{
	"autofocus": true,
	"checked":   true,
	"disabled":  true,
	"hidden":    true,
	"multiple":  true,
	"readonly":  true,
	"required":  true,
	"selected":  true,
}

func isBooleanAttr(name string) bool {
	return booleanAttrs[name]
}

// Package render serializes node trees to HTML.
//
// It is used to snapshot the live document (dom.Element.Snapshot) for
// prerendering, the `eventum visit` command, and test assertions:
//
//   - Text and attribute escaping
//   - Void element handling (input, br, img, etc.)
//   - Boolean attribute handling (disabled, checked, etc.)
//   - Deterministic attribute order
//
// # Basic Usage
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	html, err := renderer.RenderToString(node)
//
// For the common case use the package-level helper:
//
//	html := render.HTML(node)
package render

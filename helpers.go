package dombind

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/a-h/templ"
	"github.com/pthm/dombind/lib/dom"
	"golang.org/x/net/html"
)

// ParseDocument parses an HTML string into a live document ready to Mount.
// Fragments are accepted; the parser wraps them in html/head/body.
func ParseDocument(markup string) (*dom.Document, error) {
	return dom.ParseString(markup)
}

// MountTempl renders a templ component and mounts the result as the
// engine's live document. This is the bridge for hosts whose markup is
// produced by templ templates rather than static files:
//
//	if err := engine.MountTempl(ctx, pageTemplate(props)); err != nil { ... }
//	engine.Enable()
//
// Declaration attributes written in the template (data-if, data-for,
// data-bind, ...) become reactive exactly as with a parsed document.
func (e *Engine) MountTempl(ctx context.Context, component templ.Component) error {
	doc, err := RenderTempl(ctx, component)
	if err != nil {
		return err
	}
	e.Mount(doc)
	return nil
}

// RenderTempl renders a templ component into a live document without
// mounting it.
func RenderTempl(ctx context.Context, component templ.Component) (*dom.Document, error) {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return nil, fmt.Errorf("dombind: templ render failed: %w", err)
	}
	return dom.Parse(&buf)
}

// ValueOf reads a node the way the two-way binding strategy does: checked
// state for checkables, the value attribute for inputs and selects, text
// content otherwise. Useful for hosts and tests inspecting bound nodes.
func ValueOf(n *html.Node) string {
	switch bindKindFor(n) {
	case bindCheckable:
		if dom.HasAttr(n, "checked") {
			return "true"
		}
		return "false"
	case bindText, bindSelect:
		return dom.AttrValue(n, "value")
	default:
		return dom.Text(n)
	}
}

// IsWildcard reports whether a subscription path is a wildcard pattern.
func IsWildcard(path string) bool {
	return strings.HasSuffix(path, ".*")
}

// WildcardPrefix returns the prefix a wildcard pattern matches under, or
// the path itself for exact paths.
func WildcardPrefix(path string) string {
	return strings.TrimSuffix(path, ".*")
}

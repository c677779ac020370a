package dombind

import (
	"strings"

	"github.com/pthm/dombind/lib/dom"
	"golang.org/x/net/html"
)

// HideMode defines how conditional and switch renderers suppress a node.
//
// Suppression is a display toggle, never structural removal: hidden subtrees
// keep their internal state (input values, loop output, nested bindings) and
// reappear intact. This is a policy choice, not an implementation detail —
// hosts relying on hidden content being discarded must do that themselves.
type HideMode string

const (
	// HideStyle suppresses a node by appending display:none to its inline
	// style, restoring the prior style on show. This is the default.
	HideStyle HideMode = "style"

	// HideAttribute suppresses a node with the HTML hidden attribute.
	// Use when inline styles are disallowed (strict CSP) or when the host
	// stylesheet already handles [hidden].
	HideAttribute HideMode = "attribute"
)

const displayNone = "display:none"

// hideNode suppresses n according to the mode. Hiding an already-hidden
// node is a no-op.
func hideNode(n *html.Node, mode HideMode) {
	if n == nil {
		return
	}
	if mode == HideAttribute {
		dom.SetAttr(n, "hidden", "")
		return
	}
	style := dom.AttrValue(n, "style")
	if hasDisplayNone(style) {
		return
	}
	if style != "" && !strings.HasSuffix(strings.TrimSpace(style), ";") {
		style += ";"
	}
	dom.SetAttr(n, "style", style+displayNone)
}

// showNode reverses hideNode, leaving any unrelated inline style intact.
func showNode(n *html.Node, mode HideMode) {
	if n == nil {
		return
	}
	if mode == HideAttribute {
		dom.RemoveAttr(n, "hidden")
		return
	}
	style, ok := dom.Attr(n, "style")
	if !ok {
		return
	}
	var kept []string
	for _, decl := range strings.Split(style, ";") {
		d := strings.TrimSpace(decl)
		if d == "" || normalizeDecl(d) == displayNone {
			continue
		}
		kept = append(kept, d)
	}
	if len(kept) == 0 {
		dom.RemoveAttr(n, "style")
		return
	}
	dom.SetAttr(n, "style", strings.Join(kept, ";"))
}

// isHidden reports whether n is currently suppressed under the mode.
func isHidden(n *html.Node, mode HideMode) bool {
	if n == nil {
		return false
	}
	if mode == HideAttribute {
		return dom.HasAttr(n, "hidden")
	}
	return hasDisplayNone(dom.AttrValue(n, "style"))
}

func hasDisplayNone(style string) bool {
	for _, decl := range strings.Split(style, ";") {
		if normalizeDecl(decl) == displayNone {
			return true
		}
	}
	return false
}

func normalizeDecl(decl string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(decl)), " ", "")
}

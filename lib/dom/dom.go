// Package dom provides a small set of utilities for working with live
// HTML node trees (golang.org/x/net/html) as mutable view trees.
//
// The dombind engine operates directly on *html.Node values. This package
// supplies the pieces x/net/html leaves to callers: attribute access, deep
// cloning, text extraction and replacement, a minimal selector matcher, and
// a Document wrapper whose structural mutation helpers notify observers so
// dynamically inserted markup can be picked up for rescanning.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document wraps a parsed HTML tree and fans out insertion notifications.
//
// Structural mutations performed through Document methods (Append,
// InsertBefore) invoke every registered insert observer with the inserted
// node. Mutations performed directly on *html.Node bypass observation;
// hosts doing that should call Engine.Rescan themselves.
type Document struct {
	Root *html.Node

	onInsert []func(*html.Node)
}

// Parse reads a full HTML document from r.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse failed: %w", err)
	}
	return &Document{Root: root}, nil
}

// ParseString parses an HTML document from a string. Fragments are accepted;
// the parser wraps them in html/head/body as browsers do.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// OnInsert registers an observer invoked for every node inserted through
// Document mutation helpers.
func (d *Document) OnInsert(fn func(*html.Node)) {
	d.onInsert = append(d.onInsert, fn)
}

// Append appends child to parent and notifies insert observers.
func (d *Document) Append(parent, child *html.Node) {
	Detach(child)
	parent.AppendChild(child)
	d.notifyInsert(child)
}

// InsertBefore inserts child into parent before the sibling node and
// notifies insert observers. A nil sibling appends.
func (d *Document) InsertBefore(parent, child, sibling *html.Node) {
	Detach(child)
	if sibling == nil {
		parent.AppendChild(child)
	} else {
		parent.InsertBefore(child, sibling)
	}
	d.notifyInsert(child)
}

// Remove detaches n from the tree. No observer fires; removal never
// creates new declarations.
func (d *Document) Remove(n *html.Node) {
	Detach(n)
}

// HTML serializes the document.
func (d *Document) HTML() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, d.Root); err != nil {
		return "", fmt.Errorf("dom: render failed: %w", err)
	}
	return buf.String(), nil
}

// Body returns the document's body element, or the root if none exists.
func (d *Document) Body() *html.Node {
	if body := FindFirst(d.Root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "body"
	}); body != nil {
		return body
	}
	return d.Root
}

func (d *Document) notifyInsert(n *html.Node) {
	for _, fn := range d.onInsert {
		fn(n)
	}
}

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// Attr returns the value of the named attribute and whether it is present.
func Attr(n *html.Node, name string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// AttrValue returns the attribute value or "" when absent.
func AttrValue(n *html.Node, name string) string {
	v, _ := Attr(n, name)
	return v
}

// HasAttr reports whether the attribute is present, regardless of value.
func HasAttr(n *html.Node, name string) bool {
	_, ok := Attr(n, name)
	return ok
}

// SetAttr sets or replaces an attribute on n.
func SetAttr(n *html.Node, name, value string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes an attribute from n if present.
func RemoveAttr(n *html.Node, name string) {
	for i := range n.Attr {
		if n.Attr[i].Key == name {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// Clone deep-copies a node and its subtree. The clone is detached.
func Clone(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(Clone(child))
	}
	return c
}

// Text returns the concatenated text content of n's subtree.
func Text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// SetText replaces n's children with a single text node.
func SetText(n *html.Node, text string) {
	ClearChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// ClearChildren removes all children of n.
func ClearChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Children returns the direct child nodes of n.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// Walk visits n and every descendant in document order.
func Walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, visit)
	}
}

// FindFirst returns the first node in document order satisfying pred.
func FindFirst(root *html.Node, pred func(*html.Node) bool) *html.Node {
	var found *html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if pred(n) {
			found = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(root)
	return found
}

// ElementsWithAttr returns all elements under root carrying the attribute.
func ElementsWithAttr(root *html.Node, name string) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) {
		if n.Type == html.ElementNode && HasAttr(n, name) {
			out = append(out, n)
		}
	})
	return out
}

// NearestAncestorWithAttr walks up from n (exclusive) to the nearest
// element carrying the attribute.
func NearestAncestorWithAttr(n *html.Node, name string) (*html.Node, bool) {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && HasAttr(p, name) {
			return p, true
		}
	}
	return nil, false
}

// NextElementSibling returns the next sibling that is an element node.
func NextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

// Select returns all elements under root matching a simple selector.
//
// Supported forms, optionally comma-separated: "tag", "#id", ".class",
// "[attr]", "[attr=value]", and "tag.class" / "tag#id" combinations.
// Descendant combinators are not supported; the engine's target selectors
// are flat by design.
func Select(root *html.Node, selector string) []*html.Node {
	var out []*html.Node
	parts := strings.Split(selector, ",")
	Walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		for _, part := range parts {
			if matchSimple(n, strings.TrimSpace(part)) {
				out = append(out, n)
				return
			}
		}
	})
	return out
}

// matchSimple matches one compound simple selector against an element.
func matchSimple(n *html.Node, sel string) bool {
	if sel == "" {
		return false
	}
	rest := sel
	for rest != "" {
		var tok string
		switch rest[0] {
		case '#', '.':
			end := nextTokenBoundary(rest[1:])
			tok = rest[:1+end]
			rest = rest[1+end:]
		case '[':
			close := strings.IndexByte(rest, ']')
			if close < 0 {
				return false
			}
			tok = rest[:close+1]
			rest = rest[close+1:]
		default:
			end := nextTokenBoundary(rest)
			tok = rest[:end]
			rest = rest[end:]
		}
		if !matchToken(n, tok) {
			return false
		}
	}
	return true
}

func nextTokenBoundary(s string) int {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '#', '.', '[':
			return i
		}
	}
	return len(s)
}

func matchToken(n *html.Node, tok string) bool {
	switch {
	case strings.HasPrefix(tok, "#"):
		return AttrValue(n, "id") == tok[1:]
	case strings.HasPrefix(tok, "."):
		for _, cls := range strings.Fields(AttrValue(n, "class")) {
			if cls == tok[1:] {
				return true
			}
		}
		return false
	case strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]"):
		body := tok[1 : len(tok)-1]
		if eq := strings.IndexByte(body, '='); eq >= 0 {
			val := strings.Trim(body[eq+1:], `"'`)
			return AttrValue(n, body[:eq]) == val
		}
		return HasAttr(n, body)
	default:
		return n.Data == tok
	}
}

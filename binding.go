package dombind

import (
	"github.com/google/uuid"
	"github.com/pthm/dombind/lib/dom"
	"golang.org/x/net/html"
)

type bindKind int

const (
	bindCheckable bindKind = iota // checkbox/radio: boolean checked state
	bindText                      // text/number inputs, textarea: value
	bindSelect                    // select: value, on change
	bindContent                   // non-interactive fallback: text content
)

// bindDecl is one two-way binding: a node and the store path it mirrors.
type bindDecl struct {
	id   string
	node *html.Node
	path string
	kind bindKind
}

// BindStrategy keeps input-capable nodes and store paths in sync, both ways.
//
// The binding configuration derives from the node's role: checkable inputs
// bind their checked state as a boolean, text and number inputs bind their
// value, selects bind their value on change, and anything else falls back
// to binding its text content.
//
// On bind, one reconciliation runs: a node holding a non-empty value pushes
// it into the store (node wins on first sync); otherwise the store's value
// is pulled into the node. Afterwards user events flow node→store through
// Engine.Input/Toggle/Change and store writes flow store→node through the
// path subscription. The node-update path never writes the store, so there
// is no feedback loop — but a store write from elsewhere does overwrite a
// node mid-edit; there is deliberately no focus guard or debounce here.
type BindStrategy struct {
	e         *Engine
	bindings  *bindingSet
	decls     []bindDecl
	listeners map[*html.Node]bindDecl
}

func newBindStrategy(e *Engine) *BindStrategy {
	return &BindStrategy{
		e:         e,
		bindings:  newBindingSet(e.store, e.warn),
		listeners: make(map[*html.Node]bindDecl),
	}
}

// Name implements Strategy.
func (s *BindStrategy) Name() string { return "bind" }

// Bind implements Strategy.
func (s *BindStrategy) Bind(doc *dom.Document) {
	s.decls = s.scan(doc)
	s.listeners = make(map[*html.Node]bindDecl, len(s.decls))
	for _, d := range s.decls {
		s.listeners[d.node] = d
		s.reconcile(d)
	}
	bindDeclarations(s.bindings, s.Name(), s.decls,
		func(d bindDecl) []string { return []string{d.path} },
		s.pull)
}

// Unbind implements Strategy.
func (s *BindStrategy) Unbind() {
	s.bindings.clear()
	s.decls = nil
	s.listeners = make(map[*html.Node]bindDecl)
}

func (s *BindStrategy) scan(doc *dom.Document) []bindDecl {
	var decls []bindDecl
	for _, n := range dom.ElementsWithAttr(doc.Root, s.e.attrs.bind) {
		path := dom.AttrValue(n, s.e.attrs.bind)
		if path == "" {
			s.e.warn("dombind: bind declaration with empty path skipped")
			continue
		}
		decls = append(decls, bindDecl{
			id:   uuid.NewString(),
			node: n,
			path: path,
			kind: bindKindFor(n),
		})
	}
	return decls
}

func bindKindFor(n *html.Node) bindKind {
	switch n.Data {
	case "input":
		switch dom.AttrValue(n, "type") {
		case "checkbox", "radio":
			return bindCheckable
		default:
			return bindText
		}
	case "textarea":
		return bindText
	case "select":
		return bindSelect
	default:
		return bindContent
	}
}

// reconcile performs the one-time initial sync: node wins when it holds a
// non-empty value, otherwise the store's value flows into the node.
func (s *BindStrategy) reconcile(d bindDecl) {
	switch d.kind {
	case bindCheckable:
		if dom.HasAttr(d.node, "checked") {
			s.e.store.Set(d.path, true)
		} else {
			s.pull(d)
		}
	case bindText, bindSelect:
		if v := dom.AttrValue(d.node, "value"); v != "" {
			s.e.store.Set(d.path, typedValue(d.node, v))
		} else {
			s.pull(d)
		}
	case bindContent:
		if v := dom.Text(d.node); v != "" {
			s.e.store.Set(d.path, v)
		} else {
			s.pull(d)
		}
	}
}

// pull updates the node from the store's current value. This path never
// writes the store.
func (s *BindStrategy) pull(d bindDecl) {
	v := s.e.store.Get(d.path)
	switch d.kind {
	case bindCheckable:
		if truthy(v) {
			dom.SetAttr(d.node, "checked", "")
		} else {
			dom.RemoveAttr(d.node, "checked")
		}
	case bindText, bindSelect:
		dom.SetAttr(d.node, "value", stringify(v))
	case bindContent:
		dom.SetText(d.node, stringify(v))
	}
}

// HandleInput routes a user input event into the store. Unbound nodes are
// ignored.
func (s *BindStrategy) HandleInput(n *html.Node, value string) {
	d, ok := s.listeners[n]
	if !ok {
		return
	}
	switch d.kind {
	case bindContent:
		dom.SetText(n, value)
		s.e.store.Set(d.path, value)
	default:
		dom.SetAttr(n, "value", value)
		s.e.store.Set(d.path, typedValue(n, value))
	}
}

// HandleToggle routes a checkbox/radio toggle into the store.
func (s *BindStrategy) HandleToggle(n *html.Node, checked bool) {
	d, ok := s.listeners[n]
	if !ok || d.kind != bindCheckable {
		return
	}
	if checked {
		dom.SetAttr(n, "checked", "")
	} else {
		dom.RemoveAttr(n, "checked")
	}
	s.e.store.Set(d.path, checked)
}

// HandleChange routes a select change into the store.
func (s *BindStrategy) HandleChange(n *html.Node, value string) {
	d, ok := s.listeners[n]
	if !ok {
		return
	}
	dom.SetAttr(n, "value", value)
	s.e.store.Set(d.path, value)
}

// typedValue converts a raw input value for storage: number inputs store
// numbers when parseable, everything else stays a string.
func typedValue(n *html.Node, value string) any {
	if n.Data == "input" && dom.AttrValue(n, "type") == "number" {
		if f, ok := toNumber(value); ok {
			return f
		}
	}
	return value
}

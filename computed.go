package dombind

import (
	"github.com/google/uuid"
	"github.com/pthm/dombind/lib/dom"
	"golang.org/x/net/html"
)

// computedDecl is one computed-value declaration: an expression and the
// selector naming the nodes that receive its stringified result.
type computedDecl struct {
	id     string
	node   *html.Node
	expr   string
	target string
	deps   []string
}

// ComputedStrategy renders computed expressions into target nodes.
//
// A node declares a computed value with the computed-expression attribute
// and, optionally, a target-selector attribute; without a target the node
// itself receives the result. On every relevant store write the expression
// is re-evaluated with the standard context (state, get, pure helpers) and
// the stringified result replaces the text — or the value attribute, for
// input-capable nodes — of every selector match. nil renders as the empty
// string. An evaluation failure warns and leaves the previous output
// untouched.
type ComputedStrategy struct {
	e        *Engine
	bindings *bindingSet
	decls    []computedDecl
}

func newComputedStrategy(e *Engine) *ComputedStrategy {
	return &ComputedStrategy{e: e, bindings: newBindingSet(e.store, e.warn)}
}

// Name implements Strategy.
func (s *ComputedStrategy) Name() string { return "computed" }

// Bind implements Strategy.
func (s *ComputedStrategy) Bind(doc *dom.Document) {
	s.decls = s.scan(doc)
	bindDeclarations(s.bindings, s.Name(), s.decls,
		func(d computedDecl) []string { return d.deps },
		s.apply)
}

// Unbind implements Strategy.
func (s *ComputedStrategy) Unbind() {
	s.bindings.clear()
	s.decls = nil
}

func (s *ComputedStrategy) scan(doc *dom.Document) []computedDecl {
	var decls []computedDecl
	for _, n := range dom.ElementsWithAttr(doc.Root, s.e.attrs.computed) {
		expr := dom.AttrValue(n, s.e.attrs.computed)
		if expr == "" {
			s.e.warn("dombind: computed declaration with empty expression skipped")
			continue
		}
		decls = append(decls, computedDecl{
			id:     uuid.NewString(),
			node:   n,
			expr:   expr,
			target: dom.AttrValue(n, s.e.attrs.target),
			deps:   Dependencies(expr),
		})
	}
	return decls
}

func (s *ComputedStrategy) apply(d computedDecl) {
	v, err := s.e.eval.Evaluate(d.expr, s.e.Env())
	if err != nil {
		s.e.warn("dombind: computed %q failed, keeping previous output: %v", d.expr, err)
		return
	}
	text := stringify(v)

	targets := []*html.Node{d.node}
	if d.target != "" {
		targets = dom.Select(s.e.doc.Root, d.target)
		if len(targets) == 0 {
			s.e.warn("dombind: computed target %q matched no nodes", d.target)
			return
		}
	}
	for _, t := range targets {
		if isValueNode(t) {
			dom.SetAttr(t, "value", text)
		} else {
			dom.SetText(t, text)
		}
	}
}

// isValueNode reports whether a node holds its editable value in the value
// attribute rather than its text content.
func isValueNode(n *html.Node) bool {
	switch n.Data {
	case "input", "select", "option", "progress", "meter":
		return n.Type == html.ElementNode
	default:
		return false
	}
}

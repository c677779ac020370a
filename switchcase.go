package dombind

import (
	"github.com/google/uuid"
	"github.com/pthm/dombind/lib/dom"
	"golang.org/x/net/html"
)

// DefaultCaseMarker is the case-value that renders when no sibling case
// matches the computed switch value.
const DefaultCaseMarker = "default"

// caseDecl is one case node under a switch group.
type caseDecl struct {
	node  *html.Node
	value string
}

// switchDecl groups every case node sharing the same switch ancestor.
type switchDecl struct {
	id     string
	anchor *html.Node
	expr   string
	cases  []caseDecl
	deps   []string
}

// SwitchStrategy renders switch/case groups.
//
// Case nodes may sit anywhere under an ancestor carrying the
// switch-expression attribute; the nearest such ancestor wins, and all
// cases under it form one group. On evaluation the switch value is computed
// once; a case is visible iff its declared value string-equals the computed
// value's string form, or it is the default marker and no sibling matched.
// Visibility is display suppression, like the conditional strategy.
type SwitchStrategy struct {
	e        *Engine
	bindings *bindingSet
	decls    []switchDecl
}

func newSwitchStrategy(e *Engine) *SwitchStrategy {
	return &SwitchStrategy{e: e, bindings: newBindingSet(e.store, e.warn)}
}

// Name implements Strategy.
func (s *SwitchStrategy) Name() string { return "switch" }

// Bind implements Strategy.
func (s *SwitchStrategy) Bind(doc *dom.Document) {
	s.decls = s.scan(doc)
	bindDeclarations(s.bindings, s.Name(), s.decls,
		func(d switchDecl) []string { return d.deps },
		s.apply)
}

// Unbind implements Strategy.
func (s *SwitchStrategy) Unbind() {
	s.bindings.clear()
	s.decls = nil
}

func (s *SwitchStrategy) scan(doc *dom.Document) []switchDecl {
	byAnchor := make(map[*html.Node]*switchDecl)
	var order []*html.Node

	for _, n := range dom.ElementsWithAttr(doc.Root, s.e.attrs.caseOf) {
		anchor, ok := dom.NearestAncestorWithAttr(n, s.e.attrs.switchOn)
		if !ok {
			s.e.warn("dombind: case %q has no switch ancestor, skipped", dom.AttrValue(n, s.e.attrs.caseOf))
			continue
		}
		decl, seen := byAnchor[anchor]
		if !seen {
			expr := dom.AttrValue(anchor, s.e.attrs.switchOn)
			decl = &switchDecl{
				id:     uuid.NewString(),
				anchor: anchor,
				expr:   expr,
				deps:   Dependencies(expr),
			}
			byAnchor[anchor] = decl
			order = append(order, anchor)
		}
		decl.cases = append(decl.cases, caseDecl{node: n, value: dom.AttrValue(n, s.e.attrs.caseOf)})
	}

	decls := make([]switchDecl, 0, len(order))
	for _, anchor := range order {
		decls = append(decls, *byAnchor[anchor])
	}
	return decls
}

func (s *SwitchStrategy) apply(d switchDecl) {
	v, err := s.e.eval.Evaluate(d.expr, s.e.Env())
	if err != nil {
		s.e.warn("dombind: switch %q failed, keeping previous visibility: %v", d.expr, err)
		return
	}
	value := stringify(v)

	matched := false
	for _, c := range d.cases {
		if c.value == DefaultCaseMarker {
			continue
		}
		if c.value == value {
			showNode(c.node, s.e.hide)
			matched = true
		} else {
			hideNode(c.node, s.e.hide)
		}
	}
	for _, c := range d.cases {
		if c.value != DefaultCaseMarker {
			continue
		}
		if matched {
			hideNode(c.node, s.e.hide)
		} else {
			showNode(c.node, s.e.hide)
		}
	}
}

package dombind

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/pthm/dombind/lib/dom"
	"golang.org/x/net/html"
)

// conditionalDecl pairs a condition-bearing node with its resolved
// else-branch (which may be nil).
type conditionalDecl struct {
	id         string
	node       *html.Node
	expr       string
	elseBranch *html.Node
	deps       []string
}

// ConditionalStrategy shows and hides node pairs from boolean conditions.
//
// A node declares a condition with the condition attribute. Its else-branch
// is the immediate next element sibling carrying the else-marker attribute,
// or any node anywhere in the document whose else-marker value equals this
// node's group-identifier attribute.
//
// Evaluation substitutes every state.<path> token with the JSON-encoded
// current value, evaluates the result as a boolean, and toggles visibility:
// truthy shows the node and hides the else-branch, falsy does the inverse.
// Visibility is display suppression, never removal, so hidden subtrees keep
// their internal state across toggles.
type ConditionalStrategy struct {
	e        *Engine
	bindings *bindingSet
	decls    []conditionalDecl
}

func newConditionalStrategy(e *Engine) *ConditionalStrategy {
	return &ConditionalStrategy{e: e, bindings: newBindingSet(e.store, e.warn)}
}

// Name implements Strategy.
func (s *ConditionalStrategy) Name() string { return "conditional" }

// Bind implements Strategy.
func (s *ConditionalStrategy) Bind(doc *dom.Document) {
	s.decls = s.scan(doc)
	bindDeclarations(s.bindings, s.Name(), s.decls,
		func(d conditionalDecl) []string { return d.deps },
		s.apply)
}

// Unbind implements Strategy.
func (s *ConditionalStrategy) Unbind() {
	s.bindings.clear()
	s.decls = nil
}

func (s *ConditionalStrategy) scan(doc *dom.Document) []conditionalDecl {
	var decls []conditionalDecl
	for _, n := range dom.ElementsWithAttr(doc.Root, s.e.attrs.cond) {
		expr := dom.AttrValue(n, s.e.attrs.cond)
		if expr == "" {
			s.e.warn("dombind: conditional declaration with empty condition skipped")
			continue
		}
		decls = append(decls, conditionalDecl{
			id:         uuid.NewString(),
			node:       n,
			expr:       expr,
			elseBranch: s.resolveElse(doc, n),
			deps:       Dependencies(expr),
		})
	}
	return decls
}

// resolveElse finds the else-branch for a condition node: adjacent sibling
// first, then a group-identifier match anywhere in the document.
func (s *ConditionalStrategy) resolveElse(doc *dom.Document, n *html.Node) *html.Node {
	if sib := dom.NextElementSibling(n); sib != nil && dom.HasAttr(sib, s.e.attrs.elseAttr) {
		return sib
	}
	group := dom.AttrValue(n, s.e.attrs.group)
	if group == "" {
		return nil
	}
	for _, cand := range dom.ElementsWithAttr(doc.Root, s.e.attrs.elseAttr) {
		if cand != n && dom.AttrValue(cand, s.e.attrs.elseAttr) == group {
			return cand
		}
	}
	return nil
}

func (s *ConditionalStrategy) apply(d conditionalDecl) {
	substituted := s.substituteStateRefs(d.expr)
	v, err := s.e.eval.Evaluate(substituted, s.e.Env())
	if err != nil {
		s.e.warn("dombind: condition %q failed, keeping previous visibility: %v", d.expr, err)
		return
	}
	if truthy(v) {
		showNode(d.node, s.e.hide)
		hideNode(d.elseBranch, s.e.hide)
	} else {
		hideNode(d.node, s.e.hide)
		showNode(d.elseBranch, s.e.hide)
	}
}

// substituteStateRefs replaces each state.<path> token with the JSON
// encoding of the store's current value at that path, so the evaluator sees
// literals instead of lookups. Values that fail to encode become null.
func (s *ConditionalStrategy) substituteStateRefs(expr string) string {
	return stateRefPattern.ReplaceAllStringFunc(expr, func(ref string) string {
		path := ref[len("state."):]
		encoded, err := json.Marshal(s.e.store.Get(path))
		if err != nil {
			return "null"
		}
		return string(encoded)
	})
}

// truthy mirrors the looseness conditions are written with: empty strings,
// zero numbers, nil, and empty collections are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		if f, ok := toNumber(v); ok {
			return f != 0
		}
		return true
	}
}

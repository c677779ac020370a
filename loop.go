package dombind

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
	"github.com/pthm/dombind/lib/dom"
	"golang.org/x/net/html"
)

type loopKind int

const (
	loopForEach loopKind = iota
	loopWhile
	loopRepeat
)

// loopDecl is one loop declaration. The template is the node's original
// child content, captured once at first scan; rendered output is replaced
// wholesale on every re-evaluation.
type loopDecl struct {
	id       string
	node     *html.Node
	kind     loopKind
	expr     string // array/condition/count expression
	itemName string // for-each: declared item binding
	idxName  string // for-each: declared index binding, may be ""
	template []*html.Node
	deps     []string
}

// LoopStrategy renders for-each, while, and repeat loops.
//
// The three declaration forms are mutually exclusive per node. Each
// re-evaluation clears all previously rendered output and synthesizes fresh
// instances from the captured template, running placeholder substitution
// ({{expr}}) against a per-instance context. There is no diffing or keyed
// reconciliation; wholesale replacement is a deliberate simplicity trade.
//
// Loop-local bindings: for-each gets the declared item and index names plus
// index, index1, count, isFirst, isLast, isEven, isOdd; while gets
// iteration; repeat gets index.
//
// Safety limits: while and repeat clamp at the engine's loop cap (default
// 1000) with a warning. For-each is bounded by its source array, but a
// non-array source is a shape error: warned, output left unchanged.
type LoopStrategy struct {
	e        *Engine
	bindings *bindingSet
	decls    []loopDecl

	// templates persist across rebinds; a rescan must not capture rendered
	// instances as the template.
	templates map[*html.Node][]*html.Node
}

func newLoopStrategy(e *Engine) *LoopStrategy {
	return &LoopStrategy{
		e:         e,
		bindings:  newBindingSet(e.store, e.warn),
		templates: make(map[*html.Node][]*html.Node),
	}
}

// Name implements Strategy.
func (s *LoopStrategy) Name() string { return "loop" }

// Bind implements Strategy.
func (s *LoopStrategy) Bind(doc *dom.Document) {
	s.decls = s.scan(doc)
	bindDeclarations(s.bindings, s.Name(), s.decls,
		func(d loopDecl) []string { return d.deps },
		s.apply)
}

// Unbind implements Strategy.
func (s *LoopStrategy) Unbind() {
	s.bindings.clear()
	s.decls = nil
}

func (s *LoopStrategy) scan(doc *dom.Document) []loopDecl {
	var decls []loopDecl

	add := func(n *html.Node, kind loopKind, raw string) {
		d := loopDecl{id: uuid.NewString(), node: n, kind: kind}
		switch kind {
		case loopForEach:
			item, idx, arrayExpr, err := parseForEach(raw)
			if err != nil {
				s.e.warn("dombind: %v", err)
				return
			}
			d.itemName, d.idxName, d.expr = item, idx, arrayExpr
		default:
			if strings.TrimSpace(raw) == "" {
				s.e.warn("dombind: loop declaration with empty expression skipped")
				return
			}
			d.expr = strings.TrimSpace(raw)
		}
		d.deps = Dependencies(d.expr)

		tmpl, ok := s.templates[n]
		if !ok {
			for _, child := range dom.Children(n) {
				tmpl = append(tmpl, dom.Clone(child))
			}
			s.templates[n] = tmpl
		}
		d.template = tmpl
		decls = append(decls, d)
	}

	dom.Walk(doc.Root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		forms := 0
		if dom.HasAttr(n, s.e.attrs.forEach) {
			forms++
		}
		if dom.HasAttr(n, s.e.attrs.while) {
			forms++
		}
		if dom.HasAttr(n, s.e.attrs.repeat) {
			forms++
		}
		if forms == 0 {
			return
		}
		if forms > 1 {
			s.e.warn("dombind: node declares multiple loop forms, skipped")
			return
		}
		switch {
		case dom.HasAttr(n, s.e.attrs.forEach):
			add(n, loopForEach, dom.AttrValue(n, s.e.attrs.forEach))
		case dom.HasAttr(n, s.e.attrs.while):
			add(n, loopWhile, dom.AttrValue(n, s.e.attrs.while))
		default:
			add(n, loopRepeat, dom.AttrValue(n, s.e.attrs.repeat))
		}
	})
	return decls
}

// parseForEach splits "<item>[, <index>] in <arrayExpr>".
func parseForEach(raw string) (item, idx, arrayExpr string, err error) {
	parts := strings.SplitN(raw, " in ", 2)
	if len(parts) != 2 {
		return "", "", "", fmt.Errorf("%w: for-each %q missing \" in \"", ErrBadDeclaration, raw)
	}
	arrayExpr = strings.TrimSpace(parts[1])
	names := strings.SplitN(parts[0], ",", 2)
	item = strings.TrimSpace(names[0])
	if len(names) == 2 {
		idx = strings.TrimSpace(names[1])
	}
	if item == "" || arrayExpr == "" {
		return "", "", "", fmt.Errorf("%w: for-each %q needs an item name and an array expression", ErrBadDeclaration, raw)
	}
	return item, idx, arrayExpr, nil
}

func (s *LoopStrategy) apply(d loopDecl) {
	switch d.kind {
	case loopForEach:
		s.applyForEach(d)
	case loopWhile:
		s.applyWhile(d)
	case loopRepeat:
		s.applyRepeat(d)
	}
}

func (s *LoopStrategy) applyForEach(d loopDecl) {
	env := s.e.Env()
	v, err := s.e.eval.Evaluate(d.expr, env)
	if err != nil {
		s.e.warn("dombind: for-each %q failed, keeping previous render: %v", d.expr, err)
		return
	}
	items, ok := toArray(v)
	if !ok {
		s.e.warn("dombind: %v: %q yielded %T", ErrNotArray, d.expr, v)
		return
	}

	dom.ClearChildren(d.node)
	for i, item := range items {
		inst := instanceEnv(env, map[string]any{
			d.itemName: item,
			"index":    float64(i),
			"index1":   float64(i + 1),
			"count":    float64(len(items)),
			"isFirst":  i == 0,
			"isLast":   i == len(items)-1,
			"isEven":   i%2 == 0,
			"isOdd":    i%2 == 1,
		})
		if d.idxName != "" {
			inst[d.idxName] = float64(i)
		}
		s.appendInstance(d, i, inst)
	}
}

func (s *LoopStrategy) applyWhile(d loopDecl) {
	env := s.e.Env()
	dom.ClearChildren(d.node)

	i := 0
	for ; i < s.e.loopCap; i++ {
		inst := instanceEnv(env, map[string]any{"iteration": float64(i)})
		v, err := s.e.eval.Evaluate(d.expr, inst)
		if err != nil {
			s.e.warn("dombind: while %q failed at iteration %d: %v", d.expr, i, err)
			return
		}
		if !truthy(v) {
			return
		}
		s.appendInstance(d, i, inst)
	}
	// cap reached with the condition still holding: circuit breaker, not fatal
	s.e.warn("dombind: while %q exceeded the %d iteration cap, output truncated", d.expr, s.e.loopCap)
}

func (s *LoopStrategy) applyRepeat(d loopDecl) {
	env := s.e.Env()
	v, err := s.e.eval.Evaluate(d.expr, env)
	if err != nil {
		s.e.warn("dombind: repeat %q failed, keeping previous render: %v", d.expr, err)
		return
	}
	f, ok := toNumber(v)
	if !ok {
		s.e.warn("dombind: repeat %q yielded non-numeric %T, keeping previous render", d.expr, v)
		return
	}
	count := int(f)
	if count < 0 {
		count = 0
	}
	if count > s.e.loopCap {
		s.e.warn("dombind: repeat %q count %d clamped to the %d cap", d.expr, count, s.e.loopCap)
		count = s.e.loopCap
	}

	dom.ClearChildren(d.node)
	for i := 0; i < count; i++ {
		s.appendInstance(d, i, instanceEnv(env, map[string]any{"index": float64(i)}))
	}
}

// appendInstance clones the template, substitutes placeholders against the
// per-instance context, and appends the result in order. Element roots are
// tagged with the owning declaration so rendered output is attributable.
func (s *LoopStrategy) appendInstance(d loopDecl, i int, env map[string]any) {
	for _, tmpl := range d.template {
		clone := dom.Clone(tmpl)
		substituteTree(clone, env, s.e.interpolate)
		if clone.Type == html.ElementNode {
			dom.SetAttr(clone, s.e.attrs.instance, fmt.Sprintf("%s:%d", d.id, i))
		}
		s.e.doc.Append(d.node, clone)
	}
}

// instanceEnv copies the outer context and layers loop-local bindings on top.
func instanceEnv(base map[string]any, locals map[string]any) map[string]any {
	env := make(map[string]any, len(base)+len(locals))
	for k, v := range base {
		env[k] = v
	}
	for k, v := range locals {
		env[k] = v
	}
	return env
}

// substituteTree runs placeholder substitution over every text node and
// attribute value in a cloned fragment.
func substituteTree(n *html.Node, env map[string]any, interpolate func(string, map[string]any) string) {
	dom.Walk(n, func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			node.Data = interpolate(node.Data, env)
		case html.ElementNode:
			for i := range node.Attr {
				node.Attr[i].Val = interpolate(node.Attr[i].Val, env)
			}
		}
	})
}

// toArray accepts []any directly and converts other slice and array kinds
// reflectively; anything else is a shape error.
func toArray(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

package dombind

import (
	"context"
	"strings"

	"github.com/a-h/templ"
	"github.com/pthm/dombind/lib/dom"
	"github.com/pthm/dombind/lib/expr"
	"golang.org/x/net/html"
)

// TestView wires a document, store, and engine together for tests. It
// wraps the live tree with the assertions test code actually writes:
// visibility checks, rendered-HTML substring checks, and instance counts.
//
//	view, err := dombind.NewTestView(`<p data-if="state.flag">hi</p>`)
//	view.Store.Set("flag", true)
//	if !view.HTMLContains("hi") { ... }
//
// NewTestView uses the default lib/expr evaluator; use NewTestViewWith to
// supply a custom evaluator or engine options.
type TestView struct {
	Doc      *dom.Document
	Store    *Store
	Engine   *Engine
	Warnings []string
}

// NewTestView parses markup, builds a store and engine, mounts, and enables.
func NewTestView(markup string, opts ...Option) (*TestView, error) {
	return NewTestViewWith(markup, expr.New(), opts...)
}

// NewTestViewWith is NewTestView with an explicit evaluator.
func NewTestViewWith(markup string, eval Evaluator, opts ...Option) (*TestView, error) {
	doc, err := dom.ParseString(markup)
	if err != nil {
		return nil, err
	}
	view := &TestView{Doc: doc, Store: NewStore()}
	opts = append(opts, WithWarningHandler(func(msg string) {
		view.Warnings = append(view.Warnings, msg)
	}))
	view.Engine = NewEngine(view.Store, eval, opts...)
	view.Engine.Mount(doc)
	if err := view.Engine.LoadDataBlocks(); err != nil {
		return nil, err
	}
	if err := view.Engine.Enable(); err != nil {
		return nil, err
	}
	return view, nil
}

// NewTestViewTempl renders a templ component and builds a view around it.
func NewTestViewTempl(ctx context.Context, component templ.Component, opts ...Option) (*TestView, error) {
	doc, err := RenderTempl(ctx, component)
	if err != nil {
		return nil, err
	}
	var buf strings.Builder
	if err := html.Render(&buf, doc.Root); err != nil {
		return nil, err
	}
	return NewTestView(buf.String(), opts...)
}

// HTML returns the document serialized as HTML.
func (v *TestView) HTML() string {
	out, err := v.Doc.HTML()
	if err != nil {
		return ""
	}
	return out
}

// HTMLContains checks if the rendered document contains a substring.
func (v *TestView) HTMLContains(substr string) bool {
	return strings.Contains(v.HTML(), substr)
}

// HTMLContainsAll checks if the rendered document contains every substring.
func (v *TestView) HTMLContainsAll(substrs ...string) bool {
	doc := v.HTML()
	for _, s := range substrs {
		if !strings.Contains(doc, s) {
			return false
		}
	}
	return true
}

// Query returns the first node matching a simple selector, or nil.
func (v *TestView) Query(selector string) *html.Node {
	matches := dom.Select(v.Doc.Root, selector)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}

// QueryAll returns every node matching a simple selector.
func (v *TestView) QueryAll(selector string) []*html.Node {
	return dom.Select(v.Doc.Root, selector)
}

// IsVisible reports whether the first node matching the selector exists and
// is not display-suppressed (checking both hide modes).
func (v *TestView) IsVisible(selector string) bool {
	n := v.Query(selector)
	if n == nil {
		return false
	}
	return !isHidden(n, HideStyle) && !isHidden(n, HideAttribute)
}

// InstanceCount returns the number of rendered loop instances inside the
// first node matching the selector.
func (v *TestView) InstanceCount(selector string) int {
	n := v.Query(selector)
	if n == nil {
		return 0
	}
	count := 0
	for _, child := range dom.Children(n) {
		if child.Type == html.ElementNode && dom.HasAttr(child, v.Engine.attrs.instance) {
			count++
		}
	}
	return count
}

// Texts returns the trimmed text content of every node matching the
// selector, in document order.
func (v *TestView) Texts(selector string) []string {
	var out []string
	for _, n := range v.QueryAll(selector) {
		out = append(out, strings.TrimSpace(dom.Text(n)))
	}
	return out
}

// HasWarning checks if any recorded warning contains the substring.
func (v *TestView) HasWarning(substr string) bool {
	for _, w := range v.Warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

// WarningCount returns the number of warnings recorded so far.
func (v *TestView) WarningCount() int {
	return len(v.Warnings)
}

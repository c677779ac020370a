package dombind

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/golang/glog"
	"github.com/pthm/dombind/lib/dom"
	"golang.org/x/net/html"
)

// Engine owns the renderer strategies for one document: it mounts a live
// view tree, scans it for declarations, keeps every declared region
// synchronized with store writes, and feeds user input events back into
// the store through two-way bindings.
//
// Engines are explicitly constructed and hold explicit references to their
// store and evaluator — there is no ambient global state, and multiple
// isolated engine/store pairs can coexist in one process.
type Engine struct {
	store *Store
	eval  Evaluator
	doc   *dom.Document

	attrs      attrNames
	hide       HideMode
	loopCap    int
	payloadKey []byte

	dispatcher  Dispatcher
	executor    Executor
	interpolate func(text string, env map[string]any) string
	onWarning   func(msg string)

	observer   *Observer
	strategies []Strategy
	twoWay     *BindStrategy

	enabled bool
}

// NewEngine creates an engine around a store and an evaluator.
// Both are required; the evaluator is typically lib/expr's implementation
// but any Evaluator works.
func NewEngine(store *Store, eval Evaluator, opts ...Option) *Engine {
	if store == nil {
		panic("dombind: NewEngine requires a store")
	}
	if eval == nil {
		panic("dombind: NewEngine requires an evaluator")
	}
	e := &Engine{
		store:    store,
		eval:     eval,
		attrs:    attrNamesFor(DefaultAttributePrefix),
		hide:     HideStyle,
		loopCap:  DefaultLoopCap,
		observer: NewObserver(),
	}
	e.interpolate = e.defaultInterpolate

	for _, opt := range opts {
		opt(e)
	}

	conditional := newConditionalStrategy(e)
	switcher := newSwitchStrategy(e)
	e.twoWay = newBindStrategy(e)
	e.strategies = []Strategy{
		newComputedStrategy(e),
		conditional,
		switcher,
		newLoopStrategy(e),
		e.twoWay,
	}

	// Dynamically inserted markup becomes reactive without manual rescans.
	e.observer.Register(func() { e.rebind(conditional) }, e.attrs.cond)
	e.observer.Register(func() { e.rebind(switcher) }, e.attrs.caseOf, e.attrs.switchOn)

	return e
}

// Store returns the engine's store.
func (e *Engine) Store() *Store { return e.store }

// Document returns the mounted document, or nil before Mount.
func (e *Engine) Document() *dom.Document { return e.doc }

// Mount attaches a live document and hooks its insertion observer.
// Mount does not scan; call Enable.
func (e *Engine) Mount(doc *dom.Document) {
	e.doc = doc
	doc.OnInsert(e.observer.NodeInserted)
}

// Enable scans the mounted document with every strategy, registers grouped
// subscriptions, and runs the initial evaluation pass. Enabling an already
// enabled engine rebinds from scratch; subscriptions are never duplicated.
func (e *Engine) Enable() error {
	if e.doc == nil {
		return ErrNotMounted
	}
	for _, s := range e.strategies {
		e.rebind(s)
	}
	e.enabled = true
	return nil
}

// Rescan rebinds every strategy against the current document. Hosts that
// mutate the tree directly (bypassing dom.Document helpers) call this to
// pick up new declarations.
func (e *Engine) Rescan() {
	if e.doc == nil || !e.enabled {
		return
	}
	for _, s := range e.strategies {
		e.rebind(s)
	}
}

// Disable removes every subscription and input listener. The document and
// its current rendered state are left as-is.
func (e *Engine) Disable() {
	for _, s := range e.strategies {
		s.Unbind()
	}
	e.enabled = false
}

func (e *Engine) rebind(s Strategy) {
	if e.doc == nil {
		return
	}
	s.Unbind()
	s.Bind(e.doc)
	glog.V(2).Infof("dombind: %s strategy bound", s.Name())
}

// Input feeds a text-input event for a bound node into the store, as a
// browser input listener would. The value is written to the node and then
// to the node's bound path.
func (e *Engine) Input(n *html.Node, value string) {
	e.twoWay.HandleInput(n, value)
}

// Toggle feeds a checkbox/radio toggle event for a bound node into the store.
func (e *Engine) Toggle(n *html.Node, checked bool) {
	e.twoWay.HandleToggle(n, checked)
}

// Change feeds a select change event for a bound node into the store.
func (e *Engine) Change(n *html.Node, value string) {
	e.twoWay.HandleChange(n, value)
}

// Dispatch forwards an event to the external command layer's dispatcher.
// With no dispatcher configured the event is dropped.
func (e *Engine) Dispatch(event string, detail map[string]any) {
	if e.dispatcher != nil {
		e.dispatcher.Dispatch(event, detail)
	}
}

// Env returns a fresh evaluation context for the engine's store: the state
// tree, a get accessor, and the pure helper functions. Exposed for hosts
// that evaluate their own expressions against engine state.
func (e *Engine) Env() map[string]any {
	return evalEnv(e.store)
}

// warn logs a degradation warning and notifies the warning handler.
// Failures degrade to stale-but-present output, never to a crash, so
// warnings are the only signal most errors produce.
func (e *Engine) warn(format string, args ...any) {
	glog.Warningf(format, args...)
	if e.onWarning != nil {
		e.onWarning(fmt.Sprintf(format, args...))
	}
}

var placeholderPattern = regexp.MustCompile(`\{\{(.*?)\}\}`)

// defaultInterpolate substitutes {{expr}} placeholders through the engine's
// evaluator. A failing placeholder is left verbatim and warned about; the
// rest of the text still substitutes.
func (e *Engine) defaultInterpolate(text string, env map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(m string) string {
		inner := strings.TrimSpace(m[2 : len(m)-2])
		if inner == "" {
			return ""
		}
		v, err := e.eval.Evaluate(inner, env)
		if err != nil {
			e.warn("dombind: placeholder %q failed: %v", inner, err)
			return m
		}
		return stringify(v)
	})
}

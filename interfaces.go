package dombind

import "github.com/pthm/dombind/lib/dom"

// Evaluator is the injected expression-evaluation capability.
//
// The engine never executes expression text itself; every condition,
// computed value, loop source, and placeholder goes through this single
// boundary. Implementations may be a sandboxed interpreter, a safe AST
// evaluator, or a compiled expression cache. lib/expr provides the default.
//
// Evaluate receives a flat environment: the reactive context built by the
// engine (state tree, get, pure helpers) merged with any loop-local
// bindings. It must be synchronous; the engine neither awaits nor spawns.
// An error return (or a panic) is contained to the declaration being
// evaluated and surfaces as a logged warning.
type Evaluator interface {
	Evaluate(expression string, env map[string]any) (any, error)
}

// Dispatcher is the external command layer's event sink. Renderers never
// invoke commands directly; when the engine wants to announce something (a
// two-way binding committed a user edit, for example) it forwards the event
// here. A nil dispatcher drops events.
type Dispatcher interface {
	Dispatch(event string, detail map[string]any)
}

// Executor is the external command layer's generic execute capability.
// The engine stores and forwards it to hosts that route attribute-declared
// commands through the evaluation context; command semantics themselves are
// out of scope for this module.
type Executor interface {
	Execute(expression string, env map[string]any) (any, error)
}

// Strategy is one renderer: it scans a document for its declaration
// attribute, registers grouped store subscriptions, and performs an initial
// evaluation pass.
//
// Bind must be idempotent with respect to subscriptions: the engine always
// calls Unbind before rebinding, and a conforming strategy drops every
// stored unsubscribe function there, so enabling twice never duplicates
// subscriptions.
type Strategy interface {
	// Name identifies the strategy in logs and warnings.
	Name() string

	// Bind scans doc, subscribes, and runs the initial evaluation pass.
	Bind(doc *dom.Document)

	// Unbind removes every subscription the strategy holds.
	Unbind()
}

// Package dombind provides a declarative, attribute-driven reactive layer
// for interactive HTML documents: a path-addressed state store with
// wildcard publish/subscribe, a dependency extractor that derives
// subscription keys from free-form expressions, and a family of renderer
// strategies that keep declared regions of a live view tree synchronized
// with store mutations. Authors express reactive UI logic entirely through
// markup attributes instead of imperative update code.
//
// # Core Concepts
//
// A Store holds a nested state tree addressed by dotted paths. Writes
// notify subscribers synchronously: exact-path subscribers first, then
// wildcard subscribers ("user.*") along the ancestor chain. An Engine
// mounts a live document (a golang.org/x/net/html node tree), scans it for
// declaration attributes, and registers grouped subscriptions so that every
// relevant write re-evaluates exactly the declarations depending on it.
//
//	store := dombind.NewStore()
//	engine := dombind.NewEngine(store, expr.New())
//	doc, _ := dombind.ParseDocument(markup)
//	engine.Mount(doc)
//	engine.LoadDataBlocks()
//	engine.Enable()
//	store.Set("user.name", "Ada") // declared regions update synchronously
//
// # Declarations
//
// Five renderer strategies interpret markup attributes (default prefix
// "data-", configurable):
//
//   - data-computed + data-target: evaluate an expression, write the
//     stringified result into every selector match.
//   - data-if + data-else / data-if-group: boolean conditions toggling
//     visibility of a node and its else-branch.
//   - data-switch + data-case: grouped cases under the nearest switch
//     ancestor, with a "default" fallback.
//   - data-for / data-while / data-repeat: loops that re-instantiate their
//     captured template content, with {{expr}} placeholder substitution and
//     loop-local bindings.
//   - data-bind: two-way bindings between input-capable nodes and store
//     paths.
//
// Conditional and switch visibility is display suppression, never node
// removal, so hidden subtrees keep their internal state.
//
// # Expressions
//
// Expression evaluation is an injected capability behind the Evaluator
// interface; the engine never executes expression text itself. Dependencies
// are derived lexically from state.<path> tokens in the expression, which
// deliberately over-subscribes rather than risking a missed update.
// lib/expr ships a small sandboxed evaluator suitable for most hosts.
//
// # Error Handling
//
// Failures degrade to stale-but-present output: an evaluation error, shape
// error, or exceeded loop cap warns (glog plus the optional warning
// handler) and leaves the previous render untouched. No declaration's
// failure can affect a sibling declaration. Store misuse (malformed paths)
// is a silent no-op by contract.
//
// # Concurrency
//
// The execution model is single-threaded and cooperative: writes, change
// notifications, and re-evaluations all run to completion inside whatever
// task issued the originating Set. Nothing here spawns goroutines, and
// Store and Engine are not safe for concurrent use. Reset must never be
// called from inside a notify callback.
//
// # Design Rationale
//
// The system favors explicitness over magic:
//   - Explicit store and engine instances (no ambient global state)
//   - Explicit evaluation boundary (injected Evaluator, no dynamic code)
//   - Explicit rescanning (insertion observer, or Engine.Rescan)
//   - Explicit degradation (warnings, stale output, no crashes)
//
// This keeps multiple isolated engine/store pairs testable in one process
// while preserving the authoring model of attribute-driven reactivity.
package dombind

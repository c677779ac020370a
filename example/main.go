// Command example demonstrates dombind's attribute-driven reactivity on a
// small task-list document: a bulk-loaded JSON data block, a computed
// summary, a conditional empty-state, a for-each loop, and a two-way bound
// filter input. It applies a few store writes and prints the document after
// each, so the reactive updates are visible in the diff.
package main

import (
	"fmt"
	"log"

	"github.com/pthm/dombind"
	"github.com/pthm/dombind/lib/expr"
)

const page = `<!DOCTYPE html>
<html>
<head><title>Tasks</title></head>
<body>
  <script type="application/json" data-state="app">
    {"tasks": ["write spec", "review patch", "ship it"], "filter": ""}
  </script>

  <h1>Tasks (<span id="task-count" data-computed="count(state.app.tasks)"></span>)</h1>

  <p id="empty" data-if="count(state.app.tasks) == 0">Nothing to do.</p>
  <p data-else>Plenty to do.</p>

  <ul id="task-list" data-for="task, i in state.app.tasks">
    <li>{{index1}}. {{task}}{{isLast ? " (last)" : ""}}</li>
  </ul>

  <input id="filter" type="text" data-bind="app.filter" value="">
</body>
</html>`

func main() {
	store := dombind.NewStore()
	engine := dombind.NewEngine(store, expr.New())

	doc, err := dombind.ParseDocument(page)
	if err != nil {
		log.Fatal(err)
	}
	engine.Mount(doc)
	if err := engine.LoadDataBlocks(); err != nil {
		log.Fatal(err)
	}
	if err := engine.Enable(); err != nil {
		log.Fatal(err)
	}

	dump(doc, "initial render")

	store.Set("app.tasks", []any{"one last thing"})
	dump(doc, `after store.Set("app.tasks", [...1 item])`)

	store.Set("app.tasks", []any{})
	dump(doc, "after clearing tasks (conditional flips)")
}

func dump(doc interface{ HTML() (string, error) }, label string) {
	out, err := doc.HTML()
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("--- %s ---\n%s\n\n", label, out)
}

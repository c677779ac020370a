package dombind

import (
	"testing"

	"github.com/pthm/dombind/lib/dom"
	"golang.org/x/net/html"
)

func TestConditionalToggle(t *testing.T) {
	view, err := NewTestView(`
		<p id="yes" data-if="state.ok">yes</p>
		<p id="no" data-else>no</p>`)
	if err != nil {
		t.Fatal(err)
	}

	// nothing written yet: condition is falsy, else-branch shows
	if view.IsVisible("#yes") {
		t.Error("condition node visible before its path is truthy")
	}
	if !view.IsVisible("#no") {
		t.Error("else-branch hidden while condition is falsy")
	}

	view.Store.Set("ok", true)
	if !view.IsVisible("#yes") || view.IsVisible("#no") {
		t.Error("truthy write did not flip the pair")
	}

	view.Store.Set("ok", false)
	if view.IsVisible("#yes") || !view.IsVisible("#no") {
		t.Error("falsy write did not flip the pair back")
	}
}

func TestConditionalGroupElse(t *testing.T) {
	view, err := NewTestView(`
		<p id="a" data-if="state.ok" data-if-group="g1">A</p>
		<hr>
		<p id="b" data-else="g1">B</p>`)
	if err != nil {
		t.Fatal(err)
	}

	if view.IsVisible("#a") || !view.IsVisible("#b") {
		t.Error("group else-branch not resolved")
	}

	view.Store.Set("ok", 1.0)
	if !view.IsVisible("#a") || view.IsVisible("#b") {
		t.Error("group else-branch not hidden on truthy condition")
	}
}

func TestConditionalNeverRemovesNodes(t *testing.T) {
	view, err := NewTestView(`
		<div id="panel" data-if="state.show">
			<input id="field" value="draft text">
		</div>`)
	if err != nil {
		t.Fatal(err)
	}

	view.Store.Set("show", false)
	if view.IsVisible("#panel") {
		t.Fatal("panel still visible")
	}
	// hidden means display-suppressed, not detached: inner state survives
	if view.Query("#field") == nil {
		t.Fatal("hidden subtree was removed from the tree")
	}

	view.Store.Set("show", true)
	if got := dom.AttrValue(view.Query("#field"), "value"); got != "draft text" {
		t.Errorf("inner state lost across toggle: %q", got)
	}
}

func TestConditionalStateSubstitution(t *testing.T) {
	view, err := NewTestView(`
		<script type="application/json" data-state="cart">{"items": ["a", "b", "c"]}</script>
		<p id="full" data-if="count(state.cart.items) > 2">full</p>`)
	if err != nil {
		t.Fatal(err)
	}

	if !view.IsVisible("#full") {
		t.Error("condition over a JSON-substituted array did not hold")
	}

	view.Store.Set("cart.items", []any{"a"})
	if view.IsVisible("#full") {
		t.Error("condition did not re-evaluate after the array shrank")
	}
}

func TestConditionalHideModes(t *testing.T) {
	t.Run("style", func(t *testing.T) {
		view, err := NewTestView(`<p id="x" data-if="state.ok" style="color: red">x</p>`)
		if err != nil {
			t.Fatal(err)
		}
		style := dom.AttrValue(view.Query("#x"), "style")
		if !hasDisplayNone(style) {
			t.Errorf("style = %q, want display:none appended", style)
		}

		view.Store.Set("ok", true)
		style = dom.AttrValue(view.Query("#x"), "style")
		if hasDisplayNone(style) {
			t.Errorf("style = %q, display:none not removed", style)
		}
		// unrelated declarations survive both transitions
		if view.Query("#x") == nil || dom.AttrValue(view.Query("#x"), "style") == "" {
			t.Error("pre-existing style lost")
		}
	})

	t.Run("attribute", func(t *testing.T) {
		view, err := NewTestView(`<p id="x" data-if="state.ok">x</p>`, WithHideMode(HideAttribute))
		if err != nil {
			t.Fatal(err)
		}
		if !dom.HasAttr(view.Query("#x"), "hidden") {
			t.Error("hidden attribute not set")
		}
		view.Store.Set("ok", true)
		if dom.HasAttr(view.Query("#x"), "hidden") {
			t.Error("hidden attribute not removed")
		}
	})
}

func TestConditionalFailureKeepsVisibility(t *testing.T) {
	view, err := NewTestView(`
		<script type="application/json" data-state="m">{"ok": true, "n": 1}</script>
		<p id="x" data-if="state.m.ok && state.m.n - 'oops' > 0">x</p>`)
	if err != nil {
		t.Fatal(err)
	}

	// the expression errors on every evaluation; visibility stays untouched
	if !view.IsVisible("#x") {
		t.Error("failed condition changed visibility")
	}
	if !view.HasWarning("keeping previous visibility") {
		t.Errorf("no degradation warning recorded: %v", view.Warnings)
	}
}

func TestConditionalRescanOnInsert(t *testing.T) {
	view, err := NewTestView(`<div id="host"></div>`)
	if err != nil {
		t.Fatal(err)
	}

	late := &html.Node{Type: html.ElementNode, Data: "p"}
	dom.SetAttr(late, "id", "late")
	dom.SetAttr(late, "data-if", "state.flag")
	late.AppendChild(&html.Node{Type: html.TextNode, Data: "late"})

	view.Doc.Append(view.Query("#host"), late)

	// the insertion observer rebinds conditionals; the new node is live
	if view.IsVisible("#late") {
		t.Error("inserted node not evaluated on insert")
	}
	view.Store.Set("flag", true)
	if !view.IsVisible("#late") {
		t.Error("inserted node not reacting to store writes")
	}
}

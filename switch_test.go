package dombind

import "testing"

func TestSwitchSelectsMatchingCase(t *testing.T) {
	view, err := NewTestView(`
		<div data-switch="state.status">
			<span id="active" data-case="active">running</span>
			<span id="done" data-case="done">finished</span>
			<span id="fallback" data-case="default">unknown</span>
		</div>`)
	if err != nil {
		t.Fatal(err)
	}

	// no status yet: nothing matches, the default case shows
	if view.IsVisible("#active") || view.IsVisible("#done") {
		t.Error("a case is visible with no matching value")
	}
	if !view.IsVisible("#fallback") {
		t.Error("default case hidden with no match")
	}

	view.Store.Set("status", "active")
	if !view.IsVisible("#active") {
		t.Error("matching case not shown")
	}
	if view.IsVisible("#done") || view.IsVisible("#fallback") {
		t.Error("non-matching cases still visible")
	}

	view.Store.Set("status", "archived")
	if view.IsVisible("#active") || view.IsVisible("#done") {
		t.Error("stale case visible after value changed")
	}
	if !view.IsVisible("#fallback") {
		t.Error("default case hidden after match lost")
	}
}

func TestSwitchMatchesStringifiedValue(t *testing.T) {
	view, err := NewTestView(`
		<div data-switch="state.step">
			<span id="one" data-case="1">one</span>
			<span id="two" data-case="2">two</span>
		</div>`)
	if err != nil {
		t.Fatal(err)
	}

	// numeric values match on their string form, without a ".0" suffix
	view.Store.Set("step", 2.0)
	if view.IsVisible("#one") || !view.IsVisible("#two") {
		t.Error("numeric switch value did not match its case")
	}
}

func TestSwitchNearestAncestorWins(t *testing.T) {
	view, err := NewTestView(`
		<div data-switch="state.outer">
			<span id="o" data-case="x">outer case</span>
			<div data-switch="state.inner">
				<span id="i" data-case="x">inner case</span>
			</div>
		</div>`)
	if err != nil {
		t.Fatal(err)
	}

	view.Store.Set("outer", "x")
	if !view.IsVisible("#o") {
		t.Error("outer case not bound to outer switch")
	}
	// the inner case belongs to the inner switch, not the outer one
	if view.IsVisible("#i") {
		t.Error("inner case matched the outer switch value")
	}

	view.Store.Set("inner", "x")
	if !view.IsVisible("#i") {
		t.Error("inner case not bound to inner switch")
	}
}

func TestSwitchOrphanCaseWarns(t *testing.T) {
	view, err := NewTestView(`<span id="stray" data-case="x">stray</span>`)
	if err != nil {
		t.Fatal(err)
	}
	if !view.HasWarning("no switch ancestor") {
		t.Errorf("orphan case produced no warning: %v", view.Warnings)
	}
	// a skipped case is never touched
	if !view.IsVisible("#stray") {
		t.Error("orphan case was hidden")
	}
}

package dombind

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestForEachRendersAndRegenerates(t *testing.T) {
	view, err := NewTestView(`
		<script type="application/json" data-state="todo">{"items": ["wash", "dry", "fold"]}</script>
		<ul id="l" data-for="task in state.todo.items"><li>{{index1}}. {{task}}</li></ul>`)
	if err != nil {
		t.Fatal(err)
	}

	if got := view.InstanceCount("#l"); got != 3 {
		t.Fatalf("rendered %d instances, want 3", got)
	}
	want := []string{"1. wash", "2. dry", "3. fold"}
	if diff := cmp.Diff(want, view.Texts("li")); diff != "" {
		t.Errorf("rendered texts mismatch (-want +got):\n%s", diff)
	}

	// output is regenerated wholesale, never appended to
	view.Store.Set("todo.items", []any{"iron"})
	if got := view.InstanceCount("#l"); got != 1 {
		t.Errorf("after shrink: %d instances, want 1", got)
	}
	if diff := cmp.Diff([]string{"1. iron"}, view.Texts("li")); diff != "" {
		t.Errorf("after shrink mismatch (-want +got):\n%s", diff)
	}
}

func TestForEachLoopLocals(t *testing.T) {
	view, err := NewTestView(`
		<script type="application/json" data-state="m">{"xs": ["a", "b", "c"]}</script>
		<ul id="l" data-for="x, i in state.m.xs"><li>{{x}}:{{i}}{{isFirst ? ' first' : ''}}{{isLast ? ' last' : ''}}</li></ul>`)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"a:0 first", "b:1", "c:2 last"}
	if diff := cmp.Diff(want, view.Texts("li")); diff != "" {
		t.Errorf("loop locals mismatch (-want +got):\n%s", diff)
	}
}

func TestForEachNonArrayKeepsOutput(t *testing.T) {
	view, err := NewTestView(`
		<script type="application/json" data-state="m">{"xs": ["a", "b"]}</script>
		<ul id="l" data-for="x in state.m.xs"><li>{{x}}</li></ul>`)
	if err != nil {
		t.Fatal(err)
	}
	if got := view.InstanceCount("#l"); got != 2 {
		t.Fatalf("rendered %d instances, want 2", got)
	}

	view.Store.Set("m.xs", "not a list")

	if got := view.InstanceCount("#l"); got != 2 {
		t.Errorf("shape error regenerated output: %d instances", got)
	}
	if !view.HasWarning("did not yield an array") {
		t.Errorf("no shape warning recorded: %v", view.Warnings)
	}
}

func TestForEachMalformedDeclaration(t *testing.T) {
	view, err := NewTestView(`<ul id="l" data-for="state.m.xs"><li>x</li></ul>`)
	if err != nil {
		t.Fatal(err)
	}
	if !view.HasWarning(`missing " in "`) {
		t.Errorf("malformed for-each produced no warning: %v", view.Warnings)
	}
	if got := view.InstanceCount("#l"); got != 0 {
		t.Errorf("malformed declaration rendered %d instances", got)
	}
}

func TestWhileCapTruncates(t *testing.T) {
	view, err := NewTestView(
		`<div id="w" data-while="iteration < 100"><i>{{iteration}}</i></div>`,
		WithLoopCap(5))
	if err != nil {
		t.Fatal(err)
	}

	if got := view.InstanceCount("#w"); got != 5 {
		t.Errorf("rendered %d instances, want the 5 cap", got)
	}
	if !view.HasWarning("iteration cap") {
		t.Errorf("cap breach produced no warning: %v", view.Warnings)
	}
}

func TestWhileStopsWhenFalsy(t *testing.T) {
	view, err := NewTestView(`<div id="w" data-while="iteration < 3"><i>{{iteration}}</i></div>`)
	if err != nil {
		t.Fatal(err)
	}
	if got := view.InstanceCount("#w"); got != 3 {
		t.Errorf("rendered %d instances, want 3", got)
	}
	if diff := cmp.Diff([]string{"0", "1", "2"}, view.Texts("i")); diff != "" {
		t.Errorf("iteration values mismatch (-want +got):\n%s", diff)
	}
	if view.WarningCount() != 0 {
		t.Errorf("bounded while warned: %v", view.Warnings)
	}
}

func TestRepeat(t *testing.T) {
	view, err := NewTestView(`
		<script type="application/json" data-state="m">{"n": 3}</script>
		<div id="r" data-repeat="state.m.n"><b>{{index}}</b></div>`,
		WithLoopCap(5))
	if err != nil {
		t.Fatal(err)
	}

	if got := view.InstanceCount("#r"); got != 3 {
		t.Fatalf("rendered %d instances, want 3", got)
	}

	// negative counts clamp to zero
	view.Store.Set("m.n", -2.0)
	if got := view.InstanceCount("#r"); got != 0 {
		t.Errorf("negative count rendered %d instances", got)
	}

	// oversized counts clamp to the cap, with a warning
	view.Store.Set("m.n", 99.0)
	if got := view.InstanceCount("#r"); got != 5 {
		t.Errorf("oversized count rendered %d instances, want 5", got)
	}
	if !view.HasWarning("clamped") {
		t.Errorf("clamp produced no warning: %v", view.Warnings)
	}
}

func TestLoopFormsAreExclusive(t *testing.T) {
	view, err := NewTestView(`<div id="l" data-for="x in state.xs" data-repeat="3"><b>x</b></div>`)
	if err != nil {
		t.Fatal(err)
	}
	if !view.HasWarning("multiple loop forms") {
		t.Errorf("conflicting loop forms produced no warning: %v", view.Warnings)
	}
	if got := view.InstanceCount("#l"); got != 0 {
		t.Errorf("skipped declaration rendered %d instances", got)
	}
}

func TestLoopTemplateSurvivesRescan(t *testing.T) {
	view, err := NewTestView(`
		<script type="application/json" data-state="m">{"xs": ["a", "b"]}</script>
		<ul id="l" data-for="x in state.m.xs"><li>{{x}}</li></ul>`)
	if err != nil {
		t.Fatal(err)
	}
	if got := view.InstanceCount("#l"); got != 2 {
		t.Fatalf("rendered %d instances, want 2", got)
	}

	// a rescan must not capture rendered instances as the new template
	view.Engine.Rescan()
	view.Store.Set("m.xs", []any{"z"})

	if got := view.InstanceCount("#l"); got != 1 {
		t.Errorf("after rescan: %d instances, want 1", got)
	}
	if diff := cmp.Diff([]string{"z"}, view.Texts("li")); diff != "" {
		t.Errorf("after rescan mismatch (-want +got):\n%s", diff)
	}
}

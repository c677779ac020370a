package dombind

import (
	"testing"

	"golang.org/x/net/html"

	"github.com/pthm/dombind/lib/dom"
)

func elementWithStyle(style string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: "div"}
	if style != "" {
		dom.SetAttr(n, "style", style)
	}
	return n
}

func TestHideStylePreservesExistingDeclarations(t *testing.T) {
	tests := []struct {
		name      string
		style     string
		wantShown string
	}{
		{"no style", "", ""},
		{"single declaration", "color: red", "color: red"},
		{"trailing semicolon", "color: red;", "color: red"},
		{"multiple declarations", "color: red; margin: 0", "color: red;margin: 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := elementWithStyle(tt.style)

			hideNode(n, HideStyle)
			if !isHidden(n, HideStyle) {
				t.Fatalf("node not hidden, style = %q", dom.AttrValue(n, "style"))
			}

			showNode(n, HideStyle)
			if isHidden(n, HideStyle) {
				t.Fatalf("node still hidden, style = %q", dom.AttrValue(n, "style"))
			}
			if got := dom.AttrValue(n, "style"); got != tt.wantShown {
				t.Errorf("style after show = %q, want %q", got, tt.wantShown)
			}
		})
	}
}

func TestHideStyleIdempotent(t *testing.T) {
	n := elementWithStyle("")
	hideNode(n, HideStyle)
	hideNode(n, HideStyle)
	if got := dom.AttrValue(n, "style"); got != displayNone {
		t.Errorf("double hide stacked declarations: %q", got)
	}
}

func TestHideRecognizesHandWrittenDisplayNone(t *testing.T) {
	// authors write the declaration with varying spacing and case
	for _, style := range []string{"display:none", "display: none", "DISPLAY : NONE;"} {
		n := elementWithStyle(style)
		if !isHidden(n, HideStyle) {
			t.Errorf("style %q not recognized as hidden", style)
		}
		showNode(n, HideStyle)
		if isHidden(n, HideStyle) {
			t.Errorf("style %q not removable", style)
		}
	}
}

func TestHideAttributeMode(t *testing.T) {
	n := elementWithStyle("color: red")

	hideNode(n, HideAttribute)
	if !dom.HasAttr(n, "hidden") {
		t.Fatal("hidden attribute not set")
	}
	// attribute mode never touches inline style
	if got := dom.AttrValue(n, "style"); got != "color: red" {
		t.Errorf("style mutated in attribute mode: %q", got)
	}

	showNode(n, HideAttribute)
	if dom.HasAttr(n, "hidden") {
		t.Error("hidden attribute not removed")
	}
}

func TestHideNilNodeIsNoOp(t *testing.T) {
	hideNode(nil, HideStyle)
	showNode(nil, HideAttribute)
	if isHidden(nil, HideStyle) {
		t.Error("nil node reported hidden")
	}
}

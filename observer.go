package dombind

import (
	"github.com/pthm/dombind/lib/dom"
	"golang.org/x/net/html"
)

// Observer is the declaration-rescan registry. It decouples "new markup
// appeared" from "how we noticed": dom.Document insertion hooks feed it
// automatically, and hosts mutating the tree by other means can call
// NodeInserted (or Engine.Rescan) themselves.
//
// Each registration names the declaration attributes it cares about; an
// inserted subtree triggers a registration only when it contains at least
// one of them, so unrelated insertions (loop instances without conditions,
// plain text) cost a subtree scan and nothing else.
type Observer struct {
	watches []watch
}

type watch struct {
	attrs  []string
	rescan func()
}

// NewObserver creates an empty observer.
func NewObserver() *Observer {
	return &Observer{}
}

// Register adds a rescan trigger for subtrees containing any of the given
// declaration attributes.
func (o *Observer) Register(rescan func(), attrs ...string) {
	o.watches = append(o.watches, watch{attrs: attrs, rescan: rescan})
}

// NodeInserted inspects an inserted subtree and fires every matching
// rescan trigger, at most once each per insertion.
func (o *Observer) NodeInserted(n *html.Node) {
	for _, w := range o.watches {
		if subtreeHasAnyAttr(n, w.attrs) {
			w.rescan()
		}
	}
}

func subtreeHasAnyAttr(n *html.Node, attrs []string) bool {
	found := false
	dom.Walk(n, func(node *html.Node) {
		if found || node.Type != html.ElementNode {
			return
		}
		for _, a := range attrs {
			if dom.HasAttr(node, a) {
				found = true
				return
			}
		}
	})
	return found
}

package dombind

import "github.com/golang/glog"

// bindingSet is the shared scan → group-by-dependency → subscribe →
// re-evaluate pipeline behind every renderer strategy. A strategy owns one
// bindingSet; rebinding always drops the previous subscriptions first, so
// repeated Bind calls never duplicate work.
type bindingSet struct {
	store  *Store
	warn   func(format string, args ...any)
	unsubs []func()
}

func newBindingSet(store *Store, warn func(format string, args ...any)) *bindingSet {
	if warn == nil {
		warn = glog.Warningf
	}
	return &bindingSet{store: store, warn: warn}
}

// clear removes every subscription this set holds.
func (b *bindingSet) clear() {
	for _, unsub := range b.unsubs {
		unsub()
	}
	b.unsubs = nil
}

// bindDeclarations wires a strategy's declarations into the store: it
// groups declarations by dependency path, subscribes once per unique path
// with a callback that re-evaluates every declaration in that group, and
// runs one immediate evaluation pass so the initial render does not require
// a store write.
//
// apply runs inside a protected frame: a panicking evaluator (or renderer
// bug) is contained to the declaration that triggered it and logged, never
// propagated to sibling declarations or back through Set.
func bindDeclarations[D any](b *bindingSet, strategy string, decls []D, depsOf func(D) []string, apply func(D)) {
	run := func(d D) {
		defer func() {
			if r := recover(); r != nil {
				b.warn("dombind: %s declaration panicked: %v", strategy, r)
			}
		}()
		apply(d)
	}

	groups := make(map[string][]D)
	var order []string
	for _, d := range decls {
		for _, dep := range depsOf(d) {
			if _, seen := groups[dep]; !seen {
				order = append(order, dep)
			}
			groups[dep] = append(groups[dep], d)
		}
	}

	for _, dep := range order {
		group := groups[dep]
		unsub := b.store.Subscribe(dep, func(path string, value, old any) {
			glog.V(2).Infof("dombind: %s re-evaluating %d declaration(s) for %s", strategy, len(group), path)
			for _, d := range group {
				run(d)
			}
		})
		b.unsubs = append(b.unsubs, unsub)
	}

	for _, d := range decls {
		run(d)
	}
}
